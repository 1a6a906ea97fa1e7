package binding

import (
	"go.uber.org/zap"

	"github.com/Faultbox/webray-editor/internal/scene"
	"github.com/Faultbox/webray-editor/pkg/pathx"
)

// Resolver turns binding paths into Fields on one store.
type Resolver struct {
	store *scene.Store
	log   *zap.Logger
}

// NewResolver creates a resolver for store. A nil logger disables logging.
func NewResolver(store *scene.Store, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, log: log}
}

// Store returns the document the resolver binds to.
func (r *Resolver) Store() *scene.Store { return r.store }

// Resolve parses and validates path and property and returns a live field.
// The property is checked against the collection's Go type up to the first
// variant (interface) field.
func (r *Resolver) Resolve(path, property string) (*Field, error) {
	bp, err := ParsePath(path)
	if err != nil {
		r.log.Error("bind path not defined", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	prop, err := pathx.Parse(property, pathx.DefaultSeparator)
	if err != nil {
		return nil, r.fail(path, property, "malformed property", err)
	}

	// List elements are addressed by id so a binding stays on its element
	// when earlier ones are removed.
	if bp.Collection.IsList() && !bp.HasID {
		return nil, r.fail(path, property, "list binding needs an id selector", nil)
	}

	typ := bp.Collection.Type()
	if bp.HasID {
		typ = bp.Collection.ElemType()
	}
	if err := pathx.Check(typ, prop); err != nil {
		return nil, r.fail(path, property, "property not defined", err)
	}

	return &Field{
		store:    r.store,
		path:     bp,
		property: prop,
		log:      r.log,
	}, nil
}

func (r *Resolver) fail(path, property, reason string, err error) error {
	r.log.Error("bind property not defined",
		zap.String("path", path),
		zap.String("property", property),
		zap.Error(err),
	)
	return &BindPathError{Path: path, Property: property, Reason: reason, Err: err}
}
