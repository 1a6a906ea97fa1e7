// Package scene holds the editor's scene document: the objects, materials,
// camera and render settings handed to the render engine, and the Store that
// owns the live document and publishes every change.
package scene

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/Faultbox/webray-editor/pkg/math"
)

// Scene is the root document. Its JSON form is the scene file format.
type Scene struct {
	Objects        []Object        `json:"objects"`
	Materials      []Material      `json:"materials"`
	Camera         *Camera         `json:"camera"`
	RenderSettings *RenderSettings `json:"render_settings"`
}

// Object is a renderable shape. MaterialID refers to Material.ID; dangling
// references are kept as-is.
type Object struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	MaterialID int    `json:"material_id"`
	Shape      Shape  `json:"type"`
}

// Material is a named surface description.
type Material struct {
	ID   int          `json:"id"`
	Name string       `json:"name"`
	Type MaterialType `json:"type"`
}

// Camera describes the view. All values are plain numbers with no identity.
type Camera struct {
	LookFrom    math.Vec3 `json:"look_from"`
	LookAt      math.Vec3 `json:"look_at"`
	VUp         math.Vec3 `json:"v_up"`
	VFov        float32   `json:"v_fov"`
	DofAngle    float32   `json:"dof_angle"`
	DofDistance float32   `json:"dof_distance"`
}

// Degenerate reports whether the camera basis cannot be built: the look
// direction is zero or parallel to the up vector.
func (c *Camera) Degenerate() bool {
	w := c.LookFrom.Sub(c.LookAt)
	if w.IsZero() {
		return true
	}
	return c.VUp.Cross(w).IsZero()
}

// RenderSettings controls the output image and sampling.
type RenderSettings struct {
	Width    uint32   `json:"width"`
	Height   uint32   `json:"height"`
	Samples  uint32   `json:"samples"`
	Bounces  uint32   `json:"bounces"`
	TileSize TileSize `json:"tile_size"`
}

// Collection names a top-level field of Scene.
type Collection string

const (
	Objects                  Collection = "objects"
	Materials                Collection = "materials"
	CameraCollection         Collection = "camera"
	RenderSettingsCollection Collection = "render_settings"
)

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrNotList           = errors.New("collection is not a list")
)

// ParseCollection validates a collection name.
func ParseCollection(name string) (Collection, error) {
	switch c := Collection(name); c {
	case Objects, Materials, CameraCollection, RenderSettingsCollection:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCollection, name)
}

// IsList reports whether members of the collection carry ids.
func (c Collection) IsList() bool {
	return c == Objects || c == Materials
}

// Type returns the static Go type of the collection's field.
func (c Collection) Type() reflect.Type {
	switch c {
	case Objects:
		return reflect.TypeOf([]Object(nil))
	case Materials:
		return reflect.TypeOf([]Material(nil))
	case CameraCollection:
		return reflect.TypeOf((*Camera)(nil))
	case RenderSettingsCollection:
		return reflect.TypeOf((*RenderSettings)(nil))
	}
	return nil
}

// ElemType returns the element type of a list collection, or nil.
func (c Collection) ElemType() reflect.Type {
	if !c.IsList() {
		return nil
	}
	return c.Type().Elem()
}

// Field returns the value stored under c. Lists are returned as slices that
// share their backing array with s, so element writes land in s.
func (s *Scene) Field(c Collection) any {
	switch c {
	case Objects:
		return s.Objects
	case Materials:
		return s.Materials
	case CameraCollection:
		return s.Camera
	case RenderSettingsCollection:
		return s.RenderSettings
	}
	return nil
}

// Len returns the number of members of a list collection.
func (s *Scene) Len(c Collection) int {
	switch c {
	case Objects:
		return len(s.Objects)
	case Materials:
		return len(s.Materials)
	}
	return 0
}

// shallowCopy copies the root only; slices, camera and settings are shared.
func (s *Scene) shallowCopy() *Scene {
	next := *s
	return &next
}

// Clone returns a deep copy that shares nothing with s.
func (s *Scene) Clone() *Scene {
	if s == nil {
		return nil
	}
	out := &Scene{
		Objects:   make([]Object, len(s.Objects)),
		Materials: make([]Material, len(s.Materials)),
	}
	for i, o := range s.Objects {
		o.Shape = cloneShape(o.Shape)
		out.Objects[i] = o
	}
	for i, m := range s.Materials {
		m.Type = cloneMaterialType(m.Type)
		out.Materials[i] = m
	}
	if s.Camera != nil {
		c := *s.Camera
		out.Camera = &c
	}
	if s.RenderSettings != nil {
		r := *s.RenderSettings
		r.TileSize = cloneTileSize(r.TileSize)
		out.RenderSettings = &r
	}
	return out
}

// ObjectByID returns the first object with the given id.
func (s *Scene) ObjectByID(id int) (*Object, bool) {
	if i := indexByID(s.Objects, id, func(o Object) int { return o.ID }); i >= 0 {
		return &s.Objects[i], true
	}
	return nil, false
}

// MaterialByID returns the first material with the given id.
func (s *Scene) MaterialByID(id int) (*Material, bool) {
	if i := indexByID(s.Materials, id, func(m Material) int { return m.ID }); i >= 0 {
		return &s.Materials[i], true
	}
	return nil, false
}

func indexByID[T any](list []T, id int, key func(T) int) int {
	for i, el := range list {
		if key(el) == id {
			return i
		}
	}
	return -1
}

// without returns a fresh slice with element i dropped, leaving list intact
// for earlier published documents that still reference it.
func without[T any](list []T, i int) []T {
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}
