package scene

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/Faultbox/webray-editor/pkg/math"
	"github.com/Faultbox/webray-editor/pkg/pathx"
)

// Variant tags, shared with the UI schema's data type ids and the engine.
const (
	ShapeSphere = "d_sphere"

	MaterialDiffuse    = "d_mat_diffuse"
	MaterialMetal      = "d_mat_metal"
	MaterialDielectric = "d_mat_dielectric"

	TileSizeFull  = "d_tile_size_full"
	TileSizeTiled = "d_tile_size"
)

// Shape is the geometry of an Object. Implemented only in this package.
type Shape interface {
	Kind() string
	isShape()
}

// Sphere is a sphere. A negative radius marks an inverted (hollow) sphere for
// the engine and is stored unchanged.
type Sphere struct {
	Position math.Vec3 `json:"position"`
	Radius   float32   `json:"radius"`
}

func (*Sphere) Kind() string { return ShapeSphere }
func (*Sphere) isShape()     {}

func (s *Sphere) MarshalJSON() ([]byte, error) {
	type plain Sphere
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{ShapeSphere, plain(*s)})
}

// MaterialType is the surface model of a Material. Implemented only in this package.
type MaterialType interface {
	Kind() string
	isMaterialType()
}

// Diffuse is a lambertian surface.
type Diffuse struct {
	Color math.Vec3 `json:"color"`
}

// Metal is a reflective surface. Roughness is nominally in [0,1] but not clamped.
type Metal struct {
	Color     math.Vec3 `json:"color"`
	Roughness float32   `json:"roughness"`
}

// Dielectric is a refractive surface.
type Dielectric struct {
	IOR float32 `json:"ior"`
}

func (*Diffuse) Kind() string    { return MaterialDiffuse }
func (*Metal) Kind() string      { return MaterialMetal }
func (*Dielectric) Kind() string { return MaterialDielectric }

func (*Diffuse) isMaterialType()    {}
func (*Metal) isMaterialType()      {}
func (*Dielectric) isMaterialType() {}

func (d *Diffuse) MarshalJSON() ([]byte, error) {
	type plain Diffuse
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{MaterialDiffuse, plain(*d)})
}

func (m *Metal) MarshalJSON() ([]byte, error) {
	type plain Metal
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{MaterialMetal, plain(*m)})
}

func (d *Dielectric) MarshalJSON() ([]byte, error) {
	type plain Dielectric
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{MaterialDielectric, plain(*d)})
}

// TileSize selects how the engine partitions the image. Implemented only in this package.
type TileSize interface {
	Kind() string
	isTileSize()
}

// TileFull renders the whole image in one pass.
type TileFull struct{}

// Tile renders square tiles of Size pixels.
type Tile struct {
	Size uint32 `json:"size"`
}

func (*TileFull) Kind() string { return TileSizeFull }
func (*Tile) Kind() string     { return TileSizeTiled }

func (*TileFull) isTileSize() {}
func (*Tile) isTileSize()     {}

func (*TileFull) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
	}{TileSizeFull})
}

func (t *Tile) MarshalJSON() ([]byte, error) {
	type plain Tile
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TileSizeTiled, plain(*t)})
}

// VariantError reports a variant tag that is missing or not known.
type VariantError struct {
	Family string
	Tag    string
}

func (e *VariantError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("scene: %s variant has no type tag", e.Family)
	}
	return fmt.Sprintf("scene: unknown %s variant %q", e.Family, e.Tag)
}

func variantTag(data []byte) (string, error) {
	if len(data) == 0 || string(data) == "null" {
		return "", nil
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", err
	}
	return head.Type, nil
}

// DecodeShape decodes a tagged shape.
func DecodeShape(data []byte) (Shape, error) {
	tag, err := variantTag(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case ShapeSphere:
		s := &Sphere{}
		return s, json.Unmarshal(data, s)
	}
	return nil, &VariantError{Family: "shape", Tag: tag}
}

// DecodeMaterialType decodes a tagged material.
func DecodeMaterialType(data []byte) (MaterialType, error) {
	tag, err := variantTag(data)
	if err != nil {
		return nil, err
	}
	var m MaterialType
	switch tag {
	case MaterialDiffuse:
		m = &Diffuse{}
	case MaterialMetal:
		m = &Metal{}
	case MaterialDielectric:
		m = &Dielectric{}
	default:
		return nil, &VariantError{Family: "material", Tag: tag}
	}
	return m, json.Unmarshal(data, m)
}

// DecodeTileSize decodes a tagged tile size.
func DecodeTileSize(data []byte) (TileSize, error) {
	tag, err := variantTag(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case TileSizeFull:
		return &TileFull{}, nil
	case TileSizeTiled:
		t := &Tile{}
		return t, json.Unmarshal(data, t)
	}
	return nil, &VariantError{Family: "tile size", Tag: tag}
}

func (o *Object) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         int             `json:"id"`
		Name       string          `json:"name"`
		MaterialID int             `json:"material_id"`
		Type       json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	shape, err := DecodeShape(raw.Type)
	if err != nil {
		return fmt.Errorf("object %d: %w", raw.ID, err)
	}
	*o = Object{ID: raw.ID, Name: raw.Name, MaterialID: raw.MaterialID, Shape: shape}
	return nil
}

func (m *Material) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   int             `json:"id"`
		Name string          `json:"name"`
		Type json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	typ, err := DecodeMaterialType(raw.Type)
	if err != nil {
		return fmt.Errorf("material %d: %w", raw.ID, err)
	}
	*m = Material{ID: raw.ID, Name: raw.Name, Type: typ}
	return nil
}

func (r *RenderSettings) UnmarshalJSON(data []byte) error {
	var raw struct {
		Width    uint32          `json:"width"`
		Height   uint32          `json:"height"`
		Samples  uint32          `json:"samples"`
		Bounces  uint32          `json:"bounces"`
		TileSize json.RawMessage `json:"tile_size"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := DecodeTileSize(raw.TileSize)
	if err != nil {
		return fmt.Errorf("render settings: %w", err)
	}
	*r = RenderSettings{
		Width:    raw.Width,
		Height:   raw.Height,
		Samples:  raw.Samples,
		Bounces:  raw.Bounces,
		TileSize: ts,
	}
	return nil
}

func cloneShape(s Shape) Shape {
	switch v := s.(type) {
	case nil:
		return nil
	case *Sphere:
		c := *v
		return &c
	}
	panic(fmt.Sprintf("scene: unhandled shape %T", s))
}

func cloneMaterialType(m MaterialType) MaterialType {
	switch v := m.(type) {
	case nil:
		return nil
	case *Diffuse:
		c := *v
		return &c
	case *Metal:
		c := *v
		return &c
	case *Dielectric:
		c := *v
		return &c
	}
	panic(fmt.Sprintf("scene: unhandled material %T", m))
}

func cloneTileSize(t TileSize) TileSize {
	switch v := t.(type) {
	case nil:
		return nil
	case *TileFull:
		return &TileFull{}
	case *Tile:
		c := *v
		return &c
	}
	panic(fmt.Sprintf("scene: unhandled tile size %T", t))
}

// Binding writes that replace a whole variant (for example switching a
// material from diffuse to metal) arrive as decoded JSON objects.
func init() {
	pathx.RegisterDecoder(reflect.TypeOf((*Shape)(nil)).Elem(), func(data []byte) (any, error) {
		return DecodeShape(data)
	})
	pathx.RegisterDecoder(reflect.TypeOf((*MaterialType)(nil)).Elem(), func(data []byte) (any, error) {
		return DecodeMaterialType(data)
	})
	pathx.RegisterDecoder(reflect.TypeOf((*TileSize)(nil)).Elem(), func(data []byte) (any, error) {
		return DecodeTileSize(data)
	})
}
