package scene

import "github.com/Faultbox/webray-editor/pkg/math"

// ItemFactory builds the default-valued element appended by AddListItem.
// The editor backs it with the UI schema's data type defaults.
type ItemFactory interface {
	NewObject() (Object, error)
	NewMaterial() (Material, error)
}

type builtinFactory struct{}

func (builtinFactory) NewObject() (Object, error) {
	return Object{
		Name:       "sphere",
		MaterialID: 1,
		Shape:      &Sphere{Position: math.V3(0, 0, -1), Radius: 0.5},
	}, nil
}

func (builtinFactory) NewMaterial() (Material, error) {
	return Material{
		Name: "material",
		Type: &Diffuse{Color: math.V3(0.5, 0.5, 0.5)},
	}, nil
}

// Default returns the scene the editor starts with when no seed file is given:
// a ground sphere, a hollow glass sphere, and a diffuse and a metal sphere.
func Default() *Scene {
	return &Scene{
		Objects: []Object{
			{ID: 1, Name: "ground", MaterialID: 1, Shape: &Sphere{Position: math.V3(0, -100.5, -1), Radius: 100}},
			{ID: 2, Name: "left_outer", MaterialID: 4, Shape: &Sphere{Position: math.V3(-1, 0, -1), Radius: 0.5}},
			{ID: 3, Name: "left_inner", MaterialID: 4, Shape: &Sphere{Position: math.V3(-1, 0, -1), Radius: -0.4}},
			{ID: 4, Name: "center", MaterialID: 2, Shape: &Sphere{Position: math.V3(0, 0, -1), Radius: 0.5}},
			{ID: 5, Name: "right", MaterialID: 3, Shape: &Sphere{Position: math.V3(1, 0, -1), Radius: 0.5}},
		},
		Materials: []Material{
			{ID: 1, Name: "ground", Type: &Diffuse{Color: math.V3(0.8, 0.8, 0)}},
			{ID: 2, Name: "diffuse", Type: &Diffuse{Color: math.V3(0.1, 0.2, 0.5)}},
			{ID: 3, Name: "metal", Type: &Metal{Color: math.V3(0.8, 0.6, 0.2), Roughness: 0.1}},
			{ID: 4, Name: "dielectric", Type: &Dielectric{IOR: 1.5}},
		},
		Camera: &Camera{
			LookFrom:    math.V3(-2, 2, 1),
			LookAt:      math.V3(0, 0, -1),
			VUp:         math.V3(0, 1, 0),
			VFov:        20,
			DofAngle:    0.6,
			DofDistance: 3.4,
		},
		RenderSettings: &RenderSettings{
			Width:    1920,
			Height:   1080,
			Samples:  128,
			Bounces:  32,
			TileSize: &TileFull{},
		},
	}
}
