package schema

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/Faultbox/webray-editor/internal/scene"
)

// DefaultObj builds a default instance of data type id. Select properties
// hold a default instance of their initial variant, tagged with a "type"
// field naming it. Every call returns fresh values.
func (s *Schema) DefaultObj(id string) (map[string]any, error) {
	return s.defaultObj(id, nil)
}

func (s *Schema) defaultObj(id string, seen []string) (map[string]any, error) {
	if slices.Contains(seen, id) {
		return nil, fmt.Errorf("data type %s: recursive select", id)
	}
	dt, ok := s.desc.DataTypes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataType, id)
	}

	obj := make(map[string]any, len(dt.Properties))
	for _, p := range dt.Properties {
		if p.Type == PropertySelect {
			initial, err := selectInitial(p)
			if err != nil {
				return nil, err
			}
			nested, err := s.defaultObj(initial, append(seen, id))
			if err != nil {
				return nil, err
			}
			nested["type"] = initial
			obj[p.Name] = nested
			continue
		}

		var v any
		if len(p.Initial) > 0 {
			if err := json.Unmarshal(p.Initial, &v); err != nil {
				return nil, fmt.Errorf("data type %s.%s: %w", id, p.Name, err)
			}
		}
		obj[p.Name] = v
	}
	return obj, nil
}

// ItemFactory returns a factory that builds new list items from the
// descriptor's defaults.
func (s *Schema) ItemFactory() scene.ItemFactory {
	return factory{s}
}

type factory struct{ s *Schema }

func (f factory) NewObject() (scene.Object, error) {
	var obj scene.Object
	err := f.build(scene.Objects, &obj)
	return obj, err
}

func (f factory) NewMaterial() (scene.Material, error) {
	var mat scene.Material
	err := f.build(scene.Materials, &mat)
	return mat, err
}

func (f factory) build(c scene.Collection, dst any) error {
	obj, err := f.s.DefaultObj(CollectionDataType[c])
	if err != nil {
		return err
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("default %s item: %w", c, err)
	}
	return nil
}
