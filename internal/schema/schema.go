// Package schema loads the editor descriptor: the windows, toolbars, actions
// and data types the UI is built from.
package schema

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Faultbox/webray-editor/internal/scene"
)

//go:embed webray.editor.json
var editorJSON []byte

// Window, toolbar and data type ids.
const (
	WindowScene          = "w_scene"
	WindowMaterials      = "w_materials"
	WindowCamera         = "w_camera"
	WindowRenderSettings = "w_render_settings"

	ToolbarApp   = "t_app_bar"
	ToolbarImage = "t_image_bar"

	DataObject         = "d_obj"
	DataMaterial       = "d_material"
	DataSphere         = "d_sphere"
	DataMatDiffuse     = "d_mat_diffuse"
	DataMatMetal       = "d_mat_metal"
	DataMatDielectric  = "d_mat_dielectric"
	DataCamera         = "d_camera"
	DataRenderSettings = "d_render_settings"
	DataTileSize       = "d_tile_size"
	DataTileSizeFull   = "d_tile_size_full"
)

// PropertySelect marks a property whose value is a nested data type chosen
// from Options.
const PropertySelect = "data_select"

// CollectionDataType maps list collections to the data type of their items.
var CollectionDataType = map[scene.Collection]string{
	scene.Objects:   DataObject,
	scene.Materials: DataMaterial,
}

// ErrUnknownDataType is returned for data type ids missing from the descriptor.
var ErrUnknownDataType = errors.New("unknown data type")

// Descriptor is the decoded editor document.
type Descriptor struct {
	Windows   map[string]Window   `json:"windows"`
	Toolbars  map[string]Toolbar  `json:"toolbars"`
	Actions   map[string]Action   `json:"actions"`
	DataTypes map[string]DataType `json:"data_types"`
}

// Window is a panel bound to one scene collection.
type Window struct {
	Icon    string     `json:"icon"`
	Label   string     `json:"label,omitempty"`
	Tooltip string     `json:"tooltip"`
	Data    WindowData `json:"data"`
}

// WindowData says what a window edits. Type is "list" or "object".
type WindowData struct {
	Type     string `json:"type"`
	Binding  string `json:"binding"`
	DataType string `json:"data_type"`
}

type Toolbar struct {
	Lead   []Tool `json:"lead"`
	Center []Tool `json:"center"`
	Trail  []Tool `json:"trail"`
}

// Tools returns every tool in display order.
func (t Toolbar) Tools() []Tool {
	out := make([]Tool, 0, len(t.Lead)+len(t.Center)+len(t.Trail))
	out = append(out, t.Lead...)
	out = append(out, t.Center...)
	return append(out, t.Trail...)
}

type Tool struct {
	Icon    string `json:"icon"`
	Label   string `json:"label,omitempty"`
	Tooltip string `json:"tooltip"`
	Action  string `json:"action"`
}

type Action struct {
	Label string `json:"label,omitempty"`
}

// DataType is an ordered list of editable properties.
type DataType struct {
	Properties []Property `json:"properties"`
}

type Property struct {
	Name    string          `json:"name"`
	Label   string          `json:"label"`
	Tooltip string          `json:"tooltip"`
	Type    string          `json:"type"`
	Initial json.RawMessage `json:"initial"`
	Options []string        `json:"options,omitempty"`
}

// Schema is a validated descriptor.
type Schema struct {
	desc Descriptor
	raw  []byte
}

// Default returns the descriptor compiled into the binary.
func Default() *Schema {
	s, err := Parse(editorJSON)
	if err != nil {
		panic(fmt.Sprintf("schema: embedded descriptor: %v", err))
	}
	return s
}

// Parse decodes and validates a descriptor.
func Parse(data []byte) (*Schema, error) {
	var desc Descriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("decoding descriptor: %w", err)
	}
	if err := desc.validate(); err != nil {
		return nil, err
	}
	return &Schema{desc: desc, raw: data}, nil
}

// JSON returns the descriptor as it was parsed.
func (s *Schema) JSON() []byte { return s.raw }

func (s *Schema) Window(id string) (Window, bool) {
	w, ok := s.desc.Windows[id]
	return w, ok
}

func (s *Schema) Toolbar(id string) (Toolbar, bool) {
	t, ok := s.desc.Toolbars[id]
	return t, ok
}

func (s *Schema) Action(id string) (Action, bool) {
	a, ok := s.desc.Actions[id]
	return a, ok
}

func (s *Schema) DataType(id string) (DataType, bool) {
	d, ok := s.desc.DataTypes[id]
	return d, ok
}

func (d *Descriptor) validate() error {
	for id, w := range d.Windows {
		if _, ok := d.DataTypes[w.Data.DataType]; !ok {
			return fmt.Errorf("window %s: %w: %q", id, ErrUnknownDataType, w.Data.DataType)
		}
	}
	for id, tb := range d.Toolbars {
		for _, tool := range tb.Tools() {
			if _, ok := d.Actions[tool.Action]; !ok {
				return fmt.Errorf("toolbar %s: unknown action %q", id, tool.Action)
			}
		}
	}
	for id, dt := range d.DataTypes {
		for _, p := range dt.Properties {
			if p.Type != PropertySelect {
				continue
			}
			initial, err := selectInitial(p)
			if err != nil {
				return fmt.Errorf("data type %s: %w", id, err)
			}
			if _, ok := d.DataTypes[initial]; !ok {
				return fmt.Errorf("data type %s.%s: %w: %q", id, p.Name, ErrUnknownDataType, initial)
			}
			for _, opt := range p.Options {
				if _, ok := d.DataTypes[opt]; !ok {
					return fmt.Errorf("data type %s.%s: %w: %q", id, p.Name, ErrUnknownDataType, opt)
				}
			}
		}
	}
	return nil
}

func selectInitial(p Property) (string, error) {
	var initial string
	if err := json.Unmarshal(p.Initial, &initial); err != nil {
		return "", fmt.Errorf("property %s: select initial must be a data type id: %w", p.Name, err)
	}
	return initial, nil
}
