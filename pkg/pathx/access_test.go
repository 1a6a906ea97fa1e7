package pathx

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type leaf struct {
	C string `json:"c"`
}

type nested struct {
	A string `json:"a"`
	B *leaf  `json:"b"`
}

type item struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Inner *nested `json:"inner"`
	Kind  any     `json:"type"`
	Score float32 `json:"score"`
}

type variant interface{ variant() }

type metal struct {
	Roughness float32 `json:"roughness"`
}

func (*metal) variant() {}

type holder struct {
	V variant `json:"type"`
}

func newNested() *nested {
	return &nested{A: "prop_a", B: &leaf{C: "prop_c"}}
}

func TestGet(t *testing.T) {
	obj := newNested()

	tests := []struct {
		name string
		path string
		want any
		ok   bool
	}{
		{"simple prop", "a", "prop_a", true},
		{"nested prop", "b.c", "prop_c", true},
		{"missing leaf", "b.x", nil, false},
		{"missing intermediate", "x.c", nil, false},
		{"root", "", obj, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.path, "")
			require.NoError(t, err)

			got, ok := Get(obj, p)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetMapsAndSlices(t *testing.T) {
	doc := map[string]any{
		"list": []any{
			map[string]any{"a": map[string]any{"b": map[string]any{"c": 3.0}}},
		},
	}

	got, ok := GetString(doc, "list.0.a.b.c")
	require.True(t, ok)
	assert.Equal(t, 3.0, got)

	_, ok = GetString(doc, "list.1.a")
	assert.False(t, ok, "index out of range should be undefined")

	_, ok = GetString(doc, "list.x")
	assert.False(t, ok, "non-numeric index should be undefined")
}

func TestSet(t *testing.T) {
	t.Run("simple prop", func(t *testing.T) {
		obj := newNested()
		require.NoError(t, SetString(obj, "a", "set_a"))
		assert.Equal(t, "set_a", obj.A)
	})

	t.Run("nested prop", func(t *testing.T) {
		obj := newNested()
		require.NoError(t, SetString(obj, "b.c", "set_c"))
		assert.Equal(t, "set_c", obj.B.C)
	})

	t.Run("three levels deep", func(t *testing.T) {
		doc := map[string]any{"a": map[string]any{"b": map[string]any{"c": 1}}}
		require.NoError(t, SetString(doc, "a.b.c", 2))
		got, ok := GetString(doc, "a.b.c")
		require.True(t, ok)
		assert.Equal(t, 2, got)
	})

	t.Run("missing intermediate", func(t *testing.T) {
		obj := &nested{A: "a"}
		err := SetString(obj, "b.c", "x")

		var pe *PathError
		require.ErrorAs(t, err, &pe)
		assert.ErrorIs(t, err, ErrMissingSegment)
		assert.Equal(t, "set", pe.Op)
		assert.Nil(t, obj.B, "set must not create intermediate structures")
	})

	t.Run("value container", func(t *testing.T) {
		err := SetString(nested{}, "a", "x")
		assert.ErrorIs(t, err, ErrNotAddressable)
	})

	t.Run("empty path", func(t *testing.T) {
		err := Set(newNested(), Path{}, "x")
		assert.ErrorIs(t, err, ErrEmptyPath)
	})

	t.Run("type mismatch", func(t *testing.T) {
		err := SetString(newNested(), "a", 12)
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})
}

func TestSetConvertsNumbers(t *testing.T) {
	it := &item{}
	require.NoError(t, SetString(it, "score", 0.25))
	assert.Equal(t, float32(0.25), it.Score)

	require.NoError(t, SetString(it, "id", 7.0))
	assert.Equal(t, 7, it.ID)

	err := SetString(it, "id", 7.5)
	assert.ErrorIs(t, err, ErrTypeMismatch, "fractional value into int field")
}

func TestSetRejectsOverflow(t *testing.T) {
	type dims struct {
		Width uint32  `json:"width"`
		Depth int8    `json:"depth"`
		Fov   float32 `json:"fov"`
	}

	tests := []struct {
		name  string
		path  string
		value any
	}{
		{"float past uint32", "width", float64(4294967296 + 640)},
		{"int past uint32", "width", int64(1) << 40},
		{"float past int8", "depth", 300.0},
		{"negative past int8", "depth", -129},
		{"float past float32", "fov", 1e300},
		{"huge float into int", "depth", 1e20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &dims{Width: 1920, Depth: 3, Fov: 20}
			err := SetString(d, tt.path, tt.value)
			assert.ErrorIs(t, err, ErrTypeMismatch)
			assert.Equal(t, dims{Width: 1920, Depth: 3, Fov: 20}, *d, "value left untouched")
		})
	}

	d := &dims{}
	require.NoError(t, SetString(d, "width", float64(4294967295)))
	assert.Equal(t, uint32(4294967295), d.Width)
	require.NoError(t, SetString(d, "depth", -128))
	assert.Equal(t, int8(-128), d.Depth)
}

func TestSetStructuredValue(t *testing.T) {
	it := &item{Inner: newNested()}
	require.NoError(t, SetString(it, "inner.b", map[string]any{"c": "decoded"}))
	assert.Equal(t, "decoded", it.Inner.B.C)
}

func TestSetThroughInterface(t *testing.T) {
	h := &holder{V: &metal{Roughness: 0.1}}
	require.NoError(t, SetString(h, "type.roughness", 0.5))

	got, ok := GetString(h, "type.roughness")
	require.True(t, ok)
	assert.Equal(t, float32(0.5), got)
}

func TestRegisterDecoder(t *testing.T) {
	typ := reflect.TypeOf((*variant)(nil)).Elem()
	RegisterDecoder(typ, func(data []byte) (any, error) {
		m := &metal{}
		return m, nil
	})

	h := &holder{}
	require.NoError(t, SetString(h, "type", map[string]any{"type": "metal"}))
	_, isMetal := h.V.(*metal)
	assert.True(t, isMetal)
}

func items() []item {
	return []item{
		{ID: 1, Name: "first", Inner: newNested()},
		{ID: 4, Name: "second", Inner: newNested()},
		{ID: 4, Name: "duplicate", Inner: newNested()},
	}
}

func TestGetByID(t *testing.T) {
	list := items()

	got, lk := GetByID(list, 1, MustParse("name"))
	assert.Equal(t, Found, lk)
	assert.Equal(t, "first", got)

	got, lk = GetByID(list, 4, MustParse("inner.b.c"))
	assert.Equal(t, Found, lk)
	assert.Equal(t, "prop_c", got)

	got, lk = GetByID(list, 4, MustParse("name"))
	assert.Equal(t, Found, lk)
	assert.Equal(t, "second", got, "first match wins")

	got, lk = GetByID(list, 9, MustParse("name"))
	assert.Equal(t, ElementMissing, lk)
	assert.Nil(t, got)

	got, lk = GetByID(list, 1, MustParse("inner.nope"))
	assert.Equal(t, PropertyMissing, lk)
	assert.Nil(t, got)
}

func TestSetByIDRoundTrip(t *testing.T) {
	list := items()
	paths := []string{"name", "inner.a", "inner.b.c"}

	for _, el := range list {
		for _, p := range paths {
			path := MustParse(p)
			lk, err := SetByID(list, el.ID, path, "v-"+p)
			require.NoError(t, err)
			require.Equal(t, Found, lk)

			got, lk := GetByID(list, el.ID, path)
			require.Equal(t, Found, lk)
			assert.Equal(t, "v-"+p, got)
		}
	}
}

func TestSetByIDMissingElement(t *testing.T) {
	list := items()
	lk, err := SetByID(list, 42, MustParse("name"), "x")
	assert.NoError(t, err)
	assert.Equal(t, ElementMissing, lk)

	for _, el := range list {
		assert.NotEqual(t, "x", el.Name)
	}
}

func TestSetByIDDecodedJSON(t *testing.T) {
	list := []any{
		map[string]any{"id": 1.0, "type": map[string]any{"ior": 1.5}},
		map[string]any{"id": 2.0, "type": map[string]any{"ior": 1.3}},
	}

	lk, err := SetByID(list, 2, MustParse("type.ior"), 2.4)
	require.NoError(t, err)
	require.Equal(t, Found, lk)

	got, _ := GetByID(list, 2, MustParse("type.ior"))
	assert.Equal(t, 2.4, got)
}

func TestParse(t *testing.T) {
	p, err := Parse("type.roughness", "")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, "type.roughness", p.String())

	p, err = Parse("objects/3/name", "/")
	require.NoError(t, err)
	assert.True(t, p.Segments()[1].IsIndex())
	assert.Equal(t, 3, p.Segments()[1].Index)
	assert.Equal(t, "objects/3/name", p.String())

	_, err = Parse("a..b", "")
	var pe *PathError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, ErrEmptySegment)

	p, err = Parse("", "")
	require.NoError(t, err)
	assert.True(t, p.IsRoot())
}

func TestCheck(t *testing.T) {
	typ := reflect.TypeOf(item{})

	assert.NoError(t, Check(typ, MustParse("inner.b.c")))
	assert.NoError(t, Check(typ, MustParse("type.anything.goes")), "interfaces stop checking")
	assert.ErrorIs(t, Check(typ, MustParse("inner.zzz")), ErrMissingSegment)
	assert.NoError(t, Check(reflect.TypeOf([]item{}), MustParse("0.name")))
	assert.ErrorIs(t, Check(reflect.TypeOf([]item{}), MustParse("first.name")), ErrMissingSegment)
}
