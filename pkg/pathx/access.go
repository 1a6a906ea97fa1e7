package pathx

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
)

// Lookup tells apart the ways an id-scoped access can come back empty.
type Lookup int

const (
	Found Lookup = iota
	ElementMissing
	PropertyMissing
)

func (l Lookup) String() string {
	switch l {
	case Found:
		return "found"
	case ElementMissing:
		return "element missing"
	case PropertyMissing:
		return "property missing"
	default:
		return fmt.Sprintf("Lookup(%d)", int(l))
	}
}

// IDField is the field every list element is keyed by.
const IDField = "id"

var idSegment = Segment{Name: IDField, Index: -1}

// Get returns the value at p inside container. A missing leaf or a missing
// intermediate segment returns (nil, false).
func Get(container any, p Path) (any, bool) {
	v, ok := walk(reflect.ValueOf(container), p.segs)
	if !ok {
		return nil, false
	}
	return export(v)
}

// Set assigns value at p inside container, which must be reachable through a
// pointer, slice or map for the assignment to be visible to the caller.
// Intermediate segments are never created.
func Set(container any, p Path, value any) error {
	return set(reflect.ValueOf(container), p, value)
}

// GetString parses path with the default separator and calls Get.
func GetString(container any, path string) (any, bool) {
	p, err := Parse(path, DefaultSeparator)
	if err != nil {
		return nil, false
	}
	return Get(container, p)
}

// SetString parses path with the default separator and calls Set.
func SetString(container any, path string, value any) error {
	p, err := Parse(path, DefaultSeparator)
	if err != nil {
		return err
	}
	return Set(container, p, value)
}

// GetByID finds the first element of list whose id equals id and returns the
// value at p inside it.
func GetByID(list any, id int, p Path) (any, Lookup) {
	elem, ok := findByID(reflect.ValueOf(list), id)
	if !ok {
		return nil, ElementMissing
	}
	v, ok := walk(elem, p.segs)
	if !ok {
		return nil, PropertyMissing
	}
	out, ok := export(v)
	if !ok {
		return nil, PropertyMissing
	}
	return out, Found
}

// SetByID assigns value at p inside the first element of list whose id equals
// id. When no element matches it does nothing and reports ElementMissing with
// a nil error.
func SetByID(list any, id int, p Path, value any) (Lookup, error) {
	elem, ok := findByID(reflect.ValueOf(list), id)
	if !ok {
		return ElementMissing, nil
	}
	if err := set(elem, p, value); err != nil {
		return PropertyMissing, err
	}
	return Found, nil
}

// Check validates p against the static type t. Checking stops at the first
// interface type, since what lies beyond depends on the dynamic value.
func Check(t reflect.Type, p Path) error {
	for _, seg := range p.segs {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		switch t.Kind() {
		case reflect.Interface:
			return nil
		case reflect.Struct:
			sf, ok := structField(t, seg.Name)
			if !ok {
				return &PathError{Op: "check", Path: p.String(), Segment: seg.Name, Err: ErrMissingSegment}
			}
			t = sf.Type
		case reflect.Map:
			if t.Key().Kind() != reflect.String {
				return &PathError{Op: "check", Path: p.String(), Segment: seg.Name, Err: ErrTypeMismatch}
			}
			t = t.Elem()
		case reflect.Slice, reflect.Array:
			if !seg.IsIndex() {
				return &PathError{Op: "check", Path: p.String(), Segment: seg.Name, Err: ErrMissingSegment}
			}
			t = t.Elem()
		default:
			return &PathError{Op: "check", Path: p.String(), Segment: seg.Name, Err: ErrMissingSegment}
		}
	}
	return nil
}

func set(root reflect.Value, p Path, value any) error {
	if p.IsRoot() {
		return &PathError{Op: "set", Path: p.String(), Err: ErrEmptyPath}
	}
	n := len(p.segs)
	parent, ok := walk(root, p.segs[:n-1])
	last := p.segs[n-1]
	if !ok {
		return &PathError{Op: "set", Path: p.String(), Segment: last.Name, Err: ErrMissingSegment}
	}

	c := indirect(parent)
	if !c.IsValid() {
		return &PathError{Op: "set", Path: p.String(), Segment: last.Name, Err: ErrMissingSegment}
	}

	fail := func(err error) error {
		return &PathError{Op: "set", Path: p.String(), Segment: last.Name, Err: err}
	}

	switch c.Kind() {
	case reflect.Struct:
		f, ok := fieldByName(c, last.Name)
		if !ok {
			return fail(ErrMissingSegment)
		}
		if !f.CanSet() {
			return fail(ErrNotAddressable)
		}
		nv, err := convert(value, f.Type())
		if err != nil {
			return fail(err)
		}
		f.Set(nv)
	case reflect.Map:
		if c.IsNil() {
			return fail(ErrNotAddressable)
		}
		if c.Type().Key().Kind() != reflect.String {
			return fail(ErrTypeMismatch)
		}
		nv, err := convert(value, c.Type().Elem())
		if err != nil {
			return fail(err)
		}
		c.SetMapIndex(reflect.ValueOf(last.Name).Convert(c.Type().Key()), nv)
	case reflect.Slice, reflect.Array:
		if !last.IsIndex() || last.Index >= c.Len() {
			return fail(ErrMissingSegment)
		}
		e := c.Index(last.Index)
		if !e.CanSet() {
			return fail(ErrNotAddressable)
		}
		nv, err := convert(value, e.Type())
		if err != nil {
			return fail(err)
		}
		e.Set(nv)
	default:
		return fail(ErrMissingSegment)
	}
	return nil
}

func walk(v reflect.Value, segs []Segment) (reflect.Value, bool) {
	for _, seg := range segs {
		var ok bool
		if v, ok = step(v, seg); !ok {
			return reflect.Value{}, false
		}
	}
	return v, v.IsValid()
}

func step(v reflect.Value, seg Segment) (reflect.Value, bool) {
	v = indirect(v)
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	switch v.Kind() {
	case reflect.Struct:
		return fieldByName(v, seg.Name)
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		mv := v.MapIndex(reflect.ValueOf(seg.Name).Convert(v.Type().Key()))
		return mv, mv.IsValid()
	case reflect.Slice, reflect.Array:
		if !seg.IsIndex() || seg.Index >= v.Len() {
			return reflect.Value{}, false
		}
		return v.Index(seg.Index), true
	}
	return reflect.Value{}, false
}

// indirect follows pointers and interfaces. A nil along the way yields the
// invalid Value.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func export(v reflect.Value) (any, bool) {
	if !v.IsValid() || !v.CanInterface() {
		return nil, false
	}
	return v.Interface(), true
}

func findByID(list reflect.Value, id int) (reflect.Value, bool) {
	list = indirect(list)
	if !list.IsValid() || (list.Kind() != reflect.Slice && list.Kind() != reflect.Array) {
		return reflect.Value{}, false
	}
	for i := 0; i < list.Len(); i++ {
		elem := list.Index(i)
		idv, ok := step(elem, idSegment)
		if ok && numberEquals(indirect(idv), id) {
			return elem, true
		}
	}
	return reflect.Value{}, false
}

func numberEquals(v reflect.Value, id int) bool {
	if !v.IsValid() {
		return false
	}
	switch {
	case isInt(v.Kind()):
		return v.Int() == int64(id)
	case isUint(v.Kind()):
		return id >= 0 && v.Uint() == uint64(id)
	case isFloat(v.Kind()):
		return v.Float() == float64(id)
	}
	return false
}

var fieldCache sync.Map // reflect.Type -> map[string][]int

func structField(t reflect.Type, name string) (reflect.StructField, bool) {
	var fields map[string][]int
	if cached, ok := fieldCache.Load(t); ok {
		fields = cached.(map[string][]int)
	} else {
		fields = indexFields(t)
		fieldCache.Store(t, fields)
	}
	if idx, ok := fields[name]; ok {
		return t.FieldByIndex(idx), true
	}
	if idx, ok := fields[strings.ToLower(name)]; ok {
		return t.FieldByIndex(idx), true
	}
	return reflect.StructField{}, false
}

// indexFields maps json names, and lowercased Go names for untagged fields,
// to field indexes.
func indexFields(t reflect.Type) map[string][]int {
	fields := make(map[string][]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			fields[name] = f.Index
			continue
		}
		fields[strings.ToLower(f.Name)] = f.Index
	}
	return fields
}

func fieldByName(v reflect.Value, name string) (reflect.Value, bool) {
	sf, ok := structField(v.Type(), name)
	if !ok {
		return reflect.Value{}, false
	}
	return v.FieldByIndex(sf.Index), true
}

var (
	decodersMu sync.RWMutex
	decoders   = map[reflect.Type]func([]byte) (any, error){}
)

// RegisterDecoder installs fn as the way to build a value of interface type
// typ from JSON. Set uses it when a structured value (for example a decoded
// JSON object) is assigned to a field of that interface type.
func RegisterDecoder(typ reflect.Type, fn func(data []byte) (any, error)) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	decoders[typ] = fn
}

func decoderFor(typ reflect.Type) (func([]byte) (any, error), bool) {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	fn, ok := decoders[typ]
	return fn, ok
}

// convert adapts value to typ. Numbers convert between kinds as long as no
// precision is silently dropped; anything structured goes through encoding/json.
func convert(value any, typ reflect.Type) (reflect.Value, error) {
	if value == nil {
		switch typ.Kind() {
		case reflect.Interface:
			// Variant interfaces always hold one of their cases.
			if _, ok := decoderFor(typ); ok {
				return reflect.Value{}, fmt.Errorf("%w: nil %s", ErrTypeMismatch, typ)
			}
			return reflect.Zero(typ), nil
		case reflect.Pointer, reflect.Map, reflect.Slice:
			return reflect.Zero(typ), nil
		}
		return reflect.Value{}, ErrTypeMismatch
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(typ) {
		return rv, nil
	}

	from, to := rv.Kind(), typ.Kind()
	switch {
	case isNumber(from) && isNumber(to):
		if isFloat(from) && (isInt(to) || isUint(to)) {
			f := rv.Float()
			if f != math.Trunc(f) {
				return reflect.Value{}, fmt.Errorf("%w: %v is not an integer", ErrTypeMismatch, f)
			}
			if isUint(to) && f < 0 {
				return reflect.Value{}, fmt.Errorf("%w: %v is negative", ErrTypeMismatch, f)
			}
		}
		if isInt(from) && isUint(to) && rv.Int() < 0 {
			return reflect.Value{}, fmt.Errorf("%w: %v is negative", ErrTypeMismatch, rv.Int())
		}
		if overflows(rv, typ) {
			return reflect.Value{}, fmt.Errorf("%w: %v overflows %s", ErrTypeMismatch, value, typ)
		}
		return rv.Convert(typ), nil
	case from == reflect.String && to == reflect.String, from == reflect.Bool && to == reflect.Bool:
		return rv.Convert(typ), nil
	case isNumber(from), from == reflect.String, from == reflect.Bool:
		return reflect.Value{}, fmt.Errorf("%w: cannot use %s as %s", ErrTypeMismatch, rv.Type(), typ)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}

	if to == reflect.Interface {
		dec, ok := decoderFor(typ)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: no decoder for %s", ErrTypeMismatch, typ)
		}
		out, err := dec(data)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		ov := reflect.ValueOf(out)
		if !ov.IsValid() || !ov.Type().AssignableTo(typ) {
			return reflect.Value{}, fmt.Errorf("%w: decoder returned %T", ErrTypeMismatch, out)
		}
		return ov, nil
	}

	ptr := reflect.New(typ)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}
	return ptr.Elem(), nil
}

// overflows reports whether the number in rv does not fit typ. Signs are
// checked by the caller.
func overflows(rv reflect.Value, typ reflect.Type) bool {
	target := reflect.Zero(typ)
	from, to := rv.Kind(), typ.Kind()

	switch {
	case isFloat(to):
		var f float64
		switch {
		case isFloat(from):
			f = rv.Float()
		case isInt(from):
			f = float64(rv.Int())
		default:
			f = float64(rv.Uint())
		}
		return target.OverflowFloat(f)

	case isInt(to):
		switch {
		case isFloat(from):
			f := rv.Float()
			if f < math.MinInt64 || f >= math.MaxInt64 {
				return true
			}
			return target.OverflowInt(int64(f))
		case isInt(from):
			return target.OverflowInt(rv.Int())
		default:
			u := rv.Uint()
			return u > math.MaxInt64 || target.OverflowInt(int64(u))
		}

	default:
		switch {
		case isFloat(from):
			f := rv.Float()
			if f >= math.MaxUint64 {
				return true
			}
			return target.OverflowUint(uint64(f))
		case isInt(from):
			return target.OverflowUint(uint64(rv.Int()))
		default:
			return target.OverflowUint(rv.Uint())
		}
	}
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumber(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || isFloat(k)
}
