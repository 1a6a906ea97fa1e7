// Package pathx reads and writes values at dotted property paths inside
// arbitrary Go values: structs (matched by json tag or field name), maps with
// string keys, slices and arrays, through any number of pointers and interfaces.
//
// Paths are parsed once into a Path and reused; the dotted string is only the
// wire format.
package pathx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultSeparator separates segments in the dotted wire format.
const DefaultSeparator = "."

// Sentinel causes carried by PathError.
var (
	ErrEmptySegment   = errors.New("empty path segment")
	ErrEmptyPath      = errors.New("empty path")
	ErrMissingSegment = errors.New("segment does not exist")
	ErrNotAddressable = errors.New("target is not addressable")
	ErrTypeMismatch   = errors.New("value type does not match target")
)

// PathError records a failed parse or access and the segment where it failed.
type PathError struct {
	Op      string // "parse", "get", "set", "check"
	Path    string
	Segment string
	Err     error
}

func (e *PathError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("pathx: %s %q: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("pathx: %s %q at %q: %v", e.Op, e.Path, e.Segment, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// Segment is one step of a Path. Numeric segments carry their index so they
// can address slice elements as well as map keys or tagged fields.
type Segment struct {
	Name  string
	Index int // -1 when Name is not a non-negative integer
}

// IsIndex reports whether the segment can address a slice element.
func (s Segment) IsIndex() bool { return s.Index >= 0 }

// Path is a parsed property path. The zero Path addresses the container itself.
type Path struct {
	segs []Segment
	sep  string
}

// Parse parses s using sep (DefaultSeparator when empty). The empty string
// yields the root path.
func Parse(s, sep string) (Path, error) {
	if sep == "" {
		sep = DefaultSeparator
	}
	p := Path{sep: sep}
	if s == "" {
		return p, nil
	}
	for _, part := range strings.Split(s, sep) {
		if part == "" {
			return Path{}, &PathError{Op: "parse", Path: s, Err: ErrEmptySegment}
		}
		seg := Segment{Name: part, Index: -1}
		if n, err := strconv.Atoi(part); err == nil && n >= 0 {
			seg.Index = n
		}
		p.segs = append(p.segs, seg)
	}
	return p, nil
}

// MustParse is like Parse with the default separator but panics on error.
// Intended for package-level path constants.
func MustParse(s string) Path {
	p, err := Parse(s, DefaultSeparator)
	if err != nil {
		panic(err)
	}
	return p
}

// Segments returns the parsed segments.
func (p Path) Segments() []Segment { return p.segs }

// Len returns the number of segments.
func (p Path) Len() int { return len(p.segs) }

// IsRoot reports whether the path addresses the container itself.
func (p Path) IsRoot() bool { return len(p.segs) == 0 }

func (p Path) String() string {
	sep := p.sep
	if sep == "" {
		sep = DefaultSeparator
	}
	names := make([]string, len(p.segs))
	for i, s := range p.segs {
		names[i] = s.Name
	}
	return strings.Join(names, sep)
}
