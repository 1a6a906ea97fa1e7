// Package binding connects UI fields, addressed by binding paths such as
// "webray:scene:materials[3]" plus a property like "type.roughness", to the
// live scene document.
package binding

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/webray-editor/internal/scene"
)

const (
	pathNamespace = "webray"
	pathDocument  = "scene"
)

// BindPathError reports a binding path or property that cannot be resolved.
type BindPathError struct {
	Path     string
	Property string
	Reason   string
	Err      error
}

func (e *BindPathError) Error() string {
	msg := fmt.Sprintf("binding: %s: path %q", e.Reason, e.Path)
	if e.Property != "" {
		msg += fmt.Sprintf(" property %q", e.Property)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BindPathError) Unwrap() error { return e.Err }

// BindPath is a parsed binding path.
type BindPath struct {
	Raw        string
	Collection scene.Collection
	ID         int  // element id when HasID
	HasID      bool // a [selector] was given
}

func (p BindPath) String() string {
	if p.Raw != "" {
		return p.Raw
	}
	s := pathNamespace + ":" + pathDocument + ":" + string(p.Collection)
	if p.HasID {
		s += "[" + strconv.Itoa(p.ID) + "]"
	}
	return s
}

// ParsePath parses "webray:scene:<collection>" or
// "webray:scene:<collection>[<id>]". Selectors are element ids and are only
// accepted on list collections.
func ParsePath(s string) (BindPath, error) {
	fail := func(reason string, err error) (BindPath, error) {
		return BindPath{}, &BindPathError{Path: s, Reason: reason, Err: err}
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] != pathNamespace || parts[1] != pathDocument {
		return fail("path not defined", nil)
	}

	name, selector, hasSelector, ok := splitSelector(parts[2])
	if !ok {
		return fail("malformed selector", nil)
	}

	c, err := scene.ParseCollection(name)
	if err != nil {
		return fail("unknown collection", err)
	}

	p := BindPath{Raw: s, Collection: c}
	if !hasSelector {
		return p, nil
	}

	if !c.IsList() {
		return fail("selector on non-list collection", nil)
	}
	id, err := strconv.Atoi(selector)
	if err != nil || id <= 0 {
		return fail("malformed selector", err)
	}
	p.ID, p.HasID = id, true
	return p, nil
}

// splitSelector splits "name[sel]" into its parts.
func splitSelector(s string) (name, selector string, hasSelector, ok bool) {
	open := strings.IndexByte(s, '[')
	if open < 0 {
		return s, "", false, !strings.ContainsRune(s, ']')
	}
	if !strings.HasSuffix(s, "]") || strings.Count(s, "[") != 1 || strings.Count(s, "]") != 1 {
		return "", "", false, false
	}
	return s[:open], s[open+1 : len(s)-1], true, true
}
