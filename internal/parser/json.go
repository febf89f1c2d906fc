package parser

import (
	"io"
	"regexp"
	"strings"

	"dario.cat/mergo"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/jacobarthurs/plantree/internal/plan"
)

var bareOpenRe = regexp.MustCompile(`^(\s*)(\[|\{)\s*$`)

// frame is one container under construction. For objects, key is the field
// whose value is being read and dup holds the value already stored under it
// when the key repeats.
type frame struct {
	object  map[string]any
	array   []any
	isArray bool

	key    string
	dup    any
	hasDup bool
}

func (f *frame) value() any {
	if f.isArray {
		if f.array == nil {
			return []any{}
		}
		return f.array
	}
	return f.object
}

// reducer builds a document from a token stream. Unlike a plain decoder it
// keeps every occurrence of a repeated object key, merging the later value
// into the earlier one.
type reducer struct {
	stack   []*frame
	root    any
	hasRoot bool
}

func (r *reducer) openObject() {
	r.stack = append(r.stack, &frame{object: make(map[string]any)})
}

func (r *reducer) openArray() {
	r.stack = append(r.stack, &frame{isArray: true})
}

func (r *reducer) onKey(key string) {
	f := r.stack[len(r.stack)-1]
	f.key = key
	f.dup, f.hasDup = f.object[key]
}

func (r *reducer) onValue(v any) {
	r.assign(v)
}

func (r *reducer) close() {
	f := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	r.assign(f.value())
}

func (r *reducer) assign(v any) {
	if len(r.stack) == 0 {
		r.root = v
		r.hasRoot = true
		return
	}

	parent := r.stack[len(r.stack)-1]
	if parent.isArray {
		parent.array = append(parent.array, v)
		return
	}

	if parent.hasDup {
		v = mergeDuplicate(parent.dup, v)
		parent.dup, parent.hasDup = nil, false
	}
	parent.object[parent.key] = v
}

// mergeDuplicate combines two values stored under the same key. Objects are
// deep merged, arrays concatenated, and for anything else the later value
// wins.
func mergeDuplicate(existing, incoming any) any {
	switch dst := existing.(type) {
	case map[string]any:
		src, ok := incoming.(map[string]any)
		if !ok {
			return incoming
		}
		if err := mergo.Merge(&dst, src, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
			return incoming
		}
		return dst
	case []any:
		if src, ok := incoming.([]any); ok {
			return append(dst, src...)
		}
	}
	return incoming
}

func (r *reducer) walk(iter *jsoniter.Iterator) {
	switch iter.WhatIsNext() {
	case jsoniter.ObjectValue:
		r.openObject()
		complete := iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
			r.onKey(field)
			r.walk(it)
			return it.Error == nil
		})
		if complete {
			r.close()
		}
	case jsoniter.ArrayValue:
		r.openArray()
		complete := iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			r.walk(it)
			return it.Error == nil
		})
		if complete {
			r.close()
		}
	case jsoniter.StringValue:
		r.onValue(iter.ReadString())
	case jsoniter.NumberValue:
		r.onValue(iter.ReadNumber())
	case jsoniter.BoolValue:
		r.onValue(iter.ReadBool())
	case jsoniter.NilValue:
		iter.ReadNil()
		r.onValue(nil)
	default:
		iter.ReportError("walk", "unexpected token")
	}
}

// ParseJSON decodes source, tolerating duplicate object keys. Numbers are
// kept as json.Number. When the document is an array its first element is
// returned.
func ParseJSON(source string) (any, error) {
	iter := jsoniter.ParseString(jsoniter.ConfigDefault, source)
	r := &reducer{}
	r.walk(iter)

	if iter.Error != nil && iter.Error != io.EOF {
		return nil, errors.Wrapf(plan.ErrMalformedPlan, "invalid JSON: %v", iter.Error)
	}
	if len(r.stack) != 0 || !r.hasRoot {
		return nil, errors.Wrap(plan.ErrMalformedPlan, "unterminated JSON document")
	}

	if arr, ok := r.root.([]any); ok {
		if len(arr) == 0 {
			return nil, errors.Wrap(plan.ErrMalformedPlan, "empty JSON array")
		}
		return arr[0], nil
	}
	return r.root, nil
}

// FromJSONLines extracts a JSON document embedded in surrounding text, as
// copied from psql or pgAdmin, and decodes it with ParseJSON.
func FromJSONLines(source string) (any, error) {
	window, ok := jsonWindow(source)
	if !ok {
		return nil, errors.Wrap(plan.ErrMalformedPlan, "no JSON block found")
	}
	return ParseJSON(window)
}

// jsonWindow returns the lines from the first bare "[" or "{" line up to the
// last closing bracket line with the same indentation. pgAdmin doubles
// every quote when copying, so "" is collapsed.
func jsonWindow(source string) (string, bool) {
	lines := strings.FieldsFunc(source, func(r rune) bool {
		return r == '\n' || r == '\r'
	})

	start, prefix := -1, ""
	for i, line := range lines {
		if m := bareOpenRe.FindStringSubmatch(line); m != nil {
			start, prefix = i, m[1]
			break
		}
	}
	if start < 0 {
		return "", false
	}

	closeRe := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `[\]}]\s*$`)
	for end := len(lines) - 1; end > start; end-- {
		if closeRe.MatchString(lines[end]) {
			window := strings.Join(lines[start:end+1], "\n")
			return strings.ReplaceAll(window, `""`, `"`), true
		}
	}
	return "", false
}
