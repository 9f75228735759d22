// Package form implements the declarative field and form engine: named,
// row-positioned fields rendered into a floating window, cursor-scoped keymap
// dispatch, live validation highlighting, and the submit/invalid lifecycle.
package form

import (
	"strings"

	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/formwin/pkg/host"
	"github.com/oakwood-commons/formwin/pkg/window"
)

// Renderer produces a field's display lines from its current state.
type Renderer func(f *Field) []string

// KeyHandler reacts to a key dispatched to the field while the cursor is on
// one of its rows.
type KeyHandler func(w *window.Window)

// Kind tags the field variant. Variants differ only in their validator,
// renderer, and keymap bundle; there is one Field type.
type Kind int

const (
	KindText Kind = iota
	KindMatch
	KindNumber
	KindBool
	KindButton
)

// Field is a named, positioned, sized unit inside a form: a default value, a
// renderer, an optional validator, a per-mode keymap, and optional update
// and submit callbacks.
type Field struct {
	name  string
	kind  Kind
	def   string
	value string

	width  int
	height int
	row    int // 1-based, assigned by the containing Form
	col    int

	validator Validator
	renderer  Renderer
	keymap    map[string]map[string]KeyHandler // mode -> key -> handler

	onUpdate func(v any)
	onSubmit func(v any)
	onPress  func() // Button only
}

// FieldOption customizes field construction.
type FieldOption func(*Field)

// Default sets the field's initial value.
func Default(v string) FieldOption {
	return func(f *Field) {
		f.def = v
		f.value = v
	}
}

// WithValidator replaces the field's validator.
func WithValidator(v Validator) FieldOption {
	return func(f *Field) { f.validator = v }
}

// WithRenderer replaces the field's renderer.
func WithRenderer(r Renderer) FieldOption {
	return func(f *Field) { f.renderer = r }
}

// OnUpdate sets a callback invoked with the parsed value whenever live
// validation accepts a change to the field.
func OnUpdate(fn func(v any)) FieldOption {
	return func(f *Field) { f.onUpdate = fn }
}

// OnSubmit sets a callback invoked with the parsed value when the form
// submits successfully.
func OnSubmit(fn func(v any)) FieldOption {
	return func(f *Field) { f.onSubmit = fn }
}

// Size overrides the derived width and height.
func Size(width, height int) FieldOption {
	return func(f *Field) {
		f.width = width
		f.height = height
	}
}

// Name returns the field's name.
func (f *Field) Name() string { return f.name }

// Kind returns the field's variant tag.
func (f *Field) Kind() Kind { return f.kind }

// Value returns the field's current raw value.
func (f *Field) Value() string { return f.value }

// Row returns the field's 1-based row assigned by its form, or 0 before the
// field is placed.
func (f *Field) Row() int { return f.row }

// Width returns the field's display width.
func (f *Field) Width() int {
	if f.width > 0 {
		return f.width
	}
	if f.kind == KindButton {
		return runewidth.StringWidth(f.name)
	}
	return f.labelBoundary() + runewidth.StringWidth(f.value)
}

// Height returns the field's display height in rows.
func (f *Field) Height() int {
	if f.height > 0 {
		return f.height
	}
	return 1
}

// labelBoundary is the display column where the editable value region
// starts: the label plus ": ".
func (f *Field) labelBoundary() int {
	return runewidth.StringWidth(f.name) + 2
}

// Render appends the field's display lines to dst.
func (f *Field) Render(dst []string) []string {
	return append(dst, f.renderer(f)...)
}

// IsActive reports whether the cursor row falls within the field's rows.
// Column bounds are intentionally not checked: activation is row-only.
func (f *Field) IsActive(pos host.Position) bool {
	return pos.Row >= f.row && pos.Row < f.row+f.Height()
}

// Parse strips the label prefix from a rendered line and runs the validator.
// On success the field's raw value is updated and the parsed value returned;
// on failure the value is left unmodified and a ValidationError is returned.
func (f *Field) Parse(rawLine string) (any, error) {
	raw := rawLine
	if f.kind != KindButton {
		raw = strings.TrimPrefix(rawLine, f.name+": ")
	}
	if f.kind == KindButton {
		// Buttons carry no editable value.
		return true, nil
	}
	if f.validator == nil {
		f.value = raw
		return raw, nil
	}
	v, err := f.validator(raw)
	if err != nil {
		return nil, host.NewValidationError(f.name, raw, err.Error())
	}
	f.value = raw
	return v, nil
}

// handlerFor returns the field's handler for a mode and key, if any.
func (f *Field) handlerFor(mode, key string) (KeyHandler, bool) {
	byKey, ok := f.keymap[mode]
	if !ok {
		return nil, false
	}
	h, ok := byKey[key]
	return h, ok
}

// keys returns every (mode, key) pair the field binds.
func (f *Field) keys() [][2]string {
	var out [][2]string
	for mode, byKey := range f.keymap {
		for key := range byKey {
			out = append(out, [2]string{mode, key})
		}
	}
	return out
}

// bind adds a handler for the given modes and key.
func (f *Field) bind(modes []string, key string, h KeyHandler) {
	if f.keymap == nil {
		f.keymap = map[string]map[string]KeyHandler{}
	}
	for _, mode := range modes {
		if f.keymap[mode] == nil {
			f.keymap[mode] = map[string]KeyHandler{}
		}
		f.keymap[mode][key] = h
	}
}

// editModes are the modes text-like fields guard: normal and insert.
var editModes = []string{"n", "i"}

// installTextKeymap wires the navigation guards shared by all text-like
// fields: Enter moves down one row instead of inserting a line, and
// Left/Right refuse to cross into the label region. Moving left cannot land
// exactly on the boundary column; the value region effectively starts one
// past it for arrow navigation.
func (f *Field) installTextKeymap() {
	f.bind(editModes, "<CR>", func(w *window.Window) {
		w.MoveCursor(1, 0)
	})
	f.bind(editModes, "<Left>", func(w *window.Window) {
		pos := w.GetCursor()
		if pos.Col-1 > f.labelBoundary() {
			w.MoveCursor(0, -1)
		}
	})
	f.bind(editModes, "<Right>", func(w *window.Window) {
		pos := w.GetCursor()
		if pos.Col >= f.labelBoundary() {
			w.MoveCursor(0, 1)
		}
	})
}

// defaultRenderer renders "<name>: <value>".
func defaultRenderer(f *Field) []string {
	return []string{f.name + ": " + f.value}
}

// buttonRenderer renders "<name>".
func buttonRenderer(f *Field) []string {
	return []string{f.name}
}
