package form

import (
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/formwin/pkg/host"
	"github.com/oakwood-commons/formwin/pkg/window"
)

// Default highlight groups used by forms. Hosts map these to concrete
// colors; internal/config lets users override the names.
const (
	DefaultInvalidGroup = "FormwinInvalid"
	DefaultHeaderGroup  = window.DefaultHeaderGroup
)

// minFormWidth is the floor applied to computed form window widths.
const minFormWidth = 20

// SubmitButtonName is the name of the auto-injected submit button.
const SubmitButtonName = "submit"

// Form composes an ordered sequence of fields into one floating window and
// owns the submit/invalid/close lifecycle:
//
//	Closed -> Open -> { Submitting -> Closed | Invalid -> Open }
//
// At most one window is open per form; Open on an open form is a no-op.
type Form struct {
	name   string
	h      host.Host
	log    logr.Logger
	fields []*Field

	winOpts  window.Options
	optsSet  bool
	noSubmit bool

	invalidGroup string
	onSubmit     func(values map[string]any)

	win    *window.Window
	values map[string]any // last successful submit; nil = unset
}

// FormOption customizes form construction.
type FormOption func(*Form)

// OnFormSubmit sets the callback invoked with the full values mapping after
// every field submits successfully.
func OnFormSubmit(fn func(values map[string]any)) FormOption {
	return func(f *Form) { f.onSubmit = fn }
}

// NoSubmitButton suppresses the auto-injected submit button.
func NoSubmitButton() FormOption {
	return func(f *Form) { f.noSubmit = true }
}

// WindowOptions overrides the form's window options. Name, width, and
// height are still managed by the form; border, style, and fractions are
// taken as given.
func WindowOptions(o window.Options) FormOption {
	return func(f *Form) {
		f.winOpts = o
		f.optsSet = true
	}
}

// InvalidGroup overrides the highlight group used for invalid feedback.
func InvalidGroup(group string) FormOption {
	return func(f *Form) { f.invalidGroup = group }
}

// WithLogger attaches a logger to the form and its windows.
func WithLogger(log logr.Logger) FormOption {
	return func(f *Form) { f.log = log }
}

// New builds a form with a fixed field sequence. A submit button is appended
// unless suppressed, and every field is assigned its 1-based row. Missing
// names and duplicate field names are ConfigErrors.
func New(h host.Host, name string, fields []*Field, opts ...FormOption) (*Form, error) {
	if name == "" {
		return nil, host.NewConfigError("name", "forms require a name")
	}
	f := &Form{
		name:         name,
		h:            h,
		log:          logr.Discard(),
		fields:       append([]*Field(nil), fields...),
		invalidGroup: DefaultInvalidGroup,
	}
	for _, o := range opts {
		o(f)
	}

	if !f.noSubmit {
		f.fields = append(f.fields, Button(SubmitButtonName, func() {
			f.Submit()
		}))
	}

	seen := map[string]bool{}
	for i, fld := range f.fields {
		if fld.name == "" {
			return nil, host.NewConfigError("field", "fields require a name")
		}
		if seen[fld.name] {
			return nil, host.NewConfigError("field", "duplicate field name "+fld.name)
		}
		seen[fld.name] = true
		fld.row = i + 1
		fld.col = 0
	}
	return f, nil
}

// Name returns the form's name, shared with its window.
func (f *Form) Name() string { return f.name }

// Fields returns the form's field sequence, including any injected submit
// button.
func (f *Form) Fields() []*Field { return f.fields }

// IsOpen reports whether the form currently has an open window.
func (f *Form) IsOpen() bool { return f.win != nil && f.win.IsOpen() }

// Window returns the open window, or nil when the form is closed.
func (f *Form) Window() *window.Window {
	if !f.IsOpen() {
		return nil
	}
	return f.win
}

// Values returns the values of the last successful submit. ok is false until
// a submit succeeds, and the mapping resets on the next Open.
func (f *Form) Values() (map[string]any, bool) {
	if f.values == nil {
		return nil, false
	}
	return f.values, true
}

// Open creates the form's window, renders every field, and wires keymaps and
// the content-change listener. No-op when already open. Opening resets the
// last submitted values.
func (f *Form) Open() error {
	if f.IsOpen() {
		return nil
	}
	f.values = nil

	opts := f.winOpts
	opts.Name = f.name
	opts.Height = len(f.fields)
	if opts.Width <= 0 {
		opts.Width = f.contentWidth()
	}
	if !f.optsSet {
		opts.Border = true
	}

	win, err := window.Open(f.h, opts, window.WithLogger(f.log))
	if err != nil {
		return err
	}
	f.win = win

	var lines []string
	for _, fld := range f.fields {
		lines = fld.Render(lines)
	}
	win.WriteLines(lines)

	if err := win.RegisterKeymap("n", window.Keymap{
		"<Esc>": window.Fn(func() { f.Close() }),
	}, nil); err != nil {
		return err
	}

	// One handler per mode+key across all fields: the handler resolves
	// the cursor-active field at invocation time and delegates.
	merged := map[string]window.Keymap{}
	for _, fld := range f.fields {
		for _, mk := range fld.keys() {
			mode, key := mk[0], mk[1]
			if merged[mode] == nil {
				merged[mode] = window.Keymap{}
			}
			if _, done := merged[mode][key]; done {
				continue
			}
			merged[mode][key] = window.Fn(func() {
				f.dispatchKey(mode, key)
			})
		}
	}
	for mode, km := range merged {
		if err := win.RegisterKeymap(mode, km, nil); err != nil {
			return err
		}
	}

	win.OnContentChange(func(ev host.ChangeEvent) {
		if fld := f.activeAt(ev.Row); fld != nil {
			f.liveValidate(fld)
		}
	})

	if len(f.fields) > 0 {
		first := f.fields[0]
		win.SetCursor(first.row, first.Width())
	}
	return nil
}

// Submit reads every line back from the window, re-parses each field's
// segment, and either finalizes (per-field on_submit, form on_submit, close)
// or raises the invalid animation and keeps the form open. ok is false when
// the form is closed or any field fails validation.
func (f *Form) Submit() (map[string]any, bool) {
	if !f.IsOpen() {
		return nil, false
	}

	lines := f.win.ReadLines()
	values := map[string]any{}
	type parsed struct {
		field *Field
		value any
	}
	var results []parsed

	for i, line := range lines {
		row := i + 1
		fld := f.activeAt(row)
		if fld == nil || fld.row != row {
			continue
		}
		v, err := fld.Parse(line)
		if err != nil {
			f.log.V(1).Info("submit rejected", "form", f.name, "field", fld.name, "err", err)
			f.Invalid()
			return nil, false
		}
		if fld.kind == KindButton {
			continue
		}
		values[fld.name] = v
		results = append(results, parsed{field: fld, value: v})
	}

	for _, r := range results {
		if r.field.onSubmit != nil {
			r.field.onSubmit(r.value)
		}
	}
	if f.onSubmit != nil {
		f.onSubmit(values)
	}
	f.values = values
	f.Close()
	return values, true
}

// Invalid flashes the border with the invalid highlight group and shakes the
// window, clearing the border color when the animation completes. Field
// values and form state are untouched. No-op when closed.
func (f *Form) Invalid() {
	if !f.IsOpen() {
		return
	}
	win := f.win
	win.SetBorderColor(f.invalidGroup)
	win.Shake(1, func() {
		win.SetBorderColor("")
	})
}

// Close destroys the window and returns the form to Closed. The last
// successful values remain queryable until the next Open. No-op when closed.
func (f *Form) Close() {
	if !f.IsOpen() {
		return
	}
	f.win.Close(true)
}

// dispatchKey routes a merged keymap invocation to the cursor-active field.
func (f *Form) dispatchKey(mode, key string) {
	if !f.IsOpen() {
		return
	}
	pos := f.win.GetCursor()
	fld := f.activeAt(pos.Row)
	if fld == nil {
		return
	}
	if h, ok := fld.handlerFor(mode, key); ok {
		h(f.win)
	}
}

// activeAt returns the field whose rows contain the given 1-based row.
func (f *Form) activeAt(row int) *Field {
	for _, fld := range f.fields {
		if fld.IsActive(host.Position{Row: row}) {
			return fld
		}
	}
	return nil
}

// liveValidate re-parses the field's line after a content change and toggles
// the invalid highlight on its value region. Validation failures never abort
// input; they only color it.
func (f *Form) liveValidate(fld *Field) {
	if fld.kind == KindButton || fld.validator == nil {
		return
	}
	lines := f.win.ReadLines()
	if fld.row-1 >= len(lines) {
		return
	}
	line := lines[fld.row-1]
	v, err := fld.Parse(line)
	if err != nil {
		f.win.Highlight(f.invalidGroup, fld.row-1, fld.labelBoundary(), -1)
		return
	}
	f.win.Highlight("", fld.row-1, 0, -1)
	if fld.onUpdate != nil {
		fld.onUpdate(v)
	}
}

// contentWidth returns the window width for the field set: the widest field
// plus breathing room, floored at minFormWidth.
func (f *Form) contentWidth() int {
	w := minFormWidth
	for _, fld := range f.fields {
		if fw := fld.Width() + 2; fw > w {
			w = fw
		}
	}
	return w
}
