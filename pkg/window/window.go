// Package window implements floating windows over a host boundary: a primary
// text surface with an optional paired border surface, keymap registration
// routed through the function cache, cursor management, highlight regions,
// and animated repositioning.
package window

import (
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/formwin/pkg/cache"
	"github.com/oakwood-commons/formwin/pkg/host"
)

// DefaultHeaderGroup is the highlight group applied to the first line of a
// newly opened window.
const DefaultHeaderGroup = "FormwinHeader"

// shakeInterval is the spacing between shake animation steps.
const shakeInterval = 100 * time.Millisecond

// Keybind is a key binding target: a literal host command or a Go callback.
// Callbacks are routed through the window's function cache so the host can
// reach them from command context.
type Keybind struct {
	Command string
	Handler func()
}

// Cmd returns a Keybind that executes a literal host command.
func Cmd(command string) Keybind { return Keybind{Command: command} }

// Fn returns a Keybind that invokes a Go callback.
func Fn(handler func()) Keybind { return Keybind{Handler: handler} }

// Keymap maps key strings to bindings for one mode.
type Keymap map[string]Keybind

// Window is a floating window: one primary surface, an optional border
// surface kept at a fixed inset, and the bookkeeping to drive keymaps,
// highlights, and animations through the host.
type Window struct {
	name string
	h    host.Host
	log  logr.Logger

	opts Options
	geom host.Geometry

	primary   host.SurfaceID
	border    host.SurfaceID
	hasBorder bool

	fns *cache.Cache

	ns        host.NamespaceID
	nsCreated bool

	nsBorder        host.NamespaceID
	nsBorderCreated bool

	closed bool
}

// Option customizes window construction.
type Option func(*Window)

// WithLogger attaches a logger; swallowed host errors are reported at V(1).
func WithLogger(log logr.Logger) Option {
	return func(w *Window) { w.log = log }
}

// Open creates a floating window from opts. Name is mandatory; a missing
// name is a ConfigError. When opts.Border is set the border surface is
// created first so it renders beneath the primary, and its destruction is
// wired to the primary's teardown.
func Open(h host.Host, opts Options, wopts ...Option) (*Window, error) {
	if opts.Name == "" {
		return nil, host.NewConfigError("name", "floating windows require a name")
	}
	if opts.Style == "" {
		opts.Style = "minimal"
	}
	if opts.Relative == "" {
		opts.Relative = "editor"
	}

	w := &Window{
		name: opts.Name,
		h:    h,
		log:  logr.Discard(),
		opts: opts,
		fns:  cache.Load(h, opts.Name),
	}
	for _, o := range wopts {
		o(w)
	}

	w.geom = computeGeometry(h, opts)

	if opts.Border {
		bg := borderGeometry(w.geom)
		id, err := h.CreateSurface(host.SurfaceOptions{
			Geometry: bg,
			Filetype: opts.Name + "_border",
			Style:    opts.Style,
			Relative: opts.Relative,
			Scratch:  true,
		})
		if err != nil {
			return nil, err
		}
		w.border = id
		w.hasBorder = true
		if err := h.SetLines(id, borderLines(w.geom.Width, w.geom.Height)); err != nil {
			w.swallow("border lines", err)
		}
		if err := h.SetModifiable(id, false); err != nil {
			w.swallow("border modifiable", err)
		}
	}

	id, err := h.CreateSurface(host.SurfaceOptions{
		Geometry: w.geom,
		Filetype: opts.Name,
		Style:    opts.Style,
		Relative: opts.Relative,
		Scratch:  true,
	})
	if err != nil {
		if w.hasBorder {
			_ = h.CloseSurface(w.border, true)
		}
		return nil, err
	}
	w.primary = id

	// Border lifetime is bound to the primary: host-initiated teardown of
	// the primary takes the border with it.
	if w.hasBorder {
		border := w.border
		if err := h.OnClose(id, func() {
			if err := h.CloseSurface(border, true); err != nil {
				w.swallow("border close", err)
			}
		}); err != nil {
			w.swallow("border close hook", err)
		}
	}

	if opts.Modifiable != nil && !*opts.Modifiable {
		if err := h.SetModifiable(id, false); err != nil {
			w.swallow("modifiable", err)
		}
	}

	header := opts.HeaderGroup
	if header == "" {
		header = DefaultHeaderGroup
	}
	w.Highlight(header, 0, 0, -1)

	return w, nil
}

// Name returns the window's name.
func (w *Window) Name() string { return w.name }

// IsOpen reports whether the window has not been closed.
func (w *Window) IsOpen() bool { return !w.closed }

// Geometry returns the primary surface's current geometry.
func (w *Window) Geometry() host.Geometry { return w.geom }

// HasBorder reports whether a border surface was created.
func (w *Window) HasBorder() bool { return w.hasBorder }

// Surface returns the primary surface ID for host-level wiring.
func (w *Window) Surface() host.SurfaceID { return w.primary }

// Cache returns the window's function cache.
func (w *Window) Cache() *cache.Cache { return w.fns }

// Lock makes the primary buffer reject edits.
func (w *Window) Lock() {
	if err := w.h.SetModifiable(w.primary, false); err != nil {
		w.swallow("lock", err)
	}
}

// Unlock makes the primary buffer accept edits again.
func (w *Window) Unlock() {
	if err := w.h.SetModifiable(w.primary, true); err != nil {
		w.swallow("unlock", err)
	}
}

// RegisterKeymap binds every key in binds for the given mode on the primary
// buffer. Callback bindings are routed through the function cache and bound
// as indirection tokens. A nil opts uses the defaults (nowait, noremap,
// silent).
func (w *Window) RegisterKeymap(mode string, binds Keymap, opts *host.BindOptions) error {
	if mode == "" {
		return host.NewConfigError("mode", "keymap registration requires a mode")
	}
	if len(binds) == 0 {
		return host.NewConfigError("bindings", "keymap registration requires bindings")
	}
	bo := host.DefaultBindOptions()
	if opts != nil {
		bo = *opts
	}
	for key, kb := range binds {
		var action host.BindAction
		if kb.Handler != nil {
			token := w.fns.Register(mode, key, kb.Handler)
			action = host.TokenAction(token)
		} else {
			action = host.CommandAction(kb.Command)
		}
		if err := w.h.Bind(w.primary, mode, key, action, bo); err != nil {
			w.swallow("bind", err)
		}
	}
	return nil
}

// OnContentChange registers the content-mutation listener for the primary
// buffer. The last registration wins; fan-out across consumers is the
// caller's responsibility.
func (w *Window) OnContentChange(fn func(host.ChangeEvent)) {
	if err := w.h.OnChange(w.primary, fn); err != nil {
		w.swallow("onchange", err)
	}
}

// WriteLines replaces the full buffer contents.
func (w *Window) WriteLines(lines []string) {
	if err := w.h.SetLines(w.primary, lines); err != nil {
		w.swallow("write lines", err)
	}
}

// ReadLines returns the full buffer contents, or nil if the surface is gone.
func (w *Window) ReadLines() []string {
	lines, err := w.h.Lines(w.primary)
	if err != nil {
		w.swallow("read lines", err)
		return nil
	}
	return lines
}

// GetCursor returns the cursor position in the primary window.
func (w *Window) GetCursor() host.Position {
	pos, err := w.h.Cursor(w.primary)
	if err != nil {
		w.swallow("get cursor", err)
		return host.Position{}
	}
	return pos
}

// SetCursor moves the cursor to an absolute position.
func (w *Window) SetCursor(row, col int) {
	if err := w.h.SetCursor(w.primary, host.Position{Row: row, Col: col}); err != nil {
		w.swallow("set cursor", err)
	}
}

// MoveCursor moves the cursor relative to its current position. The result
// is clamped to the window height and width on the upper bound only;
// negative positions pass through unchanged and are left to the host.
func (w *Window) MoveCursor(dRow, dCol int) {
	pos := w.GetCursor()
	pos.Row += dRow
	pos.Col += dCol
	if pos.Row > w.geom.Height {
		pos.Row = w.geom.Height
	}
	if pos.Col > w.geom.Width {
		pos.Col = w.geom.Width
	}
	w.SetCursor(pos.Row, pos.Col)
}

// Highlight applies group over [colStart, colEnd) of the given 0-based line
// in the window's content namespace. colEnd of -1 means end of line. An
// empty group clears the line's highlights instead.
func (w *Window) Highlight(group string, line, colStart, colEnd int) {
	if !w.nsCreated {
		w.ns = w.h.CreateNamespace(w.name + "_hi")
		w.nsCreated = true
	}
	if group == "" {
		if err := w.h.ClearHighlights(w.primary, w.ns, line); err != nil {
			w.swallow("clear highlight", err)
		}
		return
	}
	if err := w.h.Highlight(w.primary, w.ns, group, line, colStart, colEnd); err != nil {
		w.swallow("highlight", err)
	}
}

// SetBorderColor applies group across every border row, or clears the border
// namespace when group is empty. No-op for borderless windows.
func (w *Window) SetBorderColor(group string) {
	if !w.hasBorder {
		return
	}
	if !w.nsBorderCreated {
		w.nsBorder = w.h.CreateNamespace(w.name + "_hi_border")
		w.nsBorderCreated = true
	}
	if group == "" {
		if err := w.h.ClearHighlights(w.border, w.nsBorder, -1); err != nil {
			w.swallow("clear border color", err)
		}
		return
	}
	rows := w.geom.Height + 2*borderInset
	for row := 0; row < rows; row++ {
		if err := w.h.Highlight(w.border, w.nsBorder, group, row, 0, -1); err != nil {
			w.swallow("border color", err)
		}
	}
}

// UpdateOptions recomputes geometry from opts and pushes a live
// reconfiguration to the primary and border surfaces. The border keeps its
// fixed inset relative to the primary. The window's name cannot change.
func (w *Window) UpdateOptions(opts Options) {
	opts.Name = w.name
	opts.Border = w.hasBorder
	w.opts = opts
	w.geom = computeGeometry(w.h, opts)
	if err := w.h.ConfigureSurface(w.primary, w.geom); err != nil {
		w.swallow("configure", err)
	}
	if w.hasBorder {
		if err := w.h.ConfigureSurface(w.border, borderGeometry(w.geom)); err != nil {
			w.swallow("configure border", err)
		}
	}
}

// Move repositions the window relative to its current placement.
func (w *Window) Move(dRow, dCol int) {
	opts := w.opts
	row := w.geom.Row + dRow
	col := w.geom.Col + dCol
	opts.Row = &row
	opts.Col = &col
	opts.Width = w.geom.Width
	opts.Height = w.geom.Height
	w.UpdateOptions(opts)
}

// Shake schedules times*3 alternating one-column moves at 100ms intervals
// and invokes onComplete after the final step. The animation is
// fire-and-forget: it cannot be cancelled, and steps landing after the
// window is gone degrade to no-ops.
func (w *Window) Shake(times int, onComplete func()) {
	if times < 1 {
		times = 1
	}
	steps := times * 3
	for i := 1; i <= steps; i++ {
		w.h.Defer(time.Duration(i)*shakeInterval, func() {
			if w.closed {
				if i == steps && onComplete != nil {
					onComplete()
				}
				return
			}
			if i%2 == 1 {
				w.Move(0, 1)
			} else {
				w.Move(0, -1)
			}
			if i == steps && onComplete != nil {
				onComplete()
			}
		})
	}
}

// Close destroys the primary surface (and, through the teardown hook, the
// border). Destruction failures are swallowed: the window may already be
// gone via user-initiated close.
func (w *Window) Close(force bool) {
	if w.closed {
		return
	}
	w.closed = true
	if err := w.h.CloseSurface(w.primary, force); err != nil {
		w.swallow("close", err)
	}
}

// swallow logs a host boundary failure without surfacing it. Runtime
// interaction errors are best-effort by policy.
func (w *Window) swallow(op string, err error) {
	w.log.V(1).Info("host operation failed", "window", w.name, "op", op, "err", err)
}
