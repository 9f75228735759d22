// Package memhost provides an in-memory Host implementation. It backs the
// toolkit's own tests and is exported so consumers can drive windows and
// forms headlessly: keypresses, buffer edits, and timer ticks are all
// delivered synchronously from test code.
package memhost

import (
	"sort"
	"time"

	"github.com/oakwood-commons/formwin/pkg/host"
)

// Binding records a key binding registered against a surface.
type Binding struct {
	Action host.BindAction
	Opts   host.BindOptions
}

// Highlight records one applied highlight region.
type Highlight struct {
	Group    string
	Line     int
	ColStart int
	ColEnd   int // -1 means end of line
}

type surface struct {
	id       host.SurfaceID
	geom     host.Geometry
	opts     host.SurfaceOptions
	lines    []string
	cursor   host.Position
	closed   bool
	modif    bool
	bindings map[string]Binding // mode + "\x00" + key
	onChange func(host.ChangeEvent)
	onClose  []func()
	// highlights per namespace
	highlights map[host.NamespaceID][]Highlight
}

type timer struct {
	due time.Duration
	seq int
	fn  func()
}

// Host is an in-memory host.Host. The zero value is not usable; call New.
type Host struct {
	width  int
	height int

	nextSurface   host.SurfaceID
	nextNamespace host.NamespaceID
	surfaces      map[host.SurfaceID]*surface
	namespaces    map[string]host.NamespaceID

	vars map[string]string

	now    time.Duration
	seq    int
	timers []timer

	// TokenResolver resolves cache indirection tokens to callbacks when a
	// bound key with a token action is pressed. Wire it to cache.Invoke.
	TokenResolver func(token string) (func(), bool)

	// Commands records literal command actions that were "executed" via
	// PressKey, in order.
	Commands []string
}

// New creates a Host with the given viewport size.
func New(width, height int) *Host {
	return &Host{
		width:      width,
		height:     height,
		surfaces:   map[host.SurfaceID]*surface{},
		namespaces: map[string]host.NamespaceID{},
		vars:       map[string]string{},
	}
}

// Viewport implements host.Host.
func (h *Host) Viewport() (int, int) { return h.width, h.height }

// CreateSurface implements host.Host.
func (h *Host) CreateSurface(opts host.SurfaceOptions) (host.SurfaceID, error) {
	h.nextSurface++
	id := h.nextSurface
	h.surfaces[id] = &surface{
		id:         id,
		geom:       opts.Geometry,
		opts:       opts,
		lines:      []string{""},
		cursor:     host.Position{Row: 1, Col: 0},
		modif:      true,
		bindings:   map[string]Binding{},
		highlights: map[host.NamespaceID][]Highlight{},
	}
	return id, nil
}

func (h *Host) live(op string, id host.SurfaceID) (*surface, error) {
	s, ok := h.surfaces[id]
	if !ok || s.closed {
		return nil, host.NewOpError(op, id, nil)
	}
	return s, nil
}

// ConfigureSurface implements host.Host.
func (h *Host) ConfigureSurface(id host.SurfaceID, geom host.Geometry) error {
	s, err := h.live("configure", id)
	if err != nil {
		return err
	}
	s.geom = geom
	return nil
}

// CloseSurface implements host.Host.
func (h *Host) CloseSurface(id host.SurfaceID, force bool) error {
	s, err := h.live("close", id)
	if err != nil {
		return err
	}
	s.closed = true
	for _, fn := range s.onClose {
		fn()
	}
	return nil
}

// OnClose implements host.Host.
func (h *Host) OnClose(id host.SurfaceID, fn func()) error {
	s, err := h.live("onclose", id)
	if err != nil {
		return err
	}
	s.onClose = append(s.onClose, fn)
	return nil
}

// SetModifiable implements host.Host.
func (h *Host) SetModifiable(id host.SurfaceID, modifiable bool) error {
	s, err := h.live("modifiable", id)
	if err != nil {
		return err
	}
	s.modif = modifiable
	return nil
}

// SetLines implements host.Host.
func (h *Host) SetLines(id host.SurfaceID, lines []string) error {
	s, err := h.live("setlines", id)
	if err != nil {
		return err
	}
	s.lines = append([]string(nil), lines...)
	return nil
}

// Lines implements host.Host.
func (h *Host) Lines(id host.SurfaceID) ([]string, error) {
	s, err := h.live("lines", id)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), s.lines...), nil
}

// Cursor implements host.Host.
func (h *Host) Cursor(id host.SurfaceID) (host.Position, error) {
	s, err := h.live("cursor", id)
	if err != nil {
		return host.Position{}, err
	}
	return s.cursor, nil
}

// SetCursor implements host.Host.
func (h *Host) SetCursor(id host.SurfaceID, pos host.Position) error {
	s, err := h.live("setcursor", id)
	if err != nil {
		return err
	}
	s.cursor = pos
	return nil
}

func bindKey(mode, key string) string { return mode + "\x00" + key }

// Bind implements host.Host.
func (h *Host) Bind(id host.SurfaceID, mode, key string, action host.BindAction, opts host.BindOptions) error {
	s, err := h.live("bind", id)
	if err != nil {
		return err
	}
	s.bindings[bindKey(mode, key)] = Binding{Action: action, Opts: opts}
	return nil
}

// OnChange implements host.Host.
func (h *Host) OnChange(id host.SurfaceID, fn func(host.ChangeEvent)) error {
	s, err := h.live("onchange", id)
	if err != nil {
		return err
	}
	s.onChange = fn
	return nil
}

// CreateNamespace implements host.Host.
func (h *Host) CreateNamespace(name string) host.NamespaceID {
	if id, ok := h.namespaces[name]; ok {
		return id
	}
	h.nextNamespace++
	h.namespaces[name] = h.nextNamespace
	return h.nextNamespace
}

// Highlight implements host.Host.
func (h *Host) Highlight(id host.SurfaceID, ns host.NamespaceID, group string, line, colStart, colEnd int) error {
	s, err := h.live("highlight", id)
	if err != nil {
		return err
	}
	s.highlights[ns] = append(s.highlights[ns], Highlight{
		Group:    group,
		Line:     line,
		ColStart: colStart,
		ColEnd:   colEnd,
	})
	return nil
}

// ClearHighlights implements host.Host.
func (h *Host) ClearHighlights(id host.SurfaceID, ns host.NamespaceID, line int) error {
	s, err := h.live("clearhighlights", id)
	if err != nil {
		return err
	}
	if line < 0 {
		s.highlights[ns] = nil
		return nil
	}
	kept := s.highlights[ns][:0]
	for _, hl := range s.highlights[ns] {
		if hl.Line != line {
			kept = append(kept, hl)
		}
	}
	s.highlights[ns] = kept
	return nil
}

// Defer implements host.Host. Callbacks run when test code advances the
// virtual clock with Advance or RunTimers.
func (h *Host) Defer(d time.Duration, fn func()) {
	h.seq++
	h.timers = append(h.timers, timer{due: h.now + d, seq: h.seq, fn: fn})
}

// GetVar implements host.Host.
func (h *Host) GetVar(key string) (string, bool, error) {
	v, ok := h.vars[key]
	return v, ok, nil
}

// SetVar implements host.Host.
func (h *Host) SetVar(key, value string) error {
	h.vars[key] = value
	return nil
}

// DelVar implements host.Host.
func (h *Host) DelVar(key string) error {
	delete(h.vars, key)
	return nil
}

// ----------------------------------------------------------------------------
// Test drivers
// ----------------------------------------------------------------------------

// Advance moves the virtual clock forward by d, running due timers in order.
// Timers scheduled by running timers are honored within the same advance.
func (h *Host) Advance(d time.Duration) {
	deadline := h.now + d
	for {
		idx := -1
		for i, t := range h.timers {
			if t.due > deadline {
				continue
			}
			if idx == -1 || t.due < h.timers[idx].due ||
				(t.due == h.timers[idx].due && t.seq < h.timers[idx].seq) {
				idx = i
			}
		}
		if idx == -1 {
			break
		}
		t := h.timers[idx]
		h.timers = append(h.timers[:idx], h.timers[idx+1:]...)
		h.now = t.due
		t.fn()
	}
	h.now = deadline
}

// RunTimers runs every pending timer in due order, including timers scheduled
// while draining.
func (h *Host) RunTimers() {
	for len(h.timers) > 0 {
		sort.Slice(h.timers, func(i, j int) bool {
			if h.timers[i].due != h.timers[j].due {
				return h.timers[i].due < h.timers[j].due
			}
			return h.timers[i].seq < h.timers[j].seq
		})
		t := h.timers[0]
		h.timers = h.timers[1:]
		h.now = t.due
		t.fn()
	}
}

// PendingTimers returns the number of scheduled, not-yet-run timers.
func (h *Host) PendingTimers() int { return len(h.timers) }

// PressKey simulates a keypress in the given mode on a surface. Token actions
// resolve through TokenResolver; command actions are recorded in Commands.
// Returns false if no binding matched.
func (h *Host) PressKey(id host.SurfaceID, mode, key string) bool {
	s, ok := h.surfaces[id]
	if !ok || s.closed {
		return false
	}
	b, ok := s.bindings[bindKey(mode, key)]
	if !ok {
		return false
	}
	if b.Action.Token != "" && h.TokenResolver != nil {
		if fn, ok := h.TokenResolver(b.Action.Token); ok {
			fn()
			return true
		}
		return false
	}
	if b.Action.Command != "" {
		h.Commands = append(h.Commands, b.Action.Command)
		return true
	}
	return false
}

// HasBinding reports whether a binding exists for mode+key on the surface.
func (h *Host) HasBinding(id host.SurfaceID, mode, key string) bool {
	s, ok := h.surfaces[id]
	if !ok {
		return false
	}
	_, ok = s.bindings[bindKey(mode, key)]
	return ok
}

// SetLine replaces a single 0-based line and fires the surface's change
// listener, simulating a user edit. No-op when the buffer is locked.
func (h *Host) SetLine(id host.SurfaceID, line int, text string) {
	s, ok := h.surfaces[id]
	if !ok || s.closed || !s.modif {
		return
	}
	for len(s.lines) <= line {
		s.lines = append(s.lines, "")
	}
	s.lines[line] = text
	if s.onChange != nil {
		s.onChange(host.ChangeEvent{Row: line + 1, Col: 0})
	}
}

// Geometry returns the current geometry of a surface.
func (h *Host) Geometry(id host.SurfaceID) (host.Geometry, bool) {
	s, ok := h.surfaces[id]
	if !ok {
		return host.Geometry{}, false
	}
	return s.geom, true
}

// IsClosed reports whether the surface has been destroyed.
func (h *Host) IsClosed(id host.SurfaceID) bool {
	s, ok := h.surfaces[id]
	return !ok || s.closed
}

// IsModifiable reports whether the surface's buffer accepts edits.
func (h *Host) IsModifiable(id host.SurfaceID) bool {
	s, ok := h.surfaces[id]
	return ok && s.modif
}

// OpenSurfaces returns the IDs of all surfaces that are still open.
func (h *Host) OpenSurfaces() []host.SurfaceID {
	var ids []host.SurfaceID
	for id, s := range h.surfaces {
		if !s.closed {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// HighlightsOn returns highlights applied on a 0-based line in a namespace.
func (h *Host) HighlightsOn(id host.SurfaceID, ns host.NamespaceID, line int) []Highlight {
	s, ok := h.surfaces[id]
	if !ok {
		return nil
	}
	var out []Highlight
	for _, hl := range s.highlights[ns] {
		if hl.Line == line {
			out = append(out, hl)
		}
	}
	return out
}

// AllHighlights returns every highlight in a namespace, in application order.
func (h *Host) AllHighlights(id host.SurfaceID, ns host.NamespaceID) []Highlight {
	s, ok := h.surfaces[id]
	if !ok {
		return nil
	}
	return append([]Highlight(nil), s.highlights[ns]...)
}

// NamespaceFor returns the namespace ID previously created under name.
func (h *Host) NamespaceFor(name string) (host.NamespaceID, bool) {
	id, ok := h.namespaces[name]
	return id, ok
}

// Vars returns a copy of the persistent variable store.
func (h *Host) Vars() map[string]string {
	out := make(map[string]string, len(h.vars))
	for k, v := range h.vars {
		out[k] = v
	}
	return out
}
