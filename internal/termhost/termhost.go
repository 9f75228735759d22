// Package termhost implements the toolkit Host on a terminal using Bubble
// Tea. Surfaces become floating panes composited over a blank backdrop;
// bindings and modal editing approximate the editor hosts the toolkit was
// designed for: normal mode routes keys to bindings, "i" enters insert mode,
// and insert-mode text edits the focused surface's buffer.
package termhost

import (
	"sort"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/go-logr/logr"
	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/formwin/pkg/cache"
	"github.com/oakwood-commons/formwin/pkg/host"
)

const (
	// ModeNormal routes keys to surface bindings.
	ModeNormal = "n"
	// ModeInsert routes printable keys into the focused buffer.
	ModeInsert = "i"
)

// Options configures a terminal host.
type Options struct {
	// Width and Height fix the viewport size. Zero values auto-detect the
	// terminal, falling back to 80x24.
	Width  int
	Height int

	// VarsPath overrides the persistent variable store location. Empty
	// uses the user config directory; see defaultVarsPath.
	VarsPath string

	// Colors maps highlight group names to terminal colors.
	Colors map[string]string

	Logger *logr.Logger
}

type binding struct {
	action host.BindAction
	opts   host.BindOptions
}

type highlight struct {
	group    string
	line     int
	colStart int
	colEnd   int // -1 means end of line
}

type surface struct {
	id         host.SurfaceID
	geom       host.Geometry
	opts       host.SurfaceOptions
	lines      []string
	cursor     host.Position
	closed     bool
	modif      bool
	bindings   map[string]binding // mode + "\x00" + key
	onChange   func(host.ChangeEvent)
	onClose    []func()
	highlights map[host.NamespaceID][]highlight
}

// Host is a terminal-backed host.Host. Create one with New and drive it with
// Run; all Host methods must be called from the event loop (the start
// function, bound callbacks, and Defer callbacks all run there).
type Host struct {
	width  int
	height int

	nextSurface   host.SurfaceID
	nextNamespace host.NamespaceID
	surfaces      map[host.SurfaceID]*surface
	zorder        []host.SurfaceID
	namespaces    map[string]host.NamespaceID

	store  *varStore
	styles map[string]lipgloss.Style
	log    logr.Logger
	mode   string

	// send delivers messages to the running program; nil until Run.
	send func(tea.Msg)

	// TokenResolver resolves cache indirection tokens when a bound key
	// with a token action is pressed. Defaults to cache.Invoke.
	TokenResolver func(token string) (func(), bool)

	// RunCommand executes literal command actions the host does not
	// recognize itself. Optional; unrecognized commands are logged.
	RunCommand func(cmd string)
}

// New creates a terminal host. It does not start the UI; call Run.
func New(opts Options) (*Host, error) {
	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		dw, dh := DetectSize()
		if w <= 0 {
			w = dw
		}
		if h <= 0 {
			h = dh
		}
	}

	path := opts.VarsPath
	if path == "" {
		path = defaultVarsPath()
	}
	store, err := openVarStore(path)
	if err != nil {
		return nil, err
	}

	styles := make(map[string]lipgloss.Style, len(opts.Colors))
	for group, color := range opts.Colors {
		styles[group] = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}

	log := logr.Discard()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &Host{
		width:         w,
		height:        h,
		surfaces:      map[host.SurfaceID]*surface{},
		namespaces:    map[string]host.NamespaceID{},
		store:         store,
		styles:        styles,
		log:           log,
		mode:          ModeNormal,
		TokenResolver: cache.Invoke,
	}, nil
}

// Mode returns the current input mode, ModeNormal or ModeInsert.
func (h *Host) Mode() string { return h.mode }

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
		bindings:   map[string]binding{},
		highlights: map[host.NamespaceID][]highlight{},
	}
	h.zorder = append(h.zorder, id)
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
	for i, zid := range h.zorder {
		if zid == id {
			h.zorder = append(h.zorder[:i], h.zorder[i+1:]...)
			break
		}
	}
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
	s.bindings[bindKey(mode, key)] = binding{action: action, opts: opts}
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
	s.highlights[ns] = append(s.highlights[ns], highlight{
		group:    group,
		line:     line,
		colStart: colStart,
		colEnd:   colEnd,
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
		if hl.line != line {
			kept = append(kept, hl)
		}
	}
	s.highlights[ns] = kept
	return nil
}

// Defer implements host.Host. With a running program the callback is
// delivered as a message so it executes on the event loop; without one it
// runs on the timer goroutine.
func (h *Host) Defer(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		if h.send != nil {
			h.send(deferMsg{fn: fn})
			return
		}
		fn()
	})
}

// GetVar implements host.Host.
func (h *Host) GetVar(key string) (string, bool, error) {
	v, ok := h.store.get(key)
	return v, ok, nil
}

// SetVar implements host.Host.
func (h *Host) SetVar(key, value string) error {
	return h.store.set(key, value)
}

// DelVar implements host.Host.
func (h *Host) DelVar(key string) error {
	return h.store.del(key)
}

// ----------------------------------------------------------------------------
// Input
// ----------------------------------------------------------------------------

// focused returns the top surface in z-order, or nil when none is open.
func (h *Host) focused() *surface {
	if len(h.zorder) == 0 {
		return nil
	}
	return h.surfaces[h.zorder[len(h.zorder)-1]]
}

// HandleKey routes one keypress: surface bindings for the current mode win,
// then mode transitions, then insert-mode editing. Returns true when the key
// was consumed.
func (h *Host) HandleKey(msg tea.KeyPressMsg) bool {
	note := Notation(msg.String())
	s := h.focused()

	if s != nil {
		if b, ok := s.bindings[bindKey(h.mode, note)]; ok {
			h.execute(b.action)
			return true
		}
	}

	switch h.mode {
	case ModeNormal:
		if note == "i" {
			h.mode = ModeInsert
			return true
		}
	case ModeInsert:
		switch note {
		case "<Esc>":
			h.mode = ModeNormal
			return true
		case "<BS>":
			if s != nil {
				h.deleteBack(s)
			}
			return true
		default:
			if s != nil && msg.Text != "" {
				h.insertText(s, msg.Text)
				return true
			}
		}
	}
	return false
}

func (h *Host) execute(action host.BindAction) {
	if action.Token != "" {
		if h.TokenResolver != nil {
			if fn, ok := h.TokenResolver(action.Token); ok {
				fn()
				return
			}
		}
		h.log.V(1).Info("unresolved token action", "token", action.Token)
		return
	}
	if action.Command != "" {
		h.command(action.Command)
	}
}

func (h *Host) command(cmd string) {
	switch cmd {
	case "close", "quit":
		if s := h.focused(); s != nil {
			_ = h.CloseSurface(s.id, true)
		}
	default:
		if h.RunCommand != nil {
			h.RunCommand(cmd)
			return
		}
		h.log.V(1).Info("unhandled command action", "command", cmd)
	}
}

// runeIndexAt maps a cell column to a rune index within line.
func runeIndexAt(line string, col int) int {
	w := 0
	for i, r := range []rune(line) {
		if w >= col {
			return i
		}
		w += runewidth.RuneWidth(r)
	}
	return len([]rune(line))
}

func (h *Host) insertText(s *surface, text string) {
	if !s.modif {
		return
	}
	row := s.cursor.Row
	if row < 1 {
		row = 1
	}
	for len(s.lines) < row {
		s.lines = append(s.lines, "")
	}
	line := []rune(s.lines[row-1])
	idx := runeIndexAt(s.lines[row-1], s.cursor.Col)
	out := make([]rune, 0, len(line)+len(text))
	out = append(out, line[:idx]...)
	out = append(out, []rune(text)...)
	out = append(out, line[idx:]...)
	s.lines[row-1] = string(out)
	s.cursor.Col += runewidth.StringWidth(text)
	h.fireChange(s, row)
}

func (h *Host) deleteBack(s *surface) {
	if !s.modif || s.cursor.Col == 0 {
		return
	}
	row := s.cursor.Row
	if row < 1 || row > len(s.lines) {
		return
	}
	line := []rune(s.lines[row-1])
	idx := runeIndexAt(s.lines[row-1], s.cursor.Col)
	if idx == 0 {
		return
	}
	removed := line[idx-1]
	s.lines[row-1] = string(append(line[:idx-1], line[idx:]...))
	s.cursor.Col -= runewidth.RuneWidth(removed)
	h.fireChange(s, row)
}

func (h *Host) fireChange(s *surface, row int) {
	if s.onChange != nil {
		s.onChange(host.ChangeEvent{Row: row, Col: s.cursor.Col})
	}
}

// ----------------------------------------------------------------------------
// Rendering
// ----------------------------------------------------------------------------

type cell struct {
	r     rune
	group string
}

// Render composites all open surfaces in z-order onto the viewport and
// returns the styled frame.
func (h *Host) Render() string {
	grid := make([][]cell, h.height)
	for y := range grid {
		grid[y] = make([]cell, h.width)
		for x := range grid[y] {
			grid[y][x] = cell{r: ' '}
		}
	}

	for _, id := range h.zorder {
		h.drawSurface(grid, h.surfaces[id])
	}
	h.drawCursor(grid)

	out := make([]string, h.height)
	for y, row := range grid {
		out[y] = h.renderRow(row)
	}
	return joinLines(out)
}

func (h *Host) drawSurface(grid [][]cell, s *surface) {
	for i := 0; i < s.geom.Height; i++ {
		y := s.geom.Row + i
		if y < 0 || y >= h.height {
			continue
		}
		text := ""
		if i < len(s.lines) {
			text = s.lines[i]
		}
		x := s.geom.Col
		runes := []rune(text)
		for c := 0; c < s.geom.Width; c++ {
			if x+c < 0 || x+c >= h.width {
				continue
			}
			r := ' '
			if c < len(runes) {
				r = runes[c]
			}
			grid[y][x+c] = cell{r: r}
		}
	}

	nss := make([]host.NamespaceID, 0, len(s.highlights))
	for ns := range s.highlights {
		nss = append(nss, ns)
	}
	sort.Slice(nss, func(i, j int) bool { return nss[i] < nss[j] })
	for _, ns := range nss {
		for _, hl := range s.highlights[ns] {
			h.paintHighlight(grid, s, hl)
		}
	}
}

func (h *Host) paintHighlight(grid [][]cell, s *surface, hl highlight) {
	y := s.geom.Row + hl.line
	if y < 0 || y >= h.height || hl.line < 0 || hl.line >= s.geom.Height {
		return
	}
	end := hl.colEnd
	if end < 0 || end > s.geom.Width {
		end = s.geom.Width
	}
	for c := hl.colStart; c < end; c++ {
		x := s.geom.Col + c
		if x < 0 || x >= h.width {
			continue
		}
		grid[y][x].group = hl.group
	}
}

func (h *Host) drawCursor(grid [][]cell) {
	s := h.focused()
	if s == nil {
		return
	}
	y := s.geom.Row + s.cursor.Row - 1
	x := s.geom.Col + s.cursor.Col
	if y < 0 || y >= h.height || x < 0 || x >= h.width {
		return
	}
	grid[y][x].group = cursorGroup
}

const cursorGroup = "\x00cursor"

var cursorStyle = lipgloss.NewStyle().Reverse(true)

// renderRow styles a row by grouping runs of cells that share a highlight
// group.
func (h *Host) renderRow(row []cell) string {
	var b []byte
	i := 0
	for i < len(row) {
		group := row[i].group
		j := i
		run := make([]rune, 0, len(row)-i)
		for j < len(row) && row[j].group == group {
			run = append(run, row[j].r)
			j++
		}
		text := string(run)
		switch {
		case group == cursorGroup:
			text = cursorStyle.Render(text)
		case group != "":
			if style, ok := h.styles[group]; ok {
				text = style.Render(text)
			}
		}
		b = append(b, text...)
		i = j
	}
	return string(b)
}

func joinLines(lines []string) string {
	var b []byte
	for i, l := range lines {
		if i > 0 {
			b = append(b, '\n')
		}
		b = append(b, l...)
	}
	return string(b)
}

// ----------------------------------------------------------------------------
// Program
// ----------------------------------------------------------------------------

type startMsg struct{}

type deferMsg struct{ fn func() }

type keyMap struct {
	Quit key.Binding
}

var defaultKeyMap = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

type model struct {
	h       *Host
	start   func(*Host) error
	keys    keyMap
	started bool
	err     error
}

func (m *model) Init() tea.Cmd {
	return func() tea.Msg { return startMsg{} }
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startMsg:
		m.started = true
		if m.start != nil {
			if err := m.start(m.h); err != nil {
				m.err = err
				return m, tea.Quit
			}
		}
	case deferMsg:
		msg.fn()
	case tea.WindowSizeMsg:
		m.h.width = msg.Width
		m.h.height = msg.Height
	case tea.KeyPressMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		m.h.HandleKey(msg)
	}
	// The demo is done once every window has closed.
	if m.started && len(m.h.zorder) == 0 {
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) View() tea.View {
	v := tea.NewView(m.h.Render())
	v.AltScreen = true
	return v
}

// Run starts the terminal UI, invokes start on the event loop once the
// program is up, and blocks until every surface has closed or the user
// quits. Extra program options (custom IO for tests) are passed through.
func (h *Host) Run(start func(*Host) error, opts ...tea.ProgramOption) error {
	m := &model{h: h, start: start, keys: defaultKeyMap}
	p := tea.NewProgram(m, opts...)
	h.send = p.Send
	defer func() { h.send = nil }()
	if _, err := p.Run(); err != nil {
		return err
	}
	return m.err
}
