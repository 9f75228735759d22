package termhost

import (
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/formwin/pkg/host"
)

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string { return ansiRE.ReplaceAllString(s, "") }

func newTestHost(t *testing.T, w, h int) *Host {
	t.Helper()
	th, err := New(Options{
		Width:    w,
		Height:   h,
		VarsPath: filepath.Join(t.TempDir(), "vars.yaml"),
	})
	require.NoError(t, err)
	return th
}

func press(h *Host, msg tea.KeyPressMsg) bool { return h.HandleKey(msg) }

func TestSurfaceLifecycle(t *testing.T) {
	h := newTestHost(t, 40, 10)

	id, err := h.CreateSurface(host.SurfaceOptions{
		Geometry: host.Geometry{Width: 10, Height: 3, Row: 2, Col: 4},
	})
	require.NoError(t, err)

	closed := false
	require.NoError(t, h.OnClose(id, func() { closed = true }))
	require.NoError(t, h.SetLines(id, []string{"one", "two"}))

	lines, err := h.Lines(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, lines)

	require.NoError(t, h.CloseSurface(id, true))
	assert.True(t, closed)

	err = h.SetLines(id, []string{"x"})
	assert.True(t, host.IsOpError(err))
	err = h.CloseSurface(id, true)
	assert.True(t, host.IsOpError(err))
}

func TestBindingDispatchResolvesTokens(t *testing.T) {
	h := newTestHost(t, 40, 10)
	id, err := h.CreateSurface(host.SurfaceOptions{
		Geometry: host.Geometry{Width: 10, Height: 1},
	})
	require.NoError(t, err)

	invoked := 0
	h.TokenResolver = func(token string) (func(), bool) {
		if token != "tok-submit" {
			return nil, false
		}
		return func() { invoked++ }, true
	}
	require.NoError(t, h.Bind(id, ModeNormal, "<CR>", host.TokenAction("tok-submit"), host.DefaultBindOptions()))

	assert.True(t, press(h, tea.KeyPressMsg{Code: tea.KeyEnter}))
	assert.Equal(t, 1, invoked)
}

func TestBindingDispatchClosesOnCommand(t *testing.T) {
	h := newTestHost(t, 40, 10)
	id, err := h.CreateSurface(host.SurfaceOptions{
		Geometry: host.Geometry{Width: 10, Height: 1},
	})
	require.NoError(t, err)
	require.NoError(t, h.Bind(id, ModeNormal, "q", host.CommandAction("close"), host.DefaultBindOptions()))

	assert.True(t, press(h, tea.KeyPressMsg{Code: 'q', Text: "q"}))
	assert.True(t, h.surfaces[id].closed)
}

func TestBindingsArePerMode(t *testing.T) {
	h := newTestHost(t, 40, 10)
	id, err := h.CreateSurface(host.SurfaceOptions{
		Geometry: host.Geometry{Width: 10, Height: 1},
	})
	require.NoError(t, err)

	invoked := false
	h.TokenResolver = func(string) (func(), bool) { return func() { invoked = true }, true }
	require.NoError(t, h.Bind(id, ModeInsert, "<Left>", host.TokenAction("tok"), host.DefaultBindOptions()))

	// Normal mode has no binding for <Left>.
	assert.False(t, press(h, tea.KeyPressMsg{Code: tea.KeyLeft}))
	assert.False(t, invoked)

	press(h, tea.KeyPressMsg{Code: 'i', Text: "i"})
	assert.True(t, press(h, tea.KeyPressMsg{Code: tea.KeyLeft}))
	assert.True(t, invoked)
}

func TestModalEditing(t *testing.T) {
	h := newTestHost(t, 40, 10)
	id, err := h.CreateSurface(host.SurfaceOptions{
		Geometry: host.Geometry{Width: 20, Height: 1},
	})
	require.NoError(t, err)
	require.NoError(t, h.SetLines(id, []string{"name: "}))
	require.NoError(t, h.SetCursor(id, host.Position{Row: 1, Col: 6}))

	var changes []host.ChangeEvent
	require.NoError(t, h.OnChange(id, func(ev host.ChangeEvent) { changes = append(changes, ev) }))

	assert.Equal(t, ModeNormal, h.Mode())
	press(h, tea.KeyPressMsg{Code: 'i', Text: "i"})
	assert.Equal(t, ModeInsert, h.Mode())

	press(h, tea.KeyPressMsg{Code: 'a', Text: "a"})
	press(h, tea.KeyPressMsg{Code: 'd', Text: "d"})

	lines, err := h.Lines(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"name: ad"}, lines)

	pos, err := h.Cursor(id)
	require.NoError(t, err)
	assert.Equal(t, host.Position{Row: 1, Col: 8}, pos)
	require.Len(t, changes, 2)
	assert.Equal(t, 1, changes[0].Row)

	press(h, tea.KeyPressMsg{Code: tea.KeyBackspace})
	lines, _ = h.Lines(id)
	assert.Equal(t, []string{"name: a"}, lines)

	press(h, tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.Equal(t, ModeNormal, h.Mode())

	// Typing in normal mode does not edit the buffer.
	press(h, tea.KeyPressMsg{Code: 'x', Text: "x"})
	lines, _ = h.Lines(id)
	assert.Equal(t, []string{"name: a"}, lines)
}

func TestInsertRespectsLockedBuffer(t *testing.T) {
	h := newTestHost(t, 40, 10)
	id, err := h.CreateSurface(host.SurfaceOptions{
		Geometry: host.Geometry{Width: 20, Height: 1},
	})
	require.NoError(t, err)
	require.NoError(t, h.SetLines(id, []string{"fixed"}))
	require.NoError(t, h.SetModifiable(id, false))

	press(h, tea.KeyPressMsg{Code: 'i', Text: "i"})
	press(h, tea.KeyPressMsg{Code: 'z', Text: "z"})

	lines, err := h.Lines(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"fixed"}, lines)
}

func TestRenderCompositesSurfacesInZOrder(t *testing.T) {
	h := newTestHost(t, 12, 4)

	under, err := h.CreateSurface(host.SurfaceOptions{
		Geometry: host.Geometry{Width: 8, Height: 1, Row: 1, Col: 0},
	})
	require.NoError(t, err)
	require.NoError(t, h.SetLines(under, []string{"underneath"}))

	over, err := h.CreateSurface(host.SurfaceOptions{
		Geometry: host.Geometry{Width: 3, Height: 1, Row: 1, Col: 2},
	})
	require.NoError(t, err)
	require.NoError(t, h.SetLines(over, []string{"TOP"}))

	rows := strings.Split(stripANSI(h.Render()), "\n")
	require.Len(t, rows, 4)
	// Surface width clips the longer line; the top surface overlays it.
	assert.Equal(t, "unTOPnea", strings.TrimRight(rows[1], " "))
	assert.Equal(t, "", strings.TrimRight(rows[0], " "))
}

func TestRenderAppliesHighlightStyles(t *testing.T) {
	th, err := New(Options{
		Width:    10,
		Height:   2,
		VarsPath: filepath.Join(t.TempDir(), "vars.yaml"),
		Colors:   map[string]string{"FormwinInvalid": "#f7768e"},
	})
	require.NoError(t, err)

	id, err := th.CreateSurface(host.SurfaceOptions{
		Geometry: host.Geometry{Width: 5, Height: 1},
	})
	require.NoError(t, err)
	require.NoError(t, th.SetLines(id, []string{"bad"}))
	ns := th.CreateNamespace("t_hi")
	require.NoError(t, th.Highlight(id, ns, "FormwinInvalid", 0, 0, -1))

	out := th.Render()
	assert.Contains(t, stripANSI(out), "bad")

	require.NoError(t, th.ClearHighlights(id, ns, -1))
	assert.Contains(t, stripANSI(th.Render()), "bad")
}

func TestDeferWithoutProgramFires(t *testing.T) {
	h := newTestHost(t, 10, 2)
	done := make(chan struct{})
	h.Defer(5*time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("deferred callback never ran")
	}
}

func TestDeferWithProgramDeliversOnLoop(t *testing.T) {
	h := newTestHost(t, 10, 2)
	var got []tea.Msg
	h.send = func(msg tea.Msg) { got = append(got, msg) }
	defer func() { h.send = nil }()

	ran := false
	h.Defer(time.Millisecond, func() { ran = true })
	require.Eventually(t, func() bool { return len(got) == 1 }, time.Second, time.Millisecond)

	m := &model{h: h, keys: defaultKeyMap, started: true}
	m.Update(got[0])
	assert.True(t, ran)
}

func TestModelQuitsWhenAllSurfacesClose(t *testing.T) {
	h := newTestHost(t, 10, 2)
	m := &model{h: h, keys: defaultKeyMap}

	id, err := h.CreateSurface(host.SurfaceOptions{Geometry: host.Geometry{Width: 2, Height: 1}})
	require.NoError(t, err)

	_, cmd := m.Update(startMsg{})
	assert.Nil(t, cmd)

	require.NoError(t, h.CloseSurface(id, true))
	_, cmd = m.Update(tea.WindowSizeMsg{Width: 10, Height: 2})
	assert.NotNil(t, cmd)
}
