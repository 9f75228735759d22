package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/formwin/pkg/cache"
	"github.com/oakwood-commons/formwin/pkg/host"
	"github.com/oakwood-commons/formwin/pkg/host/memhost"
)

func newHost() *memhost.Host {
	h := memhost.New(100, 40)
	h.TokenResolver = cache.Invoke
	return h
}

func TestNewRequiresName(t *testing.T) {
	h := newHost()
	_, err := New(h, "", nil)
	assert.True(t, host.IsConfigError(err))
}

func TestNewRejectsDuplicateFieldNames(t *testing.T) {
	h := newHost()
	_, err := New(h, "dup", []*Field{Text("a"), Text("a")})
	assert.True(t, host.IsConfigError(err))
}

func TestSubmitButtonAutoInjection(t *testing.T) {
	h := newHost()
	f, err := New(h, "auto", []*Field{Text("a"), Text("b")})
	require.NoError(t, err)

	fields := f.Fields()
	require.Len(t, fields, 3)
	last := fields[len(fields)-1]
	assert.Equal(t, SubmitButtonName, last.Name())
	assert.Equal(t, KindButton, last.Kind())
	assert.Equal(t, 3, last.Row()) // always the last row

	f2, err := New(h, "manual", []*Field{Text("a")}, NoSubmitButton())
	require.NoError(t, err)
	require.Len(t, f2.Fields(), 1)
}

func TestOpenRendersFields(t *testing.T) {
	h := newHost()
	f, err := New(h, "render", []*Field{
		Text("name", Default("ada")),
		Number("port", Default("8080")),
	})
	require.NoError(t, err)
	require.NoError(t, f.Open())

	win := f.Window()
	require.NotNil(t, win)
	assert.Equal(t, []string{"name: ada", "port: 8080", "submit"}, win.ReadLines())
	assert.Equal(t, 3, win.Geometry().Height)
	assert.GreaterOrEqual(t, win.Geometry().Width, 20)
	assert.True(t, win.HasBorder())
}

func TestOpenIsIdempotent(t *testing.T) {
	h := newHost()
	f, err := New(h, "idem", []*Field{Text("a", Default("x"))})
	require.NoError(t, err)
	require.NoError(t, f.Open())

	surfaces := h.OpenSurfaces()
	require.NoError(t, f.Open())
	assert.Equal(t, surfaces, h.OpenSurfaces())
}

func TestCursorScopedKeyDispatch(t *testing.T) {
	h := newHost()
	submitted := false
	f, err := New(h, "dispatch", []*Field{
		Text("name", Default("ada")),
	}, OnFormSubmit(func(map[string]any) { submitted = true }))
	require.NoError(t, err)
	require.NoError(t, f.Open())
	win := f.Window()

	// Enter on the text field's row moves the cursor down, no submit.
	win.SetCursor(1, 9)
	require.True(t, h.PressKey(win.Surface(), "n", "<CR>"))
	assert.Equal(t, 2, win.GetCursor().Row)
	assert.False(t, submitted)

	// Enter on the submit button's row submits.
	require.True(t, h.PressKey(win.Surface(), "n", "<CR>"))
	assert.True(t, submitted)
	assert.False(t, f.IsOpen())
}

func TestNavigationGuards(t *testing.T) {
	h := newHost()
	f, err := New(h, "guards", []*Field{Text("name", Default("ada"))})
	require.NoError(t, err)
	require.NoError(t, f.Open())
	win := f.Window()
	surface := win.Surface()

	// Label boundary for "name" is column 6; the value region starts
	// there, but left-arrow navigation cannot land on it.
	win.SetCursor(1, 9)
	h.PressKey(surface, "n", "<Left>")
	assert.Equal(t, 8, win.GetCursor().Col)
	h.PressKey(surface, "n", "<Left>")
	assert.Equal(t, 7, win.GetCursor().Col)
	h.PressKey(surface, "n", "<Left>")
	assert.Equal(t, 7, win.GetCursor().Col) // blocked

	// Right is blocked inside the label region.
	win.SetCursor(1, 3)
	h.PressKey(surface, "i", "<Right>")
	assert.Equal(t, 3, win.GetCursor().Col)
	win.SetCursor(1, 7)
	h.PressKey(surface, "i", "<Right>")
	assert.Equal(t, 8, win.GetCursor().Col)
}

func TestEscCloses(t *testing.T) {
	h := newHost()
	f, err := New(h, "escape", []*Field{Text("a")})
	require.NoError(t, err)
	require.NoError(t, f.Open())

	require.True(t, h.PressKey(f.Window().Surface(), "n", "<Esc>"))
	assert.False(t, f.IsOpen())
	assert.Empty(t, h.OpenSurfaces())
}

func TestLiveValidationHighlightToggle(t *testing.T) {
	h := newHost()
	var updates []any
	f, err := New(h, "live", []*Field{
		Number("port", Default("1"), OnUpdate(func(v any) { updates = append(updates, v) })),
	})
	require.NoError(t, err)
	require.NoError(t, f.Open())
	win := f.Window()
	ns, ok := h.NamespaceFor("live_hi")
	require.True(t, ok)

	h.SetLine(win.Surface(), 0, "port: nope")
	hls := h.HighlightsOn(win.Surface(), ns, 0)
	require.NotEmpty(t, hls)
	assert.Equal(t, DefaultInvalidGroup, hls[len(hls)-1].Group)

	h.SetLine(win.Surface(), 0, "port: 9090")
	assert.Empty(t, h.HighlightsOn(win.Surface(), ns, 0))
	assert.Equal(t, []any{9090}, updates)
}

func TestSubmitInvalidKeepsFormOpen(t *testing.T) {
	h := newHost()
	f, err := New(h, "signup", []*Field{
		Text("email", WithValidator(VEmail)),
	})
	require.NoError(t, err)
	require.NoError(t, f.Open())
	win := f.Window()

	h.SetLine(win.Surface(), 0, "email: bad@")

	values, ok := f.Submit()
	assert.False(t, ok)
	assert.Nil(t, values)
	assert.True(t, f.IsOpen())
	_, ok = f.Values()
	assert.False(t, ok)

	// Typed text survives the invalid transition.
	assert.Equal(t, "email: bad@", win.ReadLines()[0])

	// The border flashes the invalid group and clears when the shake
	// animation completes.
	borderNS, found := h.NamespaceFor("signup_hi_border")
	require.True(t, found)
	borderID := h.OpenSurfaces()[0]
	assert.NotEmpty(t, h.AllHighlights(borderID, borderNS))
	h.RunTimers()
	assert.Empty(t, h.AllHighlights(borderID, borderNS))
	assert.True(t, f.IsOpen())
}

func TestSubmitValidClosesAndRecordsValues(t *testing.T) {
	h := newHost()
	var fieldGot any
	var formGot map[string]any
	f, err := New(h, "signup2", []*Field{
		Text("email", WithValidator(VEmail), OnSubmit(func(v any) { fieldGot = v })),
	}, OnFormSubmit(func(values map[string]any) { formGot = values }))
	require.NoError(t, err)
	require.NoError(t, f.Open())

	h.SetLine(f.Window().Surface(), 0, "email: a@b.com")

	values, ok := f.Submit()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"email": "a@b.com"}, values)
	assert.Equal(t, "a@b.com", fieldGot)
	assert.Equal(t, values, formGot)
	assert.False(t, f.IsOpen())

	got, ok := f.Values()
	require.True(t, ok)
	assert.Equal(t, values, got)

	// Values survive close but reset on the next open.
	require.NoError(t, f.Open())
	_, ok = f.Values()
	assert.False(t, ok)
}

func TestSubmitExcludesButtonValues(t *testing.T) {
	h := newHost()
	f, err := New(h, "buttons", []*Field{
		Number("count", Default("3")),
	})
	require.NoError(t, err)
	require.NoError(t, f.Open())

	values, ok := f.Submit()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"count": 3}, values)
}

func TestSubmitWhenClosedIsNoop(t *testing.T) {
	h := newHost()
	f, err := New(h, "closed", []*Field{Text("a")})
	require.NoError(t, err)

	values, ok := f.Submit()
	assert.False(t, ok)
	assert.Nil(t, values)
	f.Invalid() // no-op, must not panic
	f.Close()   // no-op, must not panic
}
