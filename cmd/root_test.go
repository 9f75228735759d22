package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/formwin/internal/config"
	"github.com/oakwood-commons/formwin/pkg/cache"
	"github.com/oakwood-commons/formwin/pkg/form"
	"github.com/oakwood-commons/formwin/pkg/host/memhost"
)

// resetFlags restores every flag to its default so tests do not leak state
// into each other.
func resetFlags() {
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
	})
	guideCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
	})
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.Contains(t, out, "formwin")
	assert.Contains(t, out, "commit")
}

func TestResolveConfigPathPrefersExplicit(t *testing.T) {
	explicit := filepath.Join(t.TempDir(), "custom.yaml")
	assert.Equal(t, explicit, resolveConfigPath(explicit))
}

func TestColorMapCoversAllGroups(t *testing.T) {
	m := colorMap(config.Default())
	assert.Len(t, m, 5)
	assert.Equal(t, string(config.Default().Theme.Invalid), m["FormwinInvalid"])
}

func TestDemoWindowOptions(t *testing.T) {
	cfg := config.Default()

	opts := demoWindowOptions(cfg)
	assert.True(t, opts.Border)
	assert.Equal(t, cfg.Window.PerWidth, opts.PerWidth)

	noBorder = true
	defer func() { noBorder = false }()
	assert.False(t, demoWindowOptions(cfg).Border)
}

func TestDemoKeyOverridesBindToForm(t *testing.T) {
	cfg := config.Default()
	cfg.Keys.Close = "q"
	cfg.Keys.Submit = "<C-s>"

	h := memhost.New(100, 40)
	h.TokenResolver = cache.Invoke
	f, err := form.New(h, "override-demo", demoFields())
	require.NoError(t, err)
	require.NoError(t, f.Open())

	binds := demoKeyBindings(cfg, f)
	require.Len(t, binds, 2)
	require.NoError(t, f.Window().RegisterKeymap("n", binds, nil))

	// The configured close key dismisses the form.
	assert.True(t, h.PressKey(f.Window().Surface(), "n", "q"))
	assert.False(t, f.IsOpen())
}

func TestDemoKeyOverrideSubmits(t *testing.T) {
	cfg := config.Default()
	cfg.Keys.Submit = "<C-s>"

	h := memhost.New(100, 40)
	h.TokenResolver = cache.Invoke
	f, err := form.New(h, "submit-demo", []*form.Field{
		form.Text("name"),
	})
	require.NoError(t, err)
	require.NoError(t, f.Open())
	require.NoError(t, f.Window().RegisterKeymap("n", demoKeyBindings(cfg, f), nil))

	surface := f.Window().Surface()
	h.SetLine(surface, 0, "name: ada")
	assert.True(t, h.PressKey(surface, "n", "<C-s>"))

	values, ok := f.Values()
	require.True(t, ok)
	assert.Equal(t, "ada", values["name"])
	assert.False(t, f.IsOpen())
}

func TestDemoKeyDefaultsAddNoBindings(t *testing.T) {
	h := memhost.New(100, 40)
	f, err := form.New(h, "defaults-demo", demoFields())
	require.NoError(t, err)

	// Defaults are already bound by the form; no extra bindings wanted.
	assert.Empty(t, demoKeyBindings(config.Default(), f))
}

func TestDemoFields(t *testing.T) {
	fields := demoFields()
	require.Len(t, fields, 4)

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name()
	}
	assert.Equal(t, []string{"name", "email", "port", "admin"}, names)

	port := fields[2]
	v, err := port.Parse("port: 9090")
	require.NoError(t, err)
	assert.Equal(t, 9090, v)
	_, err = port.Parse("port: not-a-number")
	assert.Error(t, err)

	email := fields[1]
	_, err = email.Parse("email: bad@")
	assert.Error(t, err)
}
