// Package cmd implements the formwin demo CLI: an interactive form rendered
// on the terminal host, plus guide and version subcommands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/formwin/internal/config"
	"github.com/oakwood-commons/formwin/internal/termhost"
	"github.com/oakwood-commons/formwin/pkg/form"
	"github.com/oakwood-commons/formwin/pkg/logger"
	"github.com/oakwood-commons/formwin/pkg/settings"
	"github.com/oakwood-commons/formwin/pkg/window"
)

var (
	configFile string
	varsFile   string
	debug      bool
	noBorder   bool
	winWidth   int
	winHeight  int

	rootCtx context.Context
)

var rootCmd = &cobra.Command{
	Use:   "formwin",
	Short: "Floating-window forms for the terminal",
	Long: `formwin renders validated, multi-field forms in floating windows.

Running without a subcommand starts the signup demo form. Edit fields in
insert mode (press i), submit with Enter on the submit button, dismiss with
Esc. Submitted values are printed as YAML on exit.`,
	Example: "\n  formwin\n  formwin --no-border\n  formwin guide\n  formwin guide -i\n",
	Args:    cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		var level int8
		if debug {
			level = -1
		}
		lgr := logger.Get(level)
		lgr = logger.WithValues(lgr, "command", cmd.Name())

		params := settings.NewCliParams()
		params.MinLogLevel = level
		params.ConfigPath = configFile
		params.NoBorder = noBorder
		rootCtx = settings.IntoContext(logger.WithLogger(context.Background(), lgr), params)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDemo(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build version information",
	Run: func(cmd *cobra.Command, _ []string) {
		v := settings.VersionInformation
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit %s, built %s)\n",
			settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "", "path to a YAML config file (theme, window defaults, keys)")
	rootCmd.PersistentFlags().StringVar(&varsFile, "vars-file", "", "path to the persistent variable store (default: user config dir)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noBorder, "no-border", false, "render windows without borders")
	rootCmd.PersistentFlags().IntVar(&winWidth, "width", 0, "viewport width in columns (0 = auto-detect)")
	rootCmd.PersistentFlags().IntVar(&winHeight, "height", 0, "viewport height in rows (0 = auto-detect)")

	rootCmd.AddCommand(guideCmd, versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// resolveConfigPath returns the explicit config file if set, otherwise the
// default user config path when it exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := config.DefaultPath(); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func loadConfig() (config.Config, error) {
	return config.Load(resolveConfigPath(configFile))
}

func colorMap(cfg config.Config) map[string]string {
	groups := cfg.GroupColors()
	out := make(map[string]string, len(groups))
	for group, color := range groups {
		out[group] = string(color)
	}
	return out
}

func newTerminalHost(cfg config.Config) (*termhost.Host, error) {
	return termhost.New(termhost.Options{
		Width:    winWidth,
		Height:   winHeight,
		VarsPath: varsFile,
		Colors:   colorMap(cfg),
		Logger:   logger.FromContext(rootCtx),
	})
}

// demoWindowOptions maps config and flags onto form window options.
func demoWindowOptions(cfg config.Config) window.Options {
	border := cfg.Window.Border == nil || *cfg.Window.Border
	if noBorder {
		border = false
	}
	return window.Options{
		PerWidth:  cfg.Window.PerWidth,
		PerHeight: cfg.Window.PerHeight,
		Style:     cfg.Window.Style,
		Border:    border,
	}
}

// demoFields builds the signup demo form fields.
func demoFields() []*form.Field {
	return []*form.Field{
		form.Text("name", form.WithValidator(form.VRequired)),
		form.Text("email", form.WithValidator(form.VEmail)),
		form.Number("port", form.Default("8080")),
		form.Bool("admin", form.Default("false")),
	}
}

// demoKeyBindings maps config key overrides onto extra normal-mode bindings
// for the demo form. The built-in defaults (<Esc> close, <CR> submit via the
// button) are already bound by the form itself; rebinding <CR> here would
// shadow per-field Enter handling, so defaults are skipped.
func demoKeyBindings(cfg config.Config, f *form.Form) window.Keymap {
	binds := window.Keymap{}
	if cfg.Keys.Close != "" && cfg.Keys.Close != "<Esc>" {
		binds[cfg.Keys.Close] = window.Fn(func() { f.Close() })
	}
	if cfg.Keys.Submit != "" && cfg.Keys.Submit != "<CR>" {
		binds[cfg.Keys.Submit] = window.Fn(func() { f.Submit() })
	}
	return binds
}

func runDemo(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	th, err := newTerminalHost(cfg)
	if err != nil {
		return err
	}

	var submitted map[string]any
	start := func(h *termhost.Host) error {
		f, err := form.New(h, "signup", demoFields(),
			form.OnFormSubmit(func(values map[string]any) { submitted = values }),
			form.WindowOptions(demoWindowOptions(cfg)),
			form.WithLogger(*logger.FromContext(rootCtx)),
		)
		if err != nil {
			return err
		}
		if err := f.Open(); err != nil {
			return err
		}
		if binds := demoKeyBindings(cfg, f); len(binds) > 0 {
			return f.Window().RegisterKeymap("n", binds, nil)
		}
		return nil
	}
	if err := th.Run(start); err != nil {
		return err
	}

	if submitted == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "dismissed")
		return nil
	}
	out, err := yaml.Marshal(submitted)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}
