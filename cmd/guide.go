package cmd

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/formwin/internal/termhost"
	"github.com/oakwood-commons/formwin/pkg/window"
)

const guideMarkdown = `# formwin guide

formwin places forms in floating windows centered over the viewport.
Each field occupies one line as ` + "`label: value`" + `.

## Editing

- press *i* to enter insert mode, *Esc* to leave it
- arrow keys move within the value, never into the label
- *Enter* on a field jumps to the next row
- *Enter* on the submit button validates and submits

## Validation

Fields validate as you type. Invalid values highlight the value text;
an invalid submit flashes the window border and shakes the window.

## Field kinds

- *text*: free-form, optionally required
- *match*: value must match a regular expression
- *number*: integers or floats
- *bool*: 1, 0, true or false
`

var guideInteractive bool

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show the usage guide",
	Long:  "Renders the usage guide: plain text on stdout, or in a floating window with -i.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		lines := renderGuideLines(guideMarkdown)
		if !guideInteractive {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
			return nil
		}
		return showGuideWindow(lines)
	},
}

func init() {
	guideCmd.Flags().BoolVarP(&guideInteractive, "interactive", "i", false, "show the guide in a floating window")
}

// showGuideWindow opens the guide in a locked window on the terminal host.
// The configured close key dismisses it.
func showGuideWindow(lines []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	th, err := newTerminalHost(cfg)
	if err != nil {
		return err
	}

	width := maxLineWidth(lines)

	start := func(h *termhost.Host) error {
		opts := demoWindowOptions(cfg)
		opts.Name = "guide"
		opts.Width = width + 2
		opts.Height = len(lines)
		win, err := window.Open(h, opts)
		if err != nil {
			return err
		}
		win.WriteLines(lines)
		win.Lock()
		return win.RegisterKeymap("n", window.Keymap{
			cfg.Keys.Close: window.Fn(func() { win.Close(true) }),
		}, nil)
	}
	return th.Run(start)
}

// maxLineWidth returns the widest display width among lines, wide-rune safe.
func maxLineWidth(lines []string) int {
	width := 0
	for _, l := range lines {
		if w := runewidth.StringWidth(l); w > width {
			width = w
		}
	}
	return width
}

// renderGuideLines flattens a markdown document into plain text lines for
// window or stdout display.
func renderGuideLines(md string) []string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(md))

	var lines []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
		}
	}
	blank := func() {
		if len(lines) > 0 && lines[len(lines)-1] != "" {
			lines = append(lines, "")
		}
	}

	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		switch n := node.(type) {
		case *ast.Heading:
			if entering {
				blank()
			} else {
				flush()
			}
		case *ast.Paragraph:
			if !entering {
				flush()
				if _, inItem := n.Parent.(*ast.ListItem); !inItem {
					blank()
				}
			}
		case *ast.ListItem:
			if entering {
				cur.WriteString("  - ")
			}
		case *ast.List:
			if !entering {
				blank()
			}
		case *ast.CodeBlock:
			if entering {
				flush()
				for _, l := range strings.Split(strings.TrimRight(string(n.Literal), "\n"), "\n") {
					lines = append(lines, "    "+l)
				}
				blank()
			}
		case *ast.Text:
			if entering {
				cur.WriteString(string(n.Literal))
			}
		case *ast.Code:
			if entering {
				cur.WriteString(string(n.Literal))
			}
		case *ast.Emph, *ast.Strong:
			// styling dropped; children carry the text
		}
		return ast.GoToNext
	})
	flush()

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
