package window

import (
	"github.com/oakwood-commons/formwin/pkg/host"
)

// Default sizing fractions applied when no explicit width/height is given.
const (
	DefaultPerWidth  = 0.5
	DefaultPerHeight = 0.4
)

// borderInset is the fixed offset between a primary surface and its border:
// the border sits one cell up and left and is two cells wider and taller.
const borderInset = 1

// Options configures a floating window. Name is mandatory; everything else
// has a documented default.
type Options struct {
	// Name tags the window's buffer filetype and namespaces its
	// highlights. Mandatory.
	Name string

	// Width and Height override the computed size when > 0.
	Width  int
	Height int

	// Row and Col override the centered position when non-nil.
	Row *int
	Col *int

	// PerWidth and PerHeight are the viewport fractions used when Width
	// or Height is unset. Defaults: 0.5 and 0.4.
	PerWidth  float64
	PerHeight float64

	// Style and Relative are passed through to the host window system.
	// Defaults: "minimal" and "editor".
	Style    string
	Relative string

	// Border adds a companion border surface whose lifetime is bound to
	// the primary surface.
	Border bool

	// Modifiable controls whether the buffer accepts edits. Nil means
	// modifiable.
	Modifiable *bool

	// HeaderGroup is the highlight group applied to line 0 on open.
	// Empty means DefaultHeaderGroup.
	HeaderGroup string
}

// computeGeometry resolves an Options into concrete host geometry against
// the current viewport. Defaulted dimensions shrink by the border inset so
// window plus border still fit the viewport.
func computeGeometry(h host.Host, o Options) host.Geometry {
	vw, vh := h.Viewport()

	perw := o.PerWidth
	if perw <= 0 {
		perw = DefaultPerWidth
	}
	perh := o.PerHeight
	if perh <= 0 {
		perh = DefaultPerHeight
	}

	width := o.Width
	if width <= 0 {
		width = int(float64(vw) * perw)
		if o.Border {
			width -= 2 * borderInset
		}
	}
	height := o.Height
	if height <= 0 {
		height = int(float64(vh) * perh)
		if o.Border {
			height -= 2 * borderInset
		}
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	row := (vh - height) / 2
	if row > 0 {
		row--
	}
	if o.Row != nil {
		row = *o.Row
	}
	col := (vw - width) / 2
	if o.Col != nil {
		col = *o.Col
	}

	return host.Geometry{Width: width, Height: height, Row: row, Col: col}
}

// borderGeometry returns the border surface geometry for a primary geometry.
func borderGeometry(g host.Geometry) host.Geometry {
	return host.Geometry{
		Width:  g.Width + 2*borderInset,
		Height: g.Height + 2*borderInset,
		Row:    g.Row - borderInset,
		Col:    g.Col - borderInset,
	}
}

// borderLines renders the box-drawing content for a border surface wrapping
// a primary surface of the given size.
func borderLines(width, height int) []string {
	if width < 0 {
		width = 0
	}
	top := "╭"
	bottom := "╰"
	for i := 0; i < width; i++ {
		top += "─"
		bottom += "─"
	}
	top += "╮"
	bottom += "╯"

	mid := "│"
	for i := 0; i < width; i++ {
		mid += " "
	}
	mid += "│"

	lines := make([]string, 0, height+2)
	lines = append(lines, top)
	for i := 0; i < height; i++ {
		lines = append(lines, mid)
	}
	lines = append(lines, bottom)
	return lines
}
