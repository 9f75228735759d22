// Package host defines the boundary between the formwin toolkit and the
// embedding text host. The toolkit never talks to a terminal, an editor, or a
// persistence layer directly; everything goes through the Host interface so
// that windows and forms can be driven headlessly in tests and bound to any
// host that can satisfy the capability set.
//
// Coordinate conventions, shared by every implementation:
//
//   - Cursor rows are 1-based: row 1 is the first visible buffer line.
//   - Cursor columns are 0-based.
//   - Buffer line indices (SetLines/Lines/Highlight) are 0-based.
//   - Content-change events report the changed row in cursor coordinates.
package host

import "time"

// SurfaceID identifies a surface (a text buffer plus the window displaying it)
// created through a Host. IDs are only meaningful to the Host that issued them.
type SurfaceID int

// NamespaceID identifies a highlight namespace created through CreateNamespace.
type NamespaceID int

// Position is a cursor position in a surface's window.
type Position struct {
	Row int // 1-based
	Col int // 0-based
}

// Geometry describes the placement and size of a surface's window in the
// host's viewport coordinate space.
type Geometry struct {
	Width  int
	Height int
	Row    int
	Col    int
}

// SurfaceOptions configures surface creation.
type SurfaceOptions struct {
	Geometry Geometry

	// Filetype tags the surface's buffer; hosts may use it to scope
	// host-side configuration to toolkit buffers.
	Filetype string

	// Style and Relative are passed through to the host window system.
	Style    string
	Relative string

	// Listed marks the buffer as user-visible in host buffer lists.
	Listed bool

	// Scratch marks the buffer as throwaway (no file backing).
	Scratch bool
}

// BindOptions configures a key binding.
type BindOptions struct {
	NoWait  bool
	NoRemap bool
	Silent  bool
}

// DefaultBindOptions returns the binding options the toolkit uses unless a
// caller overrides them: nowait, noremap, silent all on.
func DefaultBindOptions() BindOptions {
	return BindOptions{NoWait: true, NoRemap: true, Silent: true}
}

// ChangeEvent describes a buffer content mutation.
type ChangeEvent struct {
	// Row is the changed row in cursor coordinates (1-based).
	Row int
	// Col is the column at which the change occurred (0-based).
	Col int
}

// Host is the capability set the toolkit requires from an embedding host.
//
// Implementations are expected to be driven from a single event loop; Host
// methods are never called concurrently by the toolkit. Defer callbacks must
// be delivered on that same loop.
type Host interface {
	// Viewport returns the total width and height available for windows.
	Viewport() (width, height int)

	// CreateSurface creates a buffer and opens a window for it at the
	// given geometry. The surface starts modifiable.
	CreateSurface(opts SurfaceOptions) (SurfaceID, error)

	// ConfigureSurface repositions and resizes an open surface's window.
	ConfigureSurface(id SurfaceID, geom Geometry) error

	// CloseSurface destroys the surface's window and buffer. Closing an
	// unknown or already-closed surface returns an OpError.
	CloseSurface(id SurfaceID, force bool) error

	// OnClose registers a hook invoked when the surface is destroyed,
	// whether through CloseSurface or host-initiated teardown.
	OnClose(id SurfaceID, fn func()) error

	// SetModifiable toggles whether the surface's buffer accepts edits.
	SetModifiable(id SurfaceID, modifiable bool) error

	// SetLines replaces the full contents of the surface's buffer.
	SetLines(id SurfaceID, lines []string) error

	// Lines returns the full contents of the surface's buffer.
	Lines(id SurfaceID) ([]string, error)

	// Cursor returns the cursor position in the surface's window.
	Cursor(id SurfaceID) (Position, error)

	// SetCursor moves the cursor in the surface's window.
	SetCursor(id SurfaceID, pos Position) error

	// Bind registers a key binding scoped to the surface's buffer. Exactly
	// one of action's fields is set: a literal host command string, or a
	// cache indirection token the host resolves through cache.Invoke.
	// Rebinding the same mode+key replaces the previous binding.
	Bind(id SurfaceID, mode, key string, action BindAction, opts BindOptions) error

	// OnChange subscribes a single content-change listener for the
	// surface. The last registration wins; fan-out is the caller's
	// responsibility.
	OnChange(id SurfaceID, fn func(ChangeEvent)) error

	// CreateNamespace creates (or returns an existing) highlight namespace.
	CreateNamespace(name string) NamespaceID

	// Highlight applies group over [colStart, colEnd) of the given 0-based
	// line in the namespace. colEnd of -1 means end of line.
	Highlight(id SurfaceID, ns NamespaceID, group string, line, colStart, colEnd int) error

	// ClearHighlights removes all highlights in the namespace on the given
	// 0-based line. A line of -1 clears the whole namespace.
	ClearHighlights(id SurfaceID, ns NamespaceID, line int) error

	// Defer schedules fn to run after d on the host event loop. It must
	// not block the caller.
	Defer(d time.Duration, fn func())

	// GetVar reads a named persistent variable. ok is false when absent.
	GetVar(key string) (value string, ok bool, err error)

	// SetVar writes a named persistent variable.
	SetVar(key, value string) error

	// DelVar removes a named persistent variable. Removing an absent key
	// is not an error.
	DelVar(key string) error
}

// BindAction is the target of a key binding: either a literal command the
// host executes directly, or an indirection token registered with a
// FunctionCache.
type BindAction struct {
	Command string
	Token   string
}

// CommandAction returns a BindAction for a literal host command.
func CommandAction(cmd string) BindAction { return BindAction{Command: cmd} }

// TokenAction returns a BindAction for a cache indirection token.
func TokenAction(token string) BindAction { return BindAction{Token: token} }
