package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/formwin/pkg/host"
)

func TestIsActiveRowOnly(t *testing.T) {
	f := Text("city")
	f.row = 3

	tests := []struct {
		name string
		pos  host.Position
		want bool
	}{
		{"row above", host.Position{Row: 2, Col: 0}, false},
		{"on row, col zero", host.Position{Row: 3, Col: 0}, true},
		{"on row, col inside label", host.Position{Row: 3, Col: 1}, true},
		{"on row, col far right", host.Position{Row: 3, Col: 9999}, true},
		{"row below", host.Position{Row: 4, Col: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsActive(tt.pos))
		})
	}
}

func TestIsActiveMultiRow(t *testing.T) {
	f := Text("notes", Size(30, 3))
	f.row = 2
	assert.False(t, f.IsActive(host.Position{Row: 1}))
	assert.True(t, f.IsActive(host.Position{Row: 2}))
	assert.True(t, f.IsActive(host.Position{Row: 4}))
	assert.False(t, f.IsActive(host.Position{Row: 5}))
}

func TestRenderParseRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		field *Field
		value string
		want  any
	}{
		{"text", Text("city", Default("Oslo")), "Oslo", "Oslo"},
		{"number", Number("port", Default("8080")), "8080", 8080},
		{"bool", Bool("debug", Default("true")), "true", true},
		{"match", Match("phone", `\d{3}-\d{3}-\d{4}`, Default("555-123-4567")), "555-123-4567", "555-123-4567"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := tt.field.Render(nil)
			require.Len(t, lines, 1)
			assert.Equal(t, tt.field.Name()+": "+tt.value, lines[0])

			v, err := tt.field.Parse(lines[0])
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, tt.value, tt.field.Value())
		})
	}
}

func TestParseFailureLeavesValueUnmodified(t *testing.T) {
	f := Number("port", Default("8080"))
	_, err := f.Parse("port: not-a-number")
	require.Error(t, err)
	assert.True(t, host.IsValidationError(err))
	assert.Equal(t, "8080", f.Value())

	var ve *host.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "port", ve.Field)
	assert.Equal(t, "not-a-number", ve.Value)
}

func TestButtonRenderAndParse(t *testing.T) {
	b := Button("submit", nil)
	lines := b.Render(nil)
	require.Equal(t, []string{"submit"}, lines)

	// Buttons parse to their fixed truthy value regardless of line text.
	v, err := b.Parse("submit")
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestFieldWidthDerivation(t *testing.T) {
	f := Text("name", Default("ada"))
	// "name: " is 6 wide, value 3.
	assert.Equal(t, 9, f.Width())

	b := Button("ok", nil)
	assert.Equal(t, 2, b.Width())

	s := Text("sized", Size(42, 2))
	assert.Equal(t, 42, s.Width())
	assert.Equal(t, 2, s.Height())
}
