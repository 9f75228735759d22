package form

import "github.com/oakwood-commons/formwin/pkg/window"

// Text creates a generic single-line text input.
func Text(name string, opts ...FieldOption) *Field {
	f := &Field{
		name:     name,
		kind:     KindText,
		renderer: defaultRenderer,
	}
	for _, o := range opts {
		o(f)
	}
	f.installTextKeymap()
	return f
}

// Match creates a text input whose validator requires a full-string match of
// pattern.
func Match(name, pattern string, opts ...FieldOption) *Field {
	f := Text(name, opts...)
	f.kind = KindMatch
	if f.validator == nil {
		f.validator = VMatch(pattern)
	}
	return f
}

// Number creates a text input whose validator requires a numeric parse.
func Number(name string, opts ...FieldOption) *Field {
	f := Text(name, opts...)
	f.kind = KindNumber
	if f.validator == nil {
		f.validator = VNumber
	}
	return f
}

// Bool creates a text input accepting only the literals 1/0/true/false.
func Bool(name string, opts ...FieldOption) *Field {
	f := Text(name, opts...)
	f.kind = KindBool
	if f.validator == nil {
		f.validator = VBool
	}
	return f
}

// Button creates a press-only field rendered as its bare name. Enter invokes
// onPress instead of editing; buttons contribute no value to submit results.
func Button(name string, onPress func(), opts ...FieldOption) *Field {
	f := &Field{
		name:     name,
		kind:     KindButton,
		renderer: buttonRenderer,
		onPress:  onPress,
	}
	for _, o := range opts {
		o(f)
	}
	f.bind(editModes, "<CR>", func(w *window.Window) {
		if f.onPress != nil {
			f.onPress()
		}
	})
	return f
}
