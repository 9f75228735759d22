package form

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/cel-go/cel"
)

// Validator parses a raw field value into its typed form. A nil result error
// means raw was accepted; the returned value is what submit reports for the
// field.
type Validator func(raw string) (any, error)

// VMatch accepts strings fully matching the given regular expression.
// Partial matches are rejected: the pattern is grouped and anchored at both
// ends, so alternations like "cat|dog" stay full-string too.
func VMatch(pattern string) Validator {
	re := regexp.MustCompile("^(?:" + pattern + ")$")
	return func(raw string) (any, error) {
		if !re.MatchString(raw) {
			return nil, fmt.Errorf("does not match %s", re.String())
		}
		return raw, nil
	}
}

// VEmail accepts strings that look like email addresses.
var VEmail = VMatch(`[^@\s]+@[^@\s]+\.[^@\s]+`)

// VNumber accepts integer or floating point literals. Integers parse to int,
// everything else to float64.
func VNumber(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("not a number")
}

// VBool accepts exactly the literals "1"/"true" (true) and "0"/"false"
// (false). Any other token is rejected.
func VBool(raw string) (any, error) {
	switch strings.TrimSpace(raw) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return nil, fmt.Errorf("not a boolean")
}

// VRequired rejects empty and all-whitespace strings.
func VRequired(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("required")
	}
	return raw, nil
}

// VMinLen rejects strings shorter than n.
func VMinLen(n int) Validator {
	return func(raw string) (any, error) {
		if len(raw) < n {
			return nil, fmt.Errorf("min %d characters", n)
		}
		return raw, nil
	}
}

// VMaxLen rejects strings longer than n.
func VMaxLen(n int) Validator {
	return func(raw string) (any, error) {
		if len(raw) > n {
			return nil, fmt.Errorf("max %d characters", n)
		}
		return raw, nil
	}
}

// VExpr builds a validator from a CEL predicate over the string variable
// "value". The expression must evaluate to a boolean; false rejects the
// input.
//
//	v, err := form.VExpr(`value.size() > 3 && value.startsWith("ab")`)
func VExpr(expr string) (Validator, error) {
	env, err := cel.NewEnv(cel.Variable("value", cel.StringType))
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return func(raw string) (any, error) {
		out, _, err := prg.Eval(map[string]any{"value": raw})
		if err != nil {
			return nil, fmt.Errorf("eval: %w", err)
		}
		ok, isBool := out.Value().(bool)
		if !isBool {
			return nil, fmt.Errorf("expression did not yield a boolean")
		}
		if !ok {
			return nil, fmt.Errorf("rejected by %s", expr)
		}
		return raw, nil
	}, nil
}
