package termhost

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/formwin/pkg/settings"
)

// varStore is the terminal host's persistent variable store, a YAML map kept
// in the user config directory. Every write flushes to disk so registered
// callbacks survive across runs the way they would in a long-lived editor.
type varStore struct {
	path string
	vars map[string]string
}

// defaultVarsPath returns the store location under the user config directory,
// or "" when that directory cannot be determined (the store then stays
// memory-only).
func defaultVarsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, settings.CliBinaryName, "vars.yaml")
}

// openVarStore loads the store at path. A missing file yields an empty store;
// a malformed one is an error so stale state never silently disappears.
func openVarStore(path string) (*varStore, error) {
	s := &varStore{path: path, vars: map[string]string{}}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read var store: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.vars); err != nil {
		return nil, fmt.Errorf("decode var store %s: %w", path, err)
	}
	if s.vars == nil {
		s.vars = map[string]string{}
	}
	return s, nil
}

func (s *varStore) get(key string) (string, bool) {
	v, ok := s.vars[key]
	return v, ok
}

func (s *varStore) set(key, value string) error {
	s.vars[key] = value
	return s.flush()
}

func (s *varStore) del(key string) error {
	if _, ok := s.vars[key]; !ok {
		return nil
	}
	delete(s.vars, key)
	return s.flush()
}

func (s *varStore) flush() error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(s.vars)
	if err != nil {
		return fmt.Errorf("encode var store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create var store dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write var store: %w", err)
	}
	return nil
}
