// Package cache implements the named function cache that lets host keybinds
// triggered from command context resolve back to registered Go callbacks.
//
// A cache is a named mapping from a composite key (mode + escaped bind
// string) to a callback. The key set is persisted in the host's variable
// store on every registration; the callbacks themselves live in a
// process-wide registry keyed by indirection token, so reloading a cache by
// name yields a mapping whose entries resolve back to equivalent callbacks.
//
// The cache is a convenience indirection layer, not a source of truth:
// persistence failures are swallowed and treated as "cache absent".
package cache

import (
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/formwin/pkg/host"
)

// tokenPrefix namespaces indirection tokens so hosts can recognize them.
const tokenPrefix = "formwin-cache:"

// varPrefix namespaces persisted cache entries in the host variable store.
const varPrefix = "formwin_cache_"

var registry = struct {
	mu sync.Mutex
	m  map[string]func()
}{m: map[string]func(){}}

// Cache is a named, persisted mapping from composite bind key to callback.
// Each window owns one cache; caches sharing a name silently overwrite each
// other's persisted mapping, so callers must ensure unique names.
type Cache struct {
	name    string
	h       host.Host
	entries map[string]string // composite key -> indirection token
}

// Load returns the cache persisted under name, or an empty cache if absent
// or unreadable.
func Load(h host.Host, name string) *Cache {
	c := &Cache{name: name, h: h, entries: map[string]string{}}
	raw, ok, err := h.GetVar(varPrefix + name)
	if err != nil || !ok {
		return c
	}
	var entries map[string]string
	if err := yaml.Unmarshal([]byte(raw), &entries); err != nil {
		return c
	}
	if entries != nil {
		c.entries = entries
	}
	return c
}

// Name returns the cache's persistence name.
func (c *Cache) Name() string { return c.name }

// Save persists the current mapping under the cache's name, overwriting any
// prior value. Write failures are swallowed.
func (c *Cache) Save() {
	raw, err := yaml.Marshal(c.entries)
	if err != nil {
		return
	}
	_ = c.h.SetVar(varPrefix+c.name, string(raw))
}

// Register stores fn under mode+escaped bind, persists the mapping, and
// returns the indirection token the host keybind system can invoke to reach
// fn again.
func (c *Cache) Register(mode, bind string, fn func()) string {
	key := Key(mode, bind)
	token := Token(c.name, key)
	registry.mu.Lock()
	registry.m[token] = fn
	registry.mu.Unlock()
	c.entries[key] = token
	c.Save()
	return token
}

// Resolve returns the callback stored under the composite key, if any.
func (c *Cache) Resolve(key string) (func(), bool) {
	token, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return Invoke(token)
}

// Keys returns the composite keys currently in the mapping.
func (c *Cache) Keys() []string {
	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	return out
}

// Delete removes the persisted entry for this cache. Missing entries and
// store failures are ignored.
func (c *Cache) Delete() {
	_ = c.h.DelVar(varPrefix + c.name)
}

// EscapeBind escapes angle-bracket key syntax so binds like <C-x> form safe
// composite keys: "<C-x>" becomes "\<C-x\>".
func EscapeBind(bind string) string {
	bind = strings.ReplaceAll(bind, "<", `\<`)
	return strings.ReplaceAll(bind, ">", `\>`)
}

// Key returns the composite mapping key for a mode and bind string.
func Key(mode, bind string) string {
	return mode + EscapeBind(bind)
}

// Token returns the indirection token for a cache name and composite key.
func Token(name, key string) string {
	return tokenPrefix + name + ":" + key
}

// Invoke resolves an indirection token to its registered callback. Hosts
// call this when a key bound to a token action fires.
func Invoke(token string) (func(), bool) {
	registry.mu.Lock()
	fn, ok := registry.m[token]
	registry.mu.Unlock()
	return fn, ok
}
