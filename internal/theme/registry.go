package theme

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lushell/promptline/pkg/prompterr"
)

// Source records where a registered theme came from.
type Source string

const (
	SourceBuiltin Source = "builtin"
	SourceUser    Source = "user"
	SourceSystem  Source = "system"
)

// Entry is one row of a theme listing.
type Entry struct {
	Name        string
	Description string
	Category    string
	Source      Source
}

type record struct {
	theme  *Theme
	source Source
	path   string // file path for reloadable themes, "" for builtins
}

// Registry maps theme names to themes and tracks the single active
// theme. The active pointer swaps atomically so a render in flight sees
// either the old theme in full or the new one in full, never a mix.
type Registry struct {
	mu     sync.RWMutex
	themes map[string]*record
	active *Theme

	// KnownSegment, when set, filters enabled-segment lists at
	// registration so every remaining name resolves in the segment
	// registry.
	KnownSegment func(name string) bool
}

// NewRegistry returns a registry pre-populated with the builtin themes,
// with "default" active.
func NewRegistry() *Registry {
	r := &Registry{themes: make(map[string]*record)}
	for _, t := range Builtins() {
		r.themes[t.Name] = &record{theme: t, source: SourceBuiltin}
	}
	r.active = r.themes["default"].theme
	return r
}

// Register adds or replaces a theme under its name.
func (r *Registry) Register(t *Theme, source Source, path string) error {
	if t == nil || t.Name == "" {
		return prompterr.ErrInvalidParameter
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.registerLocked(t, source, path)
	return nil
}

func (r *Registry) registerLocked(t *Theme, source Source, path string) {
	if r.KnownSegment != nil {
		kept := t.EnabledSegments[:0:0]
		for _, name := range t.EnabledSegments {
			if r.KnownSegment(name) {
				kept = append(kept, name)
			}
		}
		t.EnabledSegments = kept
	}
	r.themes[t.Name] = &record{theme: t, source: source, path: path}

	// A replaced active theme swaps in its new definition immediately.
	if r.active != nil && r.active.Name == t.Name {
		r.active = t
	}
}

// Find returns the registered theme for name.
func (r *Registry) Find(name string) (*Theme, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.themes[name]
	if !ok {
		return nil, false
	}
	return rec.theme, true
}

// SetActive resolves name and makes it the active theme.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.themes[name]
	if !ok {
		return fmt.Errorf("theme %q: %w", name, prompterr.ErrInvalidParameter)
	}
	r.active = rec.theme
	return nil
}

// Active returns the current theme. Never nil.
func (r *Registry) Active() *Theme {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// List returns all registered themes sorted by name.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.themes))
	for _, rec := range r.themes {
		entries = append(entries, Entry{
			Name:        rec.theme.Name,
			Description: rec.theme.Description,
			Category:    rec.theme.Category,
			Source:      rec.source,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Reload reparses every file-backed theme and swaps the registry
// contents in one critical section. Files that fail to parse keep their
// previous definition; the active theme is re-resolved by name.
func (r *Registry) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, rec := range r.themes {
		if rec.path == "" {
			continue
		}
		t, err := ParseFile(rec.path)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if t.Name != name {
			// Renamed in place: register under the new name too.
			r.registerLocked(t, rec.source, rec.path)
			continue
		}
		r.registerLocked(t, rec.source, rec.path)
	}
	return firstErr
}
