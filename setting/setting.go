package setting

import (
	"fmt"
	"sort"
	"strings"
)

// Setting is one node of a nested configuration tree. Leaf values and child
// sections share a single namespace, mirroring how the tree is rendered to and
// from TOML tables.
//
// A Setting is an explicit object: create one per process (or per test) and
// pass it through the initialization path. It is never package-global state.
type Setting struct {
	data   map[string]any // scalar values or *Setting children
	locked bool
}

// New creates an empty, unlocked Setting node.
func New() *Setting {
	return &Setting{data: make(map[string]any)}
}

// Locked reports whether this node rejects mutation.
func (s *Setting) Locked() bool {
	return s.locked
}

// Lock marks this node and, recursively, all current descendants as locked.
// Idempotent. Reads remain legal on a locked tree; any mutation returns
// ErrLocked.
func (s *Setting) Lock() {
	s.locked = true
	for _, v := range s.data {
		if child, ok := v.(*Setting); ok {
			child.Lock()
		}
	}
}

// Unlock reverses the lock state of this node and all current descendants.
//
// This is an intentionally dangerous escape hatch for controlled test setups.
// Production code should build a tree once, lock it, and never unlock;
// unlocking a tree that other goroutines are reading is a data race.
func (s *Setting) Unlock() {
	s.locked = false
	for _, v := range s.data {
		if child, ok := v.(*Setting); ok {
			child.Unlock()
		}
	}
}

// Child returns the named child section, creating it when absent. Creating a
// child on a locked node fails with ErrLocked; fetching an existing child
// never fails. A name that holds a scalar value fails with ErrNotASection.
func (s *Setting) Child(name string) (*Setting, error) {
	if !isValidKeySegment(name) {
		return nil, fmt.Errorf("invalid key segment %q", name)
	}
	if v, exists := s.data[name]; exists {
		child, ok := v.(*Setting)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotASection, name)
		}
		return child, nil
	}
	if s.locked {
		return nil, fmt.Errorf("cannot create section %q: %w", name, ErrLocked)
	}
	child := New()
	s.data[name] = child
	return child, nil
}

// Set assigns a value under a single key on this node. Fails with ErrLocked
// when the node is locked; the failure leaves data unchanged.
func (s *Setting) Set(key string, value any) error {
	if !isValidKeySegment(key) {
		return fmt.Errorf("invalid key segment %q", key)
	}
	if s.locked {
		return fmt.Errorf("cannot set %q: %w", key, ErrLocked)
	}
	s.data[key] = value
	return nil
}

// Get returns the value stored under a single key on this node. Child
// sections are returned as *Setting. Never fails.
func (s *Setting) Get(key string) (any, bool) {
	v, ok := s.data[key]
	return v, ok
}

// SetPath assigns a value under a dot-separated path, auto-vivifying
// intermediate sections. Any locked node on the way fails the whole call with
// ErrLocked before anything is written.
func (s *Setting) SetPath(path string, value any) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	node := s
	for _, segment := range segments[:len(segments)-1] {
		node, err = node.Child(segment)
		if err != nil {
			return fmt.Errorf("path %q: %w", path, err)
		}
	}
	if err := node.Set(segments[len(segments)-1], value); err != nil {
		return fmt.Errorf("path %q: %w", path, err)
	}
	return nil
}

// GetPath returns the value under a dot-separated path. Never fails; a path
// through a scalar or past a missing section reports absence.
func (s *Setting) GetPath(path string) (any, bool) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, false
	}
	node := s
	for _, segment := range segments[:len(segments)-1] {
		v, exists := node.data[segment]
		if !exists {
			return nil, false
		}
		child, ok := v.(*Setting)
		if !ok {
			return nil, false
		}
		node = child
	}
	v, ok := node.data[segments[len(segments)-1]]
	return v, ok
}

// GetOr returns the value under path, or def when absent.
func (s *Setting) GetOr(path string, def any) any {
	if v, ok := s.GetPath(path); ok {
		return v
	}
	return def
}

// Has reports whether a value or section exists under path.
func (s *Setting) Has(path string) bool {
	_, ok := s.GetPath(path)
	return ok
}

// Section returns the child section under a dot-separated path without
// creating anything. Reports absence rather than failing.
func (s *Setting) Section(path string) (*Setting, bool) {
	v, ok := s.GetPath(path)
	if !ok {
		return nil, false
	}
	child, ok := v.(*Setting)
	return child, ok
}

// Keys returns the sorted key names on this node, values and sections alike.
func (s *Setting) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map renders the tree rooted at this node as nested map[string]any. The
// result is a deep copy of the structure; mutating it does not touch the tree.
func (s *Setting) Map() map[string]any {
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		if child, ok := v.(*Setting); ok {
			out[k] = child.Map()
		} else {
			out[k] = v
		}
	}
	return out
}

// Paths returns every leaf path in the tree with the given prefix, sorted.
// A prefix of "" returns all leaf paths.
func (s *Setting) Paths(prefix string) []string {
	var paths []string
	s.collectPaths("", &paths)
	if prefix != "" {
		filtered := paths[:0]
		for _, p := range paths {
			if strings.HasPrefix(p, prefix) {
				filtered = append(filtered, p)
			}
		}
		paths = filtered
	}
	sort.Strings(paths)
	return paths
}

func (s *Setting) collectPaths(base string, paths *[]string) {
	for k, v := range s.data {
		full := k
		if base != "" {
			full = base + "." + k
		}
		if child, ok := v.(*Setting); ok {
			child.collectPaths(full, paths)
		} else {
			*paths = append(*paths, full)
		}
	}
}

// fromMap populates this node from a nested map, converting sub-maps to child
// sections. Used by file loading; respects the lock flag through Set/Child.
func (s *Setting) fromMap(data map[string]any) error {
	for k, v := range data {
		if sub, ok := v.(map[string]any); ok {
			child, err := s.Child(k)
			if err != nil {
				return err
			}
			if err := child.fromMap(sub); err != nil {
				return err
			}
			continue
		}
		if err := s.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}
