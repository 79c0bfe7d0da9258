package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sync"

	"github.com/pointy-labs/pointy/internal/apperr"
)

// Store owns the single in-memory Preferences value.
type Store struct {
	mu       sync.RWMutex
	path     string
	current  Preferences
	poisoned bool
}

// Change describes the effect of one Update.
type Change struct {
	Before Preferences
	After  Preferences
}

// ExtensionsChanged reports whether the enabled or ordered lists differ,
// which is what observers of the extension view care about.
func (c Change) ExtensionsChanged() bool {
	return !slices.Equal(c.Before.Enabled, c.After.Enabled) ||
		!slices.Equal(c.Before.Ordered, c.After.Ordered)
}

// Open loads preferences from path, creating the file with defaults when it
// does not exist yet.
func Open(path string) (*Store, error) {
	p, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		p = Default()
		if err := Save(path, p); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return &Store{path: path, current: p}, nil
}

// NewMemory returns a store that starts from p and persists to path.
func NewMemory(path string, p Preferences) *Store {
	p.normalize()
	return &Store{path: path, current: p}
}

// Path returns the file the store persists to.
func (s *Store) Path() string { return s.path }

// Get returns a copy of the current preferences.
func (s *Store) Get() (Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poisoned {
		return Preferences{}, apperr.ErrPoisonedLock
	}
	return s.current.Clone(), nil
}

// Update applies fn to a copy of the current preferences, persists the
// result and only then makes it visible. If fn returns an error nothing
// changes. If fn panics the store is poisoned: this and every later call
// fail with apperr.ErrPoisonedLock.
func (s *Store) Update(fn func(*Preferences) error) (change Change, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return Change{}, apperr.ErrPoisonedLock
	}

	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			change = Change{}
			err = apperr.New(apperr.KindPoisonedLock, "update preferences", fmt.Errorf("panic: %v", r))
		}
	}()

	before := s.current.Clone()
	next := s.current.Clone()
	if err := fn(&next); err != nil {
		return Change{}, err
	}
	next.normalize()

	if err := Save(s.path, next); err != nil {
		return Change{}, err
	}
	s.current = next
	return Change{Before: before, After: next.Clone()}, nil
}

// Replace swaps in a whole new value, as the settings window does.
func (s *Store) Replace(p Preferences) (Change, error) {
	return s.Update(func(cur *Preferences) error {
		*cur = p.Clone()
		return nil
	})
}
