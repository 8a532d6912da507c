package classifier

import (
	"errors"
	"fmt"
)

// Set holds the configured backends. Selection is made by the caller on
// every call; the set keeps no notion of a current backend beyond the
// configured default.
type Set struct {
	def      Kind
	backends map[Kind]Classifier
	loadErrs map[Kind]error
}

type Status struct {
	Kind      Kind
	Name      string
	Available bool
	Default   bool
	Err       error
}

func NewSet(def Kind) *Set {
	return &Set{
		def:      def,
		backends: make(map[Kind]Classifier),
		loadErrs: make(map[Kind]error),
	}
}

func (s *Set) Add(c Classifier) {
	s.backends[c.Kind()] = c
	delete(s.loadErrs, c.Kind())
}

// Unavailable records why a backend could not be constructed.
func (s *Set) Unavailable(kind Kind, err error) {
	delete(s.backends, kind)
	s.loadErrs[kind] = err
}

func (s *Set) Default() Kind {
	return s.def
}

func (s *Set) Get(kind Kind) (Classifier, error) {
	if c, ok := s.backends[kind]; ok {
		return c, nil
	}
	if err, ok := s.loadErrs[kind]; ok {
		if !errors.Is(err, ErrModelUnavailable) {
			err = fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}
		return nil, fmt.Errorf("%s: %w", kind.DisplayName(), err)
	}
	return nil, fmt.Errorf("%w: %s is not configured", ErrModelUnavailable, kind.DisplayName())
}

// Fallback returns the requested backend, or the first available one if the
// requested backend cannot be used.
func (s *Set) Fallback(kind Kind) (Classifier, error) {
	c, err := s.Get(kind)
	if err == nil {
		return c, nil
	}
	for _, k := range Kinds {
		if other, ok := s.backends[k]; ok {
			return other, nil
		}
	}
	return nil, err
}

func (s *Set) Status() []Status {
	out := make([]Status, 0, len(Kinds))
	for _, k := range Kinds {
		_, ok := s.backends[k]
		out = append(out, Status{
			Kind:      k,
			Name:      k.DisplayName(),
			Available: ok,
			Default:   k == s.def,
			Err:       s.loadErrs[k],
		})
	}
	return out
}

// Close releases backends holding native resources.
func (s *Set) Close() {
	for _, c := range s.backends {
		if closer, ok := c.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}
