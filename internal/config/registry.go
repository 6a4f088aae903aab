package config

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MrWong99/audioscribe/pkg/asr"
)

// ErrRecognizerNotRegistered is returned by [Registry.CreateRecognizer] when
// no factory has been registered under the requested name.
var ErrRecognizerNotRegistered = errors.New("config: recognizer not registered")

// Registry maps recognizer names to their constructor functions. It is safe
// for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	recognizers map[string]func(RecognizerEntry) (asr.Recognizer, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		recognizers: make(map[string]func(RecognizerEntry) (asr.Recognizer, error)),
	}
}

// RegisterRecognizer registers a recognizer factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterRecognizer(name string, factory func(RecognizerEntry) (asr.Recognizer, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recognizers[name] = factory
}

// CreateRecognizer constructs the recognizer named in entry using its
// registered factory.
func (r *Registry) CreateRecognizer(entry RecognizerEntry) (asr.Recognizer, error) {
	r.mu.RLock()
	factory, ok := r.recognizers[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRecognizerNotRegistered, entry.Name)
	}
	return factory(entry)
}

// RecognizerNames returns the registered names in sorted order. Intended for
// startup logging.
func (r *Registry) RecognizerNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.recognizers))
	for name := range r.recognizers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
