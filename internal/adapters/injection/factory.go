package injection

import (
	"sync"

	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

// NewFactory returns an InjectorFactory opening real injectors, or mock
// injectors when mock is set.
func NewFactory(mock bool) ports.InjectorFactory {
	if mock {
		return func(iface string) (ports.FrameInjector, error) {
			return NewMockInjector(iface), nil
		}
	}
	return func(iface string) (ports.FrameInjector, error) {
		inj, err := NewInjector(iface)
		if err != nil {
			return nil, err
		}
		return inj, nil
	}
}

// MockRegistry is a factory that keeps every mock it hands out, so tests
// can inspect what a sender wrote.
type MockRegistry struct {
	mu    sync.Mutex
	mocks map[string]*MockInjector
}

func NewMockRegistry() *MockRegistry {
	return &MockRegistry{mocks: make(map[string]*MockInjector)}
}

func (r *MockRegistry) Factory(iface string) (ports.FrameInjector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := NewMockInjector(iface)
	r.mocks[iface] = m
	return m, nil
}

func (r *MockRegistry) Get(iface string) *MockInjector {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mocks[iface]
}
