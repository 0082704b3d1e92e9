package server

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/config"
)

// Manager keeps one container per process, so warm Lambda invocations
// reuse the runtime and store opened by the cold start
type Manager struct {
	container   *Container
	config      *config.Config
	mu          sync.RWMutex
	initialized bool
	initOnce    sync.Once
	initErr     error
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the process-wide manager
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{}
	})
	return globalManager
}

// Initialize creates the container from cfg. Only the first call has any effect.
func (m *Manager) Initialize(cfg *config.Config) error {
	m.initOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		m.config = cfg
		container, err := NewContainer(cfg)
		if err != nil {
			m.initErr = err
			return
		}

		m.container = container
		m.initialized = true
	})

	return m.initErr
}

// GetContainer returns the container, initializing it from the host
// adapted configuration if nothing was initialized yet
func (m *Manager) GetContainer(ctx context.Context) (*Container, error) {
	m.mu.Lock()
	if m.initialized && m.container != nil {
		container := m.container
		m.mu.Unlock()
		return container, nil
	}
	configured := m.config != nil
	m.mu.Unlock()

	if !configured {
		cfg, err := config.GetOptimizedConfig()
		if err != nil {
			return nil, err
		}
		if err := m.Initialize(cfg); err != nil {
			return nil, err
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.initErr != nil {
		return nil, m.initErr
	}
	if m.container == nil {
		return nil, errors.New("container has been cleaned up")
	}
	return m.container, nil
}

// Cleanup closes the container
func (m *Manager) Cleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.container != nil {
		if err := m.container.Close(); err != nil {
			return err
		}
		m.container = nil
	}

	m.initialized = false
	return nil
}
