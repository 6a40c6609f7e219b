package driver

import (
	"errors"
	"sync"
)

var errNotRecorder = errors.New("adapter has to be a VideoRecorder")

// FilterFn is being used to decide if a driver should be included in the
// query result.
type FilterFn func(Driver) bool

// FilterVideoRecorder return a filter function to get a list of registered VideoRecorders
func FilterVideoRecorder() FilterFn {
	return func(d Driver) bool {
		_, ok := d.(VideoRecorder)
		return ok
	}
}

// FilterDeviceType returns a filter function to get a list of registered drivers which matches t.
func FilterDeviceType(t DeviceType) FilterFn {
	return func(d Driver) bool {
		return d.Info().DeviceType == t
	}
}

// FilterID returns a filter function to get registered drivers which have given ID.
func FilterID(id string) FilterFn {
	return func(d Driver) bool {
		return d.ID() == id
	}
}

// FilterAnd returns a filter function to take logical conjunction of given filters.
func FilterAnd(filters ...FilterFn) FilterFn {
	return func(d Driver) bool {
		for _, f := range filters {
			if !f(d) {
				return false
			}
		}
		return true
	}
}

// FilterNot returns a filter function to take logical inverse of given filter.
func FilterNot(filter FilterFn) FilterFn {
	return func(d Driver) bool {
		return !filter(d)
	}
}

// Manager is a singleton to manage multiple drivers and their states
type Manager struct {
	mu      sync.RWMutex
	drivers []Driver
}

var manager = &Manager{}

// GetManager gets manager singleton instance
func GetManager() *Manager {
	return manager
}

// Register registers adapter to be discoverable by Query. Drivers are
// returned in registration order.
func (m *Manager) Register(a Adapter, info Info) (Driver, error) {
	d := wrapAdapter(a, info)
	if d == nil {
		return nil, errNotRecorder
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers = append(m.drivers, d)
	return d, nil
}

// Unregister removes the driver with the given ID.
func (m *Manager) Unregister(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, d := range m.drivers {
		if d.ID() == id {
			m.drivers = append(m.drivers[:i:i], m.drivers[i+1:]...)
			return
		}
	}
}

// Query queries by using f to filter drivers, and simply return the filtered results.
func (m *Manager) Query(f FilterFn) []Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Driver, 0)
	for _, d := range m.drivers {
		if ok := f(d); ok {
			results = append(results, d)
		}
	}

	return results
}
