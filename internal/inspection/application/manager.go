package application

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	masterdata "seismic-network/internal/masterdata/domain"
	"seismic-network/internal/observability/metrics"
)

// ErrSessionNotFound indicates an unknown or expired session id.
var ErrSessionNotFound = errors.New("close session: not found")

// Manager tracks one open close-order session per logged employee. A second
// Open for the same employee returns the existing session rather than a
// competing one.
type Manager struct {
	orders    OrderReader
	devices   SeismographReader
	persister ClosurePersister
	opts      []SessionOption

	mu         sync.Mutex
	sessions   map[string]*Session
	byEmployee map[string]string
}

// NewManager constructs a session manager. The supplied options are applied
// to every session it opens.
func NewManager(orders OrderReader, devices SeismographReader, persister ClosurePersister, opts ...SessionOption) (*Manager, error) {
	if orders == nil {
		return nil, errors.New("session manager: nil order reader")
	}
	if devices == nil {
		return nil, errors.New("session manager: nil seismograph reader")
	}
	if persister == nil {
		return nil, errors.New("session manager: nil persister")
	}
	return &Manager{
		orders:     orders,
		devices:    devices,
		persister:  persister,
		opts:       opts,
		sessions:   make(map[string]*Session),
		byEmployee: make(map[string]string),
	}, nil
}

// Open returns the employee's session, creating one when none is open.
func (m *Manager) Open(employee masterdata.Employee) (*Session, error) {
	if m == nil {
		return nil, errors.New("session manager: nil")
	}
	if err := employee.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byEmployee[employee.ID]; ok {
		if session := m.sessions[id]; session != nil {
			return session, nil
		}
	}

	opts := append([]SessionOption{WithSessionID(uuid.NewString())}, m.opts...)
	session, err := NewSession(employee, m.orders, m.devices, m.persister, opts...)
	if err != nil {
		return nil, err
	}
	m.sessions[session.ID()] = session
	m.byEmployee[employee.ID] = session.ID()
	metrics.SessionOpened()
	return session, nil
}

// Get resolves a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	if m == nil {
		return nil, errors.New("session manager: nil")
	}
	m.mu.Lock()
	session := m.sessions[id]
	m.mu.Unlock()
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Release drops a session from the registry. Confirmed and cancelled
// sessions are released by the interface layer.
func (m *Manager) Release(id string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	if session, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		delete(m.byEmployee, session.Employee().ID)
		metrics.SessionClosed()
	}
	m.mu.Unlock()
}
