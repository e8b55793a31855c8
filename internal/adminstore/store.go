// Package adminstore holds the canonical set of admins for an import run.
//
// The store is append-only while boundaries are extracted or loaded and is
// frozen before the boundary index is built. Other components refer to admins
// through a Handle or through the pointers returned by Get, never by copy.
package adminstore

import (
	"errors"
	"fmt"
	"sync"

	"admin-geocoder/internal/models"
)

var (
	ErrFrozen        = errors.New("adminstore: store is frozen")
	ErrDuplicateID   = errors.New("adminstore: duplicate admin id")
	ErrDuplicateCode = errors.New("adminstore: duplicate authoritative code")
	ErrInvalidAdmin  = errors.New("adminstore: invalid admin")
)

// Handle identifies an admin inside a Store.
type Handle int

// Store owns every Admin of a run.
type Store struct {
	mu     sync.RWMutex
	admins []*models.Admin
	byID   map[string]Handle
	byCode map[string]Handle
	frozen bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		byID:   make(map[string]Handle),
		byCode: make(map[string]Handle),
	}
}

// Add inserts an admin and returns its handle. The first admin holding a
// given authoritative code wins; later ones are rejected with ErrDuplicateCode.
func (s *Store) Add(admin models.Admin) (Handle, error) {
	if admin.ID == "" || admin.Name == "" {
		return -1, fmt.Errorf("%w: id %q name %q", ErrInvalidAdmin, admin.ID, admin.Name)
	}
	admin.Insee = models.NormalizeCode(admin.Insee)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return -1, ErrFrozen
	}
	if _, ok := s.byID[admin.ID]; ok {
		return -1, fmt.Errorf("%w: %s", ErrDuplicateID, admin.ID)
	}
	if admin.Insee != "" {
		if prev, ok := s.byCode[admin.Insee]; ok {
			return -1, fmt.Errorf("%w: %s already held by %s", ErrDuplicateCode, admin.Insee, s.admins[prev].ID)
		}
	}

	h := Handle(len(s.admins))
	stored := admin
	s.admins = append(s.admins, &stored)
	s.byID[admin.ID] = h
	if admin.Insee != "" {
		s.byCode[admin.Insee] = h
	}
	return h, nil
}

// Freeze forbids further inserts. It is idempotent.
func (s *Store) Freeze() {
	s.mu.Lock()
	s.frozen = true
	s.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (s *Store) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

// Len returns the number of admins in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.admins)
}

// Get returns the admin behind h, or nil when h is out of range.
// Callers must not mutate the returned admin.
func (s *Store) Get(h Handle) *models.Admin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h < 0 || int(h) >= len(s.admins) {
		return nil
	}
	return s.admins[h]
}

// ByID looks an admin up by its id.
func (s *Store) ByID(id string) (Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byID[id]
	return h, ok
}

// ByCode looks an admin up by its authoritative code. The code is
// normalized first, so "01001" and "1001" are equivalent.
func (s *Store) ByCode(code string) (Handle, bool) {
	code = models.NormalizeCode(code)
	if code == "" {
		return -1, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byCode[code]
	return h, ok
}

// Handles returns every handle in insertion order.
func (s *Store) Handles() []Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Handle, len(s.admins))
	for i := range out {
		out[i] = Handle(i)
	}
	return out
}

// Admins returns the stored admins in insertion order.
func (s *Store) Admins() []*models.Admin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Admin, len(s.admins))
	copy(out, s.admins)
	return out
}
