package service

import (
	"context"
	"errors"
	"fmt"

	"admin-geocoder/internal/models"
)

var ErrAdminNotFound = errors.New("service: admin not found")

// LookupService contains the business logic for authoritative code lookups
type LookupService struct {
	admins CodeLookup
}

// CodeLookup interface for dependency injection
type CodeLookup interface {
	ByCode(code string) (*models.Admin, bool)
}

// NewLookupService creates a new lookup service
func NewLookupService(admins CodeLookup) *LookupService {
	return &LookupService{admins: admins}
}

// AdminByCode returns the admin holding the authoritative code
func (s *LookupService) AdminByCode(ctx context.Context, code string) (*models.Admin, error) {
	if code == "" {
		return nil, fmt.Errorf("service: code cannot be empty")
	}

	admin, ok := s.admins.ByCode(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAdminNotFound, code)
	}

	return admin, nil
}
