package providerRepo

import (
	"context"
	"errors"

	"fixserv/models"
)

// ErrNotFound is returned when a provider does not exist.
var ErrNotFound = errors.New("provider not found")

// SearchCriteria filters candidate providers for dispatch.
type SearchCriteria struct {
	ServiceCategory string
	Location        models.GeoPoint
	MaxDistanceKm   float64
}

// ProviderRepository is the catalog/geolocation collaborator boundary: the
// dispatch engine treats SearchNearby as a pure lookup with no side effects.
type ProviderRepository interface {
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	SearchNearby(ctx context.Context, criteria SearchCriteria) ([]models.Provider, error)
}
