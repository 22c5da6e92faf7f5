package booking

import (
	"context"
	"math"
	"sort"

	providerRepo "fixserv/database/repository/provider"
	"fixserv/models"
)

// DispatchEngine computes ranked candidate lists and wave batches. The full
// ranked list is persisted on the booking so later waves never recompute.
type DispatchEngine interface {
	RankCandidates(ctx context.Context, category string, location models.GeoPoint) ([]models.Candidate, error)
	NextWave(dispatch models.DispatchState, waveSize int) []string
}

// DefaultDispatchEngine implements DispatchEngine.
type DefaultDispatchEngine struct {
	ProviderRepo providerRepo.ProviderRepository
	RadiusKm     float64
}

// RankCandidates filters providers by category and radius and sorts them
// ascending by distance, ties broken by provider id for determinism.
func (e *DefaultDispatchEngine) RankCandidates(ctx context.Context, category string, location models.GeoPoint) ([]models.Candidate, error) {
	providers, err := e.ProviderRepo.SearchNearby(ctx, providerRepo.SearchCriteria{
		ServiceCategory: category,
		Location:        location,
		MaxDistanceKm:   e.RadiusKm,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(providers))
	for _, p := range providers {
		d := haversine(location.Lat(), location.Lon(), p.LocationGeo.Lat(), p.LocationGeo.Lon())
		if d > e.RadiusKm {
			continue
		}
		candidates = append(candidates, models.Candidate{ProviderID: p.ID, DistanceKm: d})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceKm != candidates[j].DistanceKm {
			return candidates[i].DistanceKm < candidates[j].DistanceKm
		}
		return candidates[i].ProviderID < candidates[j].ProviderID
	})
	return candidates, nil
}

// NextWave returns the next batch of candidate ids to notify: ranked
// candidates not yet notified and not rejected, up to waveSize.
func (e *DefaultDispatchEngine) NextWave(dispatch models.DispatchState, waveSize int) []string {
	skip := make(map[string]bool, len(dispatch.Notified)+len(dispatch.Rejected))
	for _, id := range dispatch.Notified {
		skip[id] = true
	}
	for _, id := range dispatch.Rejected {
		skip[id] = true
	}

	var batch []string
	for _, c := range dispatch.Candidates {
		if skip[c.ProviderID] {
			continue
		}
		batch = append(batch, c.ProviderID)
		if len(batch) == waveSize {
			break
		}
	}
	return batch
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371
	dLat := (lat2 - lat1) * (math.Pi / 180)
	dLon := (lon2 - lon1) * (math.Pi / 180)
	lat1Rad := lat1 * (math.Pi / 180)
	lat2Rad := lat2 * (math.Pi / 180)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
