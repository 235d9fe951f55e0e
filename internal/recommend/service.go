// Package recommend orchestrates the recommendation pipeline: geocode the
// ZIP, fetch candidates in range, score them against the golfer's
// preferences, rank, paginate.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fairwaylabs/clubfinder/internal/club"
	"github.com/fairwaylabs/clubfinder/internal/geocode"
)

// maxRadiusMiles caps the search radius; the distance component of the
// score is zero past 100 miles anyway.
const maxRadiusMiles = 100.0

// DefaultRadiusMiles applies when the caller does not send a radius.
const DefaultRadiusMiles = 25.0

// DefaultLimit applies when the caller does not send a page size.
const DefaultLimit = 10

// Geocoder resolves a ZIP code to a coordinate.
type Geocoder interface {
	Resolve(ctx context.Context, zipCode string) (geocode.Coordinate, error)
}

// GeocodeCache is an optional read-through cache in front of the Geocoder.
type GeocodeCache interface {
	Get(ctx context.Context, zipCode string) (*geocode.Coordinate, error)
	Set(ctx context.Context, zipCode string, coord geocode.Coordinate) error
}

// ClubStore is the spatial range query collaborator.
type ClubStore interface {
	FindWithinRadius(ctx context.Context, center geocode.Coordinate, radiusMiles float64, f club.Filters) ([]club.Candidate, error)
}

// PreferenceStore looks up a golfer's stored preferences.
// A nil, nil return means the golfer has no profile.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, golferID uuid.UUID) (*club.GolferPreferences, error)
}

// Request is one recommendation query.
type Request struct {
	ZipCode     string
	RadiusMiles float64
	GolferID    uuid.UUID // uuid.Nil means anonymous: empty preferences
	Filters     club.Filters
	Limit       int
	Offset      int
}

// Result is the ranked, paginated outcome plus the pre-pagination total.
type Result struct {
	Candidates []club.ScoredCandidate
	Total      int
}

// Service wires the pipeline's collaborators.
type Service struct {
	geocoder Geocoder
	cache    GeocodeCache
	clubs    ClubStore
	prefs    PreferenceStore
	log      *slog.Logger
}

// NewService constructs a Service. cache may be nil to disable geocode
// caching.
func NewService(geocoder Geocoder, cache GeocodeCache, clubs ClubStore, prefs PreferenceStore, log *slog.Logger) *Service {
	return &Service{
		geocoder: geocoder,
		cache:    cache,
		clubs:    clubs,
		prefs:    prefs,
		log:      log,
	}
}

// Recommend runs the full pipeline for one request. An empty candidate
// set is a success with Total 0; geocoding and datastore failures abort
// the whole request.
func (s *Service) Recommend(ctx context.Context, req Request) (*Result, error) {
	if req.RadiusMiles <= 0 || req.RadiusMiles > maxRadiusMiles {
		return nil, fmt.Errorf("%w: %f miles (must be in (0, %.0f])", club.ErrInvalidRadius, req.RadiusMiles, maxRadiusMiles)
	}

	center, err := s.resolveZip(ctx, req.ZipCode)
	if err != nil {
		return nil, err
	}

	candidates, err := s.clubs.FindWithinRadius(ctx, center, req.RadiusMiles, req.Filters)
	if err != nil {
		return nil, fmt.Errorf("finding clubs near %s: %w", req.ZipCode, err)
	}
	if len(candidates) == 0 {
		return &Result{Candidates: []club.ScoredCandidate{}, Total: 0}, nil
	}

	prefs, err := s.loadPreferences(ctx, req.GolferID)
	if err != nil {
		return nil, err
	}

	scored := s.scoreAll(ctx, candidates, prefs)

	// Score descending, closer club wins ties, club ID as the final
	// deterministic key.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].DistanceMiles != scored[j].DistanceMiles {
			return scored[i].DistanceMiles < scored[j].DistanceMiles
		}
		return scored[i].Club.ID.String() < scored[j].Club.ID.String()
	})

	total := len(scored)
	return &Result{Candidates: paginate(scored, req.Offset, req.Limit), Total: total}, nil
}

// resolveZip checks the cache, falls back to the geocoder, and fills the
// cache on the way back. Cache failures degrade to a live lookup.
func (s *Service) resolveZip(ctx context.Context, zipCode string) (geocode.Coordinate, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, zipCode)
		if err != nil {
			s.log.Warn("geocode cache get failed", "zip", zipCode, "err", err)
		}
		if cached != nil {
			return *cached, nil
		}
	}

	coord, err := s.geocoder.Resolve(ctx, zipCode)
	if err != nil {
		return geocode.Coordinate{}, fmt.Errorf("resolving zip %s: %w", zipCode, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, zipCode, coord); err != nil {
			s.log.Warn("geocode cache set failed", "zip", zipCode, "err", err)
		}
	}

	return coord, nil
}

// loadPreferences fetches the golfer's stored preferences; an anonymous
// request or a missing profile yields empty preferences.
func (s *Service) loadPreferences(ctx context.Context, golferID uuid.UUID) (*club.GolferPreferences, error) {
	if golferID == uuid.Nil {
		return &club.GolferPreferences{}, nil
	}

	prefs, err := s.prefs.GetPreferences(ctx, golferID)
	if err != nil {
		return nil, fmt.Errorf("loading preferences for golfer %s: %w", golferID, err)
	}
	if prefs == nil {
		return &club.GolferPreferences{}, nil
	}
	return prefs, nil
}

// scoreAll scores every candidate concurrently. Candidates are
// independent, so each goroutine writes only its own slot. A candidate
// that cannot be scored keeps score 0 and is logged, never dropped: the
// result count stays deterministic.
func (s *Service) scoreAll(ctx context.Context, candidates []club.Candidate, prefs *club.GolferPreferences) []club.ScoredCandidate {
	scored := make([]club.ScoredCandidate, len(candidates))

	g, _ := errgroup.WithContext(ctx)
	for i, cand := range candidates {
		i, cand := i, cand
		scored[i] = club.ScoredCandidate{Candidate: cand}

		g.Go(func() error {
			score, err := club.Score(&cand.Club, cand.DistanceMiles, prefs)
			if err != nil {
				s.log.Error("scoring failed, candidate kept with zero score",
					"club_id", cand.Club.ID, "err", err)
				return nil
			}
			scored[i].Score = score
			return nil
		})
	}
	// Goroutines never return errors; Wait is a join.
	_ = g.Wait()

	return scored
}

// paginate slices the fully sorted list. Offsets past the end produce an
// empty page, not an error.
func paginate(scored []club.ScoredCandidate, offset, limit int) []club.ScoredCandidate {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset >= len(scored) {
		return []club.ScoredCandidate{}
	}
	end := offset + limit
	if end > len(scored) {
		end = len(scored)
	}
	return scored[offset:end]
}
