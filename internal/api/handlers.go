package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fairwaylabs/clubfinder/internal/club"
	"github.com/fairwaylabs/clubfinder/internal/geocode"
	"github.com/fairwaylabs/clubfinder/internal/recommend"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	recommender Recommender
	log         *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(recommender Recommender, log *slog.Logger) *Handlers {
	return &Handlers{recommender: recommender, log: log}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// scoredClub is the wire shape of one ranked result.
type scoredClub struct {
	club.Club
	DistanceMiles float64 `json:"distance_miles"`
	Score         float64 `json:"recommendation_score"`
}

// recommendationsResponse is the wire shape of a ranked page.
type recommendationsResponse struct {
	Results    []scoredClub `json:"results"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
}

// GetRecommendations handles GET /api/v1/recommendations.
// Required: zip_code. Optional: radius (miles, default 25), limit, offset,
// golfer_id, and the hard filters (price_tier, difficulty, holes,
// membership, technologies, per-flag booleans).
func (h *Handlers) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	req, err := parseRecommendRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.recommender.Recommend(r.Context(), *req)
	if err != nil {
		switch {
		case errors.Is(err, geocode.ErrGeocodeFailed):
			h.log.Warn("geocoding failed", "zip", req.ZipCode, "err", err)
			writeError(w, http.StatusBadRequest, "could not geocode zip code "+req.ZipCode)
		case errors.Is(err, club.ErrInvalidRadius), errors.Is(err, club.ErrInvalidCoordinate):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error("recommendation pipeline failed", "zip", req.ZipCode, "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	results := make([]scoredClub, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		results = append(results, scoredClub{
			Club:          c.Club,
			DistanceMiles: round2(c.DistanceMiles),
			Score:         c.Score,
		})
	}

	writeJSON(w, http.StatusOK, recommendationsResponse{
		Results:    results,
		Total:      res.Total,
		Page:       req.Offset/req.Limit + 1,
		TotalPages: (res.Total + req.Limit - 1) / req.Limit,
	})
}

// parseRecommendRequest validates query parameters into a pipeline request.
func parseRecommendRequest(r *http.Request) (*recommend.Request, error) {
	q := r.URL.Query()

	zip := strings.TrimSpace(q.Get("zip_code"))
	if zip == "" {
		return nil, errors.New("zip_code is required")
	}

	req := recommend.Request{
		ZipCode:     zip,
		RadiusMiles: recommend.DefaultRadiusMiles,
		Limit:       recommend.DefaultLimit,
	}

	if s := q.Get("radius"); s != "" {
		radius, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.New("radius must be a number of miles")
		}
		req.RadiusMiles = radius
	}

	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit <= 0 {
			return nil, errors.New("limit must be a positive integer")
		}
		req.Limit = limit
	}

	if s := q.Get("offset"); s != "" {
		offset, err := strconv.Atoi(s)
		if err != nil || offset < 0 {
			return nil, errors.New("offset must be a non-negative integer")
		}
		req.Offset = offset
	}

	if s := q.Get("golfer_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, errors.New("golfer_id must be a UUID")
		}
		req.GolferID = id
	}

	req.Filters = club.Filters{
		PriceTier:  club.PriceTier(q.Get("price_tier")),
		Difficulty: club.Difficulty(q.Get("difficulty")),
		Membership: q.Get("membership"),
		Amenities: club.Amenities{
			DrivingRange:   boolParam(q.Get("driving_range")),
			PuttingGreen:   boolParam(q.Get("putting_green")),
			ChippingGreen:  boolParam(q.Get("chipping_green")),
			PracticeBunker: boolParam(q.Get("practice_bunker")),
			Restaurant:     boolParam(q.Get("restaurant")),
			Lodging:        boolParam(q.Get("lodging")),
		},
		Services: club.Services{
			MotorCart:   boolParam(q.Get("motor_cart")),
			PullCart:    boolParam(q.Get("pull_cart")),
			ClubRental:  boolParam(q.Get("club_rental")),
			ClubFitting: boolParam(q.Get("club_fitting")),
			Lessons:     boolParam(q.Get("lessons")),
		},
	}

	if s := q.Get("holes"); s != "" {
		holes, err := strconv.Atoi(s)
		if err != nil || holes <= 0 {
			return nil, errors.New("holes must be a positive integer")
		}
		req.Filters.Holes = holes
	}

	if s := q.Get("technologies"); s != "" {
		for _, name := range strings.Split(s, ",") {
			if name = strings.TrimSpace(name); name != "" {
				req.Filters.Technologies = append(req.Filters.Technologies, name)
			}
		}
	}

	return &req, nil
}

// boolParam parses a flag filter. Only an explicit true constrains the
// search; false, absent, and garbage all mean "no constraint".
func boolParam(s string) bool {
	v, err := strconv.ParseBool(s)
	return err == nil && v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// HealthCheck handles GET /api/v1/health.
// Pings DB and Redis; returns 200 if both ok, 503 otherwise.
type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and redis connectivity.
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		redisStatus := "ok"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			redisStatus = "error"
			status = http.StatusServiceUnavailable
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
