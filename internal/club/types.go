// Package club holds the golf club domain model and the recommendation
// scoring engine. It has no knowledge of storage, transport, or geocoding.
package club

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PriceTier is an ordinal cost category: $ < $$ < $$$.
type PriceTier string

const (
	PriceBudget   PriceTier = "$"
	PriceMid      PriceTier = "$$"
	PricePremium  PriceTier = "$$$"
	priceTierNone PriceTier = ""
)

// Level returns the 1-based ordinal level of the tier, or 0 when unset
// or unrecognized.
func (p PriceTier) Level() int {
	switch p {
	case PriceBudget:
		return 1
	case PriceMid:
		return 2
	case PricePremium:
		return 3
	}
	return 0
}

// Valid reports whether the tier is one of the recognized values.
// The empty string is valid (it means "unset").
func (p PriceTier) Valid() bool {
	return p == priceTierNone || p.Level() > 0
}

// Difficulty is an ordinal challenge category: EASY < MEDIUM < HARD.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Normalize upper-cases and trims the value so comparisons are
// case-insensitive.
func (d Difficulty) Normalize() Difficulty {
	return Difficulty(strings.ToUpper(strings.TrimSpace(string(d))))
}

// Level returns the 1-based ordinal level of the difficulty, or 0 when
// unset or unrecognized. The receiver is normalized first.
func (d Difficulty) Level() int {
	switch d.Normalize() {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	}
	return 0
}

// Valid reports whether the difficulty is recognized after normalization.
// The empty string is valid (it means "unset").
func (d Difficulty) Valid() bool {
	return d == "" || d.Level() > 0
}

// Amenities is the set of canonical amenity flags tracked per club.
type Amenities struct {
	DrivingRange   bool `json:"driving_range"`
	PuttingGreen   bool `json:"putting_green"`
	ChippingGreen  bool `json:"chipping_green"`
	PracticeBunker bool `json:"practice_bunker"`
	Restaurant     bool `json:"restaurant"`
	Lodging        bool `json:"lodging"`
}

// flags returns the amenity flags in canonical order.
func (a Amenities) flags() [6]bool {
	return [6]bool{a.DrivingRange, a.PuttingGreen, a.ChippingGreen, a.PracticeBunker, a.Restaurant, a.Lodging}
}

// Services is the set of canonical service flags tracked per club.
type Services struct {
	MotorCart   bool `json:"motor_cart"`
	PullCart    bool `json:"pull_cart"`
	ClubRental  bool `json:"club_rental"`
	ClubFitting bool `json:"club_fitting"`
	Lessons     bool `json:"lessons"`
}

// flags returns the service flags in canonical order.
func (s Services) flags() [5]bool {
	return [5]bool{s.MotorCart, s.PullCart, s.ClubRental, s.ClubFitting, s.Lessons}
}

// Club is a golf venue record as persisted by the storage layer.
type Club struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Street       string     `json:"street"`
	City         string     `json:"city"`
	State        string     `json:"state"`
	ZipCode      string     `json:"zip_code"`
	Latitude     float64    `json:"lat"`
	Longitude    float64    `json:"lng"`
	PriceTier    PriceTier  `json:"price_tier,omitempty"`
	Difficulty   Difficulty `json:"difficulty,omitempty"`
	Holes        int        `json:"holes,omitempty"`
	Membership   string     `json:"membership,omitempty"`
	Amenities    Amenities  `json:"amenities"`
	Services     Services   `json:"services"`
	Technologies []string   `json:"technologies,omitempty"`
	CreatedAt    time.Time  `json:"-"`
	UpdatedAt    time.Time  `json:"-"`
}

// GolferPreferences captures a golfer's stored desires. Every field is
// optional; the zero value means "no preference" and never penalizes a
// candidate.
type GolferPreferences struct {
	PriceTier    PriceTier  `json:"price_tier,omitempty"`
	Difficulty   Difficulty `json:"difficulty,omitempty"`
	Holes        int        `json:"holes,omitempty"`
	Membership   string     `json:"membership,omitempty"`
	Amenities    Amenities  `json:"amenities"`
	Services     Services   `json:"services"`
	Technologies []string   `json:"technologies,omitempty"`
}

// Candidate is a club returned by the proximity query, annotated with its
// great-circle distance from the search center.
type Candidate struct {
	Club          Club
	DistanceMiles float64
}

// ScoredCandidate is a Candidate plus its recommendation score. It lives
// for a single request: built, sorted, paginated, discarded.
type ScoredCandidate struct {
	Candidate
	Score float64
}

// Filters are the hard pre-query constraints of a proximity search. A
// zero-valued field imposes no constraint. Boolean flags are
// one-directional: true requires the club to have the flag, false means
// "don't care". Technologies use OR semantics within the list.
type Filters struct {
	PriceTier    PriceTier
	Difficulty   Difficulty
	Holes        int
	Membership   string
	Amenities    Amenities
	Services     Services
	Technologies []string
}
