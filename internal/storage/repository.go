package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairwaylabs/clubfinder/internal/club"
	"github.com/fairwaylabs/clubfinder/internal/geocode"
)

// milesToMeters converts statute miles to meters for geography math.
const milesToMeters = 1609.34

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides database access for club and golfer records.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// clubColumns is the SELECT list shared by club queries, including the
// point unpacked back into lat/lng.
const clubColumns = `
	id, name, street, city, state, zip_code,
	ST_Y(geom) AS lat, ST_X(geom) AS lng,
	price_tier, difficulty, holes, membership,
	driving_range, putting_green, chipping_green, practice_bunker, restaurant, lodging,
	motor_cart, pull_cart, club_rental, club_fitting, lessons,
	technologies, created_at, updated_at`

// FindWithinRadius returns every club within radiusMiles of center that
// satisfies all supplied hard filters, annotated with its geodesic
// distance in miles. The result carries no particular order: ranking is
// the pipeline's job. An empty result is success.
func (r *Repository) FindWithinRadius(ctx context.Context, center geocode.Coordinate, radiusMiles float64, f club.Filters) ([]club.Candidate, error) {
	if center.Latitude < -90 || center.Latitude > 90 ||
		center.Longitude < -180 || center.Longitude > 180 {
		return nil, fmt.Errorf("%w: %f,%f", club.ErrInvalidCoordinate, center.Latitude, center.Longitude)
	}
	if radiusMiles <= 0 {
		return nil, fmt.Errorf("%w: %f", club.ErrInvalidRadius, radiusMiles)
	}

	var sb strings.Builder
	sb.WriteString("SELECT")
	sb.WriteString(clubColumns)
	sb.WriteString(`,
	ST_Distance(geom::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) / $3 AS distance_miles
FROM clubs
WHERE ST_DWithin(geom::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $4 * $3)`)

	args := []any{center.Longitude, center.Latitude, milesToMeters, radiusMiles}

	addClause := func(column string, value any) {
		args = append(args, value)
		fmt.Fprintf(&sb, "\n\tAND %s = $%d", column, len(args))
	}

	if f.PriceTier != "" {
		addClause("price_tier", string(f.PriceTier))
	}
	if f.Difficulty != "" {
		addClause("difficulty", string(f.Difficulty.Normalize()))
	}
	if f.Holes > 0 {
		addClause("holes", f.Holes)
	}
	if f.Membership != "" {
		addClause("membership", f.Membership)
	}

	// Boolean flags are one-directional hard filters: only a requested
	// "true" constrains the query.
	for _, flag := range []struct {
		column string
		want   bool
	}{
		{"driving_range", f.Amenities.DrivingRange},
		{"putting_green", f.Amenities.PuttingGreen},
		{"chipping_green", f.Amenities.ChippingGreen},
		{"practice_bunker", f.Amenities.PracticeBunker},
		{"restaurant", f.Amenities.Restaurant},
		{"lodging", f.Amenities.Lodging},
		{"motor_cart", f.Services.MotorCart},
		{"pull_cart", f.Services.PullCart},
		{"club_rental", f.Services.ClubRental},
		{"club_fitting", f.Services.ClubFitting},
		{"lessons", f.Services.Lessons},
	} {
		if flag.want {
			fmt.Fprintf(&sb, "\n\tAND %s = TRUE", flag.column)
		}
	}

	// OR semantics within the technology list, AND with everything else.
	if len(f.Technologies) > 0 {
		args = append(args, f.Technologies)
		fmt.Fprintf(&sb, "\n\tAND technologies && $%d", len(args))
	}

	rows, err := r.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying clubs within %f miles: %w", radiusMiles, err)
	}
	defer rows.Close()

	var results []club.Candidate
	for rows.Next() {
		cand, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning club row: %w", err)
		}
		results = append(results, cand)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating club rows: %w", err)
	}

	return results, nil
}

// scanCandidate reads one row of clubColumns + distance_miles.
func scanCandidate(row pgx.Row) (club.Candidate, error) {
	var (
		c          club.Club
		priceTier  *string
		difficulty *string
		holes      *int
		membership *string
		dist       float64
	)

	err := row.Scan(
		&c.ID, &c.Name, &c.Street, &c.City, &c.State, &c.ZipCode,
		&c.Latitude, &c.Longitude,
		&priceTier, &difficulty, &holes, &membership,
		&c.Amenities.DrivingRange, &c.Amenities.PuttingGreen, &c.Amenities.ChippingGreen,
		&c.Amenities.PracticeBunker, &c.Amenities.Restaurant, &c.Amenities.Lodging,
		&c.Services.MotorCart, &c.Services.PullCart, &c.Services.ClubRental,
		&c.Services.ClubFitting, &c.Services.Lessons,
		&c.Technologies, &c.CreatedAt, &c.UpdatedAt,
		&dist,
	)
	if err != nil {
		return club.Candidate{}, err
	}

	if priceTier != nil {
		c.PriceTier = club.PriceTier(*priceTier)
	}
	if difficulty != nil {
		c.Difficulty = club.Difficulty(*difficulty)
	}
	if holes != nil {
		c.Holes = *holes
	}
	if membership != nil {
		c.Membership = *membership
	}

	return club.Candidate{Club: c, DistanceMiles: dist}, nil
}

// GetPreferences retrieves a golfer's stored preferences.
// Returns nil, nil when no profile exists for the golfer.
func (r *Repository) GetPreferences(ctx context.Context, golferID uuid.UUID) (*club.GolferPreferences, error) {
	const q = `
		SELECT price_tier, difficulty, holes, membership,
		       driving_range, putting_green, chipping_green, practice_bunker, restaurant, lodging,
		       motor_cart, pull_cart, club_rental, club_fitting, lessons,
		       technologies
		FROM golfer_profiles
		WHERE id = $1
	`

	var (
		p          club.GolferPreferences
		priceTier  *string
		difficulty *string
		holes      *int
		membership *string
	)

	err := r.q.QueryRow(ctx, q, golferID).Scan(
		&priceTier, &difficulty, &holes, &membership,
		&p.Amenities.DrivingRange, &p.Amenities.PuttingGreen, &p.Amenities.ChippingGreen,
		&p.Amenities.PracticeBunker, &p.Amenities.Restaurant, &p.Amenities.Lodging,
		&p.Services.MotorCart, &p.Services.PullCart, &p.Services.ClubRental,
		&p.Services.ClubFitting, &p.Services.Lessons,
		&p.Technologies,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying preferences for golfer %s: %w", golferID, err)
	}

	if priceTier != nil {
		p.PriceTier = club.PriceTier(*priceTier)
	}
	if difficulty != nil {
		p.Difficulty = club.Difficulty(*difficulty)
	}
	if holes != nil {
		p.Holes = *holes
	}
	if membership != nil {
		p.Membership = *membership
	}

	return &p, nil
}

// UpsertClub inserts or updates a club record keyed by ID. Used by data
// loading; the serving path never writes.
func (r *Repository) UpsertClub(ctx context.Context, c *club.Club) error {
	const q = `
		INSERT INTO clubs (
			id, name, street, city, state, zip_code, geom,
			price_tier, difficulty, holes, membership,
			driving_range, putting_green, chipping_green, practice_bunker, restaurant, lodging,
			motor_cart, pull_cart, club_rental, club_fitting, lessons,
			technologies, updated_at
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, ST_SetSRID(ST_MakePoint($7, $8), 4326),
			NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, 0), NULLIF($12, ''),
			$13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23,
			$24, NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, street = EXCLUDED.street, city = EXCLUDED.city,
			state = EXCLUDED.state, zip_code = EXCLUDED.zip_code, geom = EXCLUDED.geom,
			price_tier = EXCLUDED.price_tier, difficulty = EXCLUDED.difficulty,
			holes = EXCLUDED.holes, membership = EXCLUDED.membership,
			driving_range = EXCLUDED.driving_range, putting_green = EXCLUDED.putting_green,
			chipping_green = EXCLUDED.chipping_green, practice_bunker = EXCLUDED.practice_bunker,
			restaurant = EXCLUDED.restaurant, lodging = EXCLUDED.lodging,
			motor_cart = EXCLUDED.motor_cart, pull_cart = EXCLUDED.pull_cart,
			club_rental = EXCLUDED.club_rental, club_fitting = EXCLUDED.club_fitting,
			lessons = EXCLUDED.lessons, technologies = EXCLUDED.technologies,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.q.Exec(ctx, q,
		c.ID, c.Name, c.Street, c.City, c.State, c.ZipCode,
		c.Longitude, c.Latitude,
		string(c.PriceTier), string(c.Difficulty.Normalize()), c.Holes, c.Membership,
		c.Amenities.DrivingRange, c.Amenities.PuttingGreen, c.Amenities.ChippingGreen,
		c.Amenities.PracticeBunker, c.Amenities.Restaurant, c.Amenities.Lodging,
		c.Services.MotorCart, c.Services.PullCart, c.Services.ClubRental,
		c.Services.ClubFitting, c.Services.Lessons,
		c.Technologies,
	)
	if err != nil {
		return fmt.Errorf("upserting club %s: %w", c.ID, err)
	}

	return nil
}
