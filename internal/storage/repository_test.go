package storage_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairwaylabs/clubfinder/internal/club"
	"github.com/fairwaylabs/clubfinder/internal/geocode"
	"github.com/fairwaylabs/clubfinder/internal/storage"
)

// ---- mock Querier ----

type mockQuerier struct {
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.queryRowFn(ctx, sql, args...)
}
func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return m.queryFn(ctx, sql, args...)
}
func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return m.execFn(ctx, sql, args...)
}

// ---- mock pgx.Row ----

type fakeRow struct {
	scanFn func(dest ...any) error
}

func (f *fakeRow) Scan(dest ...any) error { return f.scanFn(dest...) }

// ---- mock pgx.Rows ----

type fakeRows struct {
	rows    [][]any
	idx     int
	rowErr  error
	scanErr error
}

func (f *fakeRows) Next() bool                                   { f.idx++; return f.idx <= len(f.rows) }
func (f *fakeRows) Err() error                                   { return f.rowErr }
func (f *fakeRows) Close()                                       {}
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (f *fakeRows) RawValues() [][]byte                          { return nil }
func (f *fakeRows) Conn() *pgx.Conn                              { return nil }

func (f *fakeRows) Scan(dest ...any) error {
	if f.scanErr != nil {
		return f.scanErr
	}
	return assign(f.rows[f.idx-1], dest)
}

// assign copies canned row values into scan destinations.
func assign(row []any, dest []any) error {
	for i, d := range dest {
		if i >= len(row) {
			break
		}
		switch v := d.(type) {
		case *uuid.UUID:
			*v = row[i].(uuid.UUID)
		case *string:
			*v = row[i].(string)
		case **string:
			if row[i] == nil {
				*v = nil
			} else {
				s := row[i].(string)
				*v = &s
			}
		case *int:
			*v = row[i].(int)
		case **int:
			if row[i] == nil {
				*v = nil
			} else {
				n := row[i].(int)
				*v = &n
			}
		case *float64:
			*v = row[i].(float64)
		case *bool:
			*v = row[i].(bool)
		case *[]string:
			if row[i] == nil {
				*v = nil
			} else {
				*v = row[i].([]string)
			}
		case *time.Time:
			*v = row[i].(time.Time)
		}
	}
	return nil
}

// clubRow builds a canned row matching the FindWithinRadius column order.
func clubRow(id uuid.UUID, name string, dist float64) []any {
	now := time.Now().UTC().Truncate(time.Second)
	return []any{
		id, name, "1 Fairway Dr", "Warren", "MI", "48091",
		42.49, -83.03,
		"$$", "MEDIUM", 18, "public",
		true, true, false, false, true, false,
		true, false, true, false, false,
		[]string{"gps_carts"}, now, now,
		dist,
	}
}

func center() geocode.Coordinate {
	return geocode.Coordinate{Latitude: 42.33, Longitude: -83.05}
}

// ---- FindWithinRadius ----

func TestFindWithinRadius_InvalidInputs(t *testing.T) {
	repo := storage.NewRepositoryWithQuerier(&mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			t.Fatal("query should not run for invalid inputs")
			return nil, nil
		},
	})

	_, err := repo.FindWithinRadius(context.Background(), geocode.Coordinate{Latitude: 91, Longitude: 0}, 10, club.Filters{})
	assert.ErrorIs(t, err, club.ErrInvalidCoordinate)

	_, err = repo.FindWithinRadius(context.Background(), geocode.Coordinate{Latitude: 0, Longitude: -181}, 10, club.Filters{})
	assert.ErrorIs(t, err, club.ErrInvalidCoordinate)

	_, err = repo.FindWithinRadius(context.Background(), center(), 0, club.Filters{})
	assert.ErrorIs(t, err, club.ErrInvalidRadius)

	_, err = repo.FindWithinRadius(context.Background(), center(), -5, club.Filters{})
	assert.ErrorIs(t, err, club.ErrInvalidRadius)
}

func TestFindWithinRadius_NoFilters(t *testing.T) {
	id := uuid.New()
	var gotSQL string
	var gotArgs []any

	q := &mockQuerier{
		queryFn: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
			gotSQL = sql
			gotArgs = args
			return &fakeRows{rows: [][]any{clubRow(id, "Maple Lane", 4.2)}}, nil
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	got, err := repo.FindWithinRadius(context.Background(), center(), 25, club.Filters{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, id, got[0].Club.ID)
	assert.Equal(t, "Maple Lane", got[0].Club.Name)
	assert.Equal(t, club.PriceMid, got[0].Club.PriceTier)
	assert.Equal(t, club.DifficultyMedium, got[0].Club.Difficulty)
	assert.Equal(t, 4.2, got[0].DistanceMiles)

	assert.Contains(t, gotSQL, "ST_DWithin")
	assert.NotContains(t, gotSQL, "price_tier =", "no filter should add a clause")
	// lng, lat, miles-to-meters factor, radius
	assert.Equal(t, []any{-83.05, 42.33, 1609.34, 25.0}, gotArgs)
}

func TestFindWithinRadius_FilterClauses(t *testing.T) {
	var gotSQL string
	var gotArgs []any

	q := &mockQuerier{
		queryFn: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
			gotSQL = sql
			gotArgs = args
			return &fakeRows{}, nil
		},
	}

	f := club.Filters{
		PriceTier:  club.PriceMid,
		Difficulty: club.Difficulty("hard"),
		Holes:      18,
		Membership: "public",
		Amenities:  club.Amenities{DrivingRange: true},
		Services:   club.Services{Lessons: true},
		Technologies: []string{
			"gps_carts", "online_booking",
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.FindWithinRadius(context.Background(), center(), 10, f)
	require.NoError(t, err)

	assert.Contains(t, gotSQL, "price_tier = $5")
	assert.Contains(t, gotSQL, "difficulty = $6")
	assert.Contains(t, gotSQL, "holes = $7")
	assert.Contains(t, gotSQL, "membership = $8")
	assert.Contains(t, gotSQL, "driving_range = TRUE")
	assert.Contains(t, gotSQL, "lessons = TRUE")
	assert.NotContains(t, gotSQL, "putting_green = TRUE", "unrequested flags must not constrain")
	assert.Contains(t, gotSQL, "technologies && $9")

	require.Len(t, gotArgs, 9)
	assert.Equal(t, "$$", gotArgs[4])
	assert.Equal(t, "HARD", gotArgs[5], "difficulty filter should be normalized")
	assert.Equal(t, 18, gotArgs[6])
	assert.Equal(t, "public", gotArgs[7])
	assert.Equal(t, []string{"gps_carts", "online_booking"}, gotArgs[8])
}

func TestFindWithinRadius_EmptyIsSuccess(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			return &fakeRows{}, nil
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	got, err := repo.FindWithinRadius(context.Background(), center(), 10, club.Filters{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindWithinRadius_QueryError(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			return nil, fmt.Errorf("connection reset")
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.FindWithinRadius(context.Background(), center(), 10, club.Filters{})
	assert.Error(t, err)
}

// ---- GetPreferences ----

func TestGetPreferences_Found(t *testing.T) {
	row := []any{
		"$$", "MEDIUM", nil, "public",
		true, false, false, false, true, false,
		true, false, false, false, true,
		[]string{"online_booking"},
	}

	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{scanFn: func(dest ...any) error { return assign(row, dest) }}
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	prefs, err := repo.GetPreferences(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NotNil(t, prefs)

	assert.Equal(t, club.PriceMid, prefs.PriceTier)
	assert.Equal(t, club.DifficultyMedium, prefs.Difficulty)
	assert.Zero(t, prefs.Holes)
	assert.True(t, prefs.Amenities.DrivingRange)
	assert.True(t, prefs.Services.Lessons)
	assert.Equal(t, []string{"online_booking"}, prefs.Technologies)
}

func TestGetPreferences_NotFound(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{scanFn: func(_ ...any) error { return pgx.ErrNoRows }}
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	prefs, err := repo.GetPreferences(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, prefs)
}

func TestGetPreferences_DBError(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{scanFn: func(_ ...any) error { return fmt.Errorf("connection reset") }}
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.GetPreferences(context.Background(), uuid.New())
	assert.Error(t, err)
}

// ---- UpsertClub ----

func TestUpsertClub(t *testing.T) {
	var gotArgs []any
	q := &mockQuerier{
		execFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			assert.Contains(t, sql, "ON CONFLICT (id) DO UPDATE")
			gotArgs = args
			return pgconn.CommandTag{}, nil
		},
	}

	c := &club.Club{
		ID:        uuid.New(),
		Name:      "Maple Lane",
		ZipCode:   "48091",
		Latitude:  42.49,
		Longitude: -83.03,
		PriceTier: club.PriceMid,
	}

	repo := storage.NewRepositoryWithQuerier(q)
	require.NoError(t, repo.UpsertClub(context.Background(), c))

	require.NotEmpty(t, gotArgs)
	assert.Equal(t, c.ID, gotArgs[0])
	// lng before lat for ST_MakePoint
	assert.Equal(t, -83.03, gotArgs[6])
	assert.Equal(t, 42.49, gotArgs[7])
}

// ---- migrations ----

type mockMigrationPool struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockMigrationPool) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.beginFn(ctx)
}

// mockTx is a minimal pgx.Tx implementation for testing migrations.
type mockTx struct {
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error
}

func (t *mockTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.execFn(ctx, sql, args...)
}
func (t *mockTx) Commit(ctx context.Context) error   { return t.commitFn(ctx) }
func (t *mockTx) Rollback(ctx context.Context) error { return t.rollbackFn(ctx) }

// pgx.Tx has many more methods; stub them out.
func (t *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (t *mockTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *mockTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }
func (t *mockTx) LargeObjects() pgx.LargeObjects                             { return pgx.LargeObjects{} }
func (t *mockTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *mockTx) Conn() *pgx.Conn { return nil }

func writeSQLFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRunMigrations_OrderAndCommit(t *testing.T) {
	dir := t.TempDir()
	writeSQLFile(t, dir, "0002_second.sql", "CREATE TABLE b ();")
	writeSQLFile(t, dir, "0001_first.sql", "CREATE TABLE a ();")
	writeSQLFile(t, dir, "notes.txt", "ignored")

	var executed []string
	commits := 0

	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) {
			return &mockTx{
				execFn: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
					executed = append(executed, sql)
					return pgconn.CommandTag{}, nil
				},
				commitFn:   func(_ context.Context) error { commits++; return nil },
				rollbackFn: func(_ context.Context) error { return nil },
			}, nil
		},
	}

	require.NoError(t, storage.RunMigrations(context.Background(), pool, dir))
	require.Equal(t, []string{"CREATE TABLE a ();", "CREATE TABLE b ();"}, executed)
	assert.Equal(t, 2, commits)
}

func TestRunMigrations_RollbackOnFailure(t *testing.T) {
	dir := t.TempDir()
	writeSQLFile(t, dir, "0001_bad.sql", "BROKEN SQL")

	rollbacks := 0
	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) {
			return &mockTx{
				execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
					return pgconn.CommandTag{}, fmt.Errorf("syntax error")
				},
				commitFn:   func(_ context.Context) error { t.Fatal("must not commit"); return nil },
				rollbackFn: func(_ context.Context) error { rollbacks++; return nil },
			}, nil
		},
	}

	err := storage.RunMigrations(context.Background(), pool, dir)
	assert.Error(t, err)
	assert.Equal(t, 1, rollbacks)
}
