package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"admin-geocoder/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

var (
	ErrNotFound       = errors.New("repository: not found")
	ErrInvalidDataset = errors.New("repository: invalid dataset name")
)

var datasetPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Repository implements admin and address document storage on PostgreSQL/PostGIS
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// InitSchema creates the admins table if needed
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
	CREATE EXTENSION IF NOT EXISTS postgis;
	CREATE TABLE IF NOT EXISTS admins (
		dataset    VARCHAR(64) NOT NULL,
		id         VARCHAR(255) NOT NULL,
		level      INTEGER NOT NULL,
		name       TEXT NOT NULL,
		insee      VARCHAR(32) NOT NULL DEFAULT '',
		zip_code   VARCHAR(32) NOT NULL DEFAULT '',
		weight     DOUBLE PRECISION NOT NULL DEFAULT 0,
		centre_lat DOUBLE PRECISION,
		centre_lon DOUBLE PRECISION,
		boundary   GEOMETRY(MULTIPOLYGON, 4326),
		PRIMARY KEY (dataset, id)
	);
	CREATE INDEX IF NOT EXISTS admins_boundary_idx ON admins USING GIST (boundary);
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("repository: failed to create schema: %w", err)
	}
	return nil
}

// SaveAdmins replaces every admin of the dataset in a single transaction
func (r *Repository) SaveAdmins(ctx context.Context, dataset string, admins []*models.Admin) (int64, error) {
	if err := checkDataset(dataset); err != nil {
		return 0, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		CREATE TEMP TABLE admins_staging (
			id VARCHAR(255), level INTEGER, name TEXT, insee VARCHAR(32), zip_code VARCHAR(32),
			weight DOUBLE PRECISION, centre_lat DOUBLE PRECISION, centre_lon DOUBLE PRECISION, boundary_wkb BYTEA
		) ON COMMIT DROP`)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to create staging table: %w", err)
	}

	rows := make([][]any, 0, len(admins))
	for _, a := range admins {
		var boundary []byte
		if a.HasBoundary() {
			boundary, err = wkb.Marshal(a.Boundary)
			if err != nil {
				return 0, fmt.Errorf("repository: failed to encode boundary of %s: %w", a.ID, err)
			}
		}
		var lat, lon *float64
		if a.Coord != nil {
			lat, lon = &a.Coord.Lat, &a.Coord.Lon
		}
		rows = append(rows, []any{a.ID, a.Level, a.Name, a.Insee, a.ZipCode, a.Weight, lat, lon, boundary})
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"admins_staging"},
		[]string{"id", "level", "name", "insee", "zip_code", "weight", "centre_lat", "centre_lon", "boundary_wkb"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to copy admins: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM admins WHERE dataset = $1`, dataset); err != nil {
		return 0, fmt.Errorf("repository: failed to clear admins: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO admins (dataset, id, level, name, insee, zip_code, weight, centre_lat, centre_lon, boundary)
		SELECT $1, id, level, name, insee, zip_code, weight, centre_lat, centre_lon,
			CASE WHEN boundary_wkb IS NULL THEN NULL
			ELSE ST_Multi(ST_SetSRID(ST_GeomFromWKB(boundary_wkb), 4326)) END
		FROM admins_staging`, dataset)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to insert admins: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("repository: failed to commit admins: %w", err)
	}
	return tag.RowsAffected(), nil
}

// LoadAdmins returns every admin of the dataset ordered by id
func (r *Repository) LoadAdmins(ctx context.Context, dataset string) ([]*models.Admin, error) {
	sql := `
		SELECT id, level, name, insee, zip_code, weight, centre_lat, centre_lon, ST_AsBinary(boundary)
		FROM admins
		WHERE dataset = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, sql, dataset)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute admins query: %w", err)
	}
	defer rows.Close()

	var admins []*models.Admin
	for rows.Next() {
		var (
			a        models.Admin
			lat, lon *float64
			boundary []byte
		)
		err := rows.Scan(&a.ID, &a.Level, &a.Name, &a.Insee, &a.ZipCode, &a.Weight, &lat, &lon, &boundary)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan admin: %w", err)
		}
		if lat != nil && lon != nil {
			c := models.NewCoord(*lat, *lon)
			a.Coord = &c
		}
		if boundary != nil {
			a.Boundary, err = decodeBoundary(boundary)
			if err != nil {
				return nil, fmt.Errorf("repository: admin %s: %w", a.ID, err)
			}
		}
		admins = append(admins, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating rows: %w", err)
	}

	return admins, nil
}

// CreateAddrIndex creates a fresh staging table for address documents and returns its name
func (r *Repository) CreateAddrIndex(ctx context.Context, dataset string) (string, error) {
	if err := checkDataset(dataset); err != nil {
		return "", err
	}
	table := fmt.Sprintf("addr_%s_%s", dataset, strings.ReplaceAll(uuid.NewString(), "-", "")[:12])

	query := fmt.Sprintf(`CREATE TABLE %s (
		id  TEXT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		doc JSONB NOT NULL
	)`, pq.QuoteIdentifier(table))
	if _, err := r.db.Exec(ctx, query); err != nil {
		return "", fmt.Errorf("repository: failed to create address index %s: %w", table, err)
	}
	return table, nil
}

// BulkIndex appends address documents to an index created by CreateAddrIndex
func (r *Repository) BulkIndex(ctx context.Context, index string, addrs []models.Addr) (int64, error) {
	n, err := r.db.CopyFrom(ctx,
		pgx.Identifier{index},
		[]string{"id", "lat", "lon", "doc"},
		pgx.CopyFromSlice(len(addrs), func(i int) ([]any, error) {
			a := addrs[i]
			doc, err := json.Marshal(a)
			if err != nil {
				return nil, err
			}
			return []any{a.ID, a.Coord.Lat, a.Coord.Lon, doc}, nil
		}),
	)
	if err != nil {
		return n, fmt.Errorf("repository: failed to bulk index into %s: %w", index, err)
	}
	return n, nil
}

// PublishAddrIndex atomically replaces the dataset's live address table with index
func (r *Repository) PublishAddrIndex(ctx context.Context, dataset, index string) error {
	if err := checkDataset(dataset); err != nil {
		return err
	}
	alias := addrAlias(dataset)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmts := []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, pq.QuoteIdentifier(alias)),
		fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, pq.QuoteIdentifier(index), pq.QuoteIdentifier(alias)),
		fmt.Sprintf(`CREATE INDEX ON %s (id)`, pq.QuoteIdentifier(alias)),
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("repository: failed to publish %s: %w", index, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit publish of %s: %w", index, err)
	}
	return nil
}

// DropAddrIndex removes an unpublished index
func (r *Repository) DropAddrIndex(ctx context.Context, index string) error {
	if _, err := r.db.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, pq.QuoteIdentifier(index))); err != nil {
		return fmt.Errorf("repository: failed to drop %s: %w", index, err)
	}
	return nil
}

// FindAddrByID fetches a published address document
func (r *Repository) FindAddrByID(ctx context.Context, dataset, id string) (*models.Addr, error) {
	if err := checkDataset(dataset); err != nil {
		return nil, err
	}
	sql := fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1 LIMIT 1`, pq.QuoteIdentifier(addrAlias(dataset)))

	var doc []byte
	err := r.db.QueryRow(ctx, sql, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to execute address query: %w", err)
	}

	var addr models.Addr
	if err := json.Unmarshal(doc, &addr); err != nil {
		return nil, fmt.Errorf("repository: failed to decode address %s: %w", id, err)
	}
	return &addr, nil
}

func addrAlias(dataset string) string {
	return "addr_" + dataset
}

func checkDataset(dataset string) error {
	if !datasetPattern.MatchString(dataset) {
		return fmt.Errorf("%w: %q", ErrInvalidDataset, dataset)
	}
	return nil
}

func decodeBoundary(b []byte) (orb.MultiPolygon, error) {
	geom, err := wkb.Unmarshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to decode boundary: %w", err)
	}
	switch g := geom.(type) {
	case orb.MultiPolygon:
		return g, nil
	case orb.Polygon:
		return orb.MultiPolygon{g}, nil
	default:
		return nil, fmt.Errorf("unexpected boundary geometry %s", geom.GeoJSONType())
	}
}
