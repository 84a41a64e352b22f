package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wegman-software/lanelet2tiles/internal/config"
	"github.com/wegman-software/lanelet2tiles/internal/feature"
	"github.com/wegman-software/lanelet2tiles/internal/logger"
	"github.com/wegman-software/lanelet2tiles/internal/parquet"
)

// Tables maps each collection kind to its PostGIS table
var Tables = map[feature.Kind]string{
	feature.PointKind:      "lanelet_points",
	feature.LineStringKind: "lanelet_lines",
	feature.PolygonKind:    "lanelet_polygons",
}

const tempTable = "lanelet_load_tmp"

// Stats holds loader statistics
type Stats struct {
	RowsLoaded int64
	Tables     map[string]int64
}

// Loader loads feature Parquet files into PostgreSQL
type Loader struct {
	cfg  *config.Config
	pool *pgxpool.Pool
	log  *zap.Logger
}

// NewLoader creates a new PostgreSQL loader
func NewLoader(ctx context.Context, cfg *config.Config) (*Loader, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = int32(len(Tables))

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	return &Loader{
		cfg:  cfg,
		pool: pool,
		log:  logger.Named("loader"),
	}, nil
}

// Close closes connections
func (l *Loader) Close() error {
	l.pool.Close()
	return nil
}

// Run loads every feature file present in the output directory
func (l *Loader) Run(ctx context.Context) (*Stats, error) {
	if _, err := l.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS postgis"); err != nil {
		return nil, fmt.Errorf("failed to create PostGIS extension: %w", err)
	}
	if l.cfg.DBSchema != "public" {
		if _, err := l.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{l.cfg.DBSchema}.Sanitize()); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	type job struct {
		table  string
		source string
		count  int64
	}
	var jobs []*job
	for _, kind := range feature.Kinds {
		source := filepath.Join(l.cfg.OutputDir, parquet.Files[kind])
		if _, err := os.Stat(source); os.IsNotExist(err) {
			l.log.Debug("Skipping table (no source file)", zap.String("table", Tables[kind]))
			continue
		}
		jobs = append(jobs, &job{table: Tables[kind], source: source})
	}

	// Phase 1: load all tables in parallel without indexes
	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		g.Go(func() error {
			l.log.Info("Loading table", zap.String("table", j.table))
			n, err := l.loadTable(gctx, j.table, j.source)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", j.table, err)
			}
			j.count = n
			l.log.Info("Table loaded", zap.String("table", j.table), zap.Int64("rows", n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &Stats{Tables: make(map[string]int64, len(jobs))}
	for _, j := range jobs {
		stats.RowsLoaded += j.count
		stats.Tables[j.table] = j.count
	}

	// Phase 2: create indexes in parallel
	if l.cfg.CreateIndexes && len(jobs) > 0 {
		l.log.Info("Creating indexes in parallel", zap.Int("tables", len(jobs)))
		g, gctx := errgroup.WithContext(ctx)
		for _, j := range jobs {
			g.Go(func() error {
				return l.createIndexes(gctx, j.table)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		l.log.Info("All indexes created")
	}

	return stats, nil
}

func (l *Loader) qualified(table string) string {
	return pgx.Identifier{l.cfg.DBSchema, table}.Sanitize()
}

func (l *Loader) loadTable(ctx context.Context, table, source string) (int64, error) {
	rows, err := parquet.ReadFile(ctx, source)
	if err != nil {
		return 0, err
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	name := l.qualified(table)
	if l.cfg.DropExisting {
		if _, err := conn.Exec(ctx, "DROP TABLE IF EXISTS "+name+" CASCADE"); err != nil {
			return 0, fmt.Errorf("failed to drop table: %w", err)
		}
	}
	if _, err := conn.Exec(ctx, CreateTableSQL(name)); err != nil {
		return 0, fmt.Errorf("failed to create table: %w", err)
	}
	if !l.cfg.DropExisting {
		if _, err := conn.Exec(ctx, "TRUNCATE "+name); err != nil {
			return 0, fmt.Errorf("failed to truncate table: %w", err)
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, tempTableSQL); err != nil {
		return 0, fmt.Errorf("failed to create temp table: %w", err)
	}

	count, err := tx.CopyFrom(ctx,
		pgx.Identifier{tempTable},
		[]string{"feature_id", "kind", "tags", "geom_wkb"},
		newRowSource(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("COPY failed: %w", err)
	}

	if _, err := tx.Exec(ctx, InsertSQL(name)); err != nil {
		return 0, fmt.Errorf("failed to insert from temp table: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	// Unlogged until filled
	if _, err := conn.Exec(ctx, "ALTER TABLE "+name+" SET LOGGED"); err != nil {
		l.log.Warn("Failed to set table logged", zap.String("table", table), zap.Error(err))
	}
	return count, nil
}

func (l *Loader) createIndexes(ctx context.Context, table string) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	for _, stmt := range IndexSQL(l.qualified(table), table) {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const tempTableSQL = `
	CREATE TEMP TABLE ` + tempTable + ` (
		feature_id TEXT,
		kind TEXT,
		tags TEXT,
		geom_wkb BYTEA
	) ON COMMIT DROP`

// CreateTableSQL returns the DDL for a feature table
func CreateTableSQL(name string) string {
	return fmt.Sprintf(`
		CREATE UNLOGGED TABLE IF NOT EXISTS %s (
			feature_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			tags JSONB,
			geom GEOMETRY(Geometry, 4326)
		)`, name)
}

// InsertSQL moves staged rows into name, decoding EWKB geometry
func InsertSQL(name string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (feature_id, kind, tags, geom)
		SELECT feature_id, kind, tags::jsonb, ST_GeomFromEWKB(geom_wkb)
		FROM %s
		WHERE geom_wkb IS NOT NULL`, name, tempTable)
}

// IndexSQL returns the index and analyze statements for a table
func IndexSQL(name, short string) []string {
	return []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_geom_idx ON %s USING GIST (geom)", short, name),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_feature_id_idx ON %s (feature_id)", short, name),
		"ANALYZE " + name,
	}
}

// rowSource implements pgx.CopyFromSource over decoded Parquet rows
type rowSource struct {
	rows []parquet.Row
	idx  int
}

func newRowSource(rows []parquet.Row) *rowSource {
	return &rowSource{rows: rows, idx: -1}
}

func (r *rowSource) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *rowSource) Values() ([]interface{}, error) {
	row := r.rows[r.idx]
	return []interface{}{row.FeatureID, row.Kind, row.Tags, row.WKB}, nil
}

func (r *rowSource) Err() error {
	return nil
}
