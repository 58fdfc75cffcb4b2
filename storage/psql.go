package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	cache "github.com/Code-Hex/go-generics-cache"
	"github.com/DavidHuie/gomigrate"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/vantaai/trustserv/metrics/dbmetrics"
)

// Analyses never change once written, so cached copies only expire to bound memory.
const analysisCacheTtl = 15 * time.Minute

type PostgresStorageConnectionConfig struct {
	Uri          string
	MaxOpenConns int
	MaxIdleConns int
}

type PostgresStorageConfig struct {
	// Read/Write Database connection config
	RWDatabase *PostgresStorageConnectionConfig
	// Readonly Database connection config. If nil, the RW database will be used for RO operations
	RODatabase *PostgresStorageConnectionConfig
	// File path to the directory containing migrations
	MigrationsPath string
}

type PostgresStorage struct {
	// Implements PersistentStorage

	db         *sql.DB
	readonlyDb *sql.DB

	analysisCache *cache.Cache[string, *StoredAnalysis]

	analysisInsert       *sql.Stmt
	analysisSelect       *sql.Stmt
	analysisDeleteBefore *sql.Stmt
}

func NewPostgresStorage(config *PostgresStorageConfig) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", config.RWDatabase.Uri)
	if err != nil {
		return nil, errors.Join(errors.New("failed to open read/write database"), err)
	}
	db.SetMaxOpenConns(config.RWDatabase.MaxOpenConns)
	db.SetMaxIdleConns(config.RWDatabase.MaxIdleConns)

	readonlyDb := db
	if config.RODatabase != nil {
		readonlyDb, err = sql.Open("postgres", config.RODatabase.Uri)
		if err != nil {
			return nil, errors.Join(errors.New("failed to open read-only database"), err)
		}
		readonlyDb.SetMaxOpenConns(config.RODatabase.MaxOpenConns)
		readonlyDb.SetMaxIdleConns(config.RODatabase.MaxIdleConns)
	}

	s := &PostgresStorage{
		db:            db,
		readonlyDb:    readonlyDb,
		analysisCache: cache.New[string, *StoredAnalysis](cache.WithJanitorInterval[string, *StoredAnalysis](1 * time.Minute)),
	}
	if err = s.prepare(config.MigrationsPath); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to run migrations with path '%s'", config.MigrationsPath), err)
	}
	return s, nil
}

func (s *PostgresStorage) prepare(migrationsDir string) error {
	// Migrate first
	if migrator, err := gomigrate.NewMigratorWithLogger(s.db, gomigrate.Postgres{}, migrationsDir, logrus.StandardLogger()); err != nil {
		return err
	} else {
		if err = migrator.Migrate(); err != nil {
			return err
		}
	}

	// Now set up all the prepared statements
	var err error
	if s.analysisInsert, err = s.db.Prepare("INSERT INTO analyses (id, content_digest, source, score, is_suspicious, reason, categories, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);"); err != nil {
		return err
	}
	if s.analysisSelect, err = s.readonlyDb.Prepare("SELECT id, content_digest, source, score, is_suspicious, reason, categories, created_at FROM analyses WHERE id = $1;"); err != nil {
		return err
	}
	if s.analysisDeleteBefore, err = s.db.Prepare("DELETE FROM analyses WHERE created_at < $1;"); err != nil {
		return err
	}

	return nil
}

func (s *PostgresStorage) SendNotify(ctx context.Context, channel string, msg string) error {
	t := dbmetrics.StartDatabaseTimer("SendNotify")
	defer t.ObserveDuration()
	_, err := s.db.ExecContext(ctx, "SELECT pg_notify($1, $2);", channel, msg)
	return err
}

func (s *PostgresStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return err
	}
	if s.readonlyDb != nil && s.readonlyDb != s.db {
		if err := s.readonlyDb.Close(); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStorage) InsertAnalysis(ctx context.Context, analysis *StoredAnalysis) error {
	t := dbmetrics.StartDatabaseTimer("InsertAnalysis")
	defer t.ObserveDuration()

	categories := analysis.Categories
	if categories == nil {
		categories = make([]string, 0)
	}
	_, err := s.analysisInsert.ExecContext(ctx, analysis.Id, analysis.ContentDigest, analysis.Source, analysis.Score, analysis.IsSuspicious, analysis.Reason, pq.Array(categories), analysis.CreatedAt)
	if err != nil {
		return err
	}
	s.analysisCache.Set(analysis.Id, analysis, cache.WithExpiration(analysisCacheTtl))
	return nil
}

func (s *PostgresStorage) GetAnalysis(ctx context.Context, id string) (*StoredAnalysis, error) {
	if cached, ok := s.analysisCache.Get(id); ok {
		dbmetrics.RecordAnalysisCacheRequest(true)
		return cached, nil
	}
	dbmetrics.RecordAnalysisCacheRequest(false)

	t := dbmetrics.StartDatabaseTimer("GetAnalysis")
	defer t.ObserveDuration()

	analysis := &StoredAnalysis{}
	err := s.analysisSelect.QueryRowContext(ctx, id).Scan(&analysis.Id, &analysis.ContentDigest, &analysis.Source, &analysis.Score, &analysis.IsSuspicious, &analysis.Reason, pq.Array(&analysis.Categories), &analysis.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if analysis.Categories == nil {
		analysis.Categories = make([]string, 0)
	}
	analysis.CreatedAt = analysis.CreatedAt.UTC()

	s.analysisCache.Set(id, analysis, cache.WithExpiration(analysisCacheTtl))
	return analysis, nil
}

func (s *PostgresStorage) DeleteAnalysesBefore(ctx context.Context, before time.Time) (int64, error) {
	t := dbmetrics.StartDatabaseTimer("DeleteAnalysesBefore")
	defer t.ObserveDuration()

	res, err := s.analysisDeleteBefore.ExecContext(ctx, before)
	if err != nil {
		return 0, err
	}

	for _, id := range s.analysisCache.Keys() {
		if cached, ok := s.analysisCache.Get(id); ok && cached.CreatedAt.Before(before) {
			s.analysisCache.Delete(id)
		}
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	dbmetrics.RecordPurgedAnalyses(deleted)
	return deleted, nil
}
