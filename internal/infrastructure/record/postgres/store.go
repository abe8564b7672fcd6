package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/resume-insight/internal/core/domain"
	"github.com/kirillkom/resume-insight/internal/infrastructure/resilience"
)

// Store persists evaluation records as JSONB rows keyed by record id.
// The record column holds the full document, so checkpoint and final
// saves are plain upserts.
type Store struct {
	db       *sql.DB
	executor *resilience.Executor
}

type Options struct {
	Executor *resilience.Executor
}

func New(dsn string, options Options) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db, executor: options.Executor}, nil
}

// NewWithDB is used by tests.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS evaluation_records (
			key        TEXT PRIMARY KEY,
			record     JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, record *domain.EvaluationRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "record.save", fmt.Errorf("marshal record: %w", err))
	}

	write := func(callCtx context.Context) error {
		_, execErr := s.db.ExecContext(callCtx, `
			INSERT INTO evaluation_records (key, record, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET record = EXCLUDED.record, updated_at = now()
		`, domain.RecordKey(record.ID), payload)
		return execErr
	}
	if s.executor != nil {
		err = s.executor.Execute(ctx, "record.save", write, classifyPostgresError)
	} else {
		err = write(ctx)
	}
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "record.save", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id string) (*domain.EvaluationRecord, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT record FROM evaluation_records WHERE key = $1
	`, domain.RecordKey(id)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrRecordNotFound, "record.load", fmt.Errorf("record %s", id))
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "record.load", err)
	}

	var record domain.EvaluationRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "record.load", fmt.Errorf("unmarshal record: %w", err))
	}
	return &record, nil
}

func classifyPostgresError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
