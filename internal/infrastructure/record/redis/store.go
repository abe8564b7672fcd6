package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kirillkom/resume-insight/internal/core/domain"
	"github.com/kirillkom/resume-insight/internal/infrastructure/resilience"
)

// Store persists evaluation records as JSON values under record:<id>.
// Saves are full overwrites, so checkpoint and final writes follow
// last-write-wins without any merge step.
type Store struct {
	client   *goredis.Client
	executor *resilience.Executor
}

type Options struct {
	Executor *resilience.Executor
}

func New(addr, password string, db int, options Options) *Store {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{client: client, executor: options.Executor}
}

// NewWithClient is used by tests to point the store at miniredis.
func NewWithClient(client *goredis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Save(ctx context.Context, record *domain.EvaluationRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "record.save", fmt.Errorf("marshal record: %w", err))
	}

	write := func(callCtx context.Context) error {
		return s.client.Set(callCtx, domain.RecordKey(record.ID), payload, 0).Err()
	}
	if s.executor != nil {
		err = s.executor.Execute(ctx, "record.save", write, classifyRedisError)
	} else {
		err = write(ctx)
	}
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "record.save", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id string) (*domain.EvaluationRecord, error) {
	payload, err := s.client.Get(ctx, domain.RecordKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
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

func classifyRedisError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
