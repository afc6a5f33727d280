package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"eventmappr/pkg/resources"
)

const slotsSchema = `CREATE TABLE IF NOT EXISTS slots (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type PostgresSlots struct {
	tracer  trace.Tracer
	metrics *SlotMetrics
	pool    resources.DBInstance
}

func NewPostgresSlots(pool resources.DBInstance) *PostgresSlots {
	return &PostgresSlots{
		tracer:  otel.GetTracerProvider().Tracer("eventmappr/core"),
		metrics: NewSlotMetrics("postgres"),
		pool:    pool,
	}
}

func (s *PostgresSlots) EnsureSchema(ctx context.Context) error {
	start := time.Now()

	var err error

	defer func() { s.metrics.Observe(ctx, "ensure_schema", start, err) }()

	ctx, span := s.tracer.Start(ctx, "slots.EnsureSchema")
	defer span.End()

	_, err = s.pool.Exec(ctx, slotsSchema)
	if err != nil {
		return fmt.Errorf("failed to create slots table: %w", err)
	}

	return nil
}

func (s *PostgresSlots) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()

	var err error

	defer func() { s.metrics.Observe(ctx, "get_slot", start, err) }()

	ctx, span := s.tracer.Start(ctx, "slots.Get", trace.WithAttributes(attribute.String("slot.key", key)))
	defer span.End()

	var value string

	err = s.pool.QueryRow(ctx, `SELECT value FROM slots WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// an absent slot is not a failure of the backend
			err = nil
			return nil, ErrSlotNotFound
		}

		return nil, fmt.Errorf("failed to get slot %s: %w", key, err)
	}

	return []byte(value), nil
}

func (s *PostgresSlots) Put(ctx context.Context, key string, value []byte) error {
	start := time.Now()

	var err error

	defer func() { s.metrics.Observe(ctx, "put_slot", start, err) }()

	ctx, span := s.tracer.Start(ctx, "slots.Put", trace.WithAttributes(attribute.String("slot.key", key)))
	defer span.End()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO slots (key, value, updated_at) VALUES ($1, $2, now()) "+
			"ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()",
		key, string(value))
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

/*

 */

type SlotMetrics struct {
	system   string
	total    metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
}

func NewSlotMetrics(system string) *SlotMetrics {
	meter := otel.Meter("eventmappr/store")

	total, _ := meter.Int64Counter("store.slot.total")
	errs, _ := meter.Int64Counter("store.slot.errors.total")
	duration, _ := meter.Float64Histogram("store.slot.duration.ms")

	return &SlotMetrics{system: system, total: total, errors: errs, duration: duration}
}

func (m *SlotMetrics) Observe(ctx context.Context, op string, start time.Time, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", m.system),
		attribute.String("db.operation", op), // ej: "get_slot", "put_slot"
	}

	m.total.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.duration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
