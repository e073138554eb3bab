// Package recorder implements the best-effort secondary sinks: movement
// records for reporting and audit events for the human trail. Both live in
// redis lists, written after the primary commit, and are allowed to fall
// behind or fail without affecting ledger operations.
package recorder

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/warebase/backoffice/internal/domain/ledger"
	"github.com/warebase/backoffice/internal/infra/metrics"
)

const (
	movementsKey = "ledger:movements"
	auditKey     = "ledger:audit"

	minQueryLimit = 1
	maxQueryLimit = 200

	// movements are scanned newest-first in chunks when a filter is applied
	scanChunk = 200
)

func clampLimit(limit int) int {
	if limit < minQueryLimit {
		return minQueryLimit
	}
	if limit > maxQueryLimit {
		return maxQueryLimit
	}
	return limit
}

type MovementRecorder struct {
	client *redis.Client
	log    *slog.Logger
}

func NewMovementRecorder(client *redis.Client, log *slog.Logger) *MovementRecorder {
	return &MovementRecorder{client: client, log: log}
}

// Record appends one movement document. Failures are logged and dropped;
// the caller never sees them.
func (r *MovementRecorder) Record(ctx context.Context, m ledger.MovementRecord) {
	payload, err := json.Marshal(m)
	if err != nil {
		r.dropped("marshal movement", err)
		return
	}
	if err := r.client.LPush(ctx, movementsKey, payload).Err(); err != nil {
		r.dropped("append movement", err)
	}
}

func (r *MovementRecorder) dropped(stage string, err error) {
	metrics.SecondaryWriteFailures.WithLabelValues("movement").Inc()
	r.log.Error("movement record dropped", "stage", stage, "err", err)
}

// Query returns movements newest-first. Limit is clamped to [1,200]. With a
// filter the list is scanned in chunks until enough matches are collected.
func (r *MovementRecorder) Query(ctx context.Context, f ledger.MovementFilter, limit int) ([]ledger.MovementRecord, error) {
	limit = clampLimit(limit)

	var out []ledger.MovementRecord
	for start := int64(0); ; start += scanChunk {
		raw, err := r.client.LRange(ctx, movementsKey, start, start+scanChunk-1).Result()
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			return out, nil
		}
		for _, item := range raw {
			var m ledger.MovementRecord
			if err := json.Unmarshal([]byte(item), &m); err != nil {
				// скипаем повреждённую запись, остальное отдаём
				r.log.Warn("skipping malformed movement record", "err", err)
				continue
			}
			if !f.Matches(m) {
				continue
			}
			out = append(out, m)
			if len(out) == limit {
				return out, nil
			}
		}
	}
}

type AuditRecorder struct {
	client *redis.Client
	log    *slog.Logger
}

func NewAuditRecorder(client *redis.Client, log *slog.Logger) *AuditRecorder {
	return &AuditRecorder{client: client, log: log}
}

func (r *AuditRecorder) Record(ctx context.Context, ev ledger.AuditEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		r.dropped("marshal audit event", err)
		return
	}
	if err := r.client.LPush(ctx, auditKey, payload).Err(); err != nil {
		r.dropped("append audit event", err)
	}
}

func (r *AuditRecorder) dropped(stage string, err error) {
	metrics.SecondaryWriteFailures.WithLabelValues("audit").Inc()
	r.log.Error("audit event dropped", "stage", stage, "err", err)
}

// Recent returns audit events newest-first; limit clamped to [1,200].
func (r *AuditRecorder) Recent(ctx context.Context, limit int) ([]ledger.AuditEvent, error) {
	limit = clampLimit(limit)
	raw, err := r.client.LRange(ctx, auditKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ledger.AuditEvent, 0, len(raw))
	for _, item := range raw {
		var ev ledger.AuditEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			r.log.Warn("skipping malformed audit event", "err", err)
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
