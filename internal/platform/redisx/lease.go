package redisx

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

// IngestLease serializes ingestion per person: at most one pipeline run holds
// the lease for a given person at a time. With a nil Redis client the lease is
// a no-op and every Acquire succeeds.
type IngestLease struct {
	log    *logger.Logger
	client *redis.Client
	ttl    time.Duration
}

func NewIngestLease(log *logger.Logger, client *redis.Client, ttl time.Duration) *IngestLease {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &IngestLease{
		log:    log.With("service", "IngestLease"),
		client: client,
		ttl:    ttl,
	}
}

func leaseKey(personID uuid.UUID) string {
	return "lifeline:ingest:lease:" + personID.String()
}

// Acquire returns true when this run now holds the lease.
func (l *IngestLease) Acquire(ctx context.Context, personID uuid.UUID) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	ok, err := l.client.SetNX(ctx, leaseKey(personID), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release drops the lease. Safe to call even when the lease already expired.
func (l *IngestLease) Release(ctx context.Context, personID uuid.UUID) {
	if l == nil || l.client == nil {
		return
	}
	if err := l.client.Del(ctx, leaseKey(personID)).Err(); err != nil {
		l.log.Warn("Failed to release ingest lease", "person_id", personID.String(), "error", err.Error())
	}
}
