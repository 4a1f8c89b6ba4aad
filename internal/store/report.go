package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const reportTTL = 7 * 24 * time.Hour

// ReportStore persists final run reports to Redis, one key per run.
type ReportStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewReportStore(client *redis.Client, keyPrefix string) *ReportStore {
	if keyPrefix == "" {
		keyPrefix = "geyserbench:report:"
	}
	return &ReportStore{client: client, keyPrefix: keyPrefix}
}

// Save writes the report JSON under the run's key.
func (s *ReportStore) Save(ctx context.Context, runID string, report any) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	key := s.keyPrefix + runID
	if err := s.client.Set(ctx, key, data, reportTTL).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}
