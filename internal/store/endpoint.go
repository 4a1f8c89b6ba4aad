package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/iamrekas/geyserbench/internal/domain"
)

// EndpointStore abstracts reading endpoint configuration from Redis.
// Endpoints live as JSON members of a single set.
type EndpointStore struct {
	client *redis.Client
	key    string
}

// ErrNoEndpoints indicates Redis does not currently have any endpoints configured.
var ErrNoEndpoints = errors.New("no endpoints configured")

func NewEndpointStore(client *redis.Client, key string) *EndpointStore {
	return &EndpointStore{client: client, key: key}
}

// Add stores an endpoint in the configured Redis set.
func (s *EndpointStore) Add(ctx context.Context, ep domain.Endpoint) error {
	if s.key == "" {
		return fmt.Errorf("endpoint set key is not configured")
	}
	if ep.Name == "" || ep.URL == "" {
		return fmt.Errorf("endpoint name and url are required")
	}
	if ep.Kind == "" {
		ep.Kind = domain.KindTransactions
	}
	data, err := json.Marshal(ep)
	if err != nil {
		return fmt.Errorf("marshal endpoint: %w", err)
	}
	if err := s.client.SAdd(ctx, s.key, string(data)).Err(); err != nil {
		return fmt.Errorf("redis SADD %s: %w", s.key, err)
	}
	return nil
}

// List loads all endpoints from the Redis set referenced by the configured key.
func (s *EndpointStore) List(ctx context.Context) ([]domain.Endpoint, error) {
	if s.key == "" {
		return nil, fmt.Errorf("endpoint set key is not configured")
	}
	members, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis SMEMBERS %s: %w", s.key, err)
	}

	res := make([]domain.Endpoint, 0, len(members))
	for _, m := range members {
		var ep domain.Endpoint
		if err := json.Unmarshal([]byte(m), &ep); err != nil {
			// Skip malformed entries but continue.
			continue
		}
		if ep.Name == "" || ep.URL == "" {
			continue
		}
		if ep.Kind == "" {
			ep.Kind = domain.KindTransactions
		}
		res = append(res, ep)
	}
	if len(res) == 0 {
		return nil, ErrNoEndpoints
	}
	return res, nil
}
