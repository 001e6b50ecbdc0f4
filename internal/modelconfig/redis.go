package modelconfig

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
)

// RedisSource reads a hash of agent name to model id.
type RedisSource struct {
	urlEnv string
	key    string
}

func NewRedisSource(urlEnv, key string) *RedisSource {
	return &RedisSource{urlEnv: urlEnv, key: key}
}

func (s *RedisSource) Name() string { return "redis" }

func (s *RedisSource) client() (*redis.Client, error) {
	rawURL := os.Getenv(s.urlEnv)
	if rawURL == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrSourceUnavailable, s.urlEnv)
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.urlEnv, err)
	}
	return redis.NewClient(opts), nil
}

func (s *RedisSource) Load(ctx context.Context) (map[string]string, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	assignments, err := client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", s.key, err)
	}
	return assignments, nil
}

// Store writes assignments into the hash. Used to seed a fresh deployment.
func (s *RedisSource) Store(ctx context.Context, assignments map[string]string) error {
	if len(assignments) == 0 {
		return nil
	}
	client, err := s.client()
	if err != nil {
		return err
	}
	defer client.Close()

	values := make([]any, 0, len(assignments)*2)
	for agent, model := range assignments {
		values = append(values, agent, model)
	}
	return client.HSet(ctx, s.key, values...).Err()
}
