// Package redis backs the token store with redis, for headless deployments
// where several gateway instances share one session.
package redis

import (
	"context"
	"errors"

	redisv9 "github.com/redis/go-redis/v9"
)

const keyPrefix = "foundrly:session:"

type Store struct {
	client *redisv9.Client
}

func New(client *redisv9.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, keyPrefix+key).Result()
	switch {
	case errors.Is(err, redisv9.Nil):
		return "", nil
	case err != nil:
		return "", err
	}
	return val, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, keyPrefix+key, value, 0).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}
