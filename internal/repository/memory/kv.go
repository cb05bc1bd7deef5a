package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/database"
	apperrors "github.com/neoscienzatechnology-lgtm/ecommerce/pkg/errors"
)

// KV is an in-process repository.KV. Values do not survive a restart.
type KV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewKV creates an empty in-memory store.
func NewKV() *KV {
	return &KV{data: make(map[string][]byte)}
}

// Get returns a copy of the value under key.
func (s *KV) Get(ctx context.Context, key string) (_ []byte, err error) {
	_, end := database.TraceOp(ctx, "memory", "GET", key)
	defer func() {
		if errors.Is(err, apperrors.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, apperrors.NotFound("key", key)
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key.
func (s *KV) Set(ctx context.Context, key string, value []byte) error {
	_, end := database.TraceOp(ctx, "memory", "SET", key)
	defer end(nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Ping always succeeds.
func (s *KV) Ping(context.Context) error {
	return nil
}
