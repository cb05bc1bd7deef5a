package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/domain"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/repository"
	apperrors "github.com/neoscienzatechnology-lgtm/ecommerce/pkg/errors"
)

// DefaultKey is the fixed key the cart snapshot is stored under.
const DefaultKey = "modernshop-cart"

// Adapter reads and writes the cart snapshot, a JSON array of line items.
type Adapter struct {
	kv     repository.KV
	key    string
	logger *slog.Logger
}

// NewAdapter creates an adapter storing under DefaultKey.
func NewAdapter(kv repository.KV, logger *slog.Logger) *Adapter {
	return &Adapter{kv: kv, key: DefaultKey, logger: logger}
}

// Key returns the storage key.
func (a *Adapter) Key() string {
	return a.key
}

// Save writes the full line-item sequence, replacing the previous snapshot.
func (a *Adapter) Save(ctx context.Context, items []domain.LineItem) error {
	data, err := Encode(items)
	if err != nil {
		return err
	}
	if err := a.kv.Set(ctx, a.key, data); err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}

// Read returns the stored snapshot. An absent key yields an empty cart; a
// value that does not decode yields an error wrapping apperrors.ErrCorrupt.
func (a *Adapter) Read(ctx context.Context) ([]domain.LineItem, error) {
	data, err := a.kv.Get(ctx, a.key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return []domain.LineItem{}, nil
		}
		return nil, fmt.Errorf("read cart snapshot: %w", err)
	}
	return Decode(data)
}

// Load is Read that never fails: corruption and backend errors are logged
// and degrade to an empty cart.
func (a *Adapter) Load(ctx context.Context) []domain.LineItem {
	items, err := a.Read(ctx)
	if err != nil {
		level := slog.LevelWarn
		msg := "cart storage unavailable, starting with an empty cart"
		if errors.Is(err, apperrors.ErrCorrupt) {
			level = slog.LevelError
			msg = "discarding corrupt cart snapshot"
		}
		a.logger.Log(ctx, level, msg,
			slog.String("key", a.key),
			slog.String("error", err.Error()),
		)
		return []domain.LineItem{}
	}
	return items
}

// Encode serializes items as a JSON array. A nil slice encodes as [].
func Encode(items []domain.LineItem) ([]byte, error) {
	if items == nil {
		items = []domain.LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode cart snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot and restores the cart invariants on it.
func Decode(data []byte) ([]domain.LineItem, error) {
	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, apperrors.Corrupt("cart snapshot", err)
	}
	return domain.NormalizeItems(items), nil
}
