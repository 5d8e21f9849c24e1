package store

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Slot keys for the persisted collections. Each slot holds one whole JSON
// value; every write is a full overwrite (last-write-wins).
const (
	SlotProducts     = "products"
	SlotTransactions = "transactions"
	SlotExpenses     = "expenses"
	SlotQRImageRef   = "qr_image_reference"
	SlotQRImage      = "qr_image"
)

// Store is the key-value persistence layer behind the application state.
// Writes are synchronous: a Read immediately following a Write within the
// same process observes the written value.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Close() error
}

// Load reads a slot into dest, falling back to the supplied default when the
// slot is absent or does not parse. Corruption is never surfaced to the
// caller; the worst case is starting over from the default.
func Load[T any](ctx context.Context, s Store, key string, dest *T, fallback T) {
	raw, err := s.Read(ctx, key)
	if err != nil {
		*dest = fallback
		return
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		*dest = fallback
	}
}

// Save writes a slot as JSON.
func Save(ctx context.Context, s Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Write(ctx, key, raw)
}
