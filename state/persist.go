package state

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store keys for the flags that survive restarts.
const (
	KeyPinned      = "isPinned"
	KeyHistoryOpen = "isHistoryWindowOpen"
)

type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Restore loads the persisted flags into s. Absent keys keep s's values.
func Restore(ctx context.Context, kv KV, s UI) (UI, error) {
	for key, dst := range map[string]*bool{KeyPinned: &s.Pinned, KeyHistoryOpen: &s.HistoryOpen} {
		raw, ok, err := kv.Get(ctx, key)
		if err != nil {
			return s, fmt.Errorf("restore %s: %w", key, err)
		}
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return s, fmt.Errorf("restore %s: %w", key, err)
		}
	}
	return s, nil
}

// Save writes the persisted flags that differ between prev and next.
func Save(ctx context.Context, kv KV, prev, next UI) error {
	if prev.Pinned != next.Pinned {
		if err := setBool(ctx, kv, KeyPinned, next.Pinned); err != nil {
			return err
		}
	}
	if prev.HistoryOpen != next.HistoryOpen {
		if err := setBool(ctx, kv, KeyHistoryOpen, next.HistoryOpen); err != nil {
			return err
		}
	}
	return nil
}

func setBool(ctx context.Context, kv KV, key string, v bool) error {
	raw, _ := json.Marshal(v)
	if err := kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
