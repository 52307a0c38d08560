package models

import (
	"encoding/json"
	"fmt"
)

// Reserved watchlist item keys managed by the service rather than the client.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// WatchlistItem is one stored watchlist entry. Besides the managed id and
// timestamps it carries whatever user and resolved fields the client sent,
// preserved verbatim.
type WatchlistItem struct {
	ID        string
	CreatedAt string
	UpdatedAt string
	Fields    map[string]json.RawMessage
}

// UnmarshalJSON splits managed keys out of an arbitrary JSON object.
func (w *WatchlistItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("watchlist item must be a JSON object: %w", err)
	}
	if raw == nil {
		// null decodes as an empty item
		return nil
	}

	w.ID, w.CreatedAt, w.UpdatedAt = "", "", ""
	for key, dest := range map[string]*string{FieldID: &w.ID, FieldCreatedAt: &w.CreatedAt, FieldUpdatedAt: &w.UpdatedAt} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		delete(raw, key)
		if string(v) == "null" {
			continue
		}
		if err := json.Unmarshal(v, dest); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}
	w.Fields = raw
	return nil
}

// MarshalJSON flattens the item back into a single JSON object.
func (w WatchlistItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(w.Fields)+3)
	for k, v := range w.Fields {
		out[k] = v
	}
	out[FieldID] = w.ID
	if w.CreatedAt != "" {
		out[FieldCreatedAt] = w.CreatedAt
	}
	if w.UpdatedAt != "" {
		out[FieldUpdatedAt] = w.UpdatedAt
	}
	return json.Marshal(out)
}

// Merge overwrites user fields with those from update. Managed keys are left
// alone.
func (w *WatchlistItem) Merge(update *WatchlistItem) {
	if w.Fields == nil {
		w.Fields = make(map[string]json.RawMessage, len(update.Fields))
	}
	for k, v := range update.Fields {
		w.Fields[k] = v
	}
}

// Field decodes a single user field into dest. It reports false when the
// field is absent or does not decode.
func (w *WatchlistItem) Field(key string, dest interface{}) bool {
	v, ok := w.Fields[key]
	if !ok {
		return false
	}
	return json.Unmarshal(v, dest) == nil
}

// Watchlist is the persisted watchlist document.
type Watchlist struct {
	Stocks []WatchlistItem `json:"stocks"`
}

// Find returns the index of the item with the given id, or -1.
func (wl *Watchlist) Find(id string) int {
	for i := range wl.Stocks {
		if wl.Stocks[i].ID == id {
			return i
		}
	}
	return -1
}
