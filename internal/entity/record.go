package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

// Record is the storage shape of any entity: identifying columns plus a JSON body
// holding the mutable fields.
type Record struct {
	Kind      Kind
	ID        string
	UserID    string
	UpdatedAt time.Time
	Body      json.RawMessage
}

// identifying fields never travel in the body, so they are never part of an update.
var identifying = []string{"id", "userId", "updatedAt"}

// Encode converts an entity into a Record owned by userID.
func Encode(kind Kind, userID string, v models.Syncable, updatedAt time.Time) (Record, error) {
	id := v.SyncID()
	if id == "" {
		return Record{}, fmt.Errorf("encoding %s: missing id", kind)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("encoding %s %s: %w", kind, id, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Record{}, fmt.Errorf("encoding %s %s: %w", kind, id, err)
	}
	for _, f := range identifying {
		delete(fields, f)
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return Record{}, fmt.Errorf("encoding %s %s: %w", kind, id, err)
	}
	return Record{Kind: kind, ID: id, UserID: userID, UpdatedAt: updatedAt, Body: body}, nil
}

// Decode restores an entity of type T from a Record.
func Decode[T any, PT interface {
	*T
	models.Syncable
}](rec Record) (T, error) {
	var v T
	if len(rec.Body) > 0 {
		if err := json.Unmarshal(rec.Body, &v); err != nil {
			return v, fmt.Errorf("decoding %s %s: %w", rec.Kind, rec.ID, err)
		}
	}
	PT(&v).SetSyncMeta(rec.ID, rec.UserID, rec.UpdatedAt)
	return v, nil
}

// DecodeAll decodes every record, failing on the first malformed body.
func DecodeAll[T any, PT interface {
	*T
	models.Syncable
}](recs []Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := Decode[T, PT](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Latest returns the most recently updated record, or false for an empty list.
func Latest(recs []Record) (Record, bool) {
	if len(recs) == 0 {
		return Record{}, false
	}
	best := recs[0]
	for _, r := range recs[1:] {
		if r.UpdatedAt.After(best.UpdatedAt) {
			best = r
		}
	}
	return best, true
}
