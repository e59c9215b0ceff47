package vitals

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vitalbase/vitalbase/internal/platform/docstore"
)

type repoDoc struct {
	store docstore.Store
}

// NewRepo returns a Repository over the shared user document store.
func NewRepo(store docstore.Store) Repository {
	return &repoDoc{store: store}
}

func (r *repoDoc) Get(ctx context.Context, userID string) (*Vitals, int64, error) {
	doc, err := r.store.Get(ctx, strings.ToLower(userID))
	if err != nil {
		return nil, 0, err
	}

	var body struct {
		Vitals *Vitals `json:"vitals"`
	}
	if err := json.Unmarshal(doc.Data, &body); err != nil {
		return nil, 0, fmt.Errorf("decode user document %s: %w", userID, err)
	}
	if body.Vitals == nil {
		body.Vitals = &Vitals{}
	}
	return body.Vitals, doc.Version, nil
}

func (r *repoDoc) Put(ctx context.Context, userID string, v *Vitals, expectedVersion int64) error {
	key := strings.ToLower(userID)
	doc, err := r.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if doc.Version != expectedVersion {
		return docstore.ErrVersionMismatch
	}

	// Patch only the vitals field, preserving the rest of the document.
	var body map[string]json.RawMessage
	if err := json.Unmarshal(doc.Data, &body); err != nil {
		return fmt.Errorf("decode user document %s: %w", userID, err)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode vitals for %s: %w", userID, err)
	}
	body["vitals"] = raw

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode user document %s: %w", userID, err)
	}

	_, err = r.store.Upsert(ctx, key, data, expectedVersion)
	return err
}
