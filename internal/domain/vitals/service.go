package vitals

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitalbase/vitalbase/internal/platform/docstore"
)

// putAttempts bounds the version-conflict retry loop on append.
const putAttempts = 3

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the user's vitals. Fails with docstore.ErrNotFound when the
// user does not exist.
func (s *Service) Get(ctx context.Context, userID string) (*Vitals, error) {
	v, _, err := s.repo.Get(ctx, userID)
	return v, err
}

// Append merges incoming onto the stored vitals, appending each series in
// order. The read-merge-write sequence is guarded by the document version
// token; on a concurrent modification the merge is recomputed from a fresh
// read, so no samples from either writer are lost.
func (s *Service) Append(ctx context.Context, userID string, incoming *Vitals) error {
	if incoming == nil {
		return fmt.Errorf("vitals body is required")
	}

	var lastErr error
	for attempt := 0; attempt < putAttempts; attempt++ {
		current, version, err := s.repo.Get(ctx, userID)
		if err != nil {
			return err
		}

		merged := Merge(current, incoming)
		err = s.repo.Put(ctx, userID, merged, version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, docstore.ErrVersionMismatch) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
