package user

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vitalbase/vitalbase/internal/domain/vitals"
	"github.com/vitalbase/vitalbase/internal/platform/docstore"
)

// userDoc is the stored shape of a user. The API model hides password
// material from JSON serialization, so the repository maps explicitly.
type userDoc struct {
	ID           uuid.UUID      `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	PasswordHash []byte         `json:"password_hash"`
	Salt         []byte         `json:"salt"`
	Vitals       *vitals.Vitals `json:"vitals,omitempty"`
	Patients     []string       `json:"patients,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type repoDoc struct {
	store docstore.Store
}

// NewRepo returns a Repository over the shared user document store.
func NewRepo(store docstore.Store) Repository {
	return &repoDoc{store: store}
}

func (r *repoDoc) Create(ctx context.Context, u *User) error {
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt

	data, err := json.Marshal(toDoc(u))
	if err != nil {
		return fmt.Errorf("encode user %s: %w", u.Email, err)
	}
	if err := r.store.Create(ctx, strings.ToLower(u.Email), data); err != nil {
		return err
	}
	u.Version = 1
	return nil
}

func (r *repoDoc) GetByEmail(ctx context.Context, email string) (*User, error) {
	doc, err := r.store.Get(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	var d userDoc
	if err := json.Unmarshal(doc.Data, &d); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", email, err)
	}
	u := fromDoc(&d)
	u.Version = doc.Version
	return u, nil
}

func (r *repoDoc) Update(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(toDoc(u))
	if err != nil {
		return fmt.Errorf("encode user %s: %w", u.Email, err)
	}
	version, err := r.store.Upsert(ctx, strings.ToLower(u.Email), data, u.Version)
	if err != nil {
		return err
	}
	u.Version = version
	return nil
}

func (r *repoDoc) ListByRole(ctx context.Context, role string, limit, offset int) ([]*User, int, error) {
	docs, total, err := r.store.ListByRole(ctx, role, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	users := make([]*User, 0, len(docs))
	for _, doc := range docs {
		var d userDoc
		if err := json.Unmarshal(doc.Data, &d); err != nil {
			return nil, 0, fmt.Errorf("decode user %s: %w", doc.Key, err)
		}
		u := fromDoc(&d)
		u.Version = doc.Version
		users = append(users, u)
	}
	return users, total, nil
}

func toDoc(u *User) *userDoc {
	return &userDoc{
		ID:           u.ID,
		Email:        strings.ToLower(u.Email),
		Role:         u.Role,
		PasswordHash: u.PasswordHash,
		Salt:         u.Salt,
		Vitals:       u.Vitals,
		Patients:     u.Patients,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func fromDoc(d *userDoc) *User {
	return &User{
		ID:           d.ID,
		Email:        d.Email,
		Role:         d.Role,
		PasswordHash: d.PasswordHash,
		Salt:         d.Salt,
		Vitals:       d.Vitals,
		Patients:     d.Patients,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}
