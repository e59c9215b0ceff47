package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/vitalbase/vitalbase/internal/platform/auth"
	"github.com/vitalbase/vitalbase/internal/platform/docstore"
)

var (
	// ErrUnauthorized indicates a credential or role mismatch on login.
	ErrUnauthorized = errors.New("invalid credentials")

	// ErrInvalidInput indicates the request was rejected before any store
	// call.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyAssociated indicates the patient is already on the HCP's
	// list.
	ErrAlreadyAssociated = errors.New("patient already associated")

	// ErrNotAssociated indicates the patient is not on the HCP's list.
	ErrNotAssociated = errors.New("patient not associated")
)

// updateAttempts bounds the version-conflict retry loop on association
// changes.
const updateAttempts = 3

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a user document with the given role. The plaintext
// password is salted and hashed before anything is persisted; a duplicate
// email surfaces as docstore.ErrConflict.
func (s *Service) Register(ctx context.Context, role string, req RegisterUser) (*User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	salt, err := auth.NewSalt()
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.New(),
		Email:        email,
		Role:         role,
		PasswordHash: auth.HashPassword(req.Password, salt),
		Salt:         salt,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// LogIn verifies the submitted password against the stored salted digest.
// An unknown email is NotFound; a wrong password or a role mismatch is
// Unauthorized. The digest comparison is constant-time.
func (s *Service) LogIn(ctx context.Context, role string, req LogInUser) (*User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !auth.VerifyPassword(req.Password, u.Salt, u.PasswordHash) {
		return nil, ErrUnauthorized
	}
	if u.Role != role {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// GetByRole fetches a user and checks the expected role. A user stored under
// the other role is reported as absent, matching the role-scoped lookup
// endpoints.
func (s *Service) GetByRole(ctx context.Context, role, email string) (*User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.GetByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if u.Role != role {
		return nil, docstore.ErrNotFound
	}
	return u, nil
}

// Patients returns the HCP's associated patient emails.
func (s *Service) Patients(ctx context.Context, hcpEmail string) ([]string, error) {
	hcp, err := s.GetByRole(ctx, RoleHCP, hcpEmail)
	if err != nil {
		return nil, err
	}
	if hcp.Patients == nil {
		return []string{}, nil
	}
	return hcp.Patients, nil
}

// AddPatient appends patientEmail to the HCP's association list. Both users
// must exist; a duplicate association (case-insensitive) is a conflict. The
// read-modify-write is retried on a stale version token.
func (s *Service) AddPatient(ctx context.Context, hcpEmail, patientEmail string) (*User, error) {
	return s.mutateAssociation(ctx, hcpEmail, patientEmail, func(hcp *User, patient string) error {
		if hcp.HasPatient(patient) {
			return ErrAlreadyAssociated
		}
		hcp.Patients = append(hcp.Patients, patient)
		return nil
	})
}

// RemovePatient removes patientEmail from the HCP's association list. A
// missing association is a conflict, symmetric to AddPatient.
func (s *Service) RemovePatient(ctx context.Context, hcpEmail, patientEmail string) (*User, error) {
	return s.mutateAssociation(ctx, hcpEmail, patientEmail, func(hcp *User, patient string) error {
		if !hcp.HasPatient(patient) {
			return ErrNotAssociated
		}
		kept := hcp.Patients[:0]
		for _, e := range hcp.Patients {
			if !strings.EqualFold(e, patient) {
				kept = append(kept, e)
			}
		}
		hcp.Patients = kept
		return nil
	})
}

func (s *Service) mutateAssociation(ctx context.Context, hcpEmail, patientEmail string, mutate func(hcp *User, patient string) error) (*User, error) {
	patient, err := normalizeEmail(patientEmail)
	if err != nil {
		return nil, err
	}

	// The patient must resolve to an existing patient document.
	if _, err := s.GetByRole(ctx, RolePatient, patient); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < updateAttempts; attempt++ {
		hcp, err := s.GetByRole(ctx, RoleHCP, hcpEmail)
		if err != nil {
			return nil, err
		}

		if err := mutate(hcp, patient); err != nil {
			return nil, err
		}

		err = s.repo.Update(ctx, hcp)
		if err == nil {
			return hcp, nil
		}
		if !errors.Is(err, docstore.ErrVersionMismatch) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// ListByRole returns a page of users with the given role.
func (s *Service) ListByRole(ctx context.Context, role string, limit, offset int) ([]*User, int, error) {
	return s.repo.ListByRole(ctx, role, limit, offset)
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: malformed email %q", ErrInvalidInput, email)
	}
	return email, nil
}
