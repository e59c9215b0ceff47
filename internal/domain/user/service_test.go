package user

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vitalbase/vitalbase/internal/platform/docstore"
)

// -- Mock Repository --

type mockRepo struct {
	users map[string]*User

	// updateFailures makes the next N Update calls fail with a version
	// mismatch, simulating a concurrent writer.
	updateFailures int
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[string]*User)}
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	key := strings.ToLower(u.Email)
	if _, ok := m.users[key]; ok {
		return docstore.ErrConflict
	}
	u.Version = 1
	cp := *u
	m.users[key] = &cp
	return nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	cp := *u
	cp.Patients = append([]string(nil), u.Patients...)
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, u *User) error {
	if m.updateFailures > 0 {
		m.updateFailures--
		return docstore.ErrVersionMismatch
	}
	key := strings.ToLower(u.Email)
	stored, ok := m.users[key]
	if !ok {
		return docstore.ErrNotFound
	}
	if stored.Version != u.Version {
		return docstore.ErrVersionMismatch
	}
	u.Version++
	cp := *u
	m.users[key] = &cp
	return nil
}

func (m *mockRepo) ListByRole(_ context.Context, role string, limit, offset int) ([]*User, int, error) {
	var result []*User
	for _, u := range m.users {
		if u.Role == role {
			result = append(result, u)
		}
	}
	return result, len(result), nil
}

// -- Tests --

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo), repo
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.Register(context.Background(), RolePatient, RegisterUser{Email: "A@X.com", Password: "pw1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Email != "a@x.com" {
		t.Errorf("expected lowercased email, got %s", u.Email)
	}
	if !u.IsPatient() {
		t.Errorf("expected patient role, got %s", u.Role)
	}
	if len(u.Salt) == 0 || len(u.PasswordHash) == 0 {
		t.Error("expected salt and digest to be set")
	}
	if string(u.PasswordHash) == "pw1" {
		t.Error("plaintext password must never be stored")
	}
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RolePatient, RegisterUser{Email: "a@x.com", Password: "pw1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Register(ctx, RolePatient, RegisterUser{Email: "A@x.com", Password: "other"})
	if !errors.Is(err, docstore.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RolePatient, RegisterUser{Email: "", Password: "pw"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty email, got %v", err)
	}

	_, err = svc.Register(ctx, RolePatient, RegisterUser{Email: "not-an-email", Password: "pw"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for malformed email, got %v", err)
	}

	_, err = svc.Register(ctx, RolePatient, RegisterUser{Email: "a@x.com", Password: ""})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty password, got %v", err)
	}
}

func TestLogIn(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Register(ctx, RolePatient, RegisterUser{Email: "a@x.com", Password: "pw1"})

	u, err := svc.LogIn(ctx, RolePatient, LogInUser{Email: "a@x.com", Password: "pw1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Email != "a@x.com" {
		t.Errorf("expected a@x.com, got %s", u.Email)
	}
}

func TestLogIn_WrongPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Register(ctx, RolePatient, RegisterUser{Email: "a@x.com", Password: "pw1"})

	_, err := svc.LogIn(ctx, RolePatient, LogInUser{Email: "a@x.com", Password: "wrong"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLogIn_UnknownEmail(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.LogIn(context.Background(), RolePatient, LogInUser{Email: "missing@x.com", Password: "pw"})
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLogIn_RoleMismatch(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Register(ctx, RolePatient, RegisterUser{Email: "a@x.com", Password: "pw1"})

	_, err := svc.LogIn(ctx, RoleHCP, LogInUser{Email: "a@x.com", Password: "pw1"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for role mismatch, got %v", err)
	}
}

func TestGetByRole_WrongRoleIsNotFound(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Register(ctx, RolePatient, RegisterUser{Email: "a@x.com", Password: "pw1"})

	_, err := svc.GetByRole(ctx, RoleHCP, "a@x.com")
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func seedPair(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.Register(ctx, RoleHCP, RegisterUser{Email: "doc@x.com", Password: "pw"}); err != nil {
		t.Fatalf("seed hcp: %v", err)
	}
	if _, err := svc.Register(ctx, RolePatient, RegisterUser{Email: "a@x.com", Password: "pw"}); err != nil {
		t.Fatalf("seed patient: %v", err)
	}
}

func TestAddPatient(t *testing.T) {
	svc, _ := newTestService()
	seedPair(t, svc)
	ctx := context.Background()

	hcp, err := svc.AddPatient(ctx, "doc@x.com", "a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hcp.HasPatient("a@x.com") {
		t.Error("expected patient in association list")
	}

	patients, err := svc.Patients(ctx, "doc@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patients) != 1 || patients[0] != "a@x.com" {
		t.Errorf("expected [a@x.com], got %v", patients)
	}
}

func TestAddPatient_DuplicateConflicts(t *testing.T) {
	svc, _ := newTestService()
	seedPair(t, svc)
	ctx := context.Background()

	svc.AddPatient(ctx, "doc@x.com", "a@x.com")

	// Case-insensitive duplicate
	_, err := svc.AddPatient(ctx, "doc@x.com", "A@X.COM")
	if !errors.Is(err, ErrAlreadyAssociated) {
		t.Errorf("expected ErrAlreadyAssociated, got %v", err)
	}
}

func TestAddPatient_UnknownUsers(t *testing.T) {
	svc, _ := newTestService()
	seedPair(t, svc)
	ctx := context.Background()

	_, err := svc.AddPatient(ctx, "doc@x.com", "missing@x.com")
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown patient, got %v", err)
	}

	_, err = svc.AddPatient(ctx, "nodoc@x.com", "a@x.com")
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown hcp, got %v", err)
	}
}

func TestRemovePatient(t *testing.T) {
	svc, _ := newTestService()
	seedPair(t, svc)
	ctx := context.Background()

	svc.AddPatient(ctx, "doc@x.com", "a@x.com")

	hcp, err := svc.RemovePatient(ctx, "doc@x.com", "a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hcp.HasPatient("a@x.com") {
		t.Error("expected patient removed from association list")
	}
}

func TestRemovePatient_NotAssociatedConflicts(t *testing.T) {
	svc, _ := newTestService()
	seedPair(t, svc)

	_, err := svc.RemovePatient(context.Background(), "doc@x.com", "a@x.com")
	if !errors.Is(err, ErrNotAssociated) {
		t.Errorf("expected ErrNotAssociated, got %v", err)
	}
}

func TestAddPatient_RetriesOnVersionMismatch(t *testing.T) {
	svc, repo := newTestService()
	seedPair(t, svc)
	repo.updateFailures = 2

	_, err := svc.AddPatient(context.Background(), "doc@x.com", "a@x.com")
	if err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
}

func TestAddPatient_GivesUpAfterBoundedRetries(t *testing.T) {
	svc, repo := newTestService()
	seedPair(t, svc)
	repo.updateFailures = updateAttempts

	_, err := svc.AddPatient(context.Background(), "doc@x.com", "a@x.com")
	if !errors.Is(err, docstore.ErrVersionMismatch) {
		t.Errorf("expected ErrVersionMismatch after exhausted retries, got %v", err)
	}
}

func TestListByRole(t *testing.T) {
	svc, _ := newTestService()
	seedPair(t, svc)

	users, total, err := svc.ListByRole(context.Background(), RolePatient, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(users) != 1 {
		t.Errorf("expected one patient, got total=%d len=%d", total, len(users))
	}
}
