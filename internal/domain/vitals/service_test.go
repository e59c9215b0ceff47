package vitals

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/vitalbase/vitalbase/internal/platform/docstore"
)

func newTestService(t *testing.T) (*Service, docstore.Store) {
	t.Helper()
	store := docstore.NewMemory()
	return NewService(NewRepo(store)), store
}

func seedUser(t *testing.T, store docstore.Store, email string) {
	t.Helper()
	doc := map[string]interface{}{
		"id":    "u-1",
		"email": email,
		"role":  "patient",
	}
	data, _ := json.Marshal(doc)
	if err := store.Create(context.Background(), email, data); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestGet_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "missing@x.com")
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_NoVitalsYet(t *testing.T) {
	svc, store := newTestService(t)
	seedUser(t, store, "a@x.com")

	v, err := svc.Get(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsEmpty() {
		t.Errorf("expected empty vitals, got %+v", v)
	}
}

func TestAppend_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Append(context.Background(), "missing@x.com", &Vitals{HeartRate: []float64{70}})
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAppend_SerialPutsConcatenate(t *testing.T) {
	svc, store := newTestService(t)
	seedUser(t, store, "a@x.com")
	ctx := context.Background()

	if err := svc.Append(ctx, "a@x.com", &Vitals{HeartRate: []float64{70}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Append(ctx, "a@x.com", &Vitals{HeartRate: []float64{72}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := svc.Get(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(v.HeartRate, []float64{70, 72}) {
		t.Errorf("expected [70 72], got %v", v.HeartRate)
	}
}

func TestAppend_PreservesOtherDocumentFields(t *testing.T) {
	svc, store := newTestService(t)
	seedUser(t, store, "a@x.com")
	ctx := context.Background()

	if err := svc.Append(ctx, "a@x.com", &Vitals{SpO2: []float64{97}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, _ := store.Get(ctx, "a@x.com")
	var body map[string]interface{}
	json.Unmarshal(doc.Data, &body)
	if body["email"] != "a@x.com" || body["role"] != "patient" {
		t.Errorf("expected identity fields preserved, got %v", body)
	}
	if body["vitals"] == nil {
		t.Error("expected vitals field written")
	}
}

// flakyRepo fails Put with a version mismatch a fixed number of times before
// delegating, simulating a concurrent writer.
type flakyRepo struct {
	Repository
	failures int
}

func (f *flakyRepo) Put(ctx context.Context, userID string, v *Vitals, expectedVersion int64) error {
	if f.failures > 0 {
		f.failures--
		return docstore.ErrVersionMismatch
	}
	return f.Repository.Put(ctx, userID, v, expectedVersion)
}

func TestAppend_RetriesOnVersionMismatch(t *testing.T) {
	store := docstore.NewMemory()
	seedUser(t, store, "a@x.com")
	repo := &flakyRepo{Repository: NewRepo(store), failures: 2}
	svc := NewService(repo)

	err := svc.Append(context.Background(), "a@x.com", &Vitals{HeartRate: []float64{70}})
	if err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
}

func TestAppend_GivesUpAfterBoundedRetries(t *testing.T) {
	store := docstore.NewMemory()
	seedUser(t, store, "a@x.com")
	repo := &flakyRepo{Repository: NewRepo(store), failures: putAttempts}
	svc := NewService(repo)

	err := svc.Append(context.Background(), "a@x.com", &Vitals{HeartRate: []float64{70}})
	if !errors.Is(err, docstore.ErrVersionMismatch) {
		t.Errorf("expected ErrVersionMismatch after exhausted retries, got %v", err)
	}
}
