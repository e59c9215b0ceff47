package user

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vitalbase/vitalbase/internal/domain/vitals"
)

// Roles discriminate the two user variants stored in the same document
// collection.
const (
	RolePatient = "patient"
	RoleHCP     = "hcp"
)

// User is the persisted user document. The email doubles as the document's
// partition key and is stored lowercased. Password material is never
// serialized in API responses; it lives only in the stored document.
type User struct {
	ID           uuid.UUID      `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	PasswordHash []byte         `json:"-"`
	Salt         []byte         `json:"-"`
	Vitals       *vitals.Vitals `json:"vitals,omitempty"`
	Patients     []string       `json:"patients,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	// Version is the document store's optimistic concurrency token. It is
	// carried in memory between a read and the following write, never in
	// the JSON body.
	Version int64 `json:"-"`
}

// IsPatient reports whether the user is a patient.
func (u *User) IsPatient() bool { return u.Role == RolePatient }

// IsHCP reports whether the user is a healthcare practitioner.
func (u *User) IsHCP() bool { return u.Role == RoleHCP }

// HasPatient reports whether patientEmail is in the HCP's association list,
// compared case-insensitively.
func (u *User) HasPatient(patientEmail string) bool {
	for _, e := range u.Patients {
		if strings.EqualFold(e, patientEmail) {
			return true
		}
	}
	return false
}

// RegisterUser is the registration request body. The password exists only in
// transit; it is hashed before the document is written.
type RegisterUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LogInUser is the login request body.
type LogInUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the authenticated user and a signed access token.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token,omitempty"`
}
