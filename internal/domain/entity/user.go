package entity

import (
	"time"

	"github.com/campusworks/iiitdmj-portal/internal/domain/identity"
)

// User is the aggregate root for the student portal.
//
// Password holds a bcrypt hash and is empty for federated-only accounts.
// RollNumber, Batch and Branch are derived from the email local part by the
// identity package, set at most once, and never editable through the API.
type User struct {
	ID         string
	Email      string
	Password   string
	Name       string
	AvatarURL  string
	RollNumber string
	Batch      string
	Branch     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasRollDetails reports whether the academic identity triple is populated.
func (u *User) HasRollDetails() bool {
	return u.RollNumber != "" && u.Batch != "" && u.Branch != ""
}

// BranchName is the display label for the branch code. Derived, not stored.
func (u *User) BranchName() string {
	if u.Branch == "" {
		return ""
	}
	return identity.BranchName(u.Branch)
}
