package repository

import (
	"github.com/campusworks/iiitdmj-portal/internal/domain/entity"
	"github.com/campusworks/iiitdmj-portal/internal/domain/identity"
)

// UserRepository defines the database operations the portal needs for users.
// Records are keyed by id, uniquely constrained on email.
type UserRepository interface {
	Create(u *entity.User) error
	GetByID(id string) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	Update(u *entity.User) error

	// UpdateRollDetails backfills the academic identity triple for the user
	// with the given email. Implementations must refuse to overwrite an
	// already-populated triple; the write is idempotent for the same email.
	UpdateRollDetails(email string, d identity.Details) error
}
