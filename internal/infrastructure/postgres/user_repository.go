package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusworks/iiitdmj-portal/internal/domain/entity"
	"github.com/campusworks/iiitdmj-portal/internal/domain/identity"
	"github.com/campusworks/iiitdmj-portal/internal/domain/repository"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(u *entity.User) error {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, avatar_url, roll_number, batch, branch)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Password, u.Name, u.AvatarURL, u.RollNumber, u.Batch, u.Branch)

	return row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) GetByID(id string) (*entity.User, error) {
	return r.getBy(`id = $1`, id)
}

func (r *UserRepository) GetByEmail(email string) (*entity.User, error) {
	return r.getBy(`email = $1`, email)
}

func (r *UserRepository) getBy(where string, arg any) (*entity.User, error) {
	ctx := context.Background()
	u := &entity.User{}

	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, avatar_url, roll_number, batch, branch, created_at, updated_at
		FROM users
		WHERE `+where, arg)

	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.AvatarURL,
		&u.RollNumber, &u.Batch, &u.Branch, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return u, nil
}

func (r *UserRepository) Update(u *entity.User) error {
	ctx := context.Background()
	u.UpdatedAt = time.Now()

	// Roll details are deliberately excluded; UpdateRollDetails is the only
	// write path for the triple.
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, name = $2, avatar_url = $3, updated_at = $4
		WHERE id = $5
	`, u.Password, u.Name, u.AvatarURL, u.UpdatedAt, u.ID)
	if err != nil {
		return err
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateRollDetails backfills the academic triple. The predicate skips rows
// whose triple is already set, which makes concurrent backfills for the same
// email harmless and keeps the fields write-once.
func (r *UserRepository) UpdateRollDetails(email string, d identity.Details) error {
	ctx := context.Background()

	_, err := r.pool.Exec(ctx, `
		UPDATE users
		SET roll_number = $1, batch = $2, branch = $3, updated_at = now()
		WHERE email = $4
		  AND COALESCE(roll_number, '') = ''
		  AND COALESCE(batch, '') = ''
		  AND COALESCE(branch, '') = ''
	`, d.RollNumber, d.Batch, d.Branch, email)

	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
