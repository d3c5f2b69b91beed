package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/iiitdmj-portal/internal/domain/entity"
	"github.com/campusworks/iiitdmj-portal/internal/domain/identity"
	repo "github.com/campusworks/iiitdmj-portal/internal/domain/repository"
	"github.com/campusworks/iiitdmj-portal/internal/federation"
	"github.com/campusworks/iiitdmj-portal/pkg/helpers"
)

type fakeUserRepo struct {
	byEmail map[string]*entity.User
	nextID  int

	failLookups     bool
	failRollUpdates bool
	rollUpdateCalls int
	createCalls     int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*entity.User{}}
}

func (f *fakeUserRepo) Create(u *entity.User) error {
	f.createCalls++
	if _, ok := f.byEmail[u.Email]; ok {
		return errors.New("unique violation")
	}
	f.nextID++
	u.ID = string(rune('a' + f.nextID - 1))
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(id string) (*entity.User, error) {
	if f.failLookups {
		return nil, errors.New("store unavailable")
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(email string) (*entity.User, error) {
	if f.failLookups {
		return nil, errors.New("store unavailable")
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Update(u *entity.User) error {
	stored, ok := f.byEmail[u.Email]
	if !ok {
		return repo.ErrNotFound
	}
	stored.Password = u.Password
	stored.Name = u.Name
	stored.AvatarURL = u.AvatarURL
	stored.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUserRepo) UpdateRollDetails(email string, d identity.Details) error {
	f.rollUpdateCalls++
	if f.failRollUpdates {
		return errors.New("store unavailable")
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil
	}
	// backfill-only, mirrors the SQL predicate
	if u.RollNumber != "" || u.Batch != "" || u.Branch != "" {
		return nil
	}
	u.RollNumber = d.RollNumber
	u.Batch = d.Batch
	u.Branch = d.Branch
	return nil
}

type fakeImageRepo struct {
	byID       map[string]*entity.Image
	nextID     int
	failCreate bool
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{byID: map[string]*entity.Image{}}
}

func (f *fakeImageRepo) Create(img *entity.Image) error {
	if f.failCreate {
		return errors.New("store unavailable")
	}
	f.nextID++
	img.ID = string(rune('0' + f.nextID))
	img.CreatedAt = time.Now()
	cp := *img
	f.byID[img.ID] = &cp
	return nil
}

func (f *fakeImageRepo) GetByID(id string) (*entity.Image, error) {
	img, ok := f.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *img
	return &cp, nil
}

func newTestService(users *fakeUserRepo, images *fakeImageRepo) *Service {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	s := NewService(users, images, helpers.NewJWTManager("a", "r", time.Minute, time.Hour), nil, logger, nil, nil, "")
	s.AvatarFetcher = nil
	return s
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("derives roll details from a student email", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newTestService(users, newFakeImageRepo())

		u, err := svc.Register(ctx, "Asha", "21bcs045@iiitdmj.ac.in", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "045", u.RollNumber)
		assert.Equal(t, "21", u.Batch)
		assert.Equal(t, "bcs", u.Branch)
		assert.Equal(t, "Computer Science and Engineering", u.BranchName())
		assert.NotEqual(t, "secret123", u.Password, "password must be stored hashed")
		assert.True(t, helpers.CompareHashAndPassword(u.Password, "secret123"))
	})

	t.Run("accepts unparseable institutional email without roll details", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newTestService(users, newFakeImageRepo())

		u, err := svc.Register(ctx, "Office", "staff@iiitdmj.ac.in", "secret123")
		require.NoError(t, err)
		assert.False(t, u.HasRollDetails())
	})

	t.Run("rejects non-institutional domain", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newTestService(users, newFakeImageRepo())

		_, err := svc.Register(ctx, "Eve", "21bcs045@gmail.com", "secret123")
		assert.ErrorIs(t, err, ErrDomainNotAllowed)
		assert.Zero(t, users.createCalls)
	})

	t.Run("duplicate email mutates nothing", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newTestService(users, newFakeImageRepo())

		_, err := svc.Register(ctx, "Asha", "21bcs045@iiitdmj.ac.in", "secret123")
		require.NoError(t, err)
		creates := users.createCalls

		_, err = svc.Register(ctx, "Mallory", "21bcs045@iiitdmj.ac.in", "other456")
		assert.ErrorIs(t, err, ErrEmailTaken)
		assert.Equal(t, creates, users.createCalls)
	})

	t.Run("store failure surfaces as an error", func(t *testing.T) {
		users := newFakeUserRepo()
		users.failLookups = true
		svc := newTestService(users, newFakeImageRepo())

		_, err := svc.Register(ctx, "Asha", "21bcs045@iiitdmj.ac.in", "secret123")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrEmailTaken)
		assert.NotErrorIs(t, err, ErrDomainNotAllowed)
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	register := func(t *testing.T, svc *Service, email, password string) *entity.User {
		t.Helper()
		u, err := svc.Register(ctx, "Asha", email, password)
		require.NoError(t, err)
		return u
	}

	t.Run("success", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newTestService(users, newFakeImageRepo())
		register(t, svc, "21bcs045@iiitdmj.ac.in", "secret123")

		u, err := svc.Authenticate(ctx, "21bcs045@iiitdmj.ac.in", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "21bcs045@iiitdmj.ac.in", u.Email)
	})

	t.Run("missing email or password is a generic mismatch", func(t *testing.T) {
		svc := newTestService(newFakeUserRepo(), newFakeImageRepo())
		_, err := svc.Authenticate(ctx, "", "secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = svc.Authenticate(ctx, "21bcs045@iiitdmj.ac.in", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("domain check runs before credential lookup", func(t *testing.T) {
		users := newFakeUserRepo()
		users.failLookups = true // would error if reached
		svc := newTestService(users, newFakeImageRepo())

		_, err := svc.Authenticate(ctx, "somebody@gmail.com", "secret123")
		assert.ErrorIs(t, err, ErrDomainNotAllowed)
	})

	t.Run("unknown account, wrong password and federated-only all look alike", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newTestService(users, newFakeImageRepo())
		register(t, svc, "21bcs045@iiitdmj.ac.in", "secret123")

		// federated-only record, no password hash
		require.NoError(t, users.Create(&entity.User{Email: "21bec001@iiitdmj.ac.in", Name: "Ravi"}))

		_, err := svc.Authenticate(ctx, "nobody@iiitdmj.ac.in", "secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Authenticate(ctx, "21bcs045@iiitdmj.ac.in", "wrongpass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Authenticate(ctx, "21bec001@iiitdmj.ac.in", "secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("backfills roll details once", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newTestService(users, newFakeImageRepo())

		// record created without the triple, as a federated adapter would
		require.NoError(t, users.Create(&entity.User{Email: "21bme077@iiitdmj.ac.in", Name: "Ravi"}))
		hash, err := helpers.HashPassword("secret123")
		require.NoError(t, err)
		users.byEmail["21bme077@iiitdmj.ac.in"].Password = hash

		u, err := svc.Authenticate(ctx, "21bme077@iiitdmj.ac.in", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "077", u.RollNumber)
		assert.Equal(t, "bme", u.Branch)

		stored := users.byEmail["21bme077@iiitdmj.ac.in"]
		assert.Equal(t, "077", stored.RollNumber)

		// second sign-in observes the populated triple and does not write
		calls := users.rollUpdateCalls
		_, err = svc.Authenticate(ctx, "21bme077@iiitdmj.ac.in", "secret123")
		require.NoError(t, err)
		assert.Equal(t, calls, users.rollUpdateCalls)
	})

	t.Run("backfill store failure does not affect the outcome", func(t *testing.T) {
		users := newFakeUserRepo()
		users.failRollUpdates = true
		svc := newTestService(users, newFakeImageRepo())

		require.NoError(t, users.Create(&entity.User{Email: "21bsm012@iiitdmj.ac.in", Name: "Ravi"}))
		hash, err := helpers.HashPassword("secret123")
		require.NoError(t, err)
		users.byEmail["21bsm012@iiitdmj.ac.in"].Password = hash

		u, err := svc.Authenticate(ctx, "21bsm012@iiitdmj.ac.in", "secret123")
		require.NoError(t, err)
		assert.False(t, u.HasRollDetails(), "in-memory record stays unenriched when the write fails")
	})
}

func TestCompleteFederated(t *testing.T) {
	ctx := context.Background()

	t.Run("vetoes non-institutional email", func(t *testing.T) {
		svc := newTestService(newFakeUserRepo(), newFakeImageRepo())
		_, err := svc.CompleteFederated(ctx, &federation.Identity{Provider: "google", Email: "a@gmail.com"})
		assert.ErrorIs(t, err, ErrDomainNotAllowed)

		_, err = svc.CompleteFederated(ctx, nil)
		assert.ErrorIs(t, err, ErrDomainNotAllowed)
	})

	t.Run("first sign-in creates user with derived triple and stored avatar", func(t *testing.T) {
		users := newFakeUserRepo()
		images := newFakeImageRepo()
		svc := newTestService(users, images)
		svc.AvatarFetcher = func(ctx context.Context, url string) ([]byte, error) {
			assert.Equal(t, "https://lh3.example.com/photo.jpg", url)
			return []byte{0xff, 0xd8, 0xff}, nil
		}

		u, err := svc.CompleteFederated(ctx, &federation.Identity{
			Provider:  "google",
			Email:     "21bcs045@iiitdmj.ac.in",
			Name:      "Asha",
			AvatarURL: "https://lh3.example.com/photo.jpg",
		})
		require.NoError(t, err)
		assert.Equal(t, "045", u.RollNumber)
		assert.Empty(t, u.Password)

		require.Len(t, images.byID, 1)
		for _, img := range images.byID {
			assert.Equal(t, u.ID, img.UserID)
			assert.Equal(t, "profile-"+u.ID+".jpg", img.FileName)
			assert.Equal(t, "image/jpeg", img.FileType)
		}
		assert.Contains(t, u.AvatarURL, "/api/images/")
	})

	t.Run("avatar download failure does not block sign-in", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newTestService(users, newFakeImageRepo())
		svc.AvatarFetcher = func(ctx context.Context, url string) ([]byte, error) {
			return nil, errors.New("network down")
		}

		u, err := svc.CompleteFederated(ctx, &federation.Identity{
			Provider: "google", Email: "21bcs045@iiitdmj.ac.in", Name: "Asha", AvatarURL: "https://x/y.jpg",
		})
		require.NoError(t, err)
		assert.Empty(t, u.AvatarURL)
	})

	t.Run("repeat sign-in enriches an existing unenriched record", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newTestService(users, newFakeImageRepo())

		require.NoError(t, users.Create(&entity.User{Email: "21bec001@iiitdmj.ac.in", Name: "Ravi"}))

		u, err := svc.CompleteFederated(ctx, &federation.Identity{Provider: "google", Email: "21bec001@iiitdmj.ac.in", Name: "Ravi"})
		require.NoError(t, err)
		assert.Equal(t, "001", u.RollNumber)
		assert.Equal(t, 1, users.createCalls)
	})

	t.Run("populated triple is never overwritten", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newTestService(users, newFakeImageRepo())

		require.NoError(t, users.Create(&entity.User{
			Email: "21bcs045@iiitdmj.ac.in", Name: "Asha",
			RollNumber: "045", Batch: "21", Branch: "bcs",
		}))

		_, err := svc.CompleteFederated(ctx, &federation.Identity{Provider: "google", Email: "21bcs045@iiitdmj.ac.in"})
		require.NoError(t, err)

		stored := users.byEmail["21bcs045@iiitdmj.ac.in"]
		assert.Equal(t, "045", stored.RollNumber)
		assert.Zero(t, users.rollUpdateCalls)
	})
}

func TestProjectStoredFields(t *testing.T) {
	t.Run("overlays current store state", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newTestService(users, newFakeImageRepo())
		require.NoError(t, users.Create(&entity.User{
			Email: "21bxy045@iiitdmj.ac.in", Name: "Asha",
			RollNumber: "045", Batch: "21", Branch: "bxy",
		}))

		claims := &SessionClaims{Email: "21bxy045@iiitdmj.ac.in", Name: "stale"}
		svc.projectStoredFields(claims)
		assert.Equal(t, "Asha", claims.Name)
		assert.Equal(t, "045", claims.RollNumber)
		// unknown branch code is its own display name
		assert.Equal(t, "bxy", claims.BranchName)
	})

	t.Run("degrades gracefully when the store is down", func(t *testing.T) {
		users := newFakeUserRepo()
		users.failLookups = true
		svc := newTestService(users, newFakeImageRepo())

		claims := &SessionClaims{Email: "21bcs045@iiitdmj.ac.in", Name: "cached", Batch: "21"}
		svc.projectStoredFields(claims)
		assert.Equal(t, "cached", claims.Name)
		assert.Equal(t, "21", claims.Batch)
	})
}

func TestUpdateProfileKeepsTripleIntact(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	svc := newTestService(users, newFakeImageRepo())

	u, err := svc.Register(ctx, "Asha", "21bcs045@iiitdmj.ac.in", "secret123")
	require.NoError(t, err)

	got, err := svc.UpdateProfile(ctx, u.ID, UpdateProfileInput{Name: "Asha G"})
	require.NoError(t, err)
	assert.Equal(t, "Asha G", got.Name)
	assert.Equal(t, "045", got.RollNumber)

	stored := users.byEmail["21bcs045@iiitdmj.ac.in"]
	assert.Equal(t, "045", stored.RollNumber)
}
