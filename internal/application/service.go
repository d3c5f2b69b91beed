package application

import (
	"context"
	"errors"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/campusworks/iiitdmj-portal/internal/domain/entity"
	"github.com/campusworks/iiitdmj-portal/internal/domain/identity"
	repo "github.com/campusworks/iiitdmj-portal/internal/domain/repository"
	"github.com/campusworks/iiitdmj-portal/internal/federation"
	"github.com/campusworks/iiitdmj-portal/pkg/helpers"
	"github.com/campusworks/iiitdmj-portal/pkg/mailer"
)

var (
	// ErrDomainNotAllowed rejects emails outside the institutional domain.
	// Deliberately distinct from ErrInvalidCredentials: the domain check is
	// computable from the input alone, so surfacing it leaks nothing about
	// account existence.
	ErrDomainNotAllowed = errors.New("only institutional email addresses are allowed")

	// ErrInvalidCredentials covers unknown accounts, federated-only accounts
	// and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrEmailTaken   = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")
)

// Service orchestrates sign-in decisions, academic-identity enrichment,
// session issuance and profile access for the portal.
type Service struct {
	Users  repo.UserRepository
	Images repo.ImageRepository
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
	Mail   *helpers.RabbitPublisher

	ES              *elasticsearch.Client
	ESStudentsIndex string

	// AvatarFetcher downloads a federated provider's avatar; nil disables
	// the download.
	AvatarFetcher AvatarFetcher
}

func NewService(users repo.UserRepository, images repo.ImageRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, mail *helpers.RabbitPublisher, es *elasticsearch.Client, esIndex string) *Service {
	return &Service{
		Users:           users,
		Images:          images,
		JWT:             jwt,
		Redis:           rdb,
		Logger:          logger,
		Mail:            mail,
		ES:              es,
		ESStudentsIndex: esIndex,
		AvatarFetcher:   FetchAvatar,
	}
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Register creates a credential account. The academic triple is computed
// synchronously from the email; a local part that does not parse is fine,
// the account simply has no roll details.
func (s *Service) Register(ctx context.Context, name, email, password string) (*entity.User, error) {
	if !identity.IsInstitutionalEmail(email) {
		return nil, ErrDomainNotAllowed
	}

	if _, err := s.Users.GetByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &entity.User{Email: email, Name: name, Password: hash}
	if d, ok := identity.Extract(email); ok {
		u.RollNumber = d.RollNumber
		u.Batch = d.Batch
		u.Branch = d.Branch
	}

	if err := s.Users.Create(u); err != nil {
		return nil, err
	}

	s.indexStudent(ctx, u)
	s.enqueueWelcome(ctx, u)
	return u, nil
}

// Authenticate validates a credential sign-in. All failure modes after the
// domain gate collapse into ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if !identity.IsInstitutionalEmail(email) {
		return nil, ErrDomainNotAllowed
	}

	u, err := s.Users.GetByEmail(email)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if u.Password == "" {
		// federated-only account, no hash to compare against
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}

	s.ensureRollDetails(ctx, u)
	return u, nil
}

// CompleteFederated finishes an externally authenticated sign-in. The domain
// gate still applies; first sign-ins create the user record and pull the
// provider avatar into the image store.
func (s *Service) CompleteFederated(ctx context.Context, id *federation.Identity) (*entity.User, error) {
	if id == nil || id.Email == "" || !identity.IsInstitutionalEmail(id.Email) {
		return nil, ErrDomainNotAllowed
	}

	u, err := s.Users.GetByEmail(id.Email)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		u = &entity.User{Email: id.Email, Name: id.Name}
		if d, ok := identity.Extract(id.Email); ok {
			u.RollNumber = d.RollNumber
			u.Batch = d.Batch
			u.Branch = d.Branch
		}
		if err := s.Users.Create(u); err != nil {
			return nil, err
		}
		s.storeProviderAvatar(ctx, u, id.AvatarURL)
		s.enqueueWelcome(ctx, u)
	case err != nil:
		return nil, err
	default:
		s.ensureRollDetails(ctx, u)
	}

	s.indexStudent(ctx, u)
	return u, nil
}

// ensureRollDetails backfills the academic triple the first time a sign-in
// observes it missing. The write is best-effort: enrichment is an
// optimization and its failure must never affect the sign-in outcome.
func (s *Service) ensureRollDetails(ctx context.Context, u *entity.User) {
	if u.HasRollDetails() {
		return
	}
	d, ok := identity.Extract(u.Email)
	if !ok {
		return
	}
	if err := s.Users.UpdateRollDetails(u.Email, d); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("email", u.Email).Warn("roll detail backfill failed")
		}
		return
	}
	u.RollNumber = d.RollNumber
	u.Batch = d.Batch
	u.Branch = d.Branch
}

// TokenPair carries the freshly issued session tokens.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// IssueTokens generates the access/refresh pair and records a session hash
// in Redis, including the academic fields for quick reads.
func (s *Service) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":     u.ID,
			"email":       u.Email,
			"name":        u.Name,
			"avatar_url":  u.AvatarURL,
			"roll_number": u.RollNumber,
			"batch":       u.Batch,
			"branch":      u.Branch,
			"sid":         sid,
			"created_at":  nowRFC3339(),
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh rotates the session id and token pair after validating the
// refresh token against the active session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Users.GetByID(claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, sessionKey(u.ID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	return s.rotate(ctx, u)
}

func (s *Service) rotate(ctx context.Context, u *entity.User) (TokenPair, string, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{"sid": sid, "updated_at": nowRFC3339()})
		pipe.Expire(ctx, key, 24*time.Hour)
		_, _ = pipe.Exec(ctx)
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, u.ID, nil
}

// Logout revokes the active session so older tokens stop validating.
func (s *Service) Logout(ctx context.Context, userID string) {
	if s.Redis == nil || userID == "" {
		return
	}
	if err := s.Redis.Del(ctx, sessionKey(userID)).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("session revoke failed")
	}
}

// SessionClaims is what the session endpoint returns: the standard identity
// claims plus the projected academic fields.
type SessionClaims struct {
	UserID     string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	RollNumber string `json:"roll_number,omitempty"`
	Batch      string `json:"batch,omitempty"`
	Branch     string `json:"branch,omitempty"`
	BranchName string `json:"branch_name,omitempty"`
}

// ProjectSession builds the session claims for userID. The academic fields
// are re-fetched from the store on every read; a store failure degrades to
// the cached session hash, which is still valid for navigation.
func (s *Service) ProjectSession(ctx context.Context, userID string) (*SessionClaims, error) {
	if s.Redis == nil {
		return nil, ErrUserNotFound
	}
	data, err := s.Redis.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil || len(data) == 0 {
		return nil, ErrUserNotFound
	}

	claims := &SessionClaims{
		UserID:     data["user_id"],
		Name:       data["name"],
		Email:      data["email"],
		AvatarURL:  data["avatar_url"],
		RollNumber: data["roll_number"],
		Batch:      data["batch"],
		Branch:     data["branch"],
	}
	s.projectStoredFields(claims)
	return claims, nil
}

// projectStoredFields overlays the current store state onto the session
// claims. A failed lookup leaves the claims as they were; a session without
// academic fields is still valid for navigation.
func (s *Service) projectStoredFields(claims *SessionClaims) {
	u, err := s.Users.GetByEmail(claims.Email)
	if err == nil && u != nil {
		claims.UserID = u.ID
		claims.Name = u.Name
		claims.AvatarURL = u.AvatarURL
		claims.RollNumber = u.RollNumber
		claims.Batch = u.Batch
		claims.Branch = u.Branch
	} else if err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("email", claims.Email).Debug("session projection lookup failed")
	}

	if claims.Branch != "" {
		claims.BranchName = identity.BranchName(claims.Branch)
	}
}

func (s *Service) GetProfile(userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateProfileInput carries the only profile fields a user may edit. The
// academic triple is never accepted here.
type UpdateProfileInput struct {
	Name      string
	AvatarURL string
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Users.GetByID(userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.AvatarURL != "" {
		u.AvatarURL = in.AvatarURL
	}
	if err := s.Users.Update(u); err != nil {
		return nil, err
	}

	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"name":       u.Name,
			"avatar_url": u.AvatarURL,
			"updated_at": nowRFC3339(),
		})
		if ttl, tErr := s.Redis.TTL(ctx, key).Result(); tErr == nil && ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		if _, pErr := pipe.Exec(ctx); pErr != nil && s.Logger != nil {
			s.Logger.WithError(pErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	s.indexStudent(ctx, u)
	return u, nil
}

func (s *Service) enqueueWelcome(ctx context.Context, u *entity.User) {
	if s.Mail == nil {
		return
	}
	job := mailer.Job{
		To:       u.Email,
		Template: mailer.TemplateWelcome,
		Data: map[string]any{
			"Name":       u.Name,
			"Email":      u.Email,
			"RollNumber": u.RollNumber,
			"Batch":      u.Batch,
			"BranchName": u.BranchName(),
		},
	}
	if err := s.Mail.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("email", u.Email).Warn("welcome email enqueue failed")
	}
}
