package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"connectify/internal/apperror"
	"connectify/internal/auth"
	"connectify/internal/domain"
	"connectify/internal/repository"
)

const (
	maxDisplayNameLength = 50
	maxBioLength         = 160
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = apperror.Unauthenticated("invalid email or password")
	// ErrInvalidRegistrationPassword indicates the registration secret is incorrect.
	ErrInvalidRegistrationPassword = apperror.Forbidden("invalid registration password")
	// ErrUserAlreadyExists is returned when attempting to register with an existing email.
	ErrUserAlreadyExists = &apperror.AppError{Err: apperror.ErrConflict, Message: "an account with this email already exists", Field: "email"}
)

// Session is the result of a successful sign-in.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// UserService describes account and profile lifecycle operations.
type UserService interface {
	Register(ctx context.Context, email, password, providedSecret string) (domain.Identity, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Authenticate(token string) (domain.Identity, error)
	SignOut(ctx context.Context, id domain.Identity) error
	EnsureProfile(ctx context.Context, id domain.Identity) (*domain.User, error)
	GetProfile(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.User, error)
}

type userService struct {
	store          repository.Store
	tokens         *auth.TokenService
	notifier       *auth.Notifier
	registerSecret string
	logger         *logrus.Logger
}

// NewUserService builds the service and subscribes profile provisioning to
// sign-in events on notifier.
func NewUserService(store repository.Store, tokens *auth.TokenService, notifier *auth.Notifier, registerSecret string, logger *logrus.Logger) UserService {
	if logger == nil {
		logger = logrus.New()
	}
	s := &userService{
		store:          store,
		tokens:         tokens,
		notifier:       notifier,
		registerSecret: strings.TrimSpace(registerSecret),
		logger:         logger,
	}
	notifier.OnAuthStateChanged(s.provisionProfile)
	return s
}

func (s *userService) Register(ctx context.Context, email, password, providedSecret string) (domain.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)
	providedSecret = strings.TrimSpace(providedSecret)

	if !validEmail(email) {
		return domain.Identity{}, apperror.ValidationFailed("email", "a valid email is required")
	}
	if password == "" {
		return domain.Identity{}, apperror.ValidationFailed("password", "password is required")
	}
	if len(password) < auth.MinPasswordLength {
		return domain.Identity{}, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}
	if len(password) > auth.MaxPasswordLength {
		return domain.Identity{}, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordLength))
	}
	if s.registerSecret != "" && subtle.ConstantTimeCompare([]byte(providedSecret), []byte(s.registerSecret)) != 1 {
		return domain.Identity{}, ErrInvalidRegistrationPassword
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.Identity{}, err
	}

	account := &domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return domain.Identity{}, ErrUserAlreadyExists
		}
		return domain.Identity{}, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": account.ID}).Info("account registered")
	return domain.Identity{ID: account.ID, Email: account.Email}, nil
}

func (s *userService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.store.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.CheckPassword(account.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	identity := domain.Identity{ID: account.ID, Email: account.Email}
	token, expires, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.Publish(ctx, auth.State{User: &identity}); err != nil {
		return nil, fmt.Errorf("sign-in hooks: %w", err)
	}

	user, err := s.store.GetUser(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": identity.ID}).Info("signed in")
	return &Session{Token: token, ExpiresAt: expires, User: *user}, nil
}

func (s *userService) Authenticate(token string) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Identity{}, apperror.Unauthenticated("sign in to continue")
	}
	id, err := s.tokens.Validate(token)
	if err != nil {
		return domain.Identity{}, apperror.Unauthenticated("session expired, sign in again")
	}
	return id, nil
}

// SignOut tells subscribers the caller is signed out. Tokens are stateless,
// so the client discards its own copy.
func (s *userService) SignOut(ctx context.Context, id domain.Identity) error {
	if err := s.notifier.Publish(ctx, auth.State{}); err != nil {
		return fmt.Errorf("sign-out hooks: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"user_id": id.ID}).Info("signed out")
	return nil
}

func (s *userService) provisionProfile(ctx context.Context, state auth.State) error {
	if state.User == nil || state.IsLoading {
		return nil
	}
	_, err := s.EnsureProfile(ctx, *state.User)
	return err
}

// EnsureProfile returns the caller's profile, creating it on first sign-in.
func (s *userService) EnsureProfile(ctx context.Context, id domain.Identity) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, id.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	handle := emailLocalPart(id.Email)
	user = &domain.User{
		ID:          id.ID,
		Email:       id.Email,
		Username:    handle,
		DisplayName: handle,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// a concurrent sign-in created it first
		if errors.Is(err, apperror.ErrConflict) {
			return s.store.GetUser(ctx, id.ID)
		}
		s.logger.WithError(err).WithField("user_id", id.ID).Error("failed to create profile")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": id.ID, "username": handle}).Info("profile created")
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, id string) (*domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.store.GetUser(ctx, id)
}

func (s *userService) UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.User, error) {
	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		if name == "" {
			return nil, apperror.ValidationFailed("displayName", "display name is required")
		}
		if utf8.RuneCountInString(name) > maxDisplayNameLength {
			return nil, apperror.ValidationFailed("displayName",
				fmt.Sprintf("display name must be %d characters or less", maxDisplayNameLength))
		}
		patch.DisplayName = &name
	}
	if patch.Bio != nil {
		bio := strings.TrimSpace(*patch.Bio)
		if utf8.RuneCountInString(bio) > maxBioLength {
			return nil, apperror.ValidationFailed("bio", fmt.Sprintf("bio must be %d characters or less", maxBioLength))
		}
		patch.Bio = &bio
	}
	if patch.AvatarURL != nil {
		avatar := strings.TrimSpace(*patch.AvatarURL)
		if avatar != "" && !validHTTPURL(avatar) {
			return nil, apperror.ValidationFailed("avatarUrl", "avatar must be an http(s) URL")
		}
		patch.AvatarURL = &avatar
	}

	if err := s.store.UpdateUser(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.store.GetUser(ctx, id)
}

func validEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}

func emailLocalPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
