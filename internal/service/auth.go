package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/nexusnotes/nexus-notes/internal/cache"
	"github.com/nexusnotes/nexus-notes/internal/crypto"
	"github.com/nexusnotes/nexus-notes/internal/identity"
	"github.com/nexusnotes/nexus-notes/internal/model"
	"github.com/nexusnotes/nexus-notes/internal/repository"
)

// AuthService handles authentication business logic.
type AuthService struct {
	users    UserStore
	hasher   *crypto.PasswordHasher
	tokens   *crypto.TokenIssuer
	verifier identity.Verifier
	profiles cache.ProfileCache
	// allowLink permits a federated login to claim an existing password
	// account with the same email.
	allowLink bool
}

// NewAuthService creates a new AuthService. A nil verifier disables federated login.
func NewAuthService(users UserStore, hasher *crypto.PasswordHasher, tokens *crypto.TokenIssuer, verifier identity.Verifier) *AuthService {
	if verifier == nil {
		verifier = identity.Disabled{}
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		verifier:  verifier,
		allowLink: true,
	}
}

// WithProfileCache puts a cache in front of user lookups made by ValidateToken.
func (s *AuthService) WithProfileCache(c cache.ProfileCache) *AuthService {
	s.profiles = c
	return s
}

// WithFederatedLinking controls whether federated logins may attach to
// existing accounts by email.
func (s *AuthService) WithFederatedLinking(allow bool) *AuthService {
	s.allowLink = allow
	return s
}

// Register creates a new user account and returns an auth token.
func (s *AuthService) Register(ctx context.Context, req model.CreateUserRequest) (model.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)

	switch {
	case name == "":
		return model.AuthResponse{}, ErrNameRequired
	case email == "":
		return model.AuthResponse{}, ErrEmailRequired
	case !strings.Contains(email, "@"):
		return model.AuthResponse{}, ErrEmailInvalid
	case req.Password == "":
		return model.AuthResponse{}, ErrPasswordRequired
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.AuthResponse{}, ErrDuplicateAccount
		}
		return model.AuthResponse{}, err
	}

	slog.Info("user registered", "user_id", user.ID)
	return s.authResponse(user, "user created")
}

// Login authenticates a user and returns an auth token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return model.AuthResponse{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.AuthResponse{}, ErrPasswordRequired
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.hasher.VerifyDummy(req.Password)
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}

	if !user.HasPassword() {
		s.hasher.VerifyDummy(req.Password)
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	match, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if !match {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	return s.authResponse(user, "login successful")
}

// FederatedLogin signs in with an identity provider token, creating or
// linking the account on first use.
func (s *AuthService) FederatedLogin(ctx context.Context, req model.GoogleLoginRequest) (model.AuthResponse, error) {
	if strings.TrimSpace(req.IDToken) == "" {
		return model.AuthResponse{}, ErrIDTokenRequired
	}

	id, err := s.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		return model.AuthResponse{}, ErrInvalidFederatedToken
	}
	if id.Subject == "" || id.Email == "" {
		return model.AuthResponse{}, ErrInvalidFederatedToken
	}

	user, err := s.resolveFederated(ctx, id)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return s.authResponse(user, "federated login successful")
}

func (s *AuthService) resolveFederated(ctx context.Context, id identity.Identity) (*model.User, error) {
	user, err := s.users.GetByGoogleID(ctx, id.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	email := normalizeEmail(id.Email)
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return s.link(ctx, existing, id)
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, err
	}

	name := strings.TrimSpace(id.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	user = &model.User{
		Name:     name,
		Email:    email,
		GoogleID: id.Subject,
		Avatar:   id.Picture,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}

	slog.Info("user registered via federated login", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) link(ctx context.Context, existing *model.User, id identity.Identity) (*model.User, error) {
	if !s.allowLink || existing.GoogleID != "" {
		slog.Warn("federated login refused for existing account",
			"user_id", existing.ID,
			"linking_enabled", s.allowLink,
		)
		return nil, ErrDuplicateAccount
	}

	avatar := ""
	if existing.Avatar == "" {
		avatar = id.Picture
	}

	user, err := s.users.LinkGoogleID(ctx, existing.ID, id.Subject, avatar)
	if err != nil {
		return nil, err
	}

	slog.Warn("federated identity linked to existing account by email", "user_id", user.ID)
	s.forget(ctx, user.ID)
	return user, nil
}

// IssueToken returns a signed bearer token for userID.
func (s *AuthService) IssueToken(userID string) (string, error) {
	return s.tokens.Issue(userID)
}

// ValidateToken verifies a bearer token and resolves the user it was issued to.
// The returned user never carries a password hash.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrUnauthenticated
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return model.User{}, ErrUnauthenticated
	}

	if s.profiles != nil {
		cached, ok, err := s.profiles.Get(ctx, claims.UserID)
		if err != nil {
			slog.Warn("profile cache read failed", "user_id", claims.UserID, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.User{}, ErrUnauthenticated
		}
		return model.User{}, err
	}

	safe := *user
	safe.PasswordHash = ""

	if s.profiles != nil {
		if err := s.profiles.Set(ctx, safe); err != nil {
			slog.Warn("profile cache write failed", "user_id", safe.ID, "error", err)
		}
	}

	return safe, nil
}

// GetProfile retrieves a user by ID and returns safe user data.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (model.ProfileResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.ProfileResponse{}, ErrUnauthenticated
		}
		return model.ProfileResponse{}, err
	}

	return model.ProfileResponse{User: user.ToResponse()}, nil
}

func (s *AuthService) authResponse(user *model.User, message string) (model.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		Message: message,
		Token:   token,
		User:    user.ToResponse(),
	}, nil
}

func (s *AuthService) forget(ctx context.Context, userID string) {
	if s.profiles == nil {
		return
	}
	if err := s.profiles.Delete(ctx, userID); err != nil {
		slog.Warn("profile cache invalidation failed", "user_id", userID, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
