package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cachemocks "github.com/nexusnotes/nexus-notes/internal/cache/mocks"
	"github.com/nexusnotes/nexus-notes/internal/crypto"
	"github.com/nexusnotes/nexus-notes/internal/identity"
	"github.com/nexusnotes/nexus-notes/internal/model"
	"github.com/nexusnotes/nexus-notes/internal/repository/memory"
	"github.com/nexusnotes/nexus-notes/internal/repository/mocks"
)

type fakeVerifier struct {
	id  identity.Identity
	err error
}

func (f *fakeVerifier) Verify(context.Context, string) (identity.Identity, error) {
	return f.id, f.err
}

func testHasher(t *testing.T) *crypto.PasswordHasher {
	t.Helper()
	h, err := crypto.NewPasswordHasher(crypto.HashParams{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	require.NoError(t, err)
	return h
}

func testIssuer(t *testing.T) *crypto.TokenIssuer {
	t.Helper()
	issuer, err := crypto.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	return issuer
}

func newTestAuthService(t *testing.T, users UserStore, v identity.Verifier) *AuthService {
	t.Helper()
	return NewAuthService(users, testHasher(t), testIssuer(t), v)
}

func register(t *testing.T, svc *AuthService, name, email, password string) model.AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), model.CreateUserRequest{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	return resp
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestAuthService(t, memory.NewStore().Users(), nil)

	tests := []struct {
		name string
		req  model.CreateUserRequest
		want error
	}{
		{"missing name", model.CreateUserRequest{Name: " ", Email: "a@x.com", Password: "p"}, ErrNameRequired},
		{"missing email", model.CreateUserRequest{Name: "Ana", Password: "p"}, ErrEmailRequired},
		{"malformed email", model.CreateUserRequest{Name: "Ana", Email: "ana", Password: "p"}, ErrEmailInvalid},
		{"missing password", model.CreateUserRequest{Name: "Ana", Email: "a@x.com"}, ErrPasswordRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegisterThenLogin(t *testing.T) {
	svc := newTestAuthService(t, memory.NewStore().Users(), nil)
	ctx := context.Background()

	reg := register(t, svc, "Ana", "Ana@X.com ", "secret1")
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "ana@x.com", reg.User.Email)
	assert.Equal(t, "Ana", reg.User.Name)

	login, err := svc.Login(ctx, model.LoginRequest{Email: "ana@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	for _, token := range []string{reg.Token, login.Token} {
		user, err := svc.ValidateToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, user.ID)
		assert.Empty(t, user.PasswordHash)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAuthService(t, store.Users(), nil)

	first := register(t, svc, "Ana", "ana@x.com", "secret1")
	before, err := store.Users().GetByEmail(context.Background(), "ana@x.com")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), model.CreateUserRequest{Name: "Ana 2", Email: "ANA@x.com", Password: "other"})
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	assert.Equal(t, 1, store.Users().Count())
	stored, err := store.Users().GetByEmail(context.Background(), "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, stored.ID)
	assert.Equal(t, "Ana", stored.Name)
	assert.Equal(t, before.PasswordHash, stored.PasswordHash)

	_, err = svc.Login(context.Background(), model.LoginRequest{Email: "ana@x.com", Password: "secret1"})
	assert.NoError(t, err)
	_, err = svc.Login(context.Background(), model.LoginRequest{Email: "ana@x.com", Password: "other"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	svc := newTestAuthService(t, memory.NewStore().Users(), nil)
	register(t, svc, "Ana", "ana@x.com", "secret1")

	_, wrongPassword := svc.Login(context.Background(), model.LoginRequest{Email: "ana@x.com", Password: "wrong"})
	_, unknownEmail := svc.Login(context.Background(), model.LoginRequest{Email: "bob@x.com", Password: "secret1"})

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLogin_MissingFields(t *testing.T) {
	svc := newTestAuthService(t, memory.NewStore().Users(), nil)

	_, err := svc.Login(context.Background(), model.LoginRequest{Password: "x"})
	assert.ErrorIs(t, err, ErrEmailRequired)

	_, err = svc.Login(context.Background(), model.LoginRequest{Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrPasswordRequired)
}

func TestLogin_FederatedOnlyAccountHasNoPassword(t *testing.T) {
	v := &fakeVerifier{id: identity.Identity{Subject: "g-1", Email: "bia@x.com", Name: "Bia"}}
	svc := newTestAuthService(t, memory.NewStore().Users(), v)

	_, err := svc.FederatedLogin(context.Background(), model.GoogleLoginRequest{IDToken: "tok"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), model.LoginRequest{Email: "bia@x.com", Password: ""})
	assert.ErrorIs(t, err, ErrPasswordRequired)

	_, err = svc.Login(context.Background(), model.LoginRequest{Email: "bia@x.com", Password: "guess"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestFederatedLogin_CreatesThenReuses(t *testing.T) {
	v := &fakeVerifier{id: identity.Identity{Subject: "g-1", Email: "bia@x.com", Picture: "https://img/b.png"}}
	svc := newTestAuthService(t, memory.NewStore().Users(), v)
	ctx := context.Background()

	first, err := svc.FederatedLogin(ctx, model.GoogleLoginRequest{IDToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "bia", first.User.Name)
	assert.Equal(t, "https://img/b.png", first.User.Avatar)

	second, err := svc.FederatedLogin(ctx, model.GoogleLoginRequest{IDToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	user, err := svc.ValidateToken(ctx, second.Token)
	require.NoError(t, err)
	assert.Equal(t, "g-1", user.GoogleID)
}

func TestFederatedLogin_LinksExistingPasswordAccount(t *testing.T) {
	v := &fakeVerifier{id: identity.Identity{Subject: "g-9", Email: "ana@x.com", Name: "Ana G", Picture: "https://img/a.png"}}
	svc := newTestAuthService(t, memory.NewStore().Users(), v)
	ctx := context.Background()

	reg := register(t, svc, "Ana", "ana@x.com", "secret1")

	resp, err := svc.FederatedLogin(ctx, model.GoogleLoginRequest{IDToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, resp.User.ID)
	assert.Equal(t, "Ana", resp.User.Name)
	assert.Equal(t, "https://img/a.png", resp.User.Avatar)

	// the password keeps working after linking
	_, err = svc.Login(ctx, model.LoginRequest{Email: "ana@x.com", Password: "secret1"})
	assert.NoError(t, err)
}

func TestFederatedLogin_LinkingDisabled(t *testing.T) {
	v := &fakeVerifier{id: identity.Identity{Subject: "g-9", Email: "ana@x.com"}}
	svc := newTestAuthService(t, memory.NewStore().Users(), v).WithFederatedLinking(false)

	register(t, svc, "Ana", "ana@x.com", "secret1")

	_, err := svc.FederatedLogin(context.Background(), model.GoogleLoginRequest{IDToken: "tok"})
	assert.ErrorIs(t, err, ErrDuplicateAccount)
}

func TestFederatedLogin_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		verifier identity.Verifier
		token    string
		want     error
	}{
		{"missing token", &fakeVerifier{}, "  ", ErrIDTokenRequired},
		{"provider rejects", &fakeVerifier{err: identity.ErrInvalidToken}, "tok", ErrInvalidFederatedToken},
		{"no subject", &fakeVerifier{id: identity.Identity{Email: "a@x.com"}}, "tok", ErrInvalidFederatedToken},
		{"no email", &fakeVerifier{id: identity.Identity{Subject: "g-1"}}, "tok", ErrInvalidFederatedToken},
		{"provider disabled", nil, "tok", ErrInvalidFederatedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(t, memory.NewStore().Users(), tt.verifier)
			_, err := svc.FederatedLogin(context.Background(), model.GoogleLoginRequest{IDToken: tt.token})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateToken_Rejections(t *testing.T) {
	svc := newTestAuthService(t, memory.NewStore().Users(), nil)

	ghost, err := svc.IssueToken("ghost")
	require.NoError(t, err)

	other, err := crypto.NewTokenIssuer("other-secret", time.Hour)
	require.NoError(t, err)
	forged, err := other.Issue("ghost")
	require.NoError(t, err)

	for _, token := range []string{"", "garbage", ghost, forged} {
		_, err := svc.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrUnauthenticated, "token=%q", token)
	}
}

func TestValidateToken_StoreFailureIsNotUnauthenticated(t *testing.T) {
	users := new(mocks.MockUserStore)
	svc := newTestAuthService(t, users, nil)

	token, err := svc.IssueToken("u-1")
	require.NoError(t, err)

	boom := errors.New("connection refused")
	users.On("GetByID", mock.Anything, "u-1").Return(nil, boom)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
	users.AssertExpectations(t)
}

func TestValidateToken_CacheHitSkipsStore(t *testing.T) {
	users := new(mocks.MockUserStore)
	profiles := new(cachemocks.MockProfileCache)
	svc := newTestAuthService(t, users, nil).WithProfileCache(profiles)

	token, err := svc.IssueToken("u-1")
	require.NoError(t, err)

	profiles.On("Get", mock.Anything, "u-1").Return(model.User{ID: "u-1", Name: "Ana"}, true, nil)

	user, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)

	users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	profiles.AssertExpectations(t)
}

func TestValidateToken_CacheMissPopulatesWithoutHash(t *testing.T) {
	users := new(mocks.MockUserStore)
	profiles := new(cachemocks.MockProfileCache)
	svc := newTestAuthService(t, users, nil).WithProfileCache(profiles)

	token, err := svc.IssueToken("u-1")
	require.NoError(t, err)

	profiles.On("Get", mock.Anything, "u-1").Return(model.User{}, false, nil)
	users.On("GetByID", mock.Anything, "u-1").Return(&model.User{ID: "u-1", Name: "Ana", PasswordHash: "hash"}, nil)
	profiles.On("Set", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.ID == "u-1" && u.PasswordHash == ""
	})).Return(nil)

	user, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)

	users.AssertExpectations(t)
	profiles.AssertExpectations(t)
}

func TestValidateToken_CacheErrorFallsBackToStore(t *testing.T) {
	users := new(mocks.MockUserStore)
	profiles := new(cachemocks.MockProfileCache)
	svc := newTestAuthService(t, users, nil).WithProfileCache(profiles)

	token, err := svc.IssueToken("u-1")
	require.NoError(t, err)

	profiles.On("Get", mock.Anything, "u-1").Return(model.User{}, false, errors.New("redis down"))
	profiles.On("Set", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	users.On("GetByID", mock.Anything, "u-1").Return(&model.User{ID: "u-1"}, nil)

	user, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
}

func TestGetProfile(t *testing.T) {
	svc := newTestAuthService(t, memory.NewStore().Users(), nil)
	reg := register(t, svc, "Ana", "ana@x.com", "secret1")

	profile, err := svc.GetProfile(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.User, profile.User)

	_, err = svc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
