package auth_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/bookstore-auth/auth"
	"github.com/jrsteele09/bookstore-auth/events"
	"github.com/jrsteele09/bookstore-auth/events/eventsfake"
	"github.com/jrsteele09/bookstore-auth/token"
	"github.com/jrsteele09/bookstore-auth/token/refresh"
	refreshrepofake "github.com/jrsteele09/bookstore-auth/token/refresh/repofake"
	"github.com/jrsteele09/bookstore-auth/users"
	fakeuserrepo "github.com/jrsteele09/bookstore-auth/users/repofake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	secretStr        = "0123456789abcdef0123456789abcdef"
	testUserID       = "user-1"
	testUserEmail    = "reader@example.com"
	testUserPassword = "password123"
	testUserName     = "Jane Reader"
	accessTTL        = 15 * time.Minute
	refreshTTL       = 7 * 24 * time.Hour
)

var baseTime = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

// testFixture holds all test dependencies
type testFixture struct {
	userRepo    *fakeuserrepo.FakeUserRepo
	refreshRepo *refreshrepofake.FakeRefreshTokenRepo
	hasher      users.PasswordHasher
	tokens      *token.Manager
	refresh     *refresh.Manager
	recorder    *eventsfake.Recorder
	clock       *clock
	logs        *bytes.Buffer
	service     *auth.AuthenticationService
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T, refreshTokenTTL time.Duration) *testFixture {
	t.Helper()

	signer, err := token.NewHMACSigner(secretStr)
	require.NoError(t, err)
	hasher, err := users.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	f := &testFixture{
		userRepo:    fakeuserrepo.NewFakeUserRepo(),
		refreshRepo: refreshrepofake.NewFakeRefreshTokenRepo(),
		hasher:      hasher,
		recorder:    eventsfake.NewRecorder(),
		clock:       &clock{now: baseTime},
		logs:        &bytes.Buffer{},
	}
	f.tokens = token.New(signer, token.WithTokenExpiry(accessTTL), token.WithNowFunc(f.clock.Now))
	f.refresh = refresh.NewManager(f.refreshRepo, refreshTokenTTL, refresh.WithNowFunc(f.clock.Now))

	f.service, err = auth.NewAuthenticationService(
		auth.Repos{Users: f.userRepo},
		f.hasher,
		f.tokens,
		f.refresh,
		auth.WithNowTime(f.clock.Now),
		auth.WithPublisher(f.recorder),
		auth.WithLogger(zerolog.New(f.logs).Level(zerolog.DebugLevel)),
	)
	require.NoError(t, err)
	return f
}

// createTestUser stores a user with the given role and the shared test password
func (f *testFixture) createTestUser(t *testing.T, id, email string, role users.Role) *users.User {
	t.Helper()
	hash, err := f.hasher.Hash(testUserPassword)
	require.NoError(t, err)
	u := &users.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Name:         testUserName,
		Role:         role,
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}
	require.NoError(t, f.userRepo.Upsert(context.Background(), u))
	return u
}

func TestNewAuthenticationService_RequiresDependencies(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)
	repos := auth.Repos{Users: f.userRepo}

	_, err := auth.NewAuthenticationService(auth.Repos{}, f.hasher, f.tokens, f.refresh)
	require.Error(t, err)
	_, err = auth.NewAuthenticationService(repos, nil, f.tokens, f.refresh)
	require.Error(t, err)
	_, err = auth.NewAuthenticationService(repos, f.hasher, nil, f.refresh)
	require.Error(t, err)
	_, err = auth.NewAuthenticationService(repos, f.hasher, f.tokens, nil)
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)
	ctx := context.Background()
	f.createTestUser(t, testUserID, testUserEmail, users.RoleCustomer)

	resp, err := f.service.Login(ctx, auth.LoginRequest{Email: "  Reader@Example.COM ", Password: testUserPassword})
	require.NoError(t, err)
	require.Equal(t, auth.TokenTypeBearer, resp.TokenType)
	require.Equal(t, testUserEmail, resp.Email)
	require.Equal(t, users.RoleCustomer, resp.Role)
	require.Equal(t, int(accessTTL.Seconds()), resp.ExpiresIn)

	v := f.tokens.Verify(resp.AccessToken)
	require.True(t, v.Valid)
	require.Equal(t, testUserEmail, v.Subject)

	rt, ok, err := f.refresh.Lookup(ctx, resp.RefreshToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, testUserID, rt.UserID)
	require.True(t, baseTime.Add(refreshTTL).Equal(rt.ExpiresAt))

	require.Equal(t, []events.Type{events.UserLoggedIn}, f.recorder.Types())
	require.NotContains(t, f.logs.String(), testUserPassword)
}

func TestLogin_SingleActiveSession(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)
	ctx := context.Background()
	f.createTestUser(t, testUserID, testUserEmail, users.RoleCustomer)

	first, err := f.service.Login(ctx, auth.LoginRequest{Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)
	second, err := f.service.Login(ctx, auth.LoginRequest{Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	require.Equal(t, 1, f.refreshRepo.Len())

	_, err = f.service.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

	_, err = f.service.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
}

func TestLogin_CredentialOpacity(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)
	ctx := context.Background()
	f.createTestUser(t, testUserID, testUserEmail, users.RoleCustomer)
	f.createTestUser(t, "user-blocked", "blocked@example.com", users.RoleCustomer)
	f.createTestUser(t, "user-deleted", "deleted@example.com", users.RoleStaff)
	require.NoError(t, f.userRepo.SetBlocked(ctx, "blocked@example.com", true))
	require.NoError(t, f.userRepo.SoftDelete(ctx, "deleted@example.com"))

	testCases := []struct {
		name string
		req  auth.LoginRequest
	}{
		{"unknown email", auth.LoginRequest{Email: "nobody@example.com", Password: testUserPassword}},
		{"wrong password", auth.LoginRequest{Email: testUserEmail, Password: "wrong-password"}},
		{"blocked account", auth.LoginRequest{Email: "blocked@example.com", Password: testUserPassword}},
		{"deleted account", auth.LoginRequest{Email: "deleted@example.com", Password: testUserPassword}},
		{"empty email", auth.LoginRequest{Password: testUserPassword}},
		{"empty password", auth.LoginRequest{Email: testUserEmail}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := f.service.Login(ctx, tc.req)
			require.Nil(t, resp)
			require.ErrorIs(t, err, auth.ErrInvalidCredentials)
			require.Equal(t, auth.ErrInvalidCredentials.Error(), err.Error())
		})
	}
	require.Zero(t, f.refreshRepo.Len())
	require.Empty(t, f.recorder.Events())
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)
	ctx := context.Background()

	resp, err := f.service.Register(ctx, auth.RegisterRequest{
		Name:     "  New Reader ",
		Email:    "New.Reader@Example.com",
		Password: testUserPassword,
		Phone:    "5551234",
		Address:  "1 Library Lane",
	})
	require.NoError(t, err)
	require.Equal(t, "new.reader@example.com", resp.Email)
	require.Equal(t, users.RoleCustomer, resp.Role)
	require.True(t, f.tokens.Verify(resp.AccessToken).Valid)

	stored, err := f.userRepo.GetByEmail(ctx, "new.reader@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)
	require.Equal(t, "New Reader", stored.Name)
	require.False(t, stored.Blocked)
	require.NotEqual(t, testUserPassword, stored.PasswordHash)
	require.True(t, f.hasher.Verify(testUserPassword, stored.PasswordHash))
	require.Equal(t, &users.CustomerProfile{Phone: "5551234", Address: "1 Library Lane"}, stored.Customer)

	rt, ok, err := f.refresh.Lookup(ctx, resp.RefreshToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, stored.ID, rt.UserID)

	require.Equal(t, []events.Type{events.UserRegistered, events.UserLoggedIn}, f.recorder.Types())
}

func TestRegister_AlreadyExists(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)
	ctx := context.Background()
	f.createTestUser(t, testUserID, testUserEmail, users.RoleCustomer)
	f.createTestUser(t, "user-deleted", "deleted@example.com", users.RoleCustomer)
	require.NoError(t, f.userRepo.SoftDelete(ctx, "deleted@example.com"))

	for _, email := range []string{testUserEmail, "READER@example.com", "deleted@example.com"} {
		_, err := f.service.Register(ctx, auth.RegisterRequest{Name: testUserName, Email: email, Password: testUserPassword})
		require.ErrorIs(t, err, auth.ErrAlreadyExists, email)
	}
	require.Zero(t, f.refreshRepo.Len())
}

func TestRegister_Validation(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)

	_, err := f.service.Register(context.Background(), auth.RegisterRequest{Name: "J", Email: "not-an-email", Password: "123"})
	require.ErrorIs(t, err, auth.ErrValidation)

	var ve *auth.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Contains(t, ve.Fields, "name")
	require.Contains(t, ve.Fields, "email")
	require.Contains(t, ve.Fields, "password")

	exists, err := f.userRepo.ExistsByEmail(context.Background(), "not-an-email")
	require.NoError(t, err)
	require.False(t, exists)
}

// A register followed by a login leaves only the login's refresh token usable
func TestRegisterThenLogin_RotatesRefreshToken(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)
	ctx := context.Background()

	registered, err := f.service.Register(ctx, auth.RegisterRequest{Name: testUserName, Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)
	loggedIn, err := f.service.Login(ctx, auth.LoginRequest{Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)

	_, err = f.service.Refresh(ctx, registered.RefreshToken)
	require.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

	refreshed, err := f.service.Refresh(ctx, loggedIn.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, loggedIn.RefreshToken, refreshed.RefreshToken)
	require.Equal(t, testUserEmail, refreshed.Email)
	require.True(t, f.tokens.Verify(refreshed.AccessToken).Valid)
}

func TestRefresh(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)
	ctx := context.Background()
	f.createTestUser(t, testUserID, testUserEmail, users.RoleStaff)

	login, err := f.service.Login(ctx, auth.LoginRequest{Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)

	f.clock.now = baseTime.Add(time.Hour)
	resp, err := f.service.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, login.RefreshToken, resp.RefreshToken)
	require.Equal(t, users.RoleStaff, resp.Role)

	v := f.tokens.Verify(resp.AccessToken)
	require.True(t, v.Valid)
	require.True(t, baseTime.Add(time.Hour+accessTTL).Equal(v.ExpiresAt))

	rt, ok, err := f.refresh.Lookup(ctx, login.RefreshToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, baseTime.Add(refreshTTL).Equal(rt.ExpiresAt), "refresh must not extend expiry")

	require.Equal(t, []events.Type{events.UserLoggedIn, events.TokenRefreshed}, f.recorder.Types())
}

func TestRefresh_GarbageToken(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)

	for _, tok := range []string{"", "not-a-token", "deadbeef"} {
		resp, err := f.service.Refresh(context.Background(), tok)
		require.Nil(t, resp)
		require.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	}
}

func TestRefresh_Expired(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)
	ctx := context.Background()
	f.createTestUser(t, testUserID, testUserEmail, users.RoleCustomer)

	login, err := f.service.Login(ctx, auth.LoginRequest{Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)

	f.clock.now = baseTime.Add(refreshTTL - time.Second)
	_, err = f.service.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)

	f.clock.now = baseTime.Add(refreshTTL)
	_, err = f.service.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, auth.ErrRefreshTokenExpired)

	// the expired record was removed on inspection
	_, err = f.service.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestRefresh_NegativeTTL(t *testing.T) {
	f := setupTestFixture(t, -time.Minute)
	ctx := context.Background()
	f.createTestUser(t, testUserID, testUserEmail, users.RoleCustomer)

	login, err := f.service.Login(ctx, auth.LoginRequest{Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)
	require.NotEmpty(t, login.AccessToken)

	_, err = f.service.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, auth.ErrRefreshTokenExpired)
	require.Zero(t, f.refreshRepo.Len())
}

func TestRefresh_OwnerMissing(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)
	ctx := context.Background()

	rt, err := f.refresh.Issue(ctx, "ghost-user")
	require.NoError(t, err)

	_, err = f.service.Refresh(ctx, rt.Token)
	require.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestRefresh_OwnerBlockedEndsSession(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)
	ctx := context.Background()
	f.createTestUser(t, testUserID, testUserEmail, users.RoleCustomer)

	login, err := f.service.Login(ctx, auth.LoginRequest{Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)
	require.NoError(t, f.userRepo.SetBlocked(ctx, testUserEmail, true))

	_, err = f.service.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	require.Zero(t, f.refreshRepo.Len())
}

func TestLogout_Idempotent(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)
	ctx := context.Background()
	f.createTestUser(t, testUserID, testUserEmail, users.RoleCustomer)

	login, err := f.service.Login(ctx, auth.LoginRequest{Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, login.RefreshToken))
	require.NoError(t, f.service.Logout(ctx, login.RefreshToken))
	require.NoError(t, f.service.Logout(ctx, "never-issued"))
	require.NoError(t, f.service.Logout(ctx, ""))

	_, err = f.service.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

	// the access token is stateless and outlives logout
	_, err = f.service.Authenticate(ctx, login.AccessToken)
	require.NoError(t, err)

	require.Equal(t, []events.Type{events.UserLoggedIn, events.UserLoggedOut}, f.recorder.Types())
}

func TestAuthenticate(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)
	ctx := context.Background()
	user := f.createTestUser(t, testUserID, testUserEmail, users.RoleCustomer)

	login, err := f.service.Login(ctx, auth.LoginRequest{Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)

	p, err := f.service.Authenticate(ctx, login.AccessToken)
	require.NoError(t, err)
	require.Equal(t, auth.Principal{UserID: testUserID, Email: testUserEmail, Name: testUserName, Role: users.RoleCustomer}, *p)

	t.Run("role is read from the store", func(t *testing.T) {
		user.Role = users.RoleAdmin
		require.NoError(t, f.userRepo.Upsert(ctx, user))
		p, err := f.service.Authenticate(ctx, login.AccessToken)
		require.NoError(t, err)
		require.Equal(t, users.RoleAdmin, p.Role)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := f.service.Authenticate(ctx, "a.b.c")
		require.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("expired token", func(t *testing.T) {
		f.clock.now = baseTime.Add(accessTTL)
		defer func() { f.clock.now = baseTime }()
		_, err := f.service.Authenticate(ctx, login.AccessToken)
		require.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("blocked account", func(t *testing.T) {
		require.NoError(t, f.userRepo.SetBlocked(ctx, testUserEmail, true))
		_, err := f.service.Authenticate(ctx, login.AccessToken)
		require.ErrorIs(t, err, auth.ErrUnauthenticated)
	})
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)
	f.recorder.Err = errors.New("broker unavailable")

	resp, err := f.service.Register(context.Background(), auth.RegisterRequest{Name: testUserName, Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)
	require.NotEmpty(t, resp.RefreshToken)
	require.Contains(t, f.logs.String(), "event publish failed")
}

func TestEventsCarryNoSecrets(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)
	resp, err := f.service.Register(context.Background(), auth.RegisterRequest{Name: testUserName, Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)

	for _, e := range f.recorder.Events() {
		require.Equal(t, testUserEmail, e.Email)
		require.NotEmpty(t, e.UserID)
		require.True(t, baseTime.Equal(e.OccurredAt))
	}
	require.NotContains(t, f.logs.String(), resp.RefreshToken)
	require.NotContains(t, f.logs.String(), testUserPassword)
}

// brokenUserRepo fails every call
type brokenUserRepo struct{ users.UserRepo }

var errStoreDown = errors.New("store down")

func (brokenUserRepo) GetByEmail(context.Context, string) (*users.User, error) {
	return nil, errStoreDown
}

func (brokenUserRepo) ExistsByEmail(context.Context, string) (bool, error) {
	return false, errStoreDown
}

func TestInfrastructureFaultsPropagate(t *testing.T) {
	f := setupTestFixture(t, refreshTTL)
	service, err := auth.NewAuthenticationService(auth.Repos{Users: brokenUserRepo{}}, f.hasher, f.tokens, f.refresh)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = service.Login(ctx, auth.LoginRequest{Email: testUserEmail, Password: testUserPassword})
	require.ErrorIs(t, err, errStoreDown)
	require.NotErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = service.Register(ctx, auth.RegisterRequest{Name: testUserName, Email: testUserEmail, Password: testUserPassword})
	require.ErrorIs(t, err, errStoreDown)
}
