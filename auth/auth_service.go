package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/bookstore-auth/events"
	apperrors "github.com/jrsteele09/bookstore-auth/internal/errors"
	"github.com/jrsteele09/bookstore-auth/token"
	"github.com/jrsteele09/bookstore-auth/token/refresh"
	"github.com/jrsteele09/bookstore-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Compared against when the email is unknown so a miss costs the same bcrypt
// work as a wrong password.
const timingDummyPassword = "bookstore-auth-timing-dummy"

// Repos holds all repository dependencies for the AuthenticationService
type Repos struct {
	Users users.UserRepo // Credential store
}

// AuthenticationService runs the login, register, refresh and logout flows and
// resolves access tokens back to a Principal.
type AuthenticationService struct {
	repos     Repos
	hasher    users.PasswordHasher
	tokens    *token.Manager   // Stateless access tokens
	refresh   *refresh.Manager // Stored refresh tokens, one per user
	publisher events.Publisher
	logger    zerolog.Logger
	nowTime   func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// AuthenticationServiceOption defines a function type to modify the AuthenticationService instance.
type AuthenticationServiceOption func(*AuthenticationService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthenticationServiceOption {
	return func(as *AuthenticationService) {
		as.nowTime = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) AuthenticationServiceOption {
	return func(as *AuthenticationService) {
		as.logger = logger
	}
}

// WithPublisher sends lifecycle events to p. Publish failures are logged only.
func WithPublisher(p events.Publisher) AuthenticationServiceOption {
	return func(as *AuthenticationService) {
		as.publisher = p
	}
}

// NewAuthenticationService initializes a new AuthenticationService with required dependencies.
func NewAuthenticationService(
	repos Repos,
	hasher users.PasswordHasher,
	tokens *token.Manager,
	refreshTokens *refresh.Manager,
	options ...AuthenticationServiceOption,
) (*AuthenticationService, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewAuthenticationService] Users repo is required")
	}
	if hasher == nil {
		return nil, errors.New("[NewAuthenticationService] password hasher is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewAuthenticationService] token manager is required")
	}
	if refreshTokens == nil {
		return nil, errors.New("[NewAuthenticationService] refresh token manager is required")
	}

	as := &AuthenticationService{
		repos:     repos,
		hasher:    hasher,
		tokens:    tokens,
		refresh:   refreshTokens,
		publisher: events.NopPublisher{},
		logger:    log.Logger,
		nowTime:   time.Now,
	}

	for _, opt := range options {
		opt(as)
	}

	return as, nil
}

// Login checks the credentials and starts a new session. Any previous refresh
// token held by the user stops working. Unknown email, unusable account and
// wrong password are indistinguishable to the caller.
func (as *AuthenticationService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := as.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	resp, err := as.issueSession(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticationService.Login]")
	}

	as.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	as.publish(ctx, events.UserLoggedIn, user)
	return resp, nil
}

// Register creates a customer account and logs it straight in
func (as *AuthenticationService) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	email := users.NormaliseEmail(req.Email)
	exists, err := as.repos.Users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticationService.Register] ExistsByEmail")
	}
	if exists {
		as.logger.Debug().Str("email", email).Msg("registration rejected, email taken")
		return nil, ErrAlreadyExists
	}

	hash, err := as.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticationService.Register] Hash")
	}

	now := as.nowTime().UTC()
	user := &users.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Role:         users.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
		Customer: &users.CustomerProfile{
			Phone:   strings.TrimSpace(req.Phone),
			Address: strings.TrimSpace(req.Address),
		},
	}
	if err := as.repos.Users.Upsert(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, errors.Wrap(err, "[AuthenticationService.Register] Upsert")
	}

	as.logger.Info().Str("user_id", user.ID).Msg("user registered")
	as.publish(ctx, events.UserRegistered, user)

	return as.Login(ctx, LoginRequest{Email: email, Password: req.Password})
}

// Refresh exchanges a live refresh token for a new access token. The refresh
// token itself is returned unchanged.
func (as *AuthenticationService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	rt, ok, err := as.refresh.Lookup(ctx, refreshToken)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticationService.Refresh] Lookup")
	}
	if !ok {
		as.logger.Debug().Msg("refresh rejected, unknown token")
		return nil, ErrInvalidRefreshToken
	}

	owner := rt.UserID
	rt, err = as.refresh.CheckNotExpired(ctx, rt)
	if errors.Is(err, refresh.ErrExpired) {
		as.logger.Debug().Str("user_id", owner).Msg("refresh rejected, token expired")
		return nil, ErrRefreshTokenExpired
	}
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticationService.Refresh] CheckNotExpired")
	}

	user, err := as.repos.Users.GetByID(ctx, rt.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		as.logger.Debug().Str("user_id", rt.UserID).Msg("refresh rejected, owner missing")
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticationService.Refresh] GetByID")
	}
	if !user.IsUsable() {
		// the account was blocked or deleted after login, end the session
		if err := as.refresh.Revoke(ctx, rt.Token); err != nil {
			return nil, errors.Wrap(err, "[AuthenticationService.Refresh] Revoke")
		}
		as.logger.Debug().Str("user_id", user.ID).Msg("refresh rejected, account unusable")
		return nil, ErrInvalidRefreshToken
	}

	accessToken, err := as.tokens.Issue(user.Email)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticationService.Refresh] Issue")
	}

	as.publish(ctx, events.TokenRefreshed, user)
	return as.tokenResponse(user, accessToken, rt.Token), nil
}

// Logout revokes the refresh token. Unknown or already revoked tokens are not
// an error. Access tokens already handed out stay valid until they expire.
func (as *AuthenticationService) Logout(ctx context.Context, refreshToken string) error {
	rt, ok, err := as.refresh.Lookup(ctx, refreshToken)
	if err != nil {
		return errors.Wrap(err, "[AuthenticationService.Logout] Lookup")
	}
	if err := as.refresh.Revoke(ctx, refreshToken); err != nil {
		return errors.Wrap(err, "[AuthenticationService.Logout] Revoke")
	}
	if ok {
		as.logger.Info().Str("user_id", rt.UserID).Msg("user logged out")
		as.publish(ctx, events.UserLoggedOut, &users.User{ID: rt.UserID})
	}
	return nil
}

// Authenticate resolves an access token to the caller. The role comes from
// the store, not the token, so role changes apply on the next request.
func (as *AuthenticationService) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	email, err := as.tokens.SubjectOf(accessToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := as.repos.Users.GetByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticationService.Authenticate] GetByEmail")
	}
	if !user.IsUsable() {
		return nil, ErrUnauthenticated
	}

	return &Principal{UserID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}, nil
}

func (as *AuthenticationService) authenticate(ctx context.Context, email, password string) (*users.User, error) {
	email = users.NormaliseEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := as.repos.Users.GetByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		as.hasher.Verify(password, as.timingDummyHash())
		as.logger.Debug().Str("email", email).Msg("login rejected, unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticationService.Login] GetByEmail")
	}

	if !as.hasher.Verify(password, user.PasswordHash) {
		as.logger.Debug().Str("user_id", user.ID).Msg("login rejected, password mismatch")
		return nil, ErrInvalidCredentials
	}
	if !user.IsUsable() {
		as.logger.Info().Str("user_id", user.ID).Msg("login rejected, account blocked or deleted")
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (as *AuthenticationService) issueSession(ctx context.Context, user *users.User) (*TokenResponse, error) {
	accessToken, err := as.tokens.Issue(user.Email)
	if err != nil {
		return nil, errors.Wrap(err, "Issue access token")
	}
	rt, err := as.refresh.Issue(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "Issue refresh token")
	}
	return as.tokenResponse(user, accessToken, rt.Token), nil
}

func (as *AuthenticationService) tokenResponse(user *users.User, accessToken, refreshToken string) *TokenResponse {
	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int(as.tokens.AccessTokenExpiry().Seconds()),
		Email:        user.Email,
		Role:         user.Role,
	}
}

func (as *AuthenticationService) publish(ctx context.Context, eventType events.Type, user *users.User) {
	event := events.Event{
		Type:       eventType,
		UserID:     user.ID,
		Email:      user.Email,
		Role:       string(user.Role),
		OccurredAt: as.nowTime().UTC(),
	}
	if err := as.publisher.Publish(ctx, event); err != nil {
		as.logger.Warn().Err(err).Str("event", string(eventType)).Msg("event publish failed")
	}
}

func (as *AuthenticationService) timingDummyHash() string {
	as.dummyOnce.Do(func() {
		as.dummyHash, _ = as.hasher.Hash(timingDummyPassword)
	})
	return as.dummyHash
}
