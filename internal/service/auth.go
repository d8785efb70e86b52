package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/deppfellow/classroom/internal/errs"
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"
	"github.com/deppfellow/classroom/internal/sqlerr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// cachedUserTTL bounds how long a user row is served from Redis.
const cachedUserTTL = 10 * time.Minute

var errUnauthenticated = errs.NewUnauthorizedError("Unauthenticated", true)

// Claims are the JWT claims of an access token. The subject is the user id
// and the token id (jti) is what logout revokes.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type AuthService struct {
	server   *server.Server
	users    UserStore
	sessions SessionStore
	now      func() time.Time
	hashCost int
}

func NewAuthService(s *server.Server, users UserStore, sessions SessionStore) *AuthService {
	return &AuthService{
		server:   s,
		users:    users,
		sessions: sessions,
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*AuthResult, error) {
	logger := loggerFrom(ctx, a.server.Logger)
	email := normalizeEmail(req.Email)

	if _, err := a.users.GetUserByEmail(ctx, email); err == nil {
		return nil, errs.FieldInvalid("email", "The email has already been taken")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.hashCost)
	if err != nil {
		return nil, err
	}

	user, err := a.users.CreateUser(ctx, &model.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hash),
		Role:     req.Role,
	})
	if err != nil {
		if sqlerr.IsUniqueViolation(err, "users_email_key") {
			return nil, errs.FieldInvalid("email", "The email has already been taken")
		}
		return nil, err
	}

	logger.Info().
		Int64("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("user registered")

	if a.server.Email != nil {
		if err := a.server.Email.SendWelcomeEmail(ctx, user.Email, user.Name, string(user.Role)); err != nil {
			logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to send welcome email")
		}
	}

	return a.issue(user)
}

func (a *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*AuthResult, error) {
	logger := loggerFrom(ctx, a.server.Logger)

	user, err := a.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn().Msg("login failed: unknown email")
			return nil, errs.NewUnauthorizedError("Email is not registered", true)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn().Int64("user_id", user.ID).Msg("login failed: wrong password")
		return nil, errs.NewUnauthorizedError("Wrong password", true)
	}

	logger.Info().Int64("user_id", user.ID).Msg("user logged in")
	return a.issue(user)
}

func (a *AuthService) issue(user *model.User) (*AuthResult, error) {
	now := a.now()
	expiresAt := now.Add(a.server.Config.Auth.TokenTTL)

	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.server.Config.Auth.SecretKey))
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

// Authenticate resolves a bearer token into a session. Invalid, expired and
// revoked tokens are rejected with a 401.
func (a *AuthService) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	logger := loggerFrom(ctx, a.server.Logger)

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return []byte(a.server.Config.Auth.SecretKey), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		logger.Debug().Err(err).Msg("rejected access token")
		return nil, errUnauthenticated
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || claims.ID == "" {
		return nil, errUnauthenticated
	}

	revoked, err := a.sessions.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		logger.Warn().Err(err).Msg("could not check token revocation, allowing request")
	} else if revoked {
		return nil, errUnauthenticated
	}

	user, err := a.user(ctx, logger, userID)
	if err != nil {
		return nil, err
	}

	return &model.Session{
		User:      user,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (a *AuthService) user(ctx context.Context, logger *zerolog.Logger, id int64) (*model.User, error) {
	cached, err := a.sessions.GetCachedUser(ctx, id)
	if err != nil {
		logger.Warn().Err(err).Msg("user cache unavailable")
	}
	if cached != nil {
		return cached, nil
	}

	user, err := a.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errUnauthenticated
		}
		return nil, err
	}

	if err := a.sessions.CacheUser(ctx, user, cachedUserTTL); err != nil {
		logger.Warn().Err(err).Msg("failed to cache user")
	}
	return user, nil
}

// Logout revokes the token of session until it would have expired anyway.
func (a *AuthService) Logout(ctx context.Context, session *model.Session) error {
	ttl := session.ExpiresAt.Sub(a.now())
	if err := a.sessions.RevokeToken(ctx, session.TokenID, ttl); err != nil {
		return err
	}
	if err := a.sessions.ForgetUser(ctx, session.User.ID); err != nil {
		loggerFrom(ctx, a.server.Logger).Warn().Err(err).Msg("failed to drop cached user")
	}

	loggerFrom(ctx, a.server.Logger).Info().Int64("user_id", session.User.ID).Msg("user logged out")
	return nil
}

// EnsureUser creates the user unless the email is already registered. It
// reports whether a new row was written.
func (a *AuthService) EnsureUser(ctx context.Context, name, email, password string, role model.Role) (*model.User, bool, error) {
	email = normalizeEmail(email)

	existing, err := a.users.GetUserByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.hashCost)
	if err != nil {
		return nil, false, err
	}

	user, err := a.users.CreateUser(ctx, &model.User{Name: name, Email: email, Password: string(hash), Role: role})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// loggerFrom returns the request logger stored in ctx, or fallback.
func loggerFrom(ctx context.Context, fallback *zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return fallback
}
