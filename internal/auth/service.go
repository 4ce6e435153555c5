package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Token type selectors accepted by Validate and RevokeToken.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const minPasswordLength = 8

// SessionMeta carries request-scoped metadata recorded on an issued session.
type SessionMeta struct {
	IPAddress  string
	UserAgent  string
	Persistent bool
}

// AuthResult is returned by Register and Login: the user, the freshly issued
// session record, and the raw token pair. The raw tokens exist only in this
// result; stores hold digests.
type AuthResult struct {
	User    *User
	Session *SessionToken
	Tokens  TokenPair
}

// Validation is the outcome of a token validation. A miss is a negative
// result, not an error.
type Validation struct {
	Valid   bool
	User    *User
	Session *SessionToken
}

// Service orchestrates the credential store, token issuer and session store.
// It is the sole writer of session lifecycle transitions.
type Service struct {
	logger *slog.Logger
	repo   Repository
	issuer *Issuer
	now    func() time.Time

	// dummyHash is compared against when the email is unknown so a login
	// miss costs the same as a password mismatch.
	dummyHash []byte
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo Repository, issuer *Issuer) *Service {
	if issuer == nil {
		issuer = NewIssuer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		// bcrypt only fails on an invalid cost; DefaultCost is valid.
		panic(fmt.Sprintf("auth: generate dummy hash: %v", err))
	}
	return &Service{
		logger:    logger,
		repo:      repo,
		issuer:    issuer,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// Register creates a user and immediately issues a first session, mirroring
// login. Both writes commit atomically: a crash mid-sequence leaves no
// observable partial state.
func (s *Service) Register(ctx context.Context, email, password, username string, meta SessionMeta) (*AuthResult, error) {
	normalizedEmail, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, ErrInvalidInput
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Email:        normalizedEmail,
		Username:     NormalizeUsername(username),
		PasswordHash: string(passwordHash),
		IsActive:     true,
		LastLoginAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tokens, err := s.issuer.Issue(meta.Persistent)
	if err != nil {
		return nil, err
	}
	session := s.newSession(user.ID, tokens, meta, now)

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.CreateUser(ctx, user); err != nil {
			return err
		}
		return repo.CreateSession(ctx, session)
	})
	if err != nil {
		return nil, translateRegisterErr(err)
	}

	return &AuthResult{User: user, Session: session, Tokens: tokens}, nil
}

// Login verifies credentials and issues a new session. Unknown email and
// wrong password produce the same error; the account-status check runs only
// after password verification succeeds.
func (s *Service) Login(ctx context.Context, email, password string, meta SessionMeta) (*AuthResult, error) {
	normalizedEmail, err := NormalizeEmail(email)
	if err != nil {
		// A malformed email cannot belong to any account; keep the
		// response shape identical to a credential mismatch.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByEmail(ctx, normalizedEmail)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	tokens, err := s.issuer.Issue(meta.Persistent)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	session := s.newSession(user.ID, tokens, meta, now)

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.SetLastLogin(ctx, user.ID, now); err != nil {
			return err
		}
		return repo.CreateSession(ctx, session)
	})
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	user.LastLoginAt = &now
	return &AuthResult{User: user, Session: session, Tokens: tokens}, nil
}

// Validate looks up the session matching the raw token's digest. A missing,
// expired or revoked session and an inactive owner all yield Valid=false
// without an error. On success the session's last-seen timestamp is updated
// best-effort.
func (s *Service) Validate(ctx context.Context, rawToken, tokenType string) (Validation, error) {
	session, err := s.findByToken(ctx, rawToken, tokenType)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Validation{}, nil
		}
		return Validation{}, err
	}

	now := s.now()
	if !session.IsActive(now) {
		return Validation{}, nil
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Validation{}, nil
		}
		return Validation{}, fmt.Errorf("load session owner: %w", err)
	}
	if !user.IsActive {
		return Validation{}, nil
	}

	// Freshness tracking is not safety-critical: a failed touch must not
	// fail the validation.
	if err := s.repo.TouchSession(ctx, session.ID, now); err != nil {
		s.logger.Warn("touch session", slog.String("session_id", session.ID), slog.Any("error", err))
	} else {
		session.Touch(now)
	}

	return Validation{Valid: true, User: user, Session: session}, nil
}

// Revoke transitions the session to revoked. Idempotent: re-revoking keeps
// the original timestamp.
func (s *Service) Revoke(ctx context.Context, session *SessionToken) error {
	revokedAt, err := s.repo.RevokeSession(ctx, session.ID, s.now())
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	session.RevokedAt = &revokedAt
	return nil
}

// RevokeToken resolves a raw token to its session and revokes it. An unknown
// token reports revoked=false without an error.
func (s *Service) RevokeToken(ctx context.Context, rawToken, tokenType string) (bool, error) {
	session, err := s.findByToken(ctx, rawToken, tokenType)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := s.Revoke(ctx, session); err != nil {
		return false, err
	}
	return true, nil
}

// Sessions lists every session owned by a user, a store query rather than an
// in-memory back-reference.
func (s *Service) Sessions(ctx context.Context, userID string) ([]SessionToken, error) {
	return s.repo.ListSessionsByUser(ctx, userID)
}

func (s *Service) findByToken(ctx context.Context, rawToken, tokenType string) (*SessionToken, error) {
	hashed := HashToken(rawToken)
	switch tokenType {
	case TokenTypeAccess:
		return s.repo.GetSessionByAccessHash(ctx, hashed)
	case TokenTypeRefresh:
		return s.repo.GetSessionByRefreshHash(ctx, hashed)
	default:
		return nil, ErrInvalidInput
	}
}

func (s *Service) newSession(userID string, tokens TokenPair, meta SessionMeta, now time.Time) *SessionToken {
	session := &SessionToken{
		ID:               uuid.NewString(),
		UserID:           userID,
		AccessTokenHash:  HashToken(tokens.AccessToken),
		RefreshTokenHash: HashToken(tokens.RefreshToken),
		ExpiresAt:        now.Add(s.issuer.TTL(meta.Persistent)),
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
		IsPersistent:     meta.Persistent,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	session.Touch(now)
	return session
}

// translateRegisterErr keeps domain kinds intact and wraps everything else.
func translateRegisterErr(err error) error {
	if errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrHashConflict) {
		return err
	}
	return fmt.Errorf("register: %w", err)
}
