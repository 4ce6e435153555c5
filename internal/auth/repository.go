package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/umbra-games/umbra-security/internal/platform/db"
)

// Repository defines the persistence boundary for users and session tokens.
// Uniqueness is enforced by store constraints, never by check-then-insert.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	SetLastLogin(ctx context.Context, userID string, when time.Time) error

	CreateSession(ctx context.Context, session *SessionToken) error
	GetSessionByAccessHash(ctx context.Context, hash string) (*SessionToken, error)
	GetSessionByRefreshHash(ctx context.Context, hash string) (*SessionToken, error)
	ListSessionsByUser(ctx context.Context, userID string) ([]SessionToken, error)
	TouchSession(ctx context.Context, id string, when time.Time) error
	RevokeSession(ctx context.Context, id string, when time.Time) (time.Time, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const userColumns = `id, email, username, password_hash, is_active, is_verified,
       last_login_at, created_at, updated_at`

func (r *repository) CreateUser(ctx context.Context, user *User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, username, password_hash, is_active, is_verified, last_login_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID,
		user.Email,
		pgtype.Text{String: user.Username, Valid: user.Username != ""},
		user.PasswordHash,
		user.IsActive,
		user.IsVerified,
		user.LastLoginAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return translateConstraint(err)
	}
	return nil
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *repository) GetUserByID(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *repository) SetLastLogin(ctx context.Context, userID string, when time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET last_login_at = $2, updated_at = NOW() WHERE id = $1`,
		userID, when.UTC())
	return err
}

const sessionColumns = `id, user_id, access_token_hash, refresh_token_hash, expires_at,
       revoked_at, last_seen_at, ip_address, user_agent, is_persistent, created_at, updated_at`

func (r *repository) CreateSession(ctx context.Context, session *SessionToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO session_tokens (id, user_id, access_token_hash, refresh_token_hash, expires_at,
		                            last_seen_at, ip_address, user_agent, is_persistent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		session.ID,
		session.UserID,
		session.AccessTokenHash,
		pgtype.Text{String: session.RefreshTokenHash, Valid: session.RefreshTokenHash != ""},
		session.ExpiresAt.UTC(),
		session.LastSeenAt,
		pgtype.Text{String: session.IPAddress, Valid: session.IPAddress != ""},
		pgtype.Text{String: session.UserAgent, Valid: session.UserAgent != ""},
		session.IsPersistent,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return translateConstraint(err)
	}
	return nil
}

func (r *repository) GetSessionByAccessHash(ctx context.Context, hash string) (*SessionToken, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM session_tokens WHERE access_token_hash = $1`, hash)
	return scanSession(row)
}

func (r *repository) GetSessionByRefreshHash(ctx context.Context, hash string) (*SessionToken, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM session_tokens WHERE refresh_token_hash = $1`, hash)
	return scanSession(row)
}

func (r *repository) ListSessionsByUser(ctx context.Context, userID string) ([]SessionToken, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+sessionColumns+` FROM session_tokens WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionToken
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

func (r *repository) TouchSession(ctx context.Context, id string, when time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE session_tokens SET last_seen_at = $2, updated_at = NOW() WHERE id = $1`,
		id, when.UTC())
	return err
}

// RevokeSession is idempotent: a second call keeps the original revoked_at.
func (r *repository) RevokeSession(ctx context.Context, id string, when time.Time) (time.Time, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE session_tokens
		SET revoked_at = COALESCE(revoked_at, $2), updated_at = NOW()
		WHERE id = $1
		RETURNING revoked_at`,
		id, when.UTC())

	var revokedAt pgtype.Timestamptz
	if err := row.Scan(&revokedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, err
	}
	return revokedAt.Time, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var username pgtype.Text
	var lastLogin, createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(&u.ID, &u.Email, &username, &u.PasswordHash, &u.IsActive, &u.IsVerified,
		&lastLogin, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if username.Valid {
		u.Username = username.String
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	u.CreatedAt = createdAt.Time
	u.UpdatedAt = updatedAt.Time
	return &u, nil
}

func scanSession(row rowScanner) (*SessionToken, error) {
	var s SessionToken
	var refreshHash, ip, ua pgtype.Text
	var revokedAt, lastSeenAt, createdAt, updatedAt pgtype.Timestamptz
	var expiresAt pgtype.Timestamptz

	err := row.Scan(&s.ID, &s.UserID, &s.AccessTokenHash, &refreshHash, &expiresAt,
		&revokedAt, &lastSeenAt, &ip, &ua, &s.IsPersistent, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if refreshHash.Valid {
		s.RefreshTokenHash = refreshHash.String
	}
	s.ExpiresAt = expiresAt.Time
	if revokedAt.Valid {
		t := revokedAt.Time
		s.RevokedAt = &t
	}
	if lastSeenAt.Valid {
		t := lastSeenAt.Time
		s.LastSeenAt = &t
	}
	if ip.Valid {
		s.IPAddress = ip.String
	}
	if ua.Valid {
		s.UserAgent = ua.String
	}
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time
	return &s, nil
}

// translateConstraint maps unique-violation errors (SQLSTATE 23505) onto the
// domain taxonomy by constraint name.
func translateConstraint(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case "users_email_key", "users_username_key":
		return ErrAlreadyExists
	case "session_tokens_access_token_hash_key", "session_tokens_refresh_token_hash_key":
		return ErrHashConflict
	}
	return err
}

var _ Repository = (*repository)(nil)
