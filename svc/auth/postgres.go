package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkfill/inkfill/pkg/pg"
	"github.com/inkfill/inkfill/pkg/session"
)

// PostgresSessionStore persists session rows in the user_sessions
// table. Row ids come from the database (gen_random_uuid) so the store
// never invents identifiers.
type PostgresSessionStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionStore creates a session store on the given pool.
func NewPostgresSessionStore(pool *pgxpool.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Create inserts a new session row and returns its id.
func (s *PostgresSessionStore) Create(ctx context.Context, userID uuid.UUID, expiresAt, lastSeenAt time.Time) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO user_sessions (user_id, expires_at, last_seen_at)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		userID, expiresAt, lastSeenAt,
	).Scan(&id)
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return uuid.Nil, fmt.Errorf("%w: user %s", session.ErrUserNotFound, userID)
		}
		return uuid.Nil, fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

// Get loads the session scoped to both identifiers. A row that exists
// under a different user is not found.
func (s *PostgresSessionStore) Get(ctx context.Context, sessionID, userID uuid.UUID) (*session.Session, error) {
	var row session.Session
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, expires_at, last_seen_at, created_at
		 FROM user_sessions
		 WHERE id = $1 AND user_id = $2`,
		sessionID, userID,
	).Scan(&row.ID, &row.UserID, &row.ExpiresAt, &row.LastSeenAt, &row.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	return &row, nil
}

// Touch updates the activity timestamp for the scoped session.
func (s *PostgresSessionStore) Touch(ctx context.Context, sessionID, userID uuid.UUID, lastSeenAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE user_sessions SET last_seen_at = $3
		 WHERE id = $1 AND user_id = $2`,
		sessionID, userID, lastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

// Delete removes the scoped session. Deleting an absent row succeeds.
func (s *PostgresSessionStore) Delete(ctx context.Context, sessionID, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM user_sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PostgresUserStore persists accounts in the users table. Emails are
// stored normalized and carry a unique constraint.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewPostgresUserStore creates a user store on the given pool.
func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

// ByID loads a user by id.
func (s *PostgresUserStore) ByID(ctx context.Context, id uuid.UUID) (*session.User, error) {
	var u session.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, session.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// ByEmail loads a user by normalized email.
func (s *PostgresUserStore) ByEmail(ctx context.Context, email string) (*session.User, error) {
	var u session.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, created_at FROM users WHERE email = $1`,
		session.NormalizeEmail(email),
	).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, session.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// Create inserts a new user. A duplicate email maps to ErrUserExists.
func (s *PostgresUserStore) Create(ctx context.Context, email, name string) (*session.User, error) {
	var u session.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, name)
		 VALUES ($1, $2)
		 RETURNING id, email, name, created_at`,
		session.NormalizeEmail(email), name,
	).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil, session.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

var (
	_ session.Store     = (*PostgresSessionStore)(nil)
	_ session.UserStore = (*PostgresUserStore)(nil)
)
