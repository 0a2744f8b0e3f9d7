package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"foodgram/internal/platform/postgres"
	"foodgram/internal/users/models"
	"foodgram/pkg/domain"
	txcontext "foodgram/pkg/platform/tx"
)

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, email, username, first_name, last_name, password_hash, is_staff, created_at`

func (s *PostgresStore) execer(ctx context.Context) txcontext.DBTX {
	return txcontext.Executor(ctx, s.db)
}

func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, first_name, last_name, password_hash, is_staff, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		user.Email, user.Username, user.FirstName, user.LastName, user.PasswordHash, user.IsStaff, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			if postgres.ConstraintName(err) == "users_username_key" {
				return ErrUsernameTaken
			}
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.UserID) (*models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, int64(id))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (s *PostgresStore) FindByIDs(ctx context.Context, ids []domain.UserID) (map[domain.UserID]*models.User, error) {
	out := make(map[domain.UserID]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1::bigint[])`, pq.Array(int64s(ids)))
	if err != nil {
		return nil, fmt.Errorf("find users by ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	var count int
	if err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	users, err := s.findMany(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY username, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, id domain.UserID, passwordHash string) error {
	return s.updateOne(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, int64(id), passwordHash)
}

func (s *PostgresStore) SetStaff(ctx context.Context, id domain.UserID, staff bool) error {
	return s.updateOne(ctx, `UPDATE users SET is_staff = $2 WHERE id = $1`, int64(id), staff)
}

func (s *PostgresStore) AddSubscription(ctx context.Context, subscriber, author domain.UserID) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO subscriptions (author_id, subscriber_id) VALUES ($1, $2)`, int64(author), int64(subscriber))
	switch {
	case err == nil:
		return nil
	case postgres.IsUniqueViolation(err):
		return ErrAlreadySubscribed
	case postgres.IsForeignKeyViolation(err):
		return ErrNotFound
	default:
		return fmt.Errorf("add subscription: %w", err)
	}
}

func (s *PostgresStore) RemoveSubscription(ctx context.Context, subscriber, author domain.UserID) error {
	return s.updateOne(ctx,
		`DELETE FROM subscriptions WHERE author_id = $1 AND subscriber_id = $2`, int64(author), int64(subscriber))
}

func (s *PostgresStore) SubscribedTo(ctx context.Context, subscriber domain.UserID, authors []domain.UserID) (map[domain.UserID]bool, error) {
	out := make(map[domain.UserID]bool, len(authors))
	if len(authors) == 0 {
		return out, nil
	}
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT author_id FROM subscriptions
		WHERE subscriber_id = $1 AND author_id = ANY($2::bigint[])
	`, int64(subscriber), pq.Array(int64s(authors)))
	if err != nil {
		return nil, fmt.Errorf("check subscriptions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out[domain.UserID(id)] = true
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListSubscriptions(ctx context.Context, subscriber domain.UserID, limit, offset int) ([]*models.User, int, error) {
	var count int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, int64(subscriber)).Scan(&count)
	if err != nil {
		return nil, 0, fmt.Errorf("count subscriptions: %w", err)
	}
	users, err := s.findMany(ctx, `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash, u.is_staff, u.created_at
		FROM subscriptions s
		JOIN users u ON u.id = s.author_id
		WHERE s.subscriber_id = $1
		ORDER BY u.username, u.id
		LIMIT $2 OFFSET $3
	`, int64(subscriber), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	u, err := scanUser(s.execer(ctx).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (s *PostgresStore) findMany(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PostgresStore) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := s.execer(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var id int64
	err := row.Scan(&id, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash, &u.IsStaff, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = domain.UserID(id)
	return &u, nil
}

func int64s[T ~int64](ids []T) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
