package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"exercise-tracker/internal/domain"
	"exercise-tracker/internal/repository"
)

const createUsersTables = `
CREATE TABLE IF NOT EXISTS users (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	username TEXT NOT NULL,
	log_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS log_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	description TEXT NOT NULL,
	duration INTEGER NOT NULL,
	date DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id),
	UNIQUE(user_id, position)
);
CREATE INDEX IF NOT EXISTS idx_log_entries_user_id ON log_entries(user_id);
`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTables); err != nil {
		return unavailable("create users tables", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Log = nil
	user.LogCount = 0

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, username, log_count, created_at)
VALUES (?, ?, 0, ?)`,
		user.ID,
		user.Username,
		user.CreatedAt.UTC(),
	)
	if err != nil {
		return unavailable("insert user", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin tx", err)
	}
	defer tx.Rollback()

	user, err := loadUser(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, unavailable("commit tx", err)
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, username, log_count, created_at
FROM users
ORDER BY seq ASC`)
	if err != nil {
		return nil, unavailable("query users", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Username, &user.LogCount, &user.CreatedAt); err != nil {
			return nil, unavailable("scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate users", err)
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, mutate repository.MutateFunc) (*domain.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin tx", err)
	}
	defer tx.Rollback() // safe no-op on commit

	user, err := loadUser(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	persisted := len(user.Log)
	if err := mutate(user); err != nil {
		return nil, err
	}
	if len(user.Log) < persisted {
		return nil, fmt.Errorf("update user %s: log entries cannot be removed", id)
	}

	for i := persisted; i < len(user.Log); i++ {
		entry := user.Log[i]
		if _, err := tx.ExecContext(ctx, `
INSERT INTO log_entries (user_id, position, description, duration, date)
VALUES (?, ?, ?, ?, ?)`,
			id,
			i,
			entry.Description,
			entry.Duration,
			entry.Date.UTC(),
		); err != nil {
			return nil, unavailable("insert log entry", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE users
SET username=?, log_count=(SELECT COUNT(*) FROM log_entries WHERE user_id=?)
WHERE id=?`,
		user.Username,
		id,
		id,
	); err != nil {
		return nil, unavailable("update user", err)
	}

	if err := tx.QueryRowContext(ctx, `SELECT log_count FROM users WHERE id=?`, id).Scan(&user.LogCount); err != nil {
		return nil, unavailable("read log count", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("commit tx", err)
	}
	return user, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadUser(ctx context.Context, q queryer, id string) (*domain.User, error) {
	row := q.QueryRowContext(ctx, `
SELECT id, username, log_count, created_at
FROM users
WHERE id = ?`,
		id,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
SELECT description, duration, date
FROM log_entries
WHERE user_id=?
ORDER BY position ASC`, id)
	if err != nil {
		return nil, unavailable("query log entries", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.LogEntry
		if err := rows.Scan(&entry.Description, &entry.Duration, &entry.Date); err != nil {
			return nil, unavailable("scan log entry", err)
		}
		entry.Date = entry.Date.UTC()
		user.Log = append(user.Log, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate log entries", err)
	}
	return user, nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.LogCount,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, unavailable("scan user", err)
	}
	return &user, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistenceUnavailable, err)
}
