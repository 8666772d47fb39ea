package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nao1215/commenthub/internal/domain"
)

const userColumns = "id, username, role, created_at"

func scanUser(r rowScanner) (domain.User, error) {
	var (
		u         domain.User
		role      string
		createdAt string
	)
	if err := r.Scan(&u.ID, &u.Username, &role, &createdAt); err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// CreateUser はユーザーを登録する。
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, string(u.Role), formatTime(u.CreatedAt),
	)
	if isUniqueViolation(err) {
		return domain.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("ユーザーの保存に失敗: %w", err)
	}
	return nil
}

// GetUser はIDでユーザーを取得する。
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByUsername はユーザー名でユーザーを取得する。大文字小文字は区別する。
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (s *Store) getUser(ctx context.Context, query, arg string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	return &u, nil
}

// GetUsersByIDs は複数IDのユーザーをまとめて取得する。
func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]domain.User, error) {
	result := make(map[string]domain.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders(len(ids))+`)`,
		toArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの一括取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ユーザーの読み取りに失敗: %w", err)
		}
		result[u.ID] = u
	}
	return result, rows.Err()
}
