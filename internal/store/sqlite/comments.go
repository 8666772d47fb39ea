package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/commenthub/internal/domain"
)

const commentColumns = "id, text, author_id, post_id, parent_id, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(r rowScanner) (domain.Comment, error) {
	var (
		c                    domain.Comment
		parentID             sql.NullString
		createdAt, updatedAt string
	)
	if err := r.Scan(&c.ID, &c.Text, &c.AuthorID, &c.PostID, &parentID, &createdAt, &updatedAt); err != nil {
		return domain.Comment{}, err
	}
	if parentID.Valid {
		c.ParentID = &parentID.String
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Comment{}, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Comment{}, err
	}
	return c, nil
}

// CreateComment はコメントを保存する。
func (s *Store) CreateComment(ctx context.Context, c *domain.Comment) error {
	var parentID sql.NullString
	if c.ParentID != nil {
		parentID = sql.NullString{String: *c.ParentID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (`+commentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Text, c.AuthorID, c.PostID, parentID, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("コメントの保存に失敗: %w", err)
	}
	return nil
}

// GetComment はIDでコメントを取得する。
func (s *Store) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗: %w", err)
	}
	return &c, nil
}

// GetCommentsByIDs は複数IDのコメントをまとめて取得する。
func (s *Store) GetCommentsByIDs(ctx context.Context, ids []string) (map[string]domain.Comment, error) {
	result := make(map[string]domain.Comment, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id IN (`+placeholders(len(ids))+`)`,
		toArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("コメントの一括取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("コメントの読み取りに失敗: %w", err)
		}
		result[c.ID] = c
	}
	return result, rows.Err()
}

// ListCommentsByPost は投稿のコメントを作成日時の昇順で返す。
func (s *Store) ListCommentsByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE post_id = ? ORDER BY created_at, id`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	comments := make([]domain.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("コメントの読み取りに失敗: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpdateCommentText はコメント本文と更新日時を更新する。
func (s *Store) UpdateCommentText(ctx context.Context, id, text string, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE comments SET text = ?, updated_at = ? WHERE id = ?`,
		text, formatTime(updatedAt), id,
	)
	if err != nil {
		return fmt.Errorf("コメントの更新に失敗: %w", err)
	}
	return requireAffected(res, domain.ErrCommentNotFound)
}

// DeleteComment はコメントを削除する。
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("コメントの削除に失敗: %w", err)
	}
	return requireAffected(res, domain.ErrCommentNotFound)
}

// requireAffected は1行も更新されなかった場合に notFound を返す。
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
