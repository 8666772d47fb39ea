package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nao1215/commenthub/internal/domain"
)

const commentColumns = "id, text, author_id, post_id, parent_id, created_at, updated_at"

func scanComment(row pgx.Row) (domain.Comment, error) {
	var c domain.Comment
	if err := row.Scan(&c.ID, &c.Text, &c.AuthorID, &c.PostID, &c.ParentID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Comment{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

// CreateComment はコメントを保存する。
func (s *Store) CreateComment(ctx context.Context, c *domain.Comment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO comments (`+commentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Text, c.AuthorID, c.PostID, c.ParentID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("コメントの保存に失敗: %w", err)
	}
	return nil
}

// GetComment はIDでコメントを取得する。
func (s *Store) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	c, err := scanComment(s.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
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

	rows, err := s.pool.Query(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("コメントの一括取得に失敗: %w", err)
	}
	comments, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Comment, error) {
		return scanComment(r)
	})
	if err != nil {
		return nil, fmt.Errorf("コメントの読み取りに失敗: %w", err)
	}
	for _, c := range comments {
		result[c.ID] = c
	}
	return result, nil
}

// ListCommentsByPost は投稿のコメントを作成日時の昇順で返す。
func (s *Store) ListCommentsByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE post_id = $1 ORDER BY created_at, id`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗: %w", err)
	}
	comments, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Comment, error) {
		return scanComment(r)
	})
	if err != nil {
		return nil, fmt.Errorf("コメントの読み取りに失敗: %w", err)
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	return comments, nil
}

// UpdateCommentText はコメント本文と更新日時を更新する。
func (s *Store) UpdateCommentText(ctx context.Context, id, text string, updatedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE comments SET text = $1, updated_at = $2 WHERE id = $3`, text, updatedAt, id)
	if err != nil {
		return fmt.Errorf("コメントの更新に失敗: %w", err)
	}
	return requireAffected(tag, domain.ErrCommentNotFound)
}

// DeleteComment はコメントを削除する。
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("コメントの削除に失敗: %w", err)
	}
	return requireAffected(tag, domain.ErrCommentNotFound)
}
