package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nao1215/commenthub/internal/domain"
)

const notificationColumns = "id, receiver_user_id, type, source_comment_id, is_read, created_at"

func scanNotification(row pgx.Row) (domain.Notification, error) {
	var (
		n   domain.Notification
		typ string
	)
	if err := row.Scan(&n.ID, &n.ReceiverUserID, &typ, &n.SourceCommentID, &n.Read, &n.CreatedAt); err != nil {
		return domain.Notification{}, err
	}
	n.Type = domain.NotificationType(typ)
	if !n.Type.Valid() {
		return domain.Notification{}, fmt.Errorf("不明な通知種別です: id=%s, type=%q", n.ID, typ)
	}
	n.CreatedAt = n.CreatedAt.UTC()
	return n, nil
}

// CreateNotification は通知を保存する。
func (s *Store) CreateNotification(ctx context.Context, n *domain.Notification) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (`+notificationColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.ReceiverUserID, string(n.Type), n.SourceCommentID, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("通知の保存に失敗: %w", err)
	}
	return nil
}

// GetNotification はIDで通知を取得する。
func (s *Store) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	n, err := scanNotification(s.pool.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("通知の取得に失敗: %w", err)
	}
	return &n, nil
}

// ListNotifications は受信者の通知を新しい順で返す。
func (s *Store) ListNotifications(ctx context.Context, receiverID string, unreadOnly bool) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE receiver_user_id = $1`
	if unreadOnly {
		query += ` AND NOT is_read`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, receiverID)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗: %w", err)
	}
	notifications, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Notification, error) {
		return scanNotification(r)
	})
	if err != nil {
		return nil, fmt.Errorf("通知の読み取りに失敗: %w", err)
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	return notifications, nil
}

// MarkNotificationRead は1件の通知を既読にする。
func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("通知の既読化に失敗: %w", err)
	}
	return requireAffected(tag, domain.ErrNotificationNotFound)
}

// MarkAllNotificationsRead は受信者の未読通知を全て既読にし、更新件数を返す。
func (s *Store) MarkAllNotificationsRead(ctx context.Context, receiverID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE receiver_user_id = $1 AND NOT is_read`,
		receiverID,
	)
	if err != nil {
		return 0, fmt.Errorf("全通知の既読化に失敗: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteNotification は通知を削除する。
func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("通知の削除に失敗: %w", err)
	}
	return requireAffected(tag, domain.ErrNotificationNotFound)
}
