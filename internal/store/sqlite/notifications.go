package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nao1215/commenthub/internal/domain"
)

const notificationColumns = "id, receiver_user_id, type, source_comment_id, is_read, created_at"

func scanNotification(r rowScanner) (domain.Notification, error) {
	var (
		n         domain.Notification
		typ       string
		isRead    int64
		createdAt string
	)
	if err := r.Scan(&n.ID, &n.ReceiverUserID, &typ, &n.SourceCommentID, &isRead, &createdAt); err != nil {
		return domain.Notification{}, err
	}
	n.Type = domain.NotificationType(typ)
	if !n.Type.Valid() {
		return domain.Notification{}, fmt.Errorf("不明な通知種別です: id=%s, type=%q", n.ID, typ)
	}
	n.Read = isRead != 0
	var err error
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// CreateNotification は通知を保存する。
func (s *Store) CreateNotification(ctx context.Context, n *domain.Notification) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (`+notificationColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.ReceiverUserID, string(n.Type), n.SourceCommentID, boolToInt(n.Read), formatTime(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("通知の保存に失敗: %w", err)
	}
	return nil
}

// GetNotification はIDで通知を取得する。
func (s *Store) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("通知の取得に失敗: %w", err)
	}
	return &n, nil
}

// ListNotifications は受信者の通知を新しい順で返す。
func (s *Store) ListNotifications(ctx context.Context, receiverID string, unreadOnly bool) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE receiver_user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, receiverID)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	notifications := make([]domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("通知の読み取りに失敗: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead は1件の通知を既読にする。
func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("通知の既読化に失敗: %w", err)
	}
	return requireAffected(res, domain.ErrNotificationNotFound)
}

// MarkAllNotificationsRead は受信者の未読通知を全て既読にし、更新件数を返す。
func (s *Store) MarkAllNotificationsRead(ctx context.Context, receiverID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE receiver_user_id = ? AND is_read = 0`,
		receiverID,
	)
	if err != nil {
		return 0, fmt.Errorf("全通知の既読化に失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("更新件数の取得に失敗: %w", err)
	}
	return n, nil
}

// DeleteNotification は通知を削除する。
func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("通知の削除に失敗: %w", err)
	}
	return requireAffected(res, domain.ErrNotificationNotFound)
}
