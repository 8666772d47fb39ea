// Package store はコメント・通知・ユーザーの永続化の契約を定義する。
//
// 実装は sqlite（デフォルト）と postgres のサブパッケージにある。
// 存在しないレコードに対しては domain パッケージのセンチネルエラーを返す。
package store

import (
	"context"
	"time"

	"github.com/nao1215/commenthub/internal/domain"
)

// CommentStore はコメントの永続化を扱う。
type CommentStore interface {
	// CreateComment はコメントを保存する。ID と日時は呼び出し側が設定する。
	CreateComment(ctx context.Context, c *domain.Comment) error
	// GetComment はIDでコメントを取得する。存在しない場合は domain.ErrCommentNotFound。
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
	// GetCommentsByIDs は複数IDのコメントをまとめて取得する。存在しないIDは結果に含まれない。
	GetCommentsByIDs(ctx context.Context, ids []string) (map[string]domain.Comment, error)
	// ListCommentsByPost は投稿のコメントを作成日時の昇順で返す。
	ListCommentsByPost(ctx context.Context, postID string) ([]domain.Comment, error)
	// UpdateCommentText はコメント本文と更新日時を更新する。
	UpdateCommentText(ctx context.Context, id, text string, updatedAt time.Time) error
	// DeleteComment はコメントを削除する。
	DeleteComment(ctx context.Context, id string) error
}

// NotificationStore は通知の永続化を扱う。
type NotificationStore interface {
	// CreateNotification は通知を保存する。
	CreateNotification(ctx context.Context, n *domain.Notification) error
	// GetNotification はIDで通知を取得する。存在しない場合は domain.ErrNotificationNotFound。
	GetNotification(ctx context.Context, id string) (*domain.Notification, error)
	// ListNotifications は受信者の通知を新しい順で返す。
	ListNotifications(ctx context.Context, receiverID string, unreadOnly bool) ([]domain.Notification, error)
	// MarkNotificationRead は1件の通知を既読にする。
	MarkNotificationRead(ctx context.Context, id string) error
	// MarkAllNotificationsRead は受信者の全通知を既読にし、更新件数を返す。
	MarkAllNotificationsRead(ctx context.Context, receiverID string) (int64, error)
	// DeleteNotification は通知を削除する。
	DeleteNotification(ctx context.Context, id string) error
}

// UserStore はユーザーディレクトリを扱う。
type UserStore interface {
	// CreateUser はユーザーを登録する。ユーザー名が重複する場合は domain.ErrUsernameTaken。
	CreateUser(ctx context.Context, u *domain.User) error
	// GetUser はIDでユーザーを取得する。存在しない場合は domain.ErrUserNotFound。
	GetUser(ctx context.Context, id string) (*domain.User, error)
	// GetUserByUsername はユーザー名でユーザーを取得する。存在しない場合は domain.ErrUserNotFound。
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	// GetUsersByIDs は複数IDのユーザーをまとめて取得する。
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]domain.User, error)
}

// Store はサービスが使う全ての永続化操作をまとめたもの。
type Store interface {
	CommentStore
	NotificationStore
	UserStore
	// Close は接続を解放する。
	Close() error
}
