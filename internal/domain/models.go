package domain

import "time"

// Comment は投稿に紐づくコメントを表す。
// ParentID が nil の場合はトップレベルコメント、それ以外は返信となる。
type Comment struct {
	// ID はコメントの一意識別子（UUIDv7）。作成順にソート可能。
	ID string `json:"id"`
	// Text はコメント本文。
	Text string `json:"text"`
	// AuthorID はコメントを投稿したユーザーのID。
	AuthorID string `json:"authorId"`
	// PostID はコメント先の投稿ID。投稿は外部サービスが管理する。
	PostID string `json:"postId"`
	// ParentID は返信先コメントのID。トップレベルの場合は nil。
	ParentID *string `json:"parentCommentId"`
	// CreatedAt はコメントの作成日時。
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt はコメントの最終更新日時。
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsTopLevel はコメントが投稿への直接のコメントかどうかを返す。
func (c Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// NotificationType は通知の種類を表す。
type NotificationType string

const (
	// NotificationTypeComment は自分の投稿にトップレベルコメントが付いたことを表す。
	NotificationTypeComment NotificationType = "comment"
	// NotificationTypeReply は自分のコメントに返信が付いたことを表す。
	NotificationTypeReply NotificationType = "reply"
	// NotificationTypeMention はコメント本文で @ユーザー名 により言及されたことを表す。
	NotificationTypeMention NotificationType = "mention"
)

// Valid は通知種別が既知の値かどうかを返す。
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeComment, NotificationTypeReply, NotificationTypeMention:
		return true
	}
	return false
}

// Notification はコメント作成に伴って生成される通知レコード。
type Notification struct {
	// ID は通知の一意識別子。
	ID string `json:"id"`
	// ReceiverUserID は通知先のユーザーID。
	ReceiverUserID string `json:"receiverUserId"`
	// Type は通知の種類。
	Type NotificationType `json:"type"`
	// SourceCommentID は通知のきっかけとなったコメントのID。
	SourceCommentID string `json:"sourceCommentId"`
	// Read は既読状態。
	Read bool `json:"read"`
	// CreatedAt は通知の作成日時。
	CreatedAt time.Time `json:"createdAt"`
}

// Role はユーザーの権限を表す。
type Role string

const (
	// RoleUser は一般ユーザー。
	RoleUser Role = "user"
	// RoleAdmin は管理者。他人のコメントも削除できる。
	RoleAdmin Role = "admin"
)

// User はユーザーディレクトリのエントリ。メンション解決と表示名の付与に使う。
type User struct {
	// ID はユーザーの一意識別子。
	ID string `json:"id"`
	// Username はメンションで使われるハンドル名。
	Username string `json:"username"`
	// Role はユーザーの権限。
	Role Role `json:"role"`
	// CreatedAt はユーザーの登録日時。
	CreatedAt time.Time `json:"createdAt"`
}
