package domain

import "errors"

// ドメイン層のセンチネルエラー。HTTP層で errors.Is によりステータスコードへ変換する。
var (
	// ErrCommentNotFound はコメントが存在しないことを表す。
	ErrCommentNotFound = errors.New("comment not found")
	// ErrNotificationNotFound は通知が存在しないことを表す。
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrPostNotFound は投稿が外部サービスに存在しないことを表す。
	ErrPostNotFound = errors.New("post not found")
	// ErrUserNotFound はユーザーが存在しないことを表す。
	ErrUserNotFound = errors.New("user not found")
	// ErrForbidden は操作権限がないことを表す。
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidComment はコメントの入力値が不正であることを表す。
	ErrInvalidComment = errors.New("invalid comment")
	// ErrInvalidParent は親コメントが存在しないか、別の投稿に属していることを表す。
	ErrInvalidParent = errors.New("invalid parent comment")
	// ErrInvalidUser はユーザーの入力値が不正であることを表す。
	ErrInvalidUser = errors.New("invalid user")
	// ErrUsernameTaken はユーザー名が既に使われていることを表す。
	ErrUsernameTaken = errors.New("username already taken")
)
