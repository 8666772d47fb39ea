package domain

import "github.com/google/uuid"

// NewID は作成時刻順にソート可能な識別子（UUIDv7）を生成する。
// 乱数源の取得に失敗した場合のみ UUIDv4 にフォールバックする。
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
