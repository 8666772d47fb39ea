package event

import (
	"encoding/json"
	"time"
)

// AggregateType はイベントの対象となるエンティティの種類を表す。
type AggregateType string

const (
	// AggregateTypeNotification は通知エンティティを表す。
	AggregateTypeNotification AggregateType = "Notification"
	// AggregateTypeConnection はリアルタイム接続を表す。
	AggregateTypeConnection AggregateType = "Connection"
)

// Type はイベントの種類を表す。
type Type string

const (
	// TypeConnected はリアルタイム接続が確立し、ユーザーが登録されたことを表す。
	TypeConnected Type = "Connected"
	// TypeNotificationCreated は通知が作成されたことを表す。
	TypeNotificationCreated Type = "NotificationCreated"
)

// Event はリアルタイム配信で送るイベントの封筒。
// クライアントには JSON としてそのまま送信される。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// AggregateID は対象エンティティの識別子。
	AggregateID string `json:"aggregate_id"`
	// AggregateType は対象エンティティの種類。
	AggregateType AggregateType `json:"aggregate_type"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// ConnectedData はConnectedイベントのデータ。
type ConnectedData struct {
	// UserID は登録されたユーザーのID。
	UserID string `json:"userId"`
}

// NotificationCreatedData はNotificationCreatedイベントのデータ。
// REST APIが返す通知レコードと同じ形をとる。
type NotificationCreatedData struct {
	// ID は通知の一意識別子。
	ID string `json:"id"`
	// ReceiverUserID は通知先のユーザーID。
	ReceiverUserID string `json:"receiverUserId"`
	// Type は通知の種類（comment / reply / mention）。
	Type string `json:"type"`
	// SourceCommentID は通知のきっかけとなったコメントのID。
	SourceCommentID string `json:"sourceCommentId"`
	// Read は既読状態。
	Read bool `json:"read"`
	// CreatedAt は通知の作成日時。
	CreatedAt time.Time `json:"createdAt"`
}
