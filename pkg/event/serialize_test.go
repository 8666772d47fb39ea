package event

import (
	"encoding/json"
	"testing"
	"time"
)

// TestNew はNew関数を検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("NotificationCreatedDataでイベントを正常に生成できること", func(t *testing.T) {
		t.Parallel()

		created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		data := NotificationCreatedData{
			ID:              "notif-1",
			ReceiverUserID:  "user-1",
			Type:            "mention",
			SourceCommentID: "comment-1",
			CreatedAt:       created,
		}

		e, err := New("notif-1", AggregateTypeNotification, TypeNotificationCreated, data)
		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}
		if e.ID == "" {
			t.Error("イベントIDが空")
		}
		if e.AggregateID != "notif-1" {
			t.Errorf("AggregateID = %q, want %q", e.AggregateID, "notif-1")
		}
		if e.AggregateType != AggregateTypeNotification {
			t.Errorf("AggregateType = %q, want %q", e.AggregateType, AggregateTypeNotification)
		}
		if e.EventType != TypeNotificationCreated {
			t.Errorf("EventType = %q, want %q", e.EventType, TypeNotificationCreated)
		}
		if e.CreatedAt.IsZero() {
			t.Error("CreatedAtが設定されていない")
		}

		var decoded map[string]any
		if err := json.Unmarshal(e.Data, &decoded); err != nil {
			t.Fatalf("Dataのパースに失敗: %v", err)
		}
		for _, key := range []string{"id", "receiverUserId", "type", "sourceCommentId", "read", "createdAt"} {
			if _, ok := decoded[key]; !ok {
				t.Errorf("Dataにキー %q が含まれていない", key)
			}
		}
		if decoded["read"] != false {
			t.Errorf("read = %v, want false", decoded["read"])
		}
	})

	t.Run("連続して生成したイベントのIDが異なること", func(t *testing.T) {
		t.Parallel()

		e1, err := New("u", AggregateTypeConnection, TypeConnected, ConnectedData{UserID: "u"})
		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}
		e2, err := New("u", AggregateTypeConnection, TypeConnected, ConnectedData{UserID: "u"})
		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}
		if e1.ID == e2.ID {
			t.Errorf("イベントIDが重複: %q", e1.ID)
		}
		if e1.ID > e2.ID {
			t.Errorf("イベントIDが生成順に並んでいない: %q > %q", e1.ID, e2.ID)
		}
	})

	t.Run("イベント種別が空の場合はエラーが返ること", func(t *testing.T) {
		t.Parallel()

		if _, err := New("u", AggregateTypeConnection, "", ConnectedData{UserID: "u"}); err == nil {
			t.Fatal("エラーが返されるべき")
		}
	})

	t.Run("シリアライズ不可能なデータでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		_, err := New("x", AggregateTypeNotification, TypeNotificationCreated, make(chan int))
		if err == nil {
			t.Fatal("エラーが返されるべき")
		}
	})
}

// TestEventJSONFieldNames はEventのJSONフィールド名を検証する。
func TestEventJSONFieldNames(t *testing.T) {
	t.Parallel()

	e, err := New("user-1", AggregateTypeConnection, TypeConnected, ConnectedData{UserID: "user-1"})
	if err != nil {
		t.Fatalf("New()でエラーが発生: %v", err)
	}

	raw, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("シリアライズに失敗: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("デシリアライズに失敗: %v", err)
	}
	for _, key := range []string{"id", "aggregate_id", "aggregate_type", "event_type", "data", "created_at"} {
		if _, ok := m[key]; !ok {
			t.Errorf("キー %q が含まれていない", key)
		}
	}
	if m["event_type"] != "Connected" {
		t.Errorf("event_type = %v, want Connected", m["event_type"])
	}
}

// TestDecodeData はDecodeData関数を検証する。
func TestDecodeData(t *testing.T) {
	t.Parallel()

	t.Run("NewとDecodeDataのラウンドトリップが成功すること", func(t *testing.T) {
		t.Parallel()

		e, err := New("user-9", AggregateTypeConnection, TypeConnected, ConnectedData{UserID: "user-9"})
		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}

		got, err := DecodeData[ConnectedData](e)
		if err != nil {
			t.Fatalf("DecodeData()でエラーが発生: %v", err)
		}
		if got.UserID != "user-9" {
			t.Errorf("UserID = %q, want %q", got.UserID, "user-9")
		}
	})

	t.Run("不正なJSONデータでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		e := &Event{Data: json.RawMessage(`{invalid`)}
		if _, err := DecodeData[NotificationCreatedData](e); err == nil {
			t.Fatal("エラーが返されるべき")
		}
	})
}
