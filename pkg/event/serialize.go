package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// errEmptyType はイベント種別が指定されていないことを表す。
var errEmptyType = errors.New("イベント種別が空です")

// New は配信用のイベントを組み立てる。data はJSONにシリアライズされて Data に入る。
// イベントIDは生成時刻順に並ぶUUIDv7で、クライアントは受信順の確認に使える。
func New(aggregateID string, aggregateType AggregateType, eventType Type, data any) (*Event, error) {
	if eventType == "" {
		return nil, errEmptyType
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%sのデータのシリアライズに失敗: %w", eventType, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("イベントIDの生成に失敗: %w", err)
	}

	return &Event{
		ID:            id.String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          payload,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// DecodeData は Data を T として読み出す。
func DecodeData[T any](e *Event) (*T, error) {
	var data T
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("%sのデータのデシリアライズに失敗: %w", e.EventType, err)
	}
	return &data, nil
}
