package realtime

import (
	"log"
	"sync"
	"time"

	"github.com/nao1215/commenthub/pkg/event"
)

const (
	defaultSendBuffer   = 16
	defaultPingInterval = 30 * time.Second
)

// Hub はユーザーIDごとのリアルタイム接続を管理する。
// 1人のユーザーが複数の接続（タブや端末）を持つことができる。
type Hub struct {
	mu sync.RWMutex
	// clients はユーザーIDをキーとした接続中クライアントの集合。
	clients map[string]map[*Client]struct{}
	// sendBuffer はクライアントごとの送信バッファサイズ。
	sendBuffer int
	// pingInterval はキープアライブのPing送信間隔。
	pingInterval time.Duration
}

// NewHub は新しいHubを生成する。
func NewHub(sendBuffer int, pingInterval time.Duration) *Hub {
	if sendBuffer < 1 {
		sendBuffer = defaultSendBuffer
	}
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	return &Hub{
		clients:      make(map[string]map[*Client]struct{}),
		sendBuffer:   sendBuffer,
		pingInterval: pingInterval,
	}
}

// Register はクライアントをユーザーIDのチャネルに登録する。
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	log.Printf("[Realtime] 接続を登録: user_id=%s, connections=%d", c.userID, len(set))
}

// Unregister はクライアントの登録を解除し、送信チャネルを閉じる。
// 複数回呼び出しても安全。
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	log.Printf("[Realtime] 接続を解除: user_id=%s", c.userID)
}

// Publish はユーザーIDのチャネルにイベントを配信する。
// 送信はノンブロッキングで、バッファが満杯の接続には届けない。
// いずれかの接続に届けた場合に true を返す。
func (h *Hub) Publish(userID string, e *event.Event) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := false
	for c := range h.clients[userID] {
		select {
		case c.send <- e:
			delivered = true
		default:
			log.Printf("[Realtime] 送信バッファが満杯のため破棄: user_id=%s, event_id=%s", userID, e.ID)
		}
	}
	return delivered
}

// online はユーザーが1つ以上の接続を持っているかを返す。
func (h *Hub) online(userID string) bool {
	return h.connectionCount(userID) > 0
}

// connectionCount はユーザーの接続数を返す。
func (h *Hub) connectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
