package realtime

import (
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nao1215/commenthub/pkg/event"
)

const (
	// writeWait は1回の書き込みに許す時間。
	writeWait = 10 * time.Second
	// maxMessageSize はクライアントから受け付けるメッセージの最大サイズ。
	maxMessageSize = 4096
)

// Client はHubに登録された1つのWebSocket接続。
type Client struct {
	hub *Hub
	// userID は接続を認証したユーザーのID。
	userID string
	// conn はWebSocket接続。
	conn *websocket.Conn
	// send は配信待ちのイベント。Hubが閉じる。
	send chan *event.Event
}

func newClient(h *Hub, userID string, conn *websocket.Conn) *Client {
	return &Client{
		hub:    h,
		userID: userID,
		conn:   conn,
		send:   make(chan *event.Event, h.sendBuffer),
	}
}

// readPump は接続を監視し、切断時にHubから登録を解除する。
// クライアントからのメッセージは読み捨てる。
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	pongWait := c.hub.pingInterval * 2
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[Realtime] 予期しない切断: user_id=%s: %v", c.userID, err)
			}
			return
		}
	}
}

// writePump は送信チャネルのイベントをJSONで書き出し、定期的にPingを送る。
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Printf("[Realtime] イベントの送信に失敗: user_id=%s: %v", c.userID, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
