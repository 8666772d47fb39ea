package realtime

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/nao1215/commenthub/pkg/event"
	"github.com/nao1215/commenthub/pkg/middleware"
)

// NewUpgrader は許可されたオリジンからの接続のみ受け付けるUpgraderを返す。
// Originヘッダーの無い接続（ブラウザ以外のクライアント）は許可する。
// "*" を含む場合は全オリジンを許可する。
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	_, allowAll := allowed["*"]

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowAll {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// Handler は認証済みユーザーの接続をWebSocketにアップグレードし、Hubに登録するハンドラを返す。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func (h *Hub) Handler(upgrader websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade が既にエラーレスポンスを書き込んでいる
			log.Printf("[Realtime] WebSocketへのアップグレードに失敗: user_id=%s: %v", userID, err)
			return
		}

		client := newClient(h, userID, conn)
		if ev, err := event.New(userID, event.AggregateTypeConnection, event.TypeConnected, event.ConnectedData{UserID: userID}); err == nil {
			client.send <- ev
		}
		h.Register(client)

		go client.writePump()
		go client.readPump()
	}
}
