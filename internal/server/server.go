package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/commenthub/internal/comment"
	"github.com/nao1215/commenthub/internal/domain"
	"github.com/nao1215/commenthub/internal/loader"
	"github.com/nao1215/commenthub/internal/realtime"
	"github.com/nao1215/commenthub/internal/store"
	"github.com/nao1215/commenthub/pkg/middleware"
)

// serviceName はヘルスチェックで返すサービス名。
const serviceName = "commenthub"

// Options はサーバーの動作設定。
type Options struct {
	// JWTSecret はトークンの署名と検証に使う共有シークレット。
	JWTSecret string
	// DevAuthEnabled は開発用トークン発行エンドポイントを公開するかどうか。
	DevAuthEnabled bool
	// DevAuthAllowAdmin は開発用トークン発行で admin 権限の要求を受け付けるかどうか。
	DevAuthAllowAdmin bool
	// AllowedOrigins はCORSとWebSocketで許可するオリジン。
	AllowedOrigins []string
	// AccessLog はアクセスログの出力先。nil の場合は gin.DefaultWriter。
	AccessLog io.Writer
}

// Server はcommenthubのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// store は永続化層。
	store store.Store
	// comments はコメントのユースケース。
	comments *comment.Service
	// hub はリアルタイム配信のレジストリ。
	hub *realtime.Hub
	// opts はサーバーの動作設定。
	opts Options
}

// NewServer は新しいHTTPサーバーを生成する。
// APIはAuthorizationヘッダーのみ、WebSocketはクエリパラメータのトークンも受け付ける。
func NewServer(opts Options, st store.Store, comments *comment.Service, hub *realtime.Hub) *Server {
	return newServer(opts, st, comments, hub, middleware.JWTAuth(opts.JWTSecret), middleware.JWTAuthWS(opts.JWTSecret))
}

// newServer は認証ミドルウェアを指定してサーバーを生成する。テストでは差し替える。
func newServer(opts Options, st store.Store, comments *comment.Service, hub *realtime.Hub, auth, wsAuth gin.HandlerFunc) *Server {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(accessLogger(opts.AccessLog))
	router.Use(middleware.CORS(opts.AllowedOrigins))

	s := &Server{
		router:   router,
		store:    st,
		comments: comments,
		hub:      hub,
		opts:     opts,
	}
	s.setupRoutes(auth, wsAuth)
	return s
}

// accessLogger はクエリ文字列を含めないアクセスログのミドルウェアを返す。
// WebSocketのハンドシェイクはトークンをクエリで渡すため、パスのみを記録する。
func accessLogger(out io.Writer) gin.HandlerFunc {
	if out == nil {
		out = gin.DefaultWriter
	}
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    out,
		Formatter: formatAccessLog,
	})
}

// formatAccessLog はGinの標準形式からクエリ文字列を除いたアクセスログを組み立てる。
func formatAccessLog(param gin.LogFormatterParams) string {
	path := param.Request.URL.Path
	if param.Latency > time.Minute {
		param.Latency = param.Latency.Truncate(time.Second)
	}
	return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v\n%s",
		param.TimeStamp.Format("2006/01/02 - 15:04:05"),
		param.StatusCode,
		param.Latency,
		param.ClientIP,
		param.Method,
		path,
		param.ErrorMessage,
	)
}

// Handler はHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes(auth, wsAuth gin.HandlerFunc) {
	// 開発用トークン発行
	if s.opts.DevAuthEnabled {
		s.router.POST("/auth/dev-token", s.handleDevToken())
	}

	api := s.router.Group("/api/v1")
	api.Use(auth, loader.Middleware(s.store))
	{
		api.GET("/me", s.handleMe())

		comments := api.Group("/comments")
		{
			comments.POST("", s.handleCreateComment())
			comments.PATCH("/:id", s.handleEditComment())
			comments.DELETE("/:id", s.handleDeleteComment())
		}

		posts := api.Group("/posts/:postId")
		{
			posts.GET("/comments", s.handleListComments())
			posts.GET("/comments/tree", s.handleCommentTree())
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", s.handleListNotifications(false))
			notifications.GET("/unread", s.handleListNotifications(true))
			notifications.PUT("/:id/read", s.handleMarkAsRead())
			notifications.PATCH("/:id/read", s.handleMarkAsRead())
			notifications.PUT("/read-all", s.handleMarkAllAsRead())
			notifications.PATCH("/read-all", s.handleMarkAllAsRead())
			notifications.PATCH("/mark-all-read", s.handleMarkAllAsRead())
			notifications.DELETE("/:id", s.handleDeleteNotification())
		}
	}

	// リアルタイム配信
	s.router.GET("/ws", wsAuth, s.hub.Handler(realtime.NewUpgrader(s.opts.AllowedOrigins)))

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
}

// requireUser はコンテキストのユーザーIDを返す。無い場合は401を返して false を返す。
func requireUser(c *gin.Context) (string, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
		return "", false
	}
	return userID, true
}

// respondError はドメインエラーをHTTPステータスに変換してレスポンスを返す。
// 想定外のエラーは fallback のメッセージで500を返し、詳細はログに残す。
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidComment),
		errors.Is(err, domain.ErrInvalidParent),
		errors.Is(err, domain.ErrInvalidUser):
		c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "この操作を行う権限がありません"})
	case errors.Is(err, domain.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "コメントが見つかりません"})
	case errors.Is(err, domain.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "通知が見つかりません"})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
		log.Printf("%s: request_id=%s: %v", fallback, middleware.GetRequestID(c), err)
	}
}
