package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/commenthub/internal/domain"
	"github.com/nao1215/commenthub/internal/loader"
)

// notificationResponse は通知のJSON構造。元コメントが残っている場合は埋め込む。
type notificationResponse struct {
	domain.Notification
	// SourceComment は通知のきっかけとなったコメント。削除済みの場合は省略する。
	SourceComment *domain.Comment `json:"sourceComment,omitempty"`
}

// handleListNotifications は認証済みユーザーの通知を新しい順で返すハンドラ。
func (s *Server) handleListNotifications(unreadOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		notifications, err := s.store.ListNotifications(ctx, userID, unreadOnly)
		if err != nil {
			respondError(c, err, "通知一覧の取得に失敗しました")
			return
		}

		ids := make([]string, 0, len(notifications))
		for _, n := range notifications {
			ids = append(ids, n.SourceCommentID)
		}
		l := loader.For(ctx)
		if l == nil {
			l = loader.New(s.store)
		}
		sources, err := l.Comments(ctx, ids)
		if err != nil {
			respondError(c, err, "通知元コメントの取得に失敗しました")
			return
		}

		resp := make([]notificationResponse, 0, len(notifications))
		for _, n := range notifications {
			r := notificationResponse{Notification: n}
			if src, ok := sources[n.SourceCommentID]; ok {
				r.SourceComment = &src
			}
			resp = append(resp, r)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ownedNotification は通知を取得し、呼び出したユーザーが受信者であることを確認する。
func (s *Server) ownedNotification(c *gin.Context, userID string) (*domain.Notification, bool) {
	n, err := s.store.GetNotification(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "通知の取得に失敗しました")
		return nil, false
	}
	if n.ReceiverUserID != userID {
		respondError(c, domain.ErrForbidden, "")
		return nil, false
	}
	return n, true
}

// handleMarkAsRead は指定された通知を既読にするハンドラ。
func (s *Server) handleMarkAsRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		n, ok := s.ownedNotification(c, userID)
		if !ok {
			return
		}

		if err := s.store.MarkNotificationRead(c.Request.Context(), n.ID); err != nil {
			respondError(c, err, "通知の既読処理に失敗しました")
			return
		}
		n.Read = true
		c.JSON(http.StatusOK, n)
	}
}

// handleMarkAllAsRead は認証済みユーザーの全通知を既読にするハンドラ。
func (s *Server) handleMarkAllAsRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		count, err := s.store.MarkAllNotificationsRead(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err, "全通知の既読処理に失敗しました")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "全通知を既読にしました", "count": count})
	}
}

// handleDeleteNotification は指定された通知を削除するハンドラ。
func (s *Server) handleDeleteNotification() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		n, ok := s.ownedNotification(c, userID)
		if !ok {
			return
		}

		if err := s.store.DeleteNotification(c.Request.Context(), n.ID); err != nil {
			respondError(c, err, "通知の削除に失敗しました")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "通知を削除しました"})
	}
}
