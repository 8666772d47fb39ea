package server

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/commenthub/internal/domain"
	"github.com/nao1215/commenthub/pkg/middleware"
)

// devTokenRequest は開発用トークン発行リクエストのJSON構造。
type devTokenRequest struct {
	// Username はメンションで使われるユーザー名。
	Username string `json:"username" binding:"required"`
	// Role は新規作成時の権限。省略時は "user"。
	Role string `json:"role"`
}

// handleDevToken は開発用JWTトークンを発行するハンドラを返す。
// ユーザー名に対応するユーザーが無ければ作成し、あればそのユーザーで発行する。
// admin 権限のトークンは DevAuthAllowAdmin が有効な場合のみ発行する。
// 本番環境では DEV_AUTH_ENABLED=false で無効化すること。
func (s *Server) handleDevToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req devTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}

		in := domain.NewUser{Username: strings.TrimSpace(req.Username), Role: domain.Role(req.Role)}
		if err := in.Validate(); err != nil {
			respondError(c, err, "")
			return
		}
		if in.Role == domain.RoleAdmin && !s.opts.DevAuthAllowAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "開発用トークンでは admin 権限を発行できません"})
			return
		}

		user, err := s.findOrCreateUser(c, in)
		if err != nil {
			respondError(c, err, "ユーザーの作成に失敗しました")
			return
		}
		// 既存の管理者のユーザー名を指定された場合も同様に拒否する
		if user.Role == domain.RoleAdmin && !s.opts.DevAuthAllowAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "開発用トークンでは admin 権限を発行できません"})
			return
		}

		token, err := middleware.GenerateJWT(s.opts.JWTSecret, user.ID, user.Username, string(user.Role))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークン生成に失敗しました"})
			log.Printf("JWT生成エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  user,
		})
	}
}

// findOrCreateUser はユーザー名でユーザーを検索し、無ければ作成する。
// 同時に作成された場合は先に作成されたユーザーを返す。
func (s *Server) findOrCreateUser(c *gin.Context, in domain.NewUser) (*domain.User, error) {
	ctx := c.Request.Context()

	user, err := s.store.GetUserByUsername(ctx, in.Username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	user = &domain.User{
		ID:        domain.NewID(),
		Username:  in.Username,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	err = s.store.CreateUser(ctx, user)
	if errors.Is(err, domain.ErrUsernameTaken) {
		return s.store.GetUserByUsername(ctx, in.Username)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("開発ユーザーを作成しました: user_id=%s, username=%s", user.ID, user.Username)
	return user, nil
}

// handleMe は認証済みユーザーの情報を返すハンドラを返す。
func (s *Server) handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		user, err := s.store.GetUser(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err, "ユーザーの取得に失敗しました")
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
