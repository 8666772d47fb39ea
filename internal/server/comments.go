package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/commenthub/internal/comment"
	"github.com/nao1215/commenthub/internal/domain"
	"github.com/nao1215/commenthub/internal/loader"
	"github.com/nao1215/commenthub/pkg/middleware"
)

// createCommentRequest はコメント作成リクエストのJSON構造。
type createCommentRequest struct {
	// Text はコメント本文。
	Text string `json:"text"`
	// PostID はコメント先の投稿ID。
	PostID string `json:"postId"`
	// ParentCommentID は返信先コメントのID。トップレベルの場合は省略する。
	ParentCommentID *string `json:"parentCommentId"`
}

// editCommentRequest はコメント編集リクエストのJSON構造。
type editCommentRequest struct {
	// Text は新しいコメント本文。
	Text string `json:"text"`
}

// authorResponse はツリー表示でコメントに付与する投稿者情報。
type authorResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// treeNodeResponse はコメントツリーの1ノードのJSON構造。
type treeNodeResponse struct {
	domain.Comment
	// Author は投稿者。ユーザーディレクトリに無い場合は null。
	Author *authorResponse `json:"author"`
	// Replies は返信。作成日時の昇順。
	Replies []*treeNodeResponse `json:"replies"`
}

// handleCreateComment はコメントを作成するハンドラ。
// 通知の配信はバックグラウンドで行われ、レスポンスはその結果を待たない。
func (s *Server) handleCreateComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req createCommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}

		created, err := s.comments.Create(c.Request.Context(), domain.NewComment{
			Text:     req.Text,
			AuthorID: userID,
			PostID:   req.PostID,
			ParentID: req.ParentCommentID,
		})
		if err != nil {
			respondError(c, err, "コメントの作成に失敗しました")
			return
		}

		c.JSON(http.StatusCreated, created)
	}
}

// handleListComments は投稿のコメントを作成日時の昇順でフラットに返すハンドラ。
func (s *Server) handleListComments() gin.HandlerFunc {
	return func(c *gin.Context) {
		comments, err := s.comments.ListByPost(c.Request.Context(), c.Param("postId"))
		if err != nil {
			respondError(c, err, "コメント一覧の取得に失敗しました")
			return
		}
		c.JSON(http.StatusOK, comments)
	}
}

// handleCommentTree は投稿のコメントを返信ツリーとして返すハンドラ。
// 各ノードの投稿者はデータローダーで一括取得する。
func (s *Server) handleCommentTree() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		tree, err := s.comments.Tree(ctx, c.Param("postId"))
		if err != nil {
			respondError(c, err, "コメントツリーの取得に失敗しました")
			return
		}

		l := loader.For(ctx)
		if l == nil {
			l = loader.New(s.store)
		}
		authors, err := l.Users(ctx, collectAuthorIDs(tree, nil))
		if err != nil {
			respondError(c, err, "投稿者の取得に失敗しました")
			return
		}

		c.JSON(http.StatusOK, toTreeResponse(tree, authors))
	}
}

// collectAuthorIDs はツリー内の投稿者IDを深さ優先で集める。
func collectAuthorIDs(nodes []*comment.Node, ids []string) []string {
	for _, n := range nodes {
		ids = append(ids, n.AuthorID)
		ids = collectAuthorIDs(n.Replies, ids)
	}
	return ids
}

func toTreeResponse(nodes []*comment.Node, authors map[string]domain.User) []*treeNodeResponse {
	out := make([]*treeNodeResponse, 0, len(nodes))
	for _, n := range nodes {
		node := &treeNodeResponse{
			Comment: n.Comment,
			Replies: toTreeResponse(n.Replies, authors),
		}
		if u, ok := authors[n.AuthorID]; ok {
			node.Author = &authorResponse{ID: u.ID, Username: u.Username}
		}
		out = append(out, node)
	}
	return out
}

// handleEditComment はコメント本文を更新するハンドラ。投稿者本人のみ。
func (s *Server) handleEditComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req editCommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}

		edited, err := s.comments.Edit(c.Request.Context(), c.Param("id"), userID, req.Text)
		if err != nil {
			respondError(c, err, "コメントの更新に失敗しました")
			return
		}
		c.JSON(http.StatusOK, edited)
	}
}

// handleDeleteComment はコメントを削除するハンドラ。投稿者本人または管理者のみ。
func (s *Server) handleDeleteComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		role := domain.Role(middleware.GetRole(c))
		if err := s.comments.Delete(c.Request.Context(), c.Param("id"), userID, role); err != nil {
			respondError(c, err, "コメントの削除に失敗しました")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "コメントを削除しました"})
	}
}
