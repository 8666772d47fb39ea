package comment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/commenthub/internal/domain"
	"github.com/nao1215/commenthub/internal/store"
)

// Dispatcher はコメント作成後の通知配信を受け付ける。
// 配信の成否はコメント作成の結果に影響しない。
type Dispatcher interface {
	Dispatch(c domain.Comment)
}

// Service はコメントのユースケースを提供する。
type Service struct {
	// store はコメントの永続化先。
	store store.CommentStore
	// dispatcher は作成済みコメントの通知配信先。
	dispatcher Dispatcher
	// now は現在時刻を返す。テストで差し替える。
	now func() time.Time
}

// NewService は新しいコメントサービスを生成する。
func NewService(s store.CommentStore, d Dispatcher) *Service {
	return &Service{
		store:      s,
		dispatcher: d,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create はコメントを作成し、通知配信を依頼する。
// 親コメントが指定された場合は、同じ投稿に存在することを確認する。
func (s *Service) Create(ctx context.Context, in domain.NewComment) (*domain.Comment, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := s.store.GetComment(ctx, *in.ParentID)
		if errors.Is(err, domain.ErrCommentNotFound) {
			return nil, fmt.Errorf("%w: %s does not exist", domain.ErrInvalidParent, *in.ParentID)
		}
		if err != nil {
			return nil, fmt.Errorf("親コメントの取得に失敗: %w", err)
		}
		if parent.PostID != in.PostID {
			return nil, fmt.Errorf("%w: %s belongs to another post", domain.ErrInvalidParent, *in.ParentID)
		}
	}

	now := s.now()
	c := &domain.Comment{
		ID:        domain.NewID(),
		Text:      in.Text,
		AuthorID:  in.AuthorID,
		PostID:    in.PostID,
		ParentID:  in.ParentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗: %w", err)
	}

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(*c)
	}
	return c, nil
}

// Edit はコメント本文を更新する。投稿者本人のみ編集できる。
func (s *Service) Edit(ctx context.Context, id, userID, text string) (*domain.Comment, error) {
	if err := domain.ValidateCommentText(text); err != nil {
		return nil, err
	}

	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != userID {
		return nil, domain.ErrForbidden
	}

	c.Text = strings.TrimSpace(text)
	c.UpdatedAt = s.now()
	if err := s.store.UpdateCommentText(ctx, c.ID, c.Text, c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("コメントの更新に失敗: %w", err)
	}
	return c, nil
}

// Delete はコメントを削除する。投稿者本人または管理者のみ削除できる。
// 返信は残り、親を失ったものはツリーに現れなくなる。
func (s *Service) Delete(ctx context.Context, id, userID string, role domain.Role) error {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if c.AuthorID != userID && role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	if err := s.store.DeleteComment(ctx, id); err != nil {
		return fmt.Errorf("コメントの削除に失敗: %w", err)
	}
	return nil
}

// ListByPost は投稿のコメントを作成日時の昇順で返す。
func (s *Service) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	comments, err := s.store.ListCommentsByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗: %w", err)
	}
	return comments, nil
}

// Tree は投稿のコメントを返信ツリーとして返す。
func (s *Service) Tree(ctx context.Context, postID string) ([]*Node, error) {
	comments, err := s.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return Build(comments), nil
}
