package fanout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/commenthub/internal/domain"
	"github.com/nao1215/commenthub/pkg/event"
)

// CommentLookup は親コメントの取得に使う。
type CommentLookup interface {
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
}

// UserDirectory はメンションのユーザー名をユーザーに解決する。
type UserDirectory interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// PostAuthorResolver は投稿IDから投稿者のユーザーIDを解決する。
// 投稿は外部サービスが管理しているため、実装は外部呼び出しになる。
type PostAuthorResolver interface {
	PostAuthor(ctx context.Context, postID string) (string, error)
}

// NotificationWriter は通知レコードを保存する。
type NotificationWriter interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
}

// Publisher はユーザーIDをキーとしたチャネルへイベントを配信する。
// 配信はベストエフォートで、オンラインの接続に届けた場合のみ true を返す。
type Publisher interface {
	Publish(userID string, e *event.Event) bool
}

// Recipient は通知先の受信者と通知種別の組。
type Recipient struct {
	// UserID は通知先のユーザーID。
	UserID string
	// Type は通知の種類。
	Type domain.NotificationType
}

// Report はファンアウト1回分の結果。
type Report struct {
	// Planned は決定した通知先の数。
	Planned int
	// Persisted は保存に成功した通知の数。
	Persisted int
	// Pushed はオンラインの接続へ配信できた通知の数。
	Pushed int
	// Failed は保存に失敗した通知の数。
	Failed int
}

// Engine は通知先の決定と、受信者ごとの保存・配信を行う。
type Engine struct {
	comments      CommentLookup
	users         UserDirectory
	posts         PostAuthorResolver
	notifications NotificationWriter
	publisher     Publisher
	now           func() time.Time
}

// NewEngine は新しいファンアウトエンジンを生成する。
// publisher が nil の場合はリアルタイム配信を行わない。
func NewEngine(
	comments CommentLookup,
	users UserDirectory,
	posts PostAuthorResolver,
	notifications NotificationWriter,
	publisher Publisher,
) *Engine {
	return &Engine{
		comments:      comments,
		users:         users,
		posts:         posts,
		notifications: notifications,
		publisher:     publisher,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// OnCommentCreated は作成されたコメントに対して通知先を決定し、配信する。
func (e *Engine) OnCommentCreated(ctx context.Context, c domain.Comment, authorID string) Report {
	return e.Deliver(ctx, c, e.Plan(ctx, c, authorID))
}

// Plan はコメントの通知先を決定する。
// 各規則は独立して評価され、ある規則の参照エラーは他の規則に影響しない。
func (e *Engine) Plan(ctx context.Context, c domain.Comment, authorID string) []Recipient {
	mentions := ExtractMentions(c.Text)

	var recipients []Recipient

	if c.IsTopLevel() {
		if r, ok := e.postAuthorRecipient(ctx, c, authorID); ok {
			recipients = append(recipients, r)
		}
	} else {
		if r, ok := e.parentAuthorRecipient(ctx, c, authorID); ok {
			recipients = append(recipients, r)
		}
	}

	for _, handle := range mentions {
		if r, ok := e.mentionRecipient(ctx, handle, authorID); ok {
			recipients = append(recipients, r)
		}
	}
	return recipients
}

func (e *Engine) postAuthorRecipient(ctx context.Context, c domain.Comment, authorID string) (Recipient, bool) {
	if e.posts == nil {
		return Recipient{}, false
	}
	postAuthor, err := e.posts.PostAuthor(ctx, c.PostID)
	if errors.Is(err, domain.ErrPostNotFound) {
		return Recipient{}, false
	}
	if err != nil {
		log.Printf("[FanOut] 投稿者の解決に失敗: post_id=%s, comment_id=%s: %v", c.PostID, c.ID, err)
		return Recipient{}, false
	}
	if postAuthor == "" || postAuthor == authorID {
		return Recipient{}, false
	}
	return Recipient{UserID: postAuthor, Type: domain.NotificationTypeComment}, true
}

func (e *Engine) parentAuthorRecipient(ctx context.Context, c domain.Comment, authorID string) (Recipient, bool) {
	parent, err := e.comments.GetComment(ctx, *c.ParentID)
	if errors.Is(err, domain.ErrCommentNotFound) {
		return Recipient{}, false
	}
	if err != nil {
		log.Printf("[FanOut] 親コメントの取得に失敗: parent_id=%s, comment_id=%s: %v", *c.ParentID, c.ID, err)
		return Recipient{}, false
	}
	if parent.AuthorID == authorID {
		return Recipient{}, false
	}
	return Recipient{UserID: parent.AuthorID, Type: domain.NotificationTypeReply}, true
}

func (e *Engine) mentionRecipient(ctx context.Context, handle, authorID string) (Recipient, bool) {
	user, err := e.users.GetUserByUsername(ctx, handle)
	if errors.Is(err, domain.ErrUserNotFound) {
		return Recipient{}, false
	}
	if err != nil {
		log.Printf("[FanOut] メンション先の解決に失敗: username=%s: %v", handle, err)
		return Recipient{}, false
	}
	if user.ID == authorID {
		return Recipient{}, false
	}
	return Recipient{UserID: user.ID, Type: domain.NotificationTypeMention}, true
}

// Deliver は受信者ごとに通知を保存し、リアルタイム配信を試みる。
// 受信者ごとの処理は並行に実行され、失敗はログに記録して集計のみ行う。
func (e *Engine) Deliver(ctx context.Context, c domain.Comment, recipients []Recipient) Report {
	var (
		wg        sync.WaitGroup
		persisted atomic.Int64
		pushed    atomic.Int64
		failed    atomic.Int64
	)

	for _, r := range recipients {
		wg.Go(func() {
			defer func() {
				if v := recover(); v != nil {
					failed.Add(1)
					log.Printf("[FanOut] 通知処理でパニック: receiver=%s, type=%s: %v", r.UserID, r.Type, v)
				}
			}()

			n, err := e.persist(ctx, c, r)
			if err != nil {
				failed.Add(1)
				log.Printf("[FanOut] 通知の保存に失敗: receiver=%s, type=%s, comment_id=%s: %v", r.UserID, r.Type, c.ID, err)
				return
			}
			persisted.Add(1)

			if e.push(n) {
				pushed.Add(1)
			}
		})
	}
	wg.Wait()

	return Report{
		Planned:   len(recipients),
		Persisted: int(persisted.Load()),
		Pushed:    int(pushed.Load()),
		Failed:    int(failed.Load()),
	}
}

func (e *Engine) persist(ctx context.Context, c domain.Comment, r Recipient) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:              domain.NewID(),
		ReceiverUserID:  r.UserID,
		Type:            r.Type,
		SourceCommentID: c.ID,
		Read:            false,
		CreatedAt:       e.now(),
	}
	if err := e.notifications.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("通知の作成に失敗: %w", err)
	}
	return n, nil
}

// push は保存済みの通知を受信者のチャネルへ配信する。未接続は失敗ではない。
func (e *Engine) push(n *domain.Notification) bool {
	if e.publisher == nil {
		return false
	}
	ev, err := NotificationEvent(n)
	if err != nil {
		log.Printf("[FanOut] 配信イベントの生成に失敗: notification_id=%s: %v", n.ID, err)
		return false
	}
	return e.publisher.Publish(n.ReceiverUserID, ev)
}

// NotificationEvent は通知レコードをリアルタイム配信用のイベントに変換する。
func NotificationEvent(n *domain.Notification) (*event.Event, error) {
	return event.New(n.ID, event.AggregateTypeNotification, event.TypeNotificationCreated, event.NotificationCreatedData{
		ID:              n.ID,
		ReceiverUserID:  n.ReceiverUserID,
		Type:            string(n.Type),
		SourceCommentID: n.SourceCommentID,
		Read:            n.Read,
		CreatedAt:       n.CreatedAt,
	})
}
