// Package storetest は store.Store 実装に共通の振る舞いテストを提供する。
package storetest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/commenthub/internal/domain"
	"github.com/nao1215/commenthub/internal/store"
)

// Factory はテストごとに空のストアを返す。
type Factory func(t *testing.T) store.Store

var base = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newComment(id, postID, authorID string, parentID *string, at time.Time) *domain.Comment {
	return &domain.Comment{
		ID:        id,
		Text:      "text " + id,
		AuthorID:  authorID,
		PostID:    postID,
		ParentID:  parentID,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func newNotification(id, receiver string, typ domain.NotificationType, at time.Time) *domain.Notification {
	return &domain.Notification{
		ID:              id,
		ReceiverUserID:  receiver,
		Type:            typ,
		SourceCommentID: "c-" + id,
		CreatedAt:       at,
	}
}

func ptr(s string) *string { return &s }

// Run は全ての振る舞いテストを実行する。
func Run(t *testing.T, newStore Factory) {
	t.Run("Comments", func(t *testing.T) { testComments(t, newStore) })
	t.Run("Notifications", func(t *testing.T) { testNotifications(t, newStore) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore) })
}

func testComments(t *testing.T, newStore Factory) {
	t.Run("保存したコメントを取得できること", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		want := newComment("c1", "p1", "u1", nil, base.Add(123456789*time.Nanosecond))
		require.NoError(t, s.CreateComment(ctx, want))

		got, err := s.GetComment(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Text, got.Text)
		assert.Equal(t, want.AuthorID, got.AuthorID)
		assert.Equal(t, want.PostID, got.PostID)
		assert.Nil(t, got.ParentID)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	})

	t.Run("返信の親IDが保存されること", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		require.NoError(t, s.CreateComment(ctx, newComment("c1", "p1", "u1", nil, base)))
		require.NoError(t, s.CreateComment(ctx, newComment("c2", "p1", "u2", ptr("c1"), base.Add(time.Second))))

		got, err := s.GetComment(ctx, "c2")
		require.NoError(t, err)
		require.NotNil(t, got.ParentID)
		assert.Equal(t, "c1", *got.ParentID)
	})

	t.Run("存在しないコメントはErrCommentNotFoundになること", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetComment(t.Context(), "missing")
		assert.ErrorIs(t, err, domain.ErrCommentNotFound)
	})

	t.Run("投稿ごとのコメントが作成日時の昇順で返ること", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		require.NoError(t, s.CreateComment(ctx, newComment("c3", "p1", "u1", nil, base.Add(2*time.Second))))
		require.NoError(t, s.CreateComment(ctx, newComment("c1", "p1", "u1", nil, base)))
		require.NoError(t, s.CreateComment(ctx, newComment("c2", "p1", "u1", nil, base.Add(time.Second))))
		require.NoError(t, s.CreateComment(ctx, newComment("other", "p2", "u1", nil, base)))

		got, err := s.ListCommentsByPost(ctx, "p1")
		require.NoError(t, err)
		ids := make([]string, 0, len(got))
		for _, c := range got {
			ids = append(ids, c.ID)
		}
		assert.Equal(t, []string{"c1", "c2", "c3"}, ids)
	})

	t.Run("コメントが無い投稿では空のスライスが返ること", func(t *testing.T) {
		s := newStore(t)
		got, err := s.ListCommentsByPost(t.Context(), "none")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("複数IDでまとめて取得でき、存在しないIDは含まれないこと", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		require.NoError(t, s.CreateComment(ctx, newComment("c1", "p1", "u1", nil, base)))
		require.NoError(t, s.CreateComment(ctx, newComment("c2", "p1", "u1", nil, base)))

		got, err := s.GetCommentsByIDs(ctx, []string{"c1", "c2", "missing"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Contains(t, got, "c1")
		assert.Contains(t, got, "c2")

		empty, err := s.GetCommentsByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("本文と更新日時を更新できること", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		require.NoError(t, s.CreateComment(ctx, newComment("c1", "p1", "u1", nil, base)))
		updated := base.Add(time.Hour)
		require.NoError(t, s.UpdateCommentText(ctx, "c1", "edited", updated))

		got, err := s.GetComment(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "edited", got.Text)
		assert.True(t, updated.Equal(got.UpdatedAt))
		assert.True(t, base.Equal(got.CreatedAt))

		assert.ErrorIs(t, s.UpdateCommentText(ctx, "missing", "x", updated), domain.ErrCommentNotFound)
	})

	t.Run("削除後は取得できず返信は残ること", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		require.NoError(t, s.CreateComment(ctx, newComment("c1", "p1", "u1", nil, base)))
		require.NoError(t, s.CreateComment(ctx, newComment("c2", "p1", "u2", ptr("c1"), base.Add(time.Second))))
		require.NoError(t, s.DeleteComment(ctx, "c1"))

		_, err := s.GetComment(ctx, "c1")
		assert.ErrorIs(t, err, domain.ErrCommentNotFound)
		_, err = s.GetComment(ctx, "c2")
		assert.NoError(t, err)

		assert.ErrorIs(t, s.DeleteComment(ctx, "c1"), domain.ErrCommentNotFound)
	})
}

func testNotifications(t *testing.T, newStore Factory) {
	t.Run("保存した通知を取得できること", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		want := newNotification("n1", "u1", domain.NotificationTypeReply, base)
		require.NoError(t, s.CreateNotification(ctx, want))

		got, err := s.GetNotification(ctx, "n1")
		require.NoError(t, err)
		assert.Equal(t, "u1", got.ReceiverUserID)
		assert.Equal(t, domain.NotificationTypeReply, got.Type)
		assert.Equal(t, "c-n1", got.SourceCommentID)
		assert.False(t, got.Read)
		assert.True(t, base.Equal(got.CreatedAt))
	})

	t.Run("存在しない通知はErrNotificationNotFoundになること", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		_, err := s.GetNotification(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotificationNotFound)
		assert.ErrorIs(t, s.MarkNotificationRead(ctx, "missing"), domain.ErrNotificationNotFound)
		assert.ErrorIs(t, s.DeleteNotification(ctx, "missing"), domain.ErrNotificationNotFound)
	})

	t.Run("受信者の通知が新しい順で返り、他の受信者の通知は含まれないこと", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		require.NoError(t, s.CreateNotification(ctx, newNotification("n1", "u1", domain.NotificationTypeComment, base)))
		require.NoError(t, s.CreateNotification(ctx, newNotification("n2", "u1", domain.NotificationTypeMention, base.Add(time.Second))))
		require.NoError(t, s.CreateNotification(ctx, newNotification("n3", "u2", domain.NotificationTypeReply, base.Add(2*time.Second))))

		got, err := s.ListNotifications(ctx, "u1", false)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "n2", got[0].ID)
		assert.Equal(t, "n1", got[1].ID)
	})

	t.Run("1件を既読にしても他の通知は未読のままであること", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		require.NoError(t, s.CreateNotification(ctx, newNotification("n1", "u1", domain.NotificationTypeComment, base)))
		require.NoError(t, s.CreateNotification(ctx, newNotification("n2", "u1", domain.NotificationTypeReply, base.Add(time.Second))))

		require.NoError(t, s.MarkNotificationRead(ctx, "n1"))

		n1, err := s.GetNotification(ctx, "n1")
		require.NoError(t, err)
		assert.True(t, n1.Read)

		unread, err := s.ListNotifications(ctx, "u1", true)
		require.NoError(t, err)
		require.Len(t, unread, 1)
		assert.Equal(t, "n2", unread[0].ID)
	})

	t.Run("全件既読は呼び出した受信者の通知のみに作用すること", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		require.NoError(t, s.CreateNotification(ctx, newNotification("n1", "u1", domain.NotificationTypeComment, base)))
		require.NoError(t, s.CreateNotification(ctx, newNotification("n2", "u1", domain.NotificationTypeReply, base)))
		require.NoError(t, s.CreateNotification(ctx, newNotification("n3", "u2", domain.NotificationTypeMention, base)))

		n, err := s.MarkAllNotificationsRead(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		unread, err := s.ListNotifications(ctx, "u1", true)
		require.NoError(t, err)
		assert.Empty(t, unread)

		other, err := s.ListNotifications(ctx, "u2", true)
		require.NoError(t, err)
		assert.Len(t, other, 1)

		again, err := s.MarkAllNotificationsRead(ctx, "u1")
		require.NoError(t, err)
		assert.Zero(t, again)
	})

	t.Run("通知を削除できること", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		require.NoError(t, s.CreateNotification(ctx, newNotification("n1", "u1", domain.NotificationTypeComment, base)))
		require.NoError(t, s.DeleteNotification(ctx, "n1"))

		_, err := s.GetNotification(ctx, "n1")
		assert.ErrorIs(t, err, domain.ErrNotificationNotFound)
	})
}

func testUsers(t *testing.T, newStore Factory) {
	t.Run("ユーザーをIDとユーザー名で取得できること", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		require.NoError(t, s.CreateUser(ctx, &domain.User{ID: "u1", Username: "alice", Role: domain.RoleAdmin, CreatedAt: base}))

		byID, err := s.GetUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Username)
		assert.Equal(t, domain.RoleAdmin, byID.Role)

		byName, err := s.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "u1", byName.ID)
	})

	t.Run("ユーザー名の検索は大文字小文字を区別すること", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		require.NoError(t, s.CreateUser(ctx, &domain.User{ID: "u1", Username: "alice", Role: domain.RoleUser, CreatedAt: base}))

		_, err := s.GetUserByUsername(ctx, "Alice")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("重複したユーザー名はErrUsernameTakenになること", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		require.NoError(t, s.CreateUser(ctx, &domain.User{ID: "u1", Username: "alice", Role: domain.RoleUser, CreatedAt: base}))
		err := s.CreateUser(ctx, &domain.User{ID: "u2", Username: "alice", Role: domain.RoleUser, CreatedAt: base})
		assert.ErrorIs(t, err, domain.ErrUsernameTaken)
	})

	t.Run("存在しないユーザーはErrUserNotFoundになること", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetUser(t.Context(), "missing")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("複数IDでまとめて取得できること", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		require.NoError(t, s.CreateUser(ctx, &domain.User{ID: "u1", Username: "alice", Role: domain.RoleUser, CreatedAt: base}))
		require.NoError(t, s.CreateUser(ctx, &domain.User{ID: "u2", Username: "bob", Role: domain.RoleUser, CreatedAt: base}))

		got, err := s.GetUsersByIDs(ctx, []string{"u1", "u2", "u3"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, "bob", got["u2"].Username)
	})
}
