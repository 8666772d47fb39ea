package fanout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/commenthub/internal/domain"
	"github.com/nao1215/commenthub/pkg/event"
)

const (
	postAuthor = "u-post-author"
	alice      = "u-alice"
	bob        = "u-bob"
	carol      = "u-carol"
)

func directory() fakeUsers {
	return fakeUsers{
		"alice": {ID: alice, Username: "alice"},
		"bob":   {ID: bob, Username: "bob"},
		"carol": {ID: carol, Username: "carol"},
	}
}

func topLevel(id, author, text string) domain.Comment {
	now := time.Now().UTC()
	return domain.Comment{ID: id, Text: text, AuthorID: author, PostID: "post-1", CreatedAt: now, UpdatedAt: now}
}

func reply(id, parent, author, text string) domain.Comment {
	c := topLevel(id, author, text)
	c.ParentID = &parent
	return c
}

func countType(rs []Recipient, typ domain.NotificationType) int {
	n := 0
	for _, r := range rs {
		if r.Type == typ {
			n++
		}
	}
	return n
}

func TestPlan_PostAuthorNotification(t *testing.T) {
	t.Parallel()

	e := NewEngine(fakeComments{}, directory(), fakePosts{author: postAuthor}, &memNotifications{}, nil)

	t.Run("他人のトップレベルコメントは投稿者に1件通知すること", func(t *testing.T) {
		t.Parallel()
		rs := e.Plan(context.Background(), topLevel("c1", bob, "nice post"), bob)
		assert.Equal(t, []Recipient{{UserID: postAuthor, Type: domain.NotificationTypeComment}}, rs)
	})

	t.Run("投稿者自身のトップレベルコメントは自分に通知しないこと", func(t *testing.T) {
		t.Parallel()
		rs := e.Plan(context.Background(), topLevel("c2", postAuthor, "thanks all"), postAuthor)
		assert.Zero(t, countType(rs, domain.NotificationTypeComment))
		assert.Empty(t, rs)
	})

	t.Run("返信は投稿者に通知しないこと", func(t *testing.T) {
		t.Parallel()
		parents := fakeComments{"p": topLevel("p", alice, "root")}
		e := NewEngine(parents, directory(), fakePosts{author: postAuthor}, &memNotifications{}, nil)
		rs := e.Plan(context.Background(), reply("c3", "p", bob, "agreed"), bob)
		assert.Zero(t, countType(rs, domain.NotificationTypeComment))
	})
}

func TestPlan_ParentAuthorNotification(t *testing.T) {
	t.Parallel()

	parents := fakeComments{"p": topLevel("p", alice, "root")}
	e := NewEngine(parents, directory(), fakePosts{author: postAuthor}, &memNotifications{}, nil)

	t.Run("他人の返信は親コメントの投稿者に通知すること", func(t *testing.T) {
		t.Parallel()
		rs := e.Plan(context.Background(), reply("c1", "p", bob, "+1"), bob)
		assert.Equal(t, []Recipient{{UserID: alice, Type: domain.NotificationTypeReply}}, rs)
	})

	t.Run("親コメントの投稿者自身の返信は自分に通知しないこと", func(t *testing.T) {
		t.Parallel()
		rs := e.Plan(context.Background(), reply("c2", "p", alice, "edit: typo"), alice)
		assert.Zero(t, countType(rs, domain.NotificationTypeReply))
	})

	t.Run("存在しない親コメントは黙ってスキップすること", func(t *testing.T) {
		t.Parallel()
		rs := e.Plan(context.Background(), reply("c3", "gone", bob, "hello?"), bob)
		assert.Empty(t, rs)
	})
}

func TestPlan_MentionNotifications(t *testing.T) {
	t.Parallel()

	e := NewEngine(fakeComments{}, directory(), fakePosts{author: postAuthor}, &memNotifications{}, nil)

	t.Run("解決できるユーザー名ごとに1件ずつ通知すること", func(t *testing.T) {
		t.Parallel()
		rs := e.Plan(context.Background(), topLevel("c1", carol, "hello @alice and @bob, @alice again"), carol)
		assert.ElementsMatch(t, []Recipient{
			{UserID: postAuthor, Type: domain.NotificationTypeComment},
			{UserID: alice, Type: domain.NotificationTypeMention},
			{UserID: bob, Type: domain.NotificationTypeMention},
		}, rs)
	})

	t.Run("未登録のユーザー名は無視すること", func(t *testing.T) {
		t.Parallel()
		rs := e.Plan(context.Background(), topLevel("c2", postAuthor, "ping @nobody"), postAuthor)
		assert.Empty(t, rs)
	})

	t.Run("自分自身へのメンションは通知しないこと", func(t *testing.T) {
		t.Parallel()
		rs := e.Plan(context.Background(), topLevel("c3", alice, "@alice note to self"), alice)
		assert.Zero(t, countType(rs, domain.NotificationTypeMention))
	})

	t.Run("ユーザー名の大文字と小文字を区別すること", func(t *testing.T) {
		t.Parallel()
		rs := e.Plan(context.Background(), topLevel("c4", postAuthor, "@Alice"), postAuthor)
		assert.Empty(t, rs)
	})
}

func TestPlan_RulesAreIndependent(t *testing.T) {
	t.Parallel()

	e := NewEngine(fakeComments{}, directory(), fakePosts{err: errors.New("post service down")}, &memNotifications{}, nil)

	rs := e.Plan(context.Background(), topLevel("c1", carol, "@bob look"), carol)

	assert.Equal(t, []Recipient{{UserID: bob, Type: domain.NotificationTypeMention}}, rs)
}

func TestPlan_SameUserCanReceiveDifferentTypes(t *testing.T) {
	t.Parallel()

	parents := fakeComments{"p": topLevel("p", alice, "root")}
	e := NewEngine(parents, directory(), fakePosts{author: postAuthor}, &memNotifications{}, nil)

	rs := e.Plan(context.Background(), reply("c1", "p", bob, "@alice see above"), bob)

	assert.ElementsMatch(t, []Recipient{
		{UserID: alice, Type: domain.NotificationTypeReply},
		{UserID: alice, Type: domain.NotificationTypeMention},
	}, rs)
}

func TestOnCommentCreated_PersistsAndPushes(t *testing.T) {
	t.Parallel()

	store := &memNotifications{}
	pub := &recPublisher{online: map[string]bool{alice: true}}
	e := NewEngine(fakeComments{}, directory(), fakePosts{author: postAuthor}, store, pub)

	c := topLevel("c1", carol, "@alice @bob")
	report := e.OnCommentCreated(context.Background(), c, carol)

	assert.Equal(t, Report{Planned: 3, Persisted: 3, Pushed: 1, Failed: 0}, report)

	saved := store.all()
	require.Len(t, saved, 3)
	for _, n := range saved {
		assert.NotEmpty(t, n.ID)
		assert.Equal(t, "c1", n.SourceCommentID)
		assert.False(t, n.Read)
		assert.False(t, n.CreatedAt.IsZero())
	}

	sent := pub.all()
	require.Len(t, sent, 1)
	assert.Equal(t, alice, sent[0].userID)
	assert.Equal(t, event.TypeNotificationCreated, sent[0].ev.EventType)

	data, err := event.DecodeData[event.NotificationCreatedData](sent[0].ev)
	require.NoError(t, err)
	assert.Equal(t, alice, data.ReceiverUserID)
	assert.Equal(t, "mention", data.Type)
	assert.Equal(t, "c1", data.SourceCommentID)
}

func TestDeliver_IsolatesPerRecipientFailures(t *testing.T) {
	t.Parallel()

	w := &mockWriter{}
	w.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.ReceiverUserID == bob
	})).Return(errors.New("disk full"))
	w.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.ReceiverUserID != bob
	})).Return(nil)

	pub := &recPublisher{online: map[string]bool{alice: true, bob: true, postAuthor: true}}
	e := NewEngine(fakeComments{}, directory(), fakePosts{author: postAuthor}, w, pub)

	report := e.OnCommentCreated(context.Background(), topLevel("c1", carol, "@alice @bob"), carol)

	assert.Equal(t, 3, report.Planned)
	assert.Equal(t, 2, report.Persisted)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Pushed)
	w.AssertNumberOfCalls(t, "CreateNotification", 3)

	for _, p := range pub.all() {
		assert.NotEqual(t, bob, p.userID, "保存に失敗した通知は配信してはならない")
	}
}

func TestDeliver_NoRecipients(t *testing.T) {
	t.Parallel()

	e := NewEngine(fakeComments{}, directory(), fakePosts{author: postAuthor}, &memNotifications{}, nil)

	assert.Equal(t, Report{}, e.Deliver(context.Background(), topLevel("c1", postAuthor, "hi"), nil))
}

func TestNotificationEvent(t *testing.T) {
	t.Parallel()

	n := &domain.Notification{
		ID:              "n1",
		ReceiverUserID:  alice,
		Type:            domain.NotificationTypeReply,
		SourceCommentID: "c1",
		CreatedAt:       time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	ev, err := NotificationEvent(n)
	require.NoError(t, err)
	assert.Equal(t, "n1", ev.AggregateID)
	assert.Equal(t, event.AggregateTypeNotification, ev.AggregateType)

	data, err := event.DecodeData[event.NotificationCreatedData](ev)
	require.NoError(t, err)
	assert.Equal(t, "reply", data.Type)
	assert.True(t, data.CreatedAt.Equal(n.CreatedAt))
}
