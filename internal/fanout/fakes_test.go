package fanout

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/nao1215/commenthub/internal/domain"
	"github.com/nao1215/commenthub/pkg/event"
)

type fakeComments map[string]domain.Comment

func (f fakeComments) GetComment(_ context.Context, id string) (*domain.Comment, error) {
	c, ok := f[id]
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	return &c, nil
}

// fakeUsers はユーザー名をキーにしたディレクトリ。
type fakeUsers map[string]domain.User

func (f fakeUsers) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := f[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

type fakePosts struct {
	author string
	err    error
}

func (f fakePosts) PostAuthor(context.Context, string) (string, error) {
	return f.author, f.err
}

type memNotifications struct {
	mu    sync.Mutex
	items []domain.Notification
}

func (m *memNotifications) CreateNotification(_ context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, *n)
	return nil
}

func (m *memNotifications) all() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Notification, len(m.items))
	copy(out, m.items)
	return out
}

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) CreateNotification(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type published struct {
	userID string
	ev     *event.Event
}

type recPublisher struct {
	mu     sync.Mutex
	online map[string]bool
	sent   []published
}

func (p *recPublisher) Publish(userID string, e *event.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.online[userID] {
		return false
	}
	p.sent = append(p.sent, published{userID: userID, ev: e})
	return true
}

func (p *recPublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]published, len(p.sent))
	copy(out, p.sent)
	return out
}
