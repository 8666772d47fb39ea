package fanout

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/nao1215/commenthub/internal/domain"
)

const (
	// enqueueWait はキューが満杯のときに空きを待つ最大時間。
	enqueueWait = time.Second
	// defaultJobTimeout はタイムアウト未指定時のジョブ処理時間の上限。
	defaultJobTimeout = 10 * time.Second
)

// Handler はキューから取り出したコメントを処理する。
type Handler interface {
	OnCommentCreated(ctx context.Context, c domain.Comment, authorID string) Report
}

// Dispatcher はコメント作成リクエストからファンアウトを切り離して実行する。
// 有界キューと固定数のワーカーで構成され、各ジョブはリクエストとは独立した
// タイムアウト付きコンテキストで処理される。
type Dispatcher struct {
	// handler はジョブの処理を行う。
	handler Handler
	// jobs は処理待ちのコメント。
	jobs chan domain.Comment
	// workers はワーカー数。
	workers int
	// timeout はジョブ1件あたりの処理時間の上限。
	timeout time.Duration

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher は新しいディスパッチャを生成する。Start を呼ぶまでジョブは処理されない。
func NewDispatcher(handler Handler, workers, queueSize int, timeout time.Duration) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	return &Dispatcher{
		handler: handler,
		jobs:    make(chan domain.Comment, queueSize),
		workers: workers,
		timeout: timeout,
	}
}

// Start はワーカーを起動する。
func (d *Dispatcher) Start() {
	log.Printf("[FanOut] ディスパッチャを開始します: workers=%d, queue=%d", d.workers, cap(d.jobs))
	for i := 0; i < d.workers; i++ {
		d.wg.Go(d.work)
	}
}

// Dispatch はコメントをファンアウト待ちキューに積む。
// キューが満杯のまま enqueueWait を過ぎた場合、停止済みの場合は破棄してログに残す。
func (d *Dispatcher) Dispatch(c domain.Comment) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		log.Printf("[FanOut] 停止済みのため破棄: comment_id=%s", c.ID)
		return
	}

	select {
	case d.jobs <- c:
		return
	default:
	}

	timer := time.NewTimer(enqueueWait)
	defer timer.Stop()
	select {
	case d.jobs <- c:
	case <-timer.C:
		log.Printf("[FanOut] キューが満杯のため破棄: comment_id=%s", c.ID)
	}
}

// Stop は新規受付を止め、キューに残ったジョブを処理し終えるまで待つ。
// ctx が先に終了した場合はその時点で ctx.Err() を返す。
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[FanOut] ディスパッチャを停止しました")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	for c := range d.jobs {
		d.handle(c)
	}
}

func (d *Dispatcher) handle(c domain.Comment) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if v := recover(); v != nil {
			log.Printf("[FanOut] ジョブ処理でパニック: comment_id=%s: %v", c.ID, v)
		}
	}()

	r := d.handler.OnCommentCreated(ctx, c, c.AuthorID)
	if r.Failed > 0 {
		log.Printf("[FanOut] 一部の通知に失敗: comment_id=%s, planned=%d, persisted=%d, failed=%d",
			c.ID, r.Planned, r.Persisted, r.Failed)
	}
}
