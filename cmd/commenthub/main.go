// commenthubのエントリポイント。
// スレッド形式のコメントを管理し、投稿者・返信先・メンション先へ
// 通知を保存してWebSocketでリアルタイムに配信する。
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/commenthub/internal/comment"
	"github.com/nao1215/commenthub/internal/config"
	"github.com/nao1215/commenthub/internal/fanout"
	"github.com/nao1215/commenthub/internal/postservice"
	"github.com/nao1215/commenthub/internal/realtime"
	"github.com/nao1215/commenthub/internal/server"
	"github.com/nao1215/commenthub/internal/store"
	"github.com/nao1215/commenthub/internal/store/postgres"
	"github.com/nao1215/commenthub/internal/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("ストレージの初期化に失敗: %v", err)
	}
	defer st.Close()

	hub := realtime.NewHub(cfg.Realtime.SendBuffer, cfg.Realtime.PingInterval)
	posts := postservice.New(cfg.PostService.URL, cfg.PostService.Timeout)
	engine := fanout.NewEngine(st, st, posts, st, hub)

	dispatcher := fanout.NewDispatcher(engine, cfg.FanOut.Workers, cfg.FanOut.QueueSize, cfg.FanOut.Timeout)
	dispatcher.Start()

	comments := comment.NewService(st, dispatcher)
	srv := server.NewServer(server.Options{
		JWTSecret:         cfg.Auth.JWTSecret,
		DevAuthEnabled:    cfg.Auth.DevAuthEnabled,
		DevAuthAllowAdmin: cfg.Auth.DevAuthAllowAdmin,
		AllowedOrigins:    cfg.AllowedOrigins,
	}, st, comments, hub)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("commenthubを起動します: %s (storage=%s)", httpServer.Addr, cfg.Storage.Type)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("commenthubの起動に失敗: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("シャットダウンを開始します")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// 新しいコメントの受け付けを止めてから、キューに残った配信を処理する
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTPサーバーの停止に失敗: %v", err)
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Printf("通知配信の停止に失敗: %v", err)
	}

	log.Printf("commenthubを停止しました")
}

// openStore は設定に応じた永続化層を開く。スキーマのマイグレーションも行う。
func openStore(ctx context.Context, cfg config.StorageConfig) (store.Store, error) {
	if cfg.Type == config.StoragePostgres {
		st, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	st, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	return st, nil
}
