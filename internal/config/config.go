// Package config は環境変数と .env ファイルから設定を読み込む。
//
// 優先順位: 環境変数 > .env ファイル > デフォルト値。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ストレージの種類。
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config はアプリケーション全体の設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// Storage は永続化層の設定。
	Storage StorageConfig
	// Auth は認証の設定。
	Auth AuthConfig
	// PostService は投稿者解決に使うポストサービスの設定。
	PostService PostServiceConfig
	// AllowedOrigins はCORSとWebSocketで許可するオリジン。
	AllowedOrigins []string
	// FanOut は通知配信ワーカーの設定。
	FanOut FanOutConfig
	// Realtime はWebSocket配信の設定。
	Realtime RealtimeConfig
	// ShutdownTimeout はグレースフルシャットダウンの待ち時間。
	ShutdownTimeout time.Duration
}

// StorageConfig は永続化層の設定。
type StorageConfig struct {
	// Type は "sqlite" または "postgres"。
	Type string
	// SQLitePath はSQLiteのデータベースファイル。
	SQLitePath string
	// DatabaseURL はPostgreSQLの接続文字列。
	DatabaseURL string
}

// AuthConfig は認証の設定。
type AuthConfig struct {
	// JWTSecret はHS256署名の共有シークレット。
	JWTSecret string
	// DevAuthEnabled は開発用トークン発行エンドポイントを公開するかどうか。
	DevAuthEnabled bool
	// DevAuthAllowAdmin は開発用トークン発行で admin 権限を許可するかどうか。
	DevAuthAllowAdmin bool
}

// PostServiceConfig はポストサービスの設定。
type PostServiceConfig struct {
	// URL はポストサービスのベースURL。
	URL string
	// Timeout は1回の問い合わせのタイムアウト。
	Timeout time.Duration
}

// FanOutConfig は通知配信ワーカーの設定。
type FanOutConfig struct {
	// Workers はワーカー数。
	Workers int
	// QueueSize はキューの容量。
	QueueSize int
	// Timeout は1件のコメントの配信処理に許す時間。
	Timeout time.Duration
}

// RealtimeConfig はWebSocket配信の設定。
type RealtimeConfig struct {
	// SendBuffer は接続ごとの送信バッファ。
	SendBuffer int
	// PingInterval はキープアライブのPing間隔。
	PingInterval time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORAGE_TYPE", StorageSQLite)
	v.SetDefault("SQLITE_PATH", "/data/commenthub.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "dev-secret-key")
	v.SetDefault("DEV_AUTH_ENABLED", true)
	v.SetDefault("DEV_AUTH_ALLOW_ADMIN", false)
	v.SetDefault("POST_SERVICE_URL", "")
	v.SetDefault("POST_SERVICE_TIMEOUT", "5s")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("FANOUT_WORKERS", 4)
	v.SetDefault("FANOUT_QUEUE_SIZE", 256)
	v.SetDefault("FANOUT_TIMEOUT", "10s")
	v.SetDefault("REALTIME_SEND_BUFFER", 16)
	v.SetDefault("REALTIME_PING_INTERVAL", "30s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
}

// Load は .env ファイル（存在する場合）と環境変数から設定を読み込む。
func Load() (*Config, error) {
	// .env が無いのは正常
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper はviperの値から設定を組み立てて検証する。
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	cfg := &Config{
		Port: v.GetString("PORT"),
		Storage: StorageConfig{
			Type:        strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_TYPE"))),
			SQLitePath:  v.GetString("SQLITE_PATH"),
			DatabaseURL: v.GetString("DATABASE_URL"),
		},
		Auth: AuthConfig{
			JWTSecret:         v.GetString("JWT_SECRET"),
			DevAuthEnabled:    v.GetBool("DEV_AUTH_ENABLED"),
			DevAuthAllowAdmin: v.GetBool("DEV_AUTH_ALLOW_ADMIN"),
		},
		PostService: PostServiceConfig{
			URL:     strings.TrimSpace(v.GetString("POST_SERVICE_URL")),
			Timeout: v.GetDuration("POST_SERVICE_TIMEOUT"),
		},
		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		FanOut: FanOutConfig{
			Workers:   v.GetInt("FANOUT_WORKERS"),
			QueueSize: v.GetInt("FANOUT_QUEUE_SIZE"),
			Timeout:   v.GetDuration("FANOUT_TIMEOUT"),
		},
		Realtime: RealtimeConfig{
			SendBuffer:   v.GetInt("REALTIME_SEND_BUFFER"),
			PingInterval: v.GetDuration("REALTIME_PING_INTERVAL"),
		},
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定の整合性を検証する。
func (c *Config) Validate() error {
	var errs []error
	if c.PostService.URL == "" {
		errs = append(errs, errors.New("POST_SERVICE_URL が設定されていません"))
	}
	switch c.Storage.Type {
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH が設定されていません"))
		}
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("STORAGE_TYPE=postgres には DATABASE_URL が必要です"))
		}
	default:
		errs = append(errs, fmt.Errorf("不明な STORAGE_TYPE です: %q", c.Storage.Type))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET が設定されていません"))
	}
	if c.FanOut.Workers < 1 {
		errs = append(errs, fmt.Errorf("FANOUT_WORKERS は1以上である必要があります: %d", c.FanOut.Workers))
	}
	if c.FanOut.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("FANOUT_QUEUE_SIZE は1以上である必要があります: %d", c.FanOut.QueueSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("設定が不正です: %w", errors.Join(errs...))
	}
	return nil
}

// Addr はHTTPサーバーのリッスンアドレスを返す。
func (c *Config) Addr() string {
	return ":" + c.Port
}

// splitList はカンマ区切りの文字列を空要素を除いて分割する。
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
