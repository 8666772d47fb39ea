// Package sqlite はSQLite（modernc.org/sqlite）による store.Store の実装を提供する。
//
// スキーマは埋め込みのマイグレーションで管理する。日時はUTCの固定幅文字列で
// 保存するため、文字列の比較順が時刻順と一致する。
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nao1215/commenthub/internal/store"
	"github.com/nao1215/commenthub/pkg/migration"
)

//go:embed migrations/*.sql
var migrations embed.FS

// timeLayout は日時の保存形式。UTCで保存するため末尾は常に "Z" になる。
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store はSQLiteによる永続化の実装。
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open はファイルパスのSQLiteデータベースを開き、マイグレーションを適用する。
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	return open(ctx, dsn, 0)
}

// OpenInMemory はインメモリのSQLiteデータベースを開く。テスト用。
// インメモリDBは接続ごとに別のDBになるため、接続数を1に制限する。
func OpenInMemory(ctx context.Context) (*Store, error) {
	return open(ctx, ":memory:", 1)
}

func open(ctx context.Context, dsn string, maxConns int) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}

	if _, err := migration.Run(ctx, db, migrations, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &Store{db: db}, nil
}

// Close はデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping はデータベースへの疎通を確認する。
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("日時の解析に失敗: %q: %w", s, err)
	}
	return t.UTC(), nil
}

// placeholders は n 個の "?" をカンマ区切りで返す。
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
