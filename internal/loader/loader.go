// Package loader はリクエスト単位のデータローダーを提供する。
//
// ツリー表示のコメント投稿者や通知の元コメントのように、同じ種類のレコードを
// IDで多数参照する読み取り処理を、1回の一括取得にまとめる。
// ローダーのキャッシュはリクエストごとに作り直すため、更新が他のリクエストへ漏れることはない。
package loader

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader"

	"github.com/nao1215/commenthub/internal/domain"
)

type contextKey string

const key = contextKey("dataloaders")

// batchWait は一括取得を開始するまでの待ち時間。
const batchWait = time.Millisecond

// Source はローダーが一括取得に使う永続化層。
type Source interface {
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]domain.User, error)
	GetCommentsByIDs(ctx context.Context, ids []string) (map[string]domain.Comment, error)
}

// Loaders はリクエスト内で共有されるデータローダーの集合。
type Loaders struct {
	// UserByID はユーザーIDからユーザーを取得する。
	UserByID *dataloader.Loader
	// CommentByID はコメントIDからコメントを取得する。
	CommentByID *dataloader.Loader
}

// New は新しいローダーの集合を生成する。
func New(src Source) *Loaders {
	return &Loaders{
		UserByID:    dataloader.NewBatchedLoader(batchFunc(src.GetUsersByIDs), dataloader.WithWait(batchWait)),
		CommentByID: dataloader.NewBatchedLoader(batchFunc(src.GetCommentsByIDs), dataloader.WithWait(batchWait)),
	}
}

// batchFunc は一括取得関数をデータローダーのバッチ関数に変換する。
// 結果はキーと同じ順序で返し、存在しないキーは Data が nil になる。
func batchFunc[T any](fetch func(ctx context.Context, ids []string) (map[string]T, error)) dataloader.BatchFunc {
	return func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := keys.Keys()
		results := make([]*dataloader.Result, len(keys))

		found, err := fetch(ctx, ids)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		for i, id := range ids {
			if v, ok := found[id]; ok {
				results[i] = &dataloader.Result{Data: v}
			} else {
				results[i] = &dataloader.Result{}
			}
		}
		return results
	}
}

// Middleware はリクエストのコンテキストにローダーを設定するGinミドルウェアを返す。
func Middleware(src Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), key, New(src))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// For はコンテキストからローダーを取り出す。設定されていない場合は nil。
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(key).(*Loaders)
	return l
}

// Users はIDに対応するユーザーを返す。存在しないIDは結果に含まれない。
func (l *Loaders) Users(ctx context.Context, ids []string) (map[string]domain.User, error) {
	return loadAll[domain.User](ctx, l.UserByID, ids)
}

// Comments はIDに対応するコメントを返す。存在しないIDは結果に含まれない。
func (l *Loaders) Comments(ctx context.Context, ids []string) (map[string]domain.Comment, error) {
	return loadAll[domain.Comment](ctx, l.CommentByID, ids)
}

// loadAll は全てのキーを待ち時間内に登録してから結果を待つため、1回の一括取得にまとまる。
func loadAll[T any](ctx context.Context, ld *dataloader.Loader, ids []string) (map[string]T, error) {
	thunks := make(map[string]dataloader.Thunk, len(ids))
	for _, id := range ids {
		if _, ok := thunks[id]; ok {
			continue
		}
		thunks[id] = ld.Load(ctx, dataloader.StringKey(id))
	}

	result := make(map[string]T, len(thunks))
	for id, thunk := range thunks {
		v, err := thunk()
		if err != nil {
			return nil, err
		}
		if t, ok := v.(T); ok {
			result[id] = t
		}
	}
	return result, nil
}
