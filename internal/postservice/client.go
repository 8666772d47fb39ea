// Package postservice は外部のポストサービスから投稿者を解決する。
//
// 投稿はcommenthubの管理外にあるため、トップレベルコメントの通知先は
// ポストサービスのAPIに問い合わせて決定する。
package postservice

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/nao1215/commenthub/internal/domain"
	"github.com/nao1215/commenthub/pkg/httpclient"
)

// post はポストサービスが返す投稿の表現。
// 投稿者IDはキャメルケースとスネークケースのどちらでも受け付ける。
type post struct {
	ID            string `json:"id"`
	AuthorID      string `json:"authorId"`
	AuthorIDSnake string `json:"author_id"`
}

func (p post) author() string {
	if p.AuthorID != "" {
		return p.AuthorID
	}
	return p.AuthorIDSnake
}

// Client はポストサービスのクライアント。
type Client struct {
	http *httpclient.Client
}

// New はポストサービスのクライアントを生成する。
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{http: httpclient.New(baseURL, httpclient.WithTimeout(timeout))}
}

// PostAuthor は投稿IDから投稿者のユーザーIDを返す。
// 投稿が存在しない場合は domain.ErrPostNotFound を返す。
func (c *Client) PostAuthor(ctx context.Context, postID string) (string, error) {
	var p post
	if err := c.http.GetJSON(ctx, "/api/v1/posts/"+url.PathEscape(postID), &p); err != nil {
		if httpclient.IsNotFound(err) {
			return "", domain.ErrPostNotFound
		}
		return "", fmt.Errorf("投稿の取得に失敗: post_id=%s: %w", postID, err)
	}
	return p.author(), nil
}
