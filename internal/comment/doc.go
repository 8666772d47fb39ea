// Package comment はコメントのユースケースとスレッド構築を提供する。
//
// コメントの作成・編集・削除と、投稿単位のフラットなコメント一覧から
// 返信ツリーを組み立てる処理を含む。コメント作成後の通知配信は
// Dispatcher に委譲し、作成結果には影響させない。
package comment
