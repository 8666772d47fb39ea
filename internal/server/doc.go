// Package server はcommenthubのHTTPサーバーを提供する。
//
// コメントの作成・編集・削除と一覧（フラット／ツリー）、通知の一覧と既読管理、
// WebSocketによるリアルタイム配信の入口、開発用のトークン発行を扱う。
// 認証はJWT（pkg/middleware）で行い、ハンドラはコンテキストのユーザーIDで動作する。
package server
