// Package httpclient は外部サービスのJSON APIを呼び出すHTTPクライアントを提供する。
//
// commenthubではポストサービスへの投稿者問い合わせに使用する。
// 2xx以外の応答は StatusError として返し、呼び出し側がステータスで分岐できるようにする。
package httpclient
