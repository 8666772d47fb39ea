// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// JWT認証トークンの発行と検証、リクエストID、パニックリカバリ、
// CORS設定など、commenthubのHTTPとWebSocketの入口で共通して使用するミドルウェアを含む。
package middleware
