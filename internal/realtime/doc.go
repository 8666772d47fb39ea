// Package realtime はWebSocketによるベストエフォートのリアルタイム配信を提供する。
//
// Hub はユーザーIDをキーに接続中のクライアントを保持するレジストリで、
// 登録・解除と配信は同じロックで排他される。配信は到達保証を持たず、
// 未接続やバッファ溢れのイベントは破棄される。
package realtime
