// Package fanout はコメント作成時の通知ファンアウトを提供する。
//
// 新しいコメントから通知先（受信者と通知種別の組）を決定し、
// 受信者ごとに通知を保存してリアルタイム配信を試みる。
// 受信者ごとの処理は互いに独立しており、1件の失敗が他の受信者や
// コメント作成そのものに影響することはない。
//
// 通知先の決定は次の順で行う。
//   - 本文からのメンション抽出（@ に続く英数字とアンダースコア、重複排除）
//   - トップレベルコメントなら投稿者へ comment 通知
//   - 返信なら親コメントの投稿者へ reply 通知
//   - 解決できたメンション先ユーザーへ mention 通知
//
// いずれの規則でも、コメント投稿者自身は通知先にならない。
package fanout
