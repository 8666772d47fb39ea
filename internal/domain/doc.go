// Package domain はコメント・通知サービスのドメインモデルを定義する。
//
// コメント、通知、ユーザーの各エンティティと、各層で共有するセンチネルエラー、
// 入力値の検証ルールを含む。
package domain
