package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer はcommenthubが発行するトークンのIssuer。
const tokenIssuer = "commenthub"

// tokenTTL はトークンの有効期間。
const tokenTTL = 24 * time.Hour

// JWTClaims はJWTトークンのクレーム（ペイロード）を表す。
type JWTClaims struct {
	jwt.RegisteredClaims
	// UserID は認証済みユーザーの一意識別子。
	UserID string `json:"user_id"`
	// Username はメンション解決に使われるユーザー名。
	Username string `json:"username"`
	// Role はユーザーの権限（"user" または "admin"）。
	Role string `json:"role"`
}

// headerKeyUserID はユーザーIDをレスポンスに伝播するためのHTTPヘッダーキー。
const headerKeyUserID = "X-User-ID"

// queryKeyAccessToken はWebSocket接続でトークンを渡すクエリパラメータ名。
// ブラウザのWebSocket APIはAuthorizationヘッダーを設定できないため使用する。
const queryKeyAccessToken = "access_token"

// Context keys
const (
	contextKeyUserID   = "user_id"
	contextKeyUsername = "username"
	contextKeyRole     = "role"
)

// GenerateJWT はユーザー情報からJWTトークンを生成する。
func GenerateJWT(secret, userID, username, role string) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
		UserID:   userID,
		Username: username,
		Role:     role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// ParseJWT はトークン文字列を検証し、クレームを返す。
// HS256以外のアルゴリズムで署名されたトークンは拒否する。
func ParseJWT(secret, tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗: %w", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("トークンが無効です")
	}
	return claims, nil
}

// JWTAuth はJWTトークンを検証するGinミドルウェアを返す。
// トークンはAuthorizationヘッダー（Bearer形式）からのみ取得する。
// 検証に成功した場合、コンテキストに "user_id"、"username"、"role" を設定する。
func JWTAuth(secret string) gin.HandlerFunc {
	return jwtAuth(secret, false)
}

// JWTAuthWS はWebSocketのハンドシェイク用のJWTAuth。
// Authorizationヘッダーが無い場合は access_token クエリパラメータを参照する。
// クエリのトークンはアクセスログに残りやすいため、WebSocketのルート以外には使わないこと。
func JWTAuthWS(secret string) gin.HandlerFunc {
	return jwtAuth(secret, true)
}

func jwtAuth(secret string, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, msg := extractToken(c, allowQuery)
		if msg != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		claims, err := ParseJWT(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "トークンが無効です",
			})
			return
		}

		c.Set(contextKeyUserID, claims.UserID)
		c.Set(contextKeyUsername, claims.Username)
		c.Set(contextKeyRole, claims.Role)
		c.Header(headerKeyUserID, claims.UserID)
		c.Next()
	}
}

// extractToken はリクエストからトークン文字列を取り出す。
// 取り出せない場合は利用者向けのエラーメッセージを返す。
func extractToken(c *gin.Context, allowQuery bool) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if q := c.Query(queryKeyAccessToken); allowQuery && q != "" {
			return q, ""
		}
		return "", "Authorizationヘッダーが必要です"
	}

	tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || tokenString == "" {
		return "", "Bearer トークン形式が不正です"
	}
	return tokenString, ""
}

// GetUserID はGinコンテキストからユーザーIDを取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetUserID(c *gin.Context) string {
	return c.GetString(contextKeyUserID)
}

// GetRole はGinコンテキストからユーザーの権限を取得する。
func GetRole(c *gin.Context) string {
	return c.GetString(contextKeyRole)
}
