// Package jwt 访问令牌签发与校验
// 服务本身不负责登录，只校验上游签发的 Access Token
package jwt

import (
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"cosinnus_server/pkg/errorx"
)

const (
	issuer        = "cosinnus"
	accessSubject = "access_token"
)

type settings struct {
	secret []byte
	expiry time.Duration
}

var (
	mu  sync.RWMutex
	cur = settings{expiry: 2 * time.Hour}
)

// Init 设置签名密钥与 Access Token 有效期（分钟）
func Init(secret string, accessExpiryMinutes int) {
	mu.Lock()
	defer mu.Unlock()
	cur.secret = []byte(secret)
	if accessExpiryMinutes > 0 {
		cur.expiry = time.Duration(accessExpiryMinutes) * time.Minute
	}
}

func current() settings {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// Claims 自定义声明，用户编号以字符串保存
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// UID 解析为数值用户编号
func (c *Claims) UID() (uint, error) {
	n, err := strconv.ParseUint(c.UserID, 10, 64)
	if err != nil || n == 0 {
		return 0, errorx.Newf(errorx.CodeUnauthorized, "非法的用户编号 %q", c.UserID)
	}
	return uint(n), nil
}

// GenerateAccessToken 签发 Access Token
func GenerateAccessToken(userID uint) (string, error) {
	s := current()
	if len(s.secret) == 0 {
		return "", errorx.New(errorx.CodeConfigError, "jwt secret not configured")
	}
	now := time.Now()
	claims := Claims{
		UserID: strconv.FormatUint(uint64(userID), 10),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   accessSubject,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken 校验签名、有效期与用途
func ParseToken(tokenString string) (*Claims, error) {
	s := current()
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeUnauthorized, "token 无效")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errorx.Wrap(jwt.ErrSignatureInvalid, errorx.CodeUnauthorized, "token 无效")
	}
	if claims.Subject != accessSubject {
		return nil, errorx.New(errorx.CodeUnauthorized, "请使用 Access Token")
	}
	return claims, nil
}
