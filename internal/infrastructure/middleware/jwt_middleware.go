package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cosinnus_server/pkg/errorx"
	"cosinnus_server/pkg/util/jwt"
)

// UserIDKey 上下文中保存用户编号（uint）的键
const UserIDKey = "user_id"

// bearer 从 Authorization 头中取出 Bearer Token，missing 表示未携带
// 浏览器建立 WebSocket 时无法设置请求头，/ws 可以改用 token 查询参数
func bearer(c *gin.Context) (token string, missing bool, ok bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if t := c.Query("token"); t != "" && c.IsWebsocket() {
			return t, false, true
		}
		return "", true, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false, false
	}
	return parts[1], false, true
}

func userFromToken(token string) (uint, error) {
	claims, err := jwt.ParseToken(token)
	if err != nil {
		return 0, err
	}
	return claims.UID()
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code": errorx.CodeUnauthorized,
		"msg":  msg,
	})
}

// JWTAuth 必须登录
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, missing, ok := bearer(c)
		if missing {
			abortUnauthorized(c, "请先登录")
			return
		}
		if !ok {
			abortUnauthorized(c, "Token 格式错误，请使用 Bearer Token")
			return
		}
		uid, err := userFromToken(token)
		if err != nil {
			abortUnauthorized(c, "Token 已过期或无效，请重新登录")
			return
		}
		c.Set(UserIDKey, uid)
		c.Next()
	}
}

// OptionalJWTAuth 未携带 Token 时按匿名访问，携带了无效 Token 仍然拒绝
func OptionalJWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, missing, ok := bearer(c)
		if missing {
			c.Next()
			return
		}
		if !ok {
			abortUnauthorized(c, "Token 格式错误，请使用 Bearer Token")
			return
		}
		uid, err := userFromToken(token)
		if err != nil {
			abortUnauthorized(c, "Token 已过期或无效，请重新登录")
			return
		}
		c.Set(UserIDKey, uid)
		c.Next()
	}
}

// CurrentUserID 当前登录用户，匿名返回 0
func CurrentUserID(c *gin.Context) uint {
	if v, ok := c.Get(UserIDKey); ok {
		if uid, ok := v.(uint); ok {
			return uid
		}
	}
	return 0
}
