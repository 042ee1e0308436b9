package user

import (
	"strings"
	"time"

	apperrors "github.com/SlpAus/falsifi-backend/pkg/errors"
	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"github.com/SlpAus/falsifi-backend/pkg/token"
	"github.com/gin-gonic/gin"
)

const (
	DefaultCookieName = "falsifi-session"
	UserIDKey         = "userID"
)

// Sessions 会话令牌的签发与读取设置
type Sessions struct {
	CookieName string
	TTL        time.Duration
	now        func() time.Time
}

func NewSessions(cookieName string, ttl time.Duration) *Sessions {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Sessions{CookieName: cookieName, TTL: ttl, now: time.Now}
}

// Issue 为用户签发新令牌
func (s *Sessions) Issue(userID uint) (string, error) {
	return token.IssueSessionToken(userID, s.TTL, s.now())
}

// SetCookie 把令牌写入HttpOnly cookie
func (s *Sessions) SetCookie(c *gin.Context, tok string) {
	c.SetCookie(s.CookieName, tok, int(s.TTL/time.Second), "/", "", false, true)
}

// ClearCookie 让浏览器删除会话cookie
func (s *Sessions) ClearCookie(c *gin.Context) {
	c.SetCookie(s.CookieName, "", -1, "/", "", false, true)
}

// readToken 优先读取 Authorization: Bearer，其次读取cookie
func (s *Sessions) readToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	tok, _ := c.Cookie(s.CookieName)
	return tok
}

// LoadUserMiddleware 解析会话令牌并把用户ID放入Gin上下文。
// 令牌缺失或无效时不中断请求，由 RequireUser 决定是否拒绝。
func (s *Sessions) LoadUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := s.readToken(c)
		if tok != "" {
			payload, err := token.ParseSessionToken(tok, s.now())
			if err != nil {
				logger.WithError(err).Debug("忽略无效的会话令牌")
			} else {
				c.Set(UserIDKey, payload.UserID)
			}
		}
		c.Next()
	}
}

// RequireUser 拒绝未登录的请求
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUserID(c); !ok {
			apperrors.Respond(c, apperrors.New(apperrors.ErrUnauthorized, "请先登录", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUserID 返回当前请求的登录用户
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
