package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	// secretKey 是签名会话令牌所用的密钥，由配置注入或在启动时随机生成。
	secretKey []byte
	keyMu     sync.RWMutex
)

var (
	ErrMalformedToken = errors.New("会话令牌格式错误")
	ErrBadSignature   = errors.New("会话令牌签名无效")
	ErrTokenExpired   = errors.New("会话令牌已过期")
)

// SessionPayload 定义了需要被签名的会话数据。
type SessionPayload struct {
	UserID    uint  `json:"u"`
	ExpiresAt int64 `json:"e"`
}

// GenerateSecretKey 生成一个密码学安全的32字节随机密钥。
// 未配置固定密钥时使用，进程重启后旧令牌全部失效。
func GenerateSecretKey() {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("无法生成安全的密钥: " + err.Error())
	}
	SetSecretKey(key)
}

// SetSecretKey 使用外部提供的密钥
func SetSecretKey(key []byte) {
	keyMu.Lock()
	defer keyMu.Unlock()
	secretKey = append([]byte(nil), key...)
}

func sign(payloadBytes []byte) []byte {
	keyMu.RLock()
	defer keyMu.RUnlock()
	mac := hmac.New(sha256.New, secretKey)
	mac.Write(payloadBytes)
	return mac.Sum(nil)
}

// IssueSessionToken 为用户签发一个在ttl后过期的令牌。
// 格式: base64(payload JSON) + "." + base64(HMAC-SHA256)
func IssueSessionToken(userID uint, ttl time.Duration, now time.Time) (string, error) {
	payloadBytes, err := json.Marshal(SessionPayload{
		UserID:    userID,
		ExpiresAt: now.Add(ttl).Unix(),
	})
	if err != nil {
		return "", errors.New("无法序列化会话payload")
	}

	encodedPayload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	encodedSignature := base64.RawURLEncoding.EncodeToString(sign(payloadBytes))
	return encodedPayload + "." + encodedSignature, nil
}

// ParseSessionToken 校验签名和有效期，返回令牌中的payload
func ParseSessionToken(tokenStr string, now time.Time) (SessionPayload, error) {
	var payload SessionPayload

	encodedPayload, encodedSignature, found := strings.Cut(tokenStr, ".")
	if !found || encodedPayload == "" || encodedSignature == "" {
		return payload, ErrMalformedToken
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return payload, ErrMalformedToken
	}
	actualSignature, err := base64.RawURLEncoding.DecodeString(encodedSignature)
	if err != nil {
		return payload, ErrMalformedToken
	}

	// 时间恒定的比较，防止时序攻击
	if !hmac.Equal(sign(payloadBytes), actualSignature) {
		return payload, ErrBadSignature
	}

	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return payload, ErrMalformedToken
	}
	if now.Unix() >= payload.ExpiresAt {
		return payload, ErrTokenExpired
	}
	return payload, nil
}
