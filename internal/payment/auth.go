package payment

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// jwtLifetime CDP 要求的令牌有效期
const jwtLifetime = 120 * time.Second

// Authorizer 为结算服务请求生成 Authorization 头
type Authorizer interface {
	Authorization(method, rawURL string) (string, error)
}

// CDPAuthorizer 使用 CDP API Key 签发短期 Bearer JWT
type CDPAuthorizer struct {
	keyID  string
	key    any
	method jwt.SigningMethod
	now    func() time.Time
}

// NewCDPAuthorizer 解析密钥并创建签名器
// secret 支持两种格式：base64 编码的 Ed25519 私钥，或 PEM 编码的 EC 私钥（ES256）
func NewCDPAuthorizer(keyID, secret string) (*CDPAuthorizer, error) {
	keyID = strings.TrimSpace(keyID)
	secret = strings.TrimSpace(secret)
	if keyID == "" || secret == "" {
		return nil, errors.New("CDP API key id and secret are required")
	}

	a := &CDPAuthorizer{keyID: keyID, now: time.Now}

	if strings.Contains(secret, "-----BEGIN") {
		// 环境变量中的换行常被转义为字面量 \n
		pem := strings.ReplaceAll(secret, `\n`, "\n")
		key, err := jwt.ParseECPrivateKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, fmt.Errorf("解析 EC 私钥失败: %w", err)
		}
		a.key = key
		a.method = jwt.SigningMethodES256
		return a, nil
	}

	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("解析 Ed25519 私钥失败: %w", err)
	}
	switch len(raw) {
	case ed25519.PrivateKeySize:
		a.key = ed25519.PrivateKey(raw)
	case ed25519.SeedSize:
		a.key = ed25519.NewKeyFromSeed(raw)
	default:
		return nil, fmt.Errorf("invalid Ed25519 key length: %d", len(raw))
	}
	a.method = jwt.SigningMethodEdDSA
	return a, nil
}

// Authorization 签发绑定到 method + host + path 的 Bearer 令牌
func (a *CDPAuthorizer) Authorization(method, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("解析请求地址失败: %w", err)
	}

	now := a.now()
	claims := jwt.MapClaims{
		"sub": a.keyID,
		"iss": "cdp",
		"nbf": now.Unix(),
		"exp": now.Add(jwtLifetime).Unix(),
		"uri": fmt.Sprintf("%s %s%s", strings.ToUpper(method), u.Host, u.Path),
	}

	token := jwt.NewWithClaims(a.method, claims)
	token.Header["kid"] = a.keyID
	token.Header["nonce"] = strings.ReplaceAll(uuid.NewString(), "-", "")

	signed, err := token.SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("签发 JWT 失败: %w", err)
	}
	return "Bearer " + signed, nil
}
