package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domainauth "github.com/NordCoder/StillbirthNotify/internal/domain/auth"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

const header = `{"alg":"HS256","typ":"JWT"}`

// ParseAndValidate checks the HS256 signature and the iat/exp window against now.
func ParseAndValidate(token string, secret []byte, now time.Time) (*domainauth.AccessClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrTokenInvalid
	}
	headerB64, payloadB64, sigB64 := parts[0], parts[1], parts[2]

	expectedSig := hmacSHA256(secret, []byte(headerB64+"."+payloadB64))
	sig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", ErrTokenInvalid)
	}
	if !hmac.Equal(sig, expectedSig) {
		return nil, ErrTokenInvalid
	}

	payloadJSON, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", ErrTokenInvalid)
	}
	var claims domainauth.AccessClaims
	if err := json.Unmarshal(payloadJSON, &claims); err != nil {
		return nil, fmt.Errorf("unmarshal claims: %w", ErrTokenInvalid)
	}

	ts := now.Unix()
	if claims.Iat > ts {
		return nil, fmt.Errorf("used before issued: %w", ErrTokenInvalid)
	}
	if claims.Exp < ts {
		return nil, ErrTokenExpired
	}
	return &claims, nil
}

func SignedString(c domainauth.AccessClaims, secret []byte) (string, error) {
	payloadJSON, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	sigInput := base64URL([]byte(header)) + "." + base64URL(payloadJSON)
	sig := hmacSHA256(secret, []byte(sigInput))

	return sigInput + "." + base64URL(sig), nil
}

func GenerateRawToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

func base64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func hmacSHA256(secret, message []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return mac.Sum(nil)
}
