package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/letterdesk/letterdesk/internal/config"
)

// ErrInvalidCredentials is returned when the login email or password is wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenClaims is the payload of an access token.
type TokenClaims struct {
	Email    string `json:"email"`
	IssuedAt int64  `json:"iat"`
	Expiry   int64  `json:"exp"`
	Audience string `json:"aud"`
	Issuer   string `json:"iss"`
}

// AuthService issues and validates access tokens for the configured admin.
type AuthService struct {
	cfg    config.Auth
	secret []byte
	now    func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(cfg config.Auth) *AuthService {
	return &AuthService{
		cfg:    cfg,
		secret: []byte(cfg.Secret),
		now:    time.Now,
	}
}

// Login checks credentials against the configured admin account and
// returns a signed access token with its lifetime in seconds.
func (s *AuthService) Login(email, password string) (token string, expiresIn int, err error) {
	if email == "" || password == "" {
		return "", 0, ErrInvalidCredentials
	}
	if email != s.cfg.AdminEmail {
		return "", 0, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password)); err != nil {
		return "", 0, ErrInvalidCredentials
	}

	token, err = s.signJWT(email)
	if err != nil {
		return "", 0, fmt.Errorf("sign jwt: %w", err)
	}
	return token, int(s.cfg.TokenExpiry.Seconds()), nil
}

// ValidateAccessToken verifies a token and returns its claims.
func (s *AuthService) ValidateAccessToken(tokenStr string) (*TokenClaims, error) {
	return s.verifyJWT(tokenStr)
}

// --- JWT implementation (HS256 with stdlib) ---

// jwtHeader is the fixed base64url-encoded header for HS256.
var jwtHeader = base64URLEncode([]byte(`{"alg":"HS256","typ":"JWT"}`))

func (s *AuthService) signJWT(email string) (string, error) {
	now := s.now()
	claims := TokenClaims{
		Email:    email,
		IssuedAt: now.Unix(),
		Expiry:   now.Add(s.cfg.TokenExpiry).Unix(),
		Audience: "letterdesk",
		Issuer:   "letterdesk",
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	payloadB64 := base64URLEncode(payload)
	signingInput := jwtHeader + "." + payloadB64

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingInput))
	sig := base64URLEncode(mac.Sum(nil))

	return signingInput + "." + sig, nil
}

func (s *AuthService) verifyJWT(tokenStr string) (*TokenClaims, error) {
	parts := strings.SplitN(tokenStr, ".", 3)
	if len(parts) != 3 {
		return nil, errors.New("malformed token")
	}

	signingInput := parts[0] + "." + parts[1]
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingInput))
	expectedSig := base64URLEncode(mac.Sum(nil))

	if !hmac.Equal([]byte(parts[2]), []byte(expectedSig)) {
		return nil, errors.New("invalid signature")
	}

	payload, err := base64URLDecode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	var claims TokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("unmarshal claims: %w", err)
	}

	if s.now().Unix() > claims.Expiry {
		return nil, errors.New("token expired")
	}
	if claims.Audience != "letterdesk" {
		return nil, errors.New("invalid token audience")
	}
	if claims.Issuer != "letterdesk" {
		return nil, errors.New("invalid token issuer")
	}

	return &claims, nil
}

func base64URLEncode(data []byte) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(data), "=")
}

func base64URLDecode(s string) ([]byte, error) {
	// Add padding back
	switch len(s) % 4 {
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	return base64.URLEncoding.DecodeString(s)
}
