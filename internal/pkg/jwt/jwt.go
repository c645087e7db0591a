package jwt

import (
	"sync"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// TokenTypeAdmin marks tokens issued by unlocking the admin PIN gate.
const TokenTypeAdmin = "admin"

type Service interface {
	// GenerateAdminToken issues a short-lived admin session for a device.
	GenerateAdminToken(deviceID string) (token string, expiresAt int64, err error)
	// ValidateAdminToken checks signature, expiry, type and revocation.
	ValidateAdminToken(tokenString string) (deviceID string, err error)
	JWTAuth() *jwtauth.JWTAuth
	RevokeToken(token string, expiresAt int64)
	IsTokenRevoked(token string) bool
}

type JWTService struct {
	expiration    time.Duration
	tokenAuth     *jwtauth.JWTAuth
	revokedTokens map[string]int64
	mu            sync.RWMutex
	now           func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, expiration time.Duration) *JWTService {
	if expiration <= 0 {
		expiration = 15 * time.Minute
	}
	return &JWTService{
		expiration:    expiration,
		tokenAuth:     jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		revokedTokens: make(map[string]int64),
		now:           time.Now,
	}
}

func (j *JWTService) GenerateAdminToken(deviceID string) (token string, expiresAt int64, err error) {
	now := j.now()
	expiresAt = now.Add(j.expiration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"device_id": deviceID,
		"type":      TokenTypeAdmin,
		"iat":       now.Unix(),
		"exp":       expiresAt,
	})
	return tokenString, expiresAt, err
}

func (j *JWTService) ValidateAdminToken(tokenString string) (deviceID string, err error) {
	if j.IsTokenRevoked(tokenString) {
		return "", jwt.ErrInvalidJWT()
	}

	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", err
	}

	// Check token type
	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeAdmin {
		return "", jwt.ErrInvalidJWT()
	}

	deviceVal, ok := token.Get("device_id")
	if !ok {
		return "", jwt.ErrInvalidJWT()
	}
	deviceID, ok = deviceVal.(string)
	if !ok {
		return "", jwt.ErrInvalidJWT()
	}

	return deviceID, nil
}

// RevokeToken blocks token until expiresAt; expired entries are pruned.
func (j *JWTService) RevokeToken(token string, expiresAt int64) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now().Unix()
	for t, exp := range j.revokedTokens {
		if exp < now {
			delete(j.revokedTokens, t)
		}
	}
	j.revokedTokens[token] = expiresAt
}

func (j *JWTService) IsTokenRevoked(token string) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, revoked := j.revokedTokens[token]
	return revoked
}
