package auth

import (
	"crypto/sha256"
	"errors"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const (
	typeSession    = "session"
	typeOAuthState = "oauth_state"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrStateMismatch = errors.New("oauth state mismatch")
)

type Claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Manager signs the two cookies the application hands out: the session
// cookie (jti = server side session id) and the short lived OAuth state
// cookie. Each purpose gets its own HKDF-derived key.
type Manager struct {
	sessionKey []byte
	stateKey   []byte
	stateTTL   time.Duration
}

func NewManager(secret string, stateTTL time.Duration) *Manager {
	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}

	return &Manager{
		sessionKey: deriveKey(secret, typeSession),
		stateKey:   deriveKey(secret, typeOAuthState),
		stateTTL:   stateTTL,
	}
}

func deriveKey(secret, purpose string) []byte {
	key := make([]byte, 32)

	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("freelancehours/"+purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only fails past 255 blocks of output
		panic(err)
	}

	return key
}

// SignSession returns the cookie value referencing sessionID.
func (m *Manager) SignSession(sessionID string, expiresAt time.Time) (string, error) {
	return m.sign(m.sessionKey, typeSession, sessionID, expiresAt)
}

// VerifySession returns the session id carried by a session cookie.
func (m *Manager) VerifySession(raw string) (string, error) {
	claims, err := m.parse(m.sessionKey, typeSession, raw)
	if err != nil {
		return "", err
	}
	return claims.ID, nil
}

// NewState returns the nonce sent to the provider as `state` and the signed
// cookie value binding it to this browser.
func (m *Manager) NewState() (nonce, cookie string, expiresAt time.Time, err error) {
	nonce = uuid.NewString()
	expiresAt = time.Now().UTC().Add(m.stateTTL)

	cookie, err = m.sign(m.stateKey, typeOAuthState, nonce, expiresAt)
	return
}

// VerifyState checks the callback's state parameter against the state cookie.
func (m *Manager) VerifyState(cookie, state string) error {
	claims, err := m.parse(m.stateKey, typeOAuthState, cookie)
	if err != nil {
		return err
	}

	if state == "" || claims.ID != state {
		return ErrStateMismatch
	}

	return nil
}

func (m *Manager) sign(key []byte, typ, id string, expiresAt time.Time) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

func (m *Manager) parse(key []byte, typ, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != typ || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
