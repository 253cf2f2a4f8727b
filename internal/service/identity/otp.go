package identity

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type otpSession struct {
	phone     string
	codeHash  []byte
	expiresAt time.Time
}

// otpSessionManager keeps pending verification sessions, one per login
// attempt. A session is consumed on successful verification; a wrong code
// leaves it usable until expiry.
type otpSessionManager struct {
	mu       sync.Mutex
	sessions map[string]otpSession
	ttl      time.Duration
}

func newOTPSessionManager(ttl time.Duration) *otpSessionManager {
	return &otpSessionManager{
		sessions: make(map[string]otpSession),
		ttl:      ttl,
	}
}

func (m *otpSessionManager) create(phone, code string) (*VerificationSession, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	expiresAt := time.Now().Add(m.ttl)

	m.mu.Lock()
	m.sessions[id] = otpSession{phone: phone, codeHash: hash, expiresAt: expiresAt}
	m.mu.Unlock()

	return &VerificationSession{ID: id, Phone: phone, ExpiresAt: expiresAt}, nil
}

func (m *otpSessionManager) drop(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

func (m *otpSessionManager) verify(sessionID, code string) (string, error) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	if ok && time.Now().After(sess.expiresAt) {
		delete(m.sessions, sessionID)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return "", ErrSessionExpired
	}

	if bcrypt.CompareHashAndPassword(sess.codeHash, []byte(code)) != nil {
		return "", ErrInvalidCode
	}

	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return sess.phone, nil
}
