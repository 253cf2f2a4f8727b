package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"smoothiehouse/internal/domain"
	tokenrepo "smoothiehouse/internal/repository/token"
)

type stubCustomerRepo struct {
	mu        sync.Mutex
	byPhone   map[string]*domain.Customer
	byID      map[string]*domain.Customer
	nextID    int
	upsertErr error
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{
		byPhone: make(map[string]*domain.Customer),
		byID:    make(map[string]*domain.Customer),
	}
}

func (s *stubCustomerRepo) UpsertByPhone(_ context.Context, phone string) (*domain.Customer, bool, error) {
	if s.upsertErr != nil {
		return nil, false, s.upsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.byPhone[phone]; ok {
		out := *c
		return &out, false, nil
	}
	s.nextID++
	c := &domain.Customer{ID: fmt.Sprintf("cust-%d", s.nextID), Phone: phone}
	s.byPhone[phone] = c
	s.byID[c.ID] = c
	out := *c
	return &out, true, nil
}

func (s *stubCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *stubCustomerRepo) SaveAddresses(_ context.Context, customerID string, addresses []domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[customerID]
	if !ok {
		return domain.ErrNotFound
	}
	c.Addresses = addresses
	return nil
}

func (s *stubCustomerRepo) UpdateProfile(_ context.Context, customerID, name, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[customerID]
	if !ok {
		return domain.ErrNotFound
	}
	c.Name = name
	c.Email = email
	return nil
}

type stubTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]tokenrepo.Token
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{tokens: make(map[string]tokenrepo.Token)}
}

func (s *stubTokenRepo) Create(_ context.Context, t tokenrepo.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[t.Token]; ok {
		return domain.ErrAlreadyExists
	}
	s.tokens[t.Token] = t
	return nil
}

func (s *stubTokenRepo) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := t
	return &out, nil
}

func (s *stubTokenRepo) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

// stubSender captures delivered codes so tests can complete the login flow.
type stubSender struct {
	mu        sync.Mutex
	lastPhone string
	lastCode  string
	sends     int
	err       error
}

func (s *stubSender) Send(_ context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.lastPhone = phone
	s.lastCode = code
	s.sends++
	return nil
}

func (s *stubSender) last() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPhone, s.lastCode
}

func newTestIdentity(t *testing.T) (*Service, *stubCustomerRepo, *stubTokenRepo, *stubSender) {
	t.Helper()
	customers := newStubCustomerRepo()
	tokens := newStubTokenRepo()
	sender := &stubSender{}
	svc := New(customers, tokens, sender, nil, 5*time.Minute, time.Hour)
	return svc, customers, tokens, sender
}

func login(t *testing.T, svc *Service, sender *stubSender, phone string) *LoginResult {
	t.Helper()
	session, err := svc.RequestOTP(context.Background(), phone)
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}
	_, code := sender.last()
	result, err := svc.VerifyOTP(context.Background(), session.ID, code)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	return result
}

func TestRequestOTPDeliversCodeThroughSender(t *testing.T) {
	svc, _, _, sender := newTestIdentity(t)
	session, err := svc.RequestOTP(context.Background(), "+15550001111")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if session.ID == "" || session.Phone != "+15550001111" {
		t.Fatalf("unexpected session %+v", session)
	}
	if !session.ExpiresAt.After(time.Now()) {
		t.Fatalf("session already expired: %v", session.ExpiresAt)
	}
	phone, code := sender.last()
	if phone != "+15550001111" {
		t.Fatalf("sender got phone %q", phone)
	}
	if len(code) != 6 {
		t.Fatalf("sender got code %q, want six digits", code)
	}
	// The delivered code must open the session.
	if _, err := svc.VerifyOTP(context.Background(), session.ID, code); err != nil {
		t.Fatalf("verify with delivered code: %v", err)
	}
}

func TestRequestOTPSenderFailure(t *testing.T) {
	svc, _, _, sender := newTestIdentity(t)
	sender.err = errors.New("gateway down")

	session, err := svc.RequestOTP(context.Background(), "+15550001111")
	if err == nil {
		t.Fatalf("expected delivery failure, got session %+v", session)
	}
	if !strings.Contains(err.Error(), "gateway down") {
		t.Fatalf("delivery error not surfaced: %v", err)
	}

	// The undelivered session must not stay verifiable.
	sender.err = nil
	session2, err := svc.RequestOTP(context.Background(), "+15550001111")
	if err != nil {
		t.Fatalf("request after recovery: %v", err)
	}
	_, code := sender.last()
	if _, err := svc.VerifyOTP(context.Background(), session2.ID, code); err != nil {
		t.Fatalf("verify after recovery: %v", err)
	}
}

func TestRequestOTPRejectsBadPhone(t *testing.T) {
	svc, _, _, sender := newTestIdentity(t)
	for _, phone := range []string{"", "abc", "123", "+1 555 000"} {
		if _, err := svc.RequestOTP(context.Background(), phone); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("phone %q: expected invalid input, got %v", phone, err)
		}
	}
	if sender.sends != 0 {
		t.Fatalf("rejected phones must not reach the sender, got %d sends", sender.sends)
	}
}

func TestVerifyOTPFirstLogin(t *testing.T) {
	svc, _, tokens, sender := newTestIdentity(t)

	result := login(t, svc, sender, "+15550001111")
	if !result.IsNewUser {
		t.Fatalf("first login must report a new user")
	}
	if result.Customer.Phone != "+15550001111" || result.AccessToken == "" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.ExpiresIn != int(time.Hour.Seconds()) {
		t.Fatalf("expiresIn = %d, want %d", result.ExpiresIn, int(time.Hour.Seconds()))
	}
	tokens.mu.Lock()
	defer tokens.mu.Unlock()
	if len(tokens.tokens) != 1 {
		t.Fatalf("expected one persisted token, got %d", len(tokens.tokens))
	}
}

func TestVerifyOTPReturningUser(t *testing.T) {
	svc, _, _, sender := newTestIdentity(t)

	first := login(t, svc, sender, "+15550001111")
	second := login(t, svc, sender, "+15550001111")
	if second.IsNewUser {
		t.Fatalf("second login must not report a new user")
	}
	if second.Customer.ID != first.Customer.ID {
		t.Fatalf("same phone must resolve to the same customer")
	}
}

func TestVerifyOTPWrongCode(t *testing.T) {
	svc, _, _, sender := newTestIdentity(t)
	session, err := svc.RequestOTP(context.Background(), "+15550001111")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	_, code := sender.last()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if _, err := svc.VerifyOTP(context.Background(), session.ID, wrong); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected invalid code, got %v", err)
	}
	// A wrong guess does not consume the session.
	if _, err := svc.VerifyOTP(context.Background(), session.ID, code); err != nil {
		t.Fatalf("correct code after wrong guess: %v", err)
	}
}

func TestVerifyOTPConsumesSession(t *testing.T) {
	svc, _, _, sender := newTestIdentity(t)
	session, err := svc.RequestOTP(context.Background(), "+15550001111")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	_, code := sender.last()
	if _, err := svc.VerifyOTP(context.Background(), session.ID, code); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := svc.VerifyOTP(context.Background(), session.ID, code); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("replay must fail with expired session, got %v", err)
	}
}

func TestVerifyOTPUnknownSession(t *testing.T) {
	svc, _, _, _ := newTestIdentity(t)
	if _, err := svc.VerifyOTP(context.Background(), "no-such-session", "123456"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestVerifyOTPExpiredSession(t *testing.T) {
	customers := newStubCustomerRepo()
	tokens := newStubTokenRepo()
	sender := &stubSender{}
	svc := New(customers, tokens, sender, nil, time.Nanosecond, time.Hour)

	session, err := svc.RequestOTP(context.Background(), "+15550001111")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	_, code := sender.last()
	time.Sleep(time.Millisecond)
	if _, err := svc.VerifyOTP(context.Background(), session.ID, code); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestLookupByToken(t *testing.T) {
	svc, _, _, sender := newTestIdentity(t)
	result := login(t, svc, sender, "+15550001111")

	customer, err := svc.LookupByToken(context.Background(), result.AccessToken)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if customer.ID != result.Customer.ID {
		t.Fatalf("lookup resolved %s, want %s", customer.ID, result.Customer.ID)
	}
	if _, err := svc.LookupByToken(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestLookupByExpiredToken(t *testing.T) {
	customers := newStubCustomerRepo()
	tokens := newStubTokenRepo()
	sender := &stubSender{}
	svc := New(customers, tokens, sender, nil, 5*time.Minute, time.Nanosecond)

	result := login(t, svc, sender, "+15550001111")
	time.Sleep(time.Millisecond)
	if _, err := svc.LookupByToken(context.Background(), result.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for expired credential, got %v", err)
	}
	// Lazy cleanup drops the expired row.
	tokens.mu.Lock()
	defer tokens.mu.Unlock()
	if len(tokens.tokens) != 0 {
		t.Fatalf("expired token should be deleted, got %d rows", len(tokens.tokens))
	}
}

func TestLogout(t *testing.T) {
	svc, _, _, sender := newTestIdentity(t)
	result := login(t, svc, sender, "+15550001111")

	if err := svc.Logout(context.Background(), result.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.LookupByToken(context.Background(), result.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token must be unusable after logout, got %v", err)
	}
	// Logout with a stale token stays quiet.
	if err := svc.Logout(context.Background(), result.AccessToken); err != nil {
		t.Fatalf("repeated logout: %v", err)
	}
}

func TestSaveAddresses(t *testing.T) {
	svc, customers, _, sender := newTestIdentity(t)
	result := login(t, svc, sender, "+15550001111")

	addresses := []domain.Address{{StreetName: "12 Shake St", City: "Portland", PostalCode: "97201", Country: "US"}}
	if err := svc.SaveAddresses(context.Background(), result.Customer.ID, addresses); err != nil {
		t.Fatalf("save: %v", err)
	}
	stored, err := customers.GetByID(context.Background(), result.Customer.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Addresses) != 1 || stored.Addresses[0].ID == "" {
		t.Fatalf("address should be stored with a generated id, got %+v", stored.Addresses)
	}

	if err := svc.SaveAddresses(context.Background(), result.Customer.ID, []domain.Address{{City: "Portland"}}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("blank street must be rejected, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, customers, _, sender := newTestIdentity(t)
	result := login(t, svc, sender, "+15550001111")

	if err := svc.UpdateProfile(context.Background(), result.Customer.ID, "  Dana  ", " dana@example.com "); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, _ := customers.GetByID(context.Background(), result.Customer.ID)
	if stored.Name != "Dana" || stored.Email != "dana@example.com" {
		t.Fatalf("profile not trimmed and stored: %+v", stored)
	}
}
