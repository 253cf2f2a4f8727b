package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"smoothiehouse/internal/domain"
	custrepo "smoothiehouse/internal/repository/customer"
	tokenrepo "smoothiehouse/internal/repository/token"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCode is returned when the submitted OTP does not match.
	ErrInvalidCode = errors.New("invalid code")
	// ErrSessionExpired is returned when the verification session is gone.
	ErrSessionExpired = errors.New("verification session expired")
	// ErrInvalidToken indicates the provided bearer token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// VerificationSession is the explicit handle for one OTP login attempt,
// returned by RequestOTP and consumed by VerifyOTP.
type VerificationSession struct {
	ID        string    `json:"sessionId"`
	Phone     string    `json:"phone"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoginResult carries everything the caller needs from a successful
// verification. IsNewUser comes atomically from the customer upsert.
type LoginResult struct {
	Customer    *domain.Customer `json:"customer"`
	AccessToken string           `json:"accessToken"`
	ExpiresIn   int              `json:"expiresIn"`
	IsNewUser   bool             `json:"isNewUser"`
}

// CodeSender delivers one-time codes out of band. The production
// implementation fronts the SMS gateway. The code never appears in logs or
// responses; the sender is its only path out of the service.
type CodeSender interface {
	Send(ctx context.Context, phone, code string) error
}

type noopSender struct{}

func (noopSender) Send(context.Context, string, string) error { return nil }

// Service handles OTP sign-in and bearer-token auth.
type Service struct {
	customers custrepo.Repository
	tokens    *tokenManager
	otps      *otpSessionManager
	sender    CodeSender
	logger    *log.Logger
	accessTTL time.Duration
}

func New(customers custrepo.Repository, tokens tokenrepo.Repository, sender CodeSender, logger *log.Logger, otpTTL, accessTTL time.Duration) *Service {
	if sender == nil {
		sender = noopSender{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if otpTTL <= 0 {
		otpTTL = 5 * time.Minute
	}
	if accessTTL <= 0 {
		accessTTL = 48 * time.Hour
	}
	return &Service{
		customers: customers,
		tokens:    newTokenManager(tokens),
		otps:      newOTPSessionManager(otpTTL),
		sender:    sender,
		logger:    logger,
		accessTTL: accessTTL,
	}
}

// RequestOTP starts one login attempt and returns its verification session.
// The code goes to the sender; only its bcrypt hash is retained.
func (s *Service) RequestOTP(ctx context.Context, phone string) (*VerificationSession, error) {
	phone = strings.TrimSpace(phone)
	if !phonePattern.MatchString(phone) {
		return nil, fmt.Errorf("%w: invalid phone number", domain.ErrInvalidInput)
	}
	code, err := randomCode()
	if err != nil {
		return nil, err
	}
	session, err := s.otps.create(phone, code)
	if err != nil {
		return nil, err
	}
	if err := s.sender.Send(ctx, phone, code); err != nil {
		s.otps.drop(session.ID)
		return nil, fmt.Errorf("send code: %w", err)
	}
	s.logger.Printf("identity: otp requested phone=%s session=%s", phone, session.ID)
	return session, nil
}

// VerifyOTP consumes the verification session on success and signs the
// customer in, creating the customer record on first login.
func (s *Service) VerifyOTP(ctx context.Context, sessionID, code string) (*LoginResult, error) {
	phone, err := s.otps.verify(sessionID, code)
	if err != nil {
		return nil, err
	}
	customer, isNew, err := s.customers.UpsertByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	accessToken, err := s.tokens.Issue(ctx, customer.ID, "access", s.accessTTL)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("identity: login customer=%s new=%t", customer.ID, isNew)
	return &LoginResult{
		Customer:    customer,
		AccessToken: accessToken,
		ExpiresIn:   int(s.accessTTL.Seconds()),
		IsNewUser:   isNew,
	}, nil
}

// LookupByToken resolves a bearer token to its customer.
func (s *Service) LookupByToken(ctx context.Context, accessToken string) (*domain.Customer, error) {
	customerID, ok := s.tokens.Validate(ctx, accessToken)
	if !ok {
		return nil, ErrInvalidToken
	}
	return s.customers.GetByID(ctx, customerID)
}

// Logout revokes the token. The caller is responsible for detaching the cart
// session of the identity.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	return s.tokens.Revoke(ctx, accessToken)
}

// SaveAddresses replaces the customer's delivery addresses.
func (s *Service) SaveAddresses(ctx context.Context, customerID string, addresses []domain.Address) error {
	for i := range addresses {
		if strings.TrimSpace(addresses[i].StreetName) == "" {
			return fmt.Errorf("%w: streetName required", domain.ErrInvalidInput)
		}
		if addresses[i].ID == "" {
			addresses[i].ID = newAddressID()
		}
	}
	return s.customers.SaveAddresses(ctx, customerID, addresses)
}

// UpdateProfile sets display name and email on the customer record.
func (s *Service) UpdateProfile(ctx context.Context, customerID, name, email string) error {
	return s.customers.UpdateProfile(ctx, customerID, strings.TrimSpace(name), strings.TrimSpace(email))
}

func randomCode() (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	n := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return fmt.Sprintf("%06d", n%1000000), nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func newAddressID() string {
	return uuid.NewString()
}
