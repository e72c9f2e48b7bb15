package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/example/room-reservations/internal/persistence"
)

const (
	tokenIssuer       = "room-reservations"
	minPasswordLength = 6
)

// UserRepository stores identity provider accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user UserAccount) error
	GetUserByEmail(ctx context.Context, email string) (UserAccount, error)
}

// IdentityEventKind names an identity transition.
type IdentityEventKind string

const (
	IdentitySignedIn  IdentityEventKind = "signed_in"
	IdentitySignedOut IdentityEventKind = "signed_out"
)

// IdentityEvent is delivered to OnIdentityChange listeners.
type IdentityEvent struct {
	Kind     IdentityEventKind
	Identity Identity
	At       time.Time
}

// IdentityConfig tunes token issuance.
type IdentityConfig struct {
	Secret         []byte
	TokenTTL       time.Duration
	PasswordParams Argon2idParams
	IDGenerator    func() string
	Now            func() time.Time
	Logger         *slog.Logger
}

// IdentityService is the built-in identity provider. It issues signed bearer
// tokens carrying the uid and email and notifies listeners on sign-in and
// sign-out.
type IdentityService struct {
	users   UserRepository
	secret  []byte
	ttl     time.Duration
	hasher  PasswordHasher
	idGen   func() string
	now     func() time.Time
	logger  *slog.Logger
	revoked *cache.Cache

	mu        sync.RWMutex
	nextID    int
	listeners map[int]func(IdentityEvent)
}

type identityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewIdentityService constructs the identity provider.
func NewIdentityService(users UserRepository, cfg IdentityConfig) *IdentityService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	svc := &IdentityService{
		users:     users,
		secret:    cfg.Secret,
		ttl:       ttl,
		hasher:    NewPasswordHasher(cfg.PasswordParams),
		idGen:     cfg.IDGenerator,
		now:       cfg.Now,
		logger:    defaultLogger(cfg.Logger),
		revoked:   cache.New(ttl, ttl),
		listeners: make(map[int]func(IdentityEvent)),
	}
	if svc.idGen == nil {
		svc.idGen = uuid.NewString
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

func (s *IdentityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "IdentityService", operation, attrs...)
}

// OnIdentityChange registers fn for sign-in and sign-out events and returns a
// function that removes it.
func (s *IdentityService) OnIdentityChange(fn func(IdentityEvent)) func() {
	if s == nil || fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *IdentityService) emit(event IdentityEvent) {
	s.mu.RLock()
	listeners := make([]func(IdentityEvent), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(event)
	}
}

// SignUp creates an account and signs it in.
func (s *IdentityService) SignUp(ctx context.Context, email, password string) (session Session, err error) {
	if s == nil {
		err = fmt.Errorf("IdentityService is nil")
		return
	}

	email = normalizeAccountEmail(email)
	logger := s.loggerWith(ctx, "SignUp", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "sign-up failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("uid", session.Identity.UID).InfoContext(ctx, "account created")
	}()

	vErr := &ValidationError{}
	if _, parseErr := mail.ParseAddress(email); email == "" || parseErr != nil {
		vErr.add("email", "a valid email is required")
	}
	if len(password) < minPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return
	}

	account := UserAccount{ID: s.idGen(), Email: email, PasswordHash: hash, CreatedAt: s.now().UTC()}
	if err = s.users.CreateUser(ctx, account); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrAlreadyExists
		}
		return
	}

	return s.startSession(Identity{UID: account.ID, Email: account.Email})
}

// SignIn verifies the password and issues a token.
func (s *IdentityService) SignIn(ctx context.Context, email, password string) (session Session, err error) {
	if s == nil {
		err = fmt.Errorf("IdentityService is nil")
		return
	}

	email = normalizeAccountEmail(email)
	logger := s.loggerWith(ctx, "SignIn", "email", email)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "sign-in failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	account, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if verifyErr := s.hasher.Verify(account.PasswordHash, password); verifyErr != nil {
		err = ErrInvalidCredentials
		return
	}

	return s.startSession(Identity{UID: account.ID, Email: account.Email})
}

// SignOut revokes the token and notifies listeners.
func (s *IdentityService) SignOut(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("IdentityService is nil")
	}

	claims, err := s.parse(token)
	if err != nil {
		return err
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl > 0 {
		s.revoked.Set(claims.ID, struct{}{}, ttl)
	}

	identity := Identity{UID: claims.Subject, Email: claims.Email}
	s.loggerWith(ctx, "SignOut", "uid", identity.UID).InfoContext(ctx, "signed out")
	s.emit(IdentityEvent{Kind: IdentitySignedOut, Identity: identity, At: s.now()})
	return nil
}

// Resolve turns a bearer token into the identity it was issued for.
func (s *IdentityService) Resolve(_ context.Context, token string) (*Identity, error) {
	if s == nil {
		return nil, fmt.Errorf("IdentityService is nil")
	}
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	return &Identity{UID: claims.Subject, Email: claims.Email}, nil
}

func (s *IdentityService) startSession(identity Identity) (Session, error) {
	now := s.now()
	expires := now.Add(s.ttl)

	claims := identityClaims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.idGen(),
			Subject:   identity.UID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}

	s.emit(IdentityEvent{Kind: IdentitySignedIn, Identity: identity, At: now})
	return Session{Token: token, Identity: identity, ExpiresAt: expires.UTC()}, nil
}

func (s *IdentityService) parse(token string) (*identityClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidCredentials
	}

	claims := &identityClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidCredentials
	}
	if claims.ID != "" {
		if _, revoked := s.revoked.Get(claims.ID); revoked {
			return nil, ErrInvalidCredentials
		}
	}
	return claims, nil
}

func normalizeAccountEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
