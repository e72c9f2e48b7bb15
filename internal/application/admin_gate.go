package application

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// AdminDirectory stores administrator records.
type AdminDirectory interface {
	ListAdminsByUID(ctx context.Context, uid string) ([]AdminRecord, error)
	CreateAdmin(ctx context.Context, admin AdminRecord) error
}

// IdentityRegistrar creates identity provider accounts.
type IdentityRegistrar interface {
	SignUp(ctx context.Context, email, password string) (Session, error)
}

// AdminGateConfig tunes the gate.
type AdminGateConfig struct {
	// AdmissionSecret must be presented to register an administrator. An empty
	// secret disables administrator sign-up.
	AdmissionSecret string
	// CacheTTL bounds how long an admin lookup is reused. Zero disables caching.
	CacheTTL    time.Duration
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// AdminGate distinguishes administrators from ordinary requesters.
// Lookups fail closed: a check that could not be resolved never allows.
type AdminGate struct {
	admins     AdminDirectory
	identities IdentityRegistrar
	secret     string
	cache      *cache.Cache
	ttl        time.Duration
	idGen      func() string
	now        func() time.Time
	logger     *slog.Logger
}

// NewAdminGate constructs the gate.
func NewAdminGate(admins AdminDirectory, identities IdentityRegistrar, cfg AdminGateConfig) *AdminGate {
	gate := &AdminGate{
		admins:     admins,
		identities: identities,
		secret:     cfg.AdmissionSecret,
		ttl:        cfg.CacheTTL,
		idGen:      cfg.IDGenerator,
		now:        cfg.Now,
		logger:     defaultLogger(cfg.Logger),
	}
	if gate.ttl > 0 {
		gate.cache = cache.New(gate.ttl, 2*gate.ttl)
	}
	if gate.idGen == nil {
		gate.idGen = uuid.NewString
	}
	if gate.now == nil {
		gate.now = time.Now
	}
	return gate
}

func (g *AdminGate) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, g.logger, "AdminGate", operation, attrs...)
}

// IsAdmin reports whether at least one admin record carries the identity's uid.
// Anonymous identities are never administrators.
func (g *AdminGate) IsAdmin(ctx context.Context, identity *Identity) (bool, error) {
	if g == nil {
		return false, fmt.Errorf("AdminGate is nil")
	}
	if identity.Anonymous() {
		return false, nil
	}
	if g.cache != nil {
		if cached, ok := g.cache.Get(identity.UID); ok {
			return cached.(bool), nil
		}
	}
	if g.admins == nil {
		return false, fmt.Errorf("admin directory not configured")
	}

	records, err := g.admins.ListAdminsByUID(ctx, identity.UID)
	if err != nil {
		return false, fmt.Errorf("lookup admin %s: %w", identity.UID, err)
	}

	isAdmin := len(records) > 0
	if g.cache != nil {
		g.cache.Set(identity.UID, isAdmin, cache.DefaultExpiration)
	}
	return isAdmin, nil
}

// RequireAdmin returns nil for administrators, an *AuthorizationError for
// everyone else, and the lookup error when the check could not complete.
func (g *AdminGate) RequireAdmin(ctx context.Context, identity *Identity) error {
	isAdmin, err := g.IsAdmin(ctx, identity)
	if err != nil {
		g.loggerWith(ctx, "RequireAdmin").ErrorContext(ctx, "admin check failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if !isAdmin {
		return unauthorized(identity, "admin operation", "not an administrator")
	}
	return nil
}

// Invalidate drops any cached decision for uid.
func (g *AdminGate) Invalidate(uid string) {
	if g == nil || g.cache == nil || uid == "" {
		return
	}
	g.cache.Delete(uid)
}

// HandleIdentityEvent re-arms the admin check whenever an identity signs in or out.
func (g *AdminGate) HandleIdentityEvent(event IdentityEvent) {
	g.Invalidate(event.Identity.UID)
}

// RegisterAdmin checks the admission secret, creates the identity provider
// account and stores the administrator record.
func (g *AdminGate) RegisterAdmin(ctx context.Context, params AdminSignUpParams) (record AdminRecord, session Session, err error) {
	if g == nil {
		err = fmt.Errorf("AdminGate is nil")
		return
	}

	email := strings.TrimSpace(params.Email)
	logger := g.loggerWith(ctx, "RegisterAdmin", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to register administrator", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("uid", record.UID).InfoContext(ctx, "administrator registered")
	}()

	if g.secret == "" || subtle.ConstantTimeCompare([]byte(params.AdmissionSecret), []byte(g.secret)) != 1 {
		err = &AuthorizationError{Action: "register administrator", Reason: "invalid admission secret"}
		return
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(params.Name) == "" {
		vErr.add("name", "name is required")
	}
	if email == "" {
		vErr.add("email", "email is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if g.identities == nil || g.admins == nil {
		err = fmt.Errorf("admin registration not configured")
		return
	}

	session, err = g.identities.SignUp(ctx, email, params.Password)
	if err != nil {
		return
	}

	record = AdminRecord{
		ID:        g.idGen(),
		UID:       session.Identity.UID,
		Email:     session.Identity.Email,
		Name:      strings.TrimSpace(params.Name),
		CreatedAt: g.now().UTC(),
	}
	if err = g.admins.CreateAdmin(ctx, record); err != nil {
		err = fmt.Errorf("store admin record: %w", err)
		return
	}
	g.Invalidate(record.UID)
	return
}
