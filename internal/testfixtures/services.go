package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/room-reservations/internal/application"
)

// FastPasswordParams keeps argon2 cheap in tests.
var FastPasswordParams = application.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// ReservationServiceDeps captures dependencies for constructing a reservation service.
type ReservationServiceDeps struct {
	Reservations application.ReservationRepository
	Rooms        application.RoomCatalog
	Admins       application.AdminAuthorizer
	Options      application.ReservationOptions
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewReservationService builds a reservation service, filling unset ids and
// clock from the factory.
func (f *ServiceFactory) NewReservationService(deps ReservationServiceDeps) *application.ReservationService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewReservationServiceWithLogger(
		deps.Reservations,
		deps.Rooms,
		deps.Admins,
		idGen,
		now,
		deps.Options,
		deps.Logger,
	)
}

// NewRoomService builds a room service on the factory clock.
func (f *ServiceFactory) NewRoomService(rooms application.RoomRepository, logger *slog.Logger) *application.RoomService {
	return application.NewRoomServiceWithLogger(rooms, f.Clock.NowFunc(), logger)
}

// IdentityServiceDeps captures dependencies for constructing the identity provider.
type IdentityServiceDeps struct {
	Users    application.UserRepository
	Secret   []byte
	TokenTTL time.Duration
	Logger   *slog.Logger
}

// NewIdentityService builds an identity provider with cheap password hashing.
func (f *ServiceFactory) NewIdentityService(deps IdentityServiceDeps) *application.IdentityService {
	secret := deps.Secret
	if len(secret) == 0 {
		secret = []byte("test-token-secret")
	}
	return application.NewIdentityService(deps.Users, application.IdentityConfig{
		Secret:         secret,
		TokenTTL:       deps.TokenTTL,
		PasswordParams: FastPasswordParams,
		IDGenerator:    f.IDGenerator.NextFunc(),
		Now:            f.Clock.NowFunc(),
		Logger:         deps.Logger,
	})
}

// AdminGateDeps captures dependencies for constructing the admin gate.
type AdminGateDeps struct {
	Admins          application.AdminDirectory
	Identities      application.IdentityRegistrar
	AdmissionSecret string
	CacheTTL        time.Duration
	Logger          *slog.Logger
}

// NewAdminGate builds an admin gate on the factory clock and ids.
func (f *ServiceFactory) NewAdminGate(deps AdminGateDeps) *application.AdminGate {
	return application.NewAdminGate(deps.Admins, deps.Identities, application.AdminGateConfig{
		AdmissionSecret: deps.AdmissionSecret,
		CacheTTL:        deps.CacheTTL,
		IDGenerator:     f.IDGenerator.NextFunc(),
		Now:             f.Clock.NowFunc(),
		Logger:          deps.Logger,
	})
}

// Services is a fully wired application layer.
type Services struct {
	Rooms        *application.RoomService
	Reservations *application.ReservationService
	Queries      *application.QueryService
	Identities   *application.IdentityService
	Admins       *application.AdminGate
}

// NewSQLiteServices wires every service over harness. The admin gate follows
// identity events the way the server binary wires it.
func (f *ServiceFactory) NewSQLiteServices(harness *SQLiteHarness, options application.ReservationOptions, admissionSecret string) Services {
	repos := harness.Repos
	identities := f.NewIdentityService(IdentityServiceDeps{Users: repos.Users})
	gate := f.NewAdminGate(AdminGateDeps{
		Admins:          repos.Admins,
		Identities:      identities,
		AdmissionSecret: admissionSecret,
		CacheTTL:        time.Minute,
	})
	identities.OnIdentityChange(gate.HandleIdentityEvent)

	return Services{
		Rooms: f.NewRoomService(repos.Rooms, nil),
		Reservations: f.NewReservationService(ReservationServiceDeps{
			Reservations: repos.Reservations,
			Rooms:        repos.Rooms,
			Admins:       gate,
			Options:      options,
		}),
		Queries:    application.NewQueryService(repos.Reservations, repos.Rooms, gate, options),
		Identities: identities,
		Admins:     gate,
	}
}
