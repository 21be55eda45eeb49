package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/convoview/auth/jwt"
	"github.com/kbukum/convoview/auth/password"
	"github.com/kbukum/convoview/bootstrap"
	"github.com/kbukum/convoview/component"
	"github.com/kbukum/convoview/database"
	"github.com/kbukum/convoview/database/migration"
	"github.com/kbukum/convoview/internal/account"
	"github.com/kbukum/convoview/internal/api"
	"github.com/kbukum/convoview/internal/conversation"
	"github.com/kbukum/convoview/internal/media"
	"github.com/kbukum/convoview/logger"
	"github.com/kbukum/convoview/migrations"
	"github.com/kbukum/convoview/observability"
	"github.com/kbukum/convoview/server"
	"github.com/kbukum/convoview/server/middleware"
	"github.com/kbukum/convoview/sse"
	"github.com/kbukum/convoview/storage"

	// Storage providers register themselves with storage.New.
	_ "github.com/kbukum/convoview/storage/local"
	_ "github.com/kbukum/convoview/storage/s3"
)

// TokenQueryParam carries the bearer token for audio elements and event
// streams, which cannot set headers.
const TokenQueryParam = "token"

// Infra is the started infrastructure the services are built on.
type Infra struct {
	// DB is nil when no configured feature needs a database.
	DB      *database.DB
	Storage storage.Storage
	Hub     *sse.Hub
	Metrics *observability.Metrics
	Log     *logger.Logger
}

// Services are the domain services of one process.
type Services struct {
	Conversations *conversation.Service
	Media         *media.Service
	// Accounts is nil without a database.
	Accounts *account.Service
	// Tokens is nil when no JWT secret is configured.
	Tokens *jwt.Service[*jwt.Claims]
}

// NewRepository returns the conversation store selected by
// conversations.store.
func NewRepository(cfg *Config, db *database.DB, store storage.Storage) (conversation.Repository, error) {
	switch cfg.Conversations.Store {
	case StoreStorage:
		if store == nil {
			return nil, errors.New("conversations.store=storage needs a storage backend")
		}
		return conversation.NewFileRepository(store, cfg.Conversations.Prefix), nil
	default:
		if db == nil {
			return nil, errors.New("conversations.store=database needs a database")
		}
		return conversation.NewGormRepository(db), nil
	}
}

// NewServices builds every service on top of in.
func NewServices(cfg *Config, in Infra) (*Services, error) {
	if in.Log == nil {
		in.Log = logger.Nop()
	}
	repo, err := NewRepository(cfg, in.DB, in.Storage)
	if err != nil {
		return nil, err
	}
	var pub sse.Publisher
	if in.Hub != nil {
		pub = in.Hub
	}

	svc := &Services{
		Conversations: conversation.NewService(repo, pub, in.Metrics, in.Log),
		Media:         media.NewService(in.Storage, cfg.Media, in.Log),
	}
	if cfg.Auth.JWT.Secret != "" {
		tokens, err := jwt.NewService(cfg.Auth.JWT, func() *jwt.Claims { return &jwt.Claims{} })
		if err != nil {
			return nil, fmt.Errorf("auth.jwt: %w", err)
		}
		svc.Tokens = tokens
	}
	if in.DB != nil {
		svc.Accounts = account.NewService(in.DB, password.NewHasher(cfg.Auth.Password), svc.Tokens, in.Metrics, in.Log)
	}
	return svc, nil
}

// Mount installs request telemetry, the optional bearer guard and the API
// routes on r.
func Mount(r *gin.Engine, cfg *Config, svc *Services, in Infra) error {
	var guard gin.HandlerFunc
	if cfg.Auth.Enabled {
		if svc.Tokens == nil {
			return errors.New("auth is enabled but auth.jwt.secret is empty")
		}
		guard = middleware.Auth(middleware.AuthConfig{
			Validator:  svc.Tokens.ValidatorFunc(),
			QueryParam: TokenQueryParam,
		})
	}

	r.Use(middleware.Telemetry(cfg.Name, in.Metrics))
	api.New(api.Deps{
		Conversations: svc.Conversations,
		Media:         svc.Media,
		Accounts:      svc.Accounts,
		Hub:           in.Hub,
		ClassLabel:    cfg.Analysis.ClassLabel,
		KeepAlive:     cfg.Events.KeepAlive,
		Log:           in.Log,
	}).Register(r, guard)
	return nil
}

// Migrate applies every pending SQL migration for the database's driver.
func Migrate(db *database.DB) error {
	return migration.Up(db.GormDB, migrations.FS, migrations.Dir(db.Driver()), migration.DriverFor(db.Driver()))
}

// MigrateSteps applies n migrations, or rolls back -n when n is negative.
func MigrateSteps(db *database.DB, n int) error {
	return migration.Steps(db.GormDB, migrations.FS, migrations.Dir(db.Driver()), n, migration.DriverFor(db.Driver()))
}

// MigrationVersion reports the applied schema version.
func MigrationVersion(db *database.DB) (version uint, dirty bool, err error) {
	return migration.Version(db.GormDB, migrations.FS, migrations.Dir(db.Driver()), migration.DriverFor(db.Driver()))
}

// Options tune New.
type Options struct {
	// Database starts the database even when no configured feature needs
	// it, for account management.
	Database bool

	Bootstrap []bootstrap.Option
}

// App is the convoview process: infrastructure components plus the services
// built on them once they run.
type App struct {
	*bootstrap.App[*Config]

	obs    *observability.Component
	db     *database.Component
	store  *storage.Component
	events *sse.Component

	services *Services
}

// New registers the infrastructure components and a configure step that
// builds the services. Call Serve for the HTTP facade, or RunTask for a
// one-shot command.
func New(cfg *Config, opts Options) (*App, error) {
	base, err := bootstrap.NewApp(cfg, opts.Bootstrap...)
	if err != nil {
		return nil, err
	}
	a := &App{App: base}
	log := base.Logger

	a.obs = observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment, log)
	a.store = storage.NewComponent(cfg.Storage, log)
	a.events = sse.NewComponent("/api/events", log)
	comps := []component.Component{a.obs}
	if opts.Database || cfg.NeedsDatabase() {
		a.db = database.NewComponent(cfg.Database, log).
			WithAutoMigrate(&conversation.Record{}, &account.User{})
		comps = append(comps, a.db)
	}
	comps = append(comps, a.store, a.events)
	for _, c := range comps {
		if err := a.RegisterComponent(c); err != nil {
			return nil, err
		}
	}

	a.OnConfigure(func(ctx context.Context, b *bootstrap.App[*Config]) error {
		in := a.infra()
		if in.DB != nil && cfg.Conversations.MigrateOnStart {
			if err := Migrate(in.DB); err != nil {
				return err
			}
			b.Logger.Info("migrations applied", logger.Fields("driver", in.DB.Driver()))
		}
		svc, err := NewServices(cfg, in)
		if err != nil {
			return err
		}
		a.services = svc
		return nil
	})
	return a, nil
}

func (a *App) infra() Infra {
	in := Infra{
		Storage: a.store.Storage(),
		Hub:     a.events.Hub(),
		Metrics: a.obs.Metrics(),
		Log:     a.Logger,
	}
	if a.db != nil {
		in.DB = a.db.DB()
	}
	return in
}

// Services returns the services once the app has started, nil before.
func (a *App) Services() *Services { return a.services }

// DB returns the database once started, nil before or when not configured.
func (a *App) DB() *database.DB {
	if a.db == nil {
		return nil
	}
	return a.db.DB()
}

// Serve adds the HTTP server and blocks until a shutdown signal or ctx is
// done.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.Cfg
	a.OnConfigure(func(_ context.Context, b *bootstrap.App[*Config]) error {
		srv := server.New(cfg.Server, b.Logger)
		srv.ApplyDefaults(cfg.Name, b.Components.HealthAll)
		if err := Mount(srv.GinEngine(), cfg, a.services, a.infra()); err != nil {
			return err
		}
		b.Logger.Info("auth", logger.Fields("mode", cfg.Auth.Describe()))
		return b.RegisterComponent(server.NewComponent(srv))
	})
	return a.Run(ctx)
}
