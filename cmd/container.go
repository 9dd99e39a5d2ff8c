// Root composition root. Owns infrastructure (Postgres, optional Redis,
// AWS SES) and wires the modules together. This is the only place that
// knows about every module.
package main

import (
	"context"

	"github.com/chriswk/auth-app/pkg/config"
	"github.com/chriswk/auth-app/pkg/iam/auth"
	"github.com/chriswk/auth-app/pkg/iam/auth/authinfra"
	"github.com/chriswk/auth-app/pkg/iam/instance"
	"github.com/chriswk/auth-app/pkg/iam/instance/instanceinfra"
	"github.com/chriswk/auth-app/pkg/iam/instance/instancesrv"
	"github.com/chriswk/auth-app/pkg/iam/session"
	"github.com/chriswk/auth-app/pkg/iam/user"
	"github.com/chriswk/auth-app/pkg/iam/user/userinfra"
	"github.com/chriswk/auth-app/pkg/iam/user/usersrv"
	"github.com/chriswk/auth-app/pkg/logx"
	"github.com/chriswk/auth-app/pkg/notify"
	"github.com/chriswk/auth-app/pkg/notify/notifyconsole"
	"github.com/chriswk/auth-app/pkg/notify/notifyses"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and the composed module surfaces.
type Container struct {
	Config *config.AppConfig

	DB    *sqlx.DB
	Redis *redis.Client

	SessionMiddleware *session.Middleware
	AuthHandlers      *auth.AuthHandlers
	UserHandlers      *user.Handlers
	InstanceHandlers  *instance.Handlers

	memoryStates *auth.MemoryStateStore
}

// NewContainer builds all infrastructure and modules. Any failure here is
// fatal; the process never serves with a partially wired container.
func NewContainer(cfg *config.AppConfig) *Container {
	c := &Container{Config: cfg}

	c.initDatabase()
	states := c.initStateStore()
	notifier := c.initNotifier()
	c.initModules(states, notifier)

	logx.Info("Container initialized")
	return c
}

func (c *Container) initDatabase() {
	db, err := sqlx.Connect("postgres", c.Config.Database.URL)
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("Database connected")
}

// initStateStore selects where pending authorizations live. Redis lets the
// callback land on a different replica than the one that began the login.
func (c *Container) initStateStore() auth.StateStore {
	switch c.Config.StateStore {
	case "redis":
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Addr,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		if err := c.Redis.Ping(context.Background()).Err(); err != nil {
			logx.Fatalf("Failed to connect to Redis: %v", err)
		}
		logx.Info("Redis state store connected")
		return authinfra.NewRedisStateStore(c.Redis, c.Config.StateTTL)
	case "memory":
		c.memoryStates = auth.NewMemoryStateStore(c.Config.StateTTL)
		return c.memoryStates
	default:
		logx.Fatalf("Unknown STATE_STORE: %s (use 'memory' or 'redis')", c.Config.StateStore)
		return nil
	}
}

func (c *Container) initNotifier() notify.Notifier {
	switch c.Config.NotifyMode {
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		logx.Info("SES notifier configured")
		return notifyses.NewSESNotifier(ses.NewFromConfig(awsCfg), c.Config.NotifyFrom)
	case "console":
		return notifyconsole.NewConsoleNotifier()
	default:
		return nil
	}
}

func (c *Container) initModules(states auth.StateStore, notifier notify.Notifier) {
	codec, err := session.NewCodec(c.Config.Secret, c.Config.Cookie.Lifetime)
	if err != nil {
		logx.Fatalf("Invalid session secret: %v", err)
	}
	c.SessionMiddleware = session.NewMiddleware(codec, c.Config.Cookie.Name)

	instances := instanceinfra.NewPostgresInstanceRepository(c.DB)
	users := userinfra.NewPostgresUserRepository(c.DB)
	access := userinfra.NewPostgresAccessRepository(c.DB)

	userService := usersrv.NewService(users, access, instances, notifier, c.Config.BaseURL)
	instanceService := instancesrv.NewService(instances)

	provider := auth.NewOAuthProvider(c.Config.Provider)
	authService := auth.NewAuthService(provider, states, userService, codec)

	c.AuthHandlers = auth.NewAuthHandlers(authService, c.Config.Cookie, c.Config.PostLoginRedirect)
	c.UserHandlers = user.NewHandlers(userService)
	c.InstanceHandlers = instance.NewHandlers(instanceService)
}

// StartBackgroundServices starts the in-memory state sweeper when that
// store is active. The Redis store expires keys on its own.
func (c *Container) StartBackgroundServices(ctx context.Context) {
	if c.memoryStates != nil {
		c.memoryStates.StartSweeper(ctx, c.Config.StateTTL)
	}
}

func (c *Container) Cleanup() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		}
	}
}
