package bootstrap

import (
	"net/http"

	"github.com/HackRU/CTFd/internal/auth"
	"github.com/HackRU/CTFd/internal/config"
	"github.com/HackRU/CTFd/internal/metrics"
	"github.com/HackRU/CTFd/internal/services"
	"github.com/HackRU/CTFd/internal/store"
	"github.com/HackRU/CTFd/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB              *store.Store
	MetricsRecorder metrics.Recorder
	RedisClient     *redis.Client
	Caches          *cacheSet

	// Services
	Settings        *services.Settings
	SessionService  *services.SessionService
	UserService     *services.UserService
	TeamService     *services.TeamService
	RegistrationAPI *auth.RegistrationClient
	Serializer      *token.EmailSerializer

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: infrastructure
	if err := app.initializeInfrastructure(); err != nil {
		return err
	}

	// Phase 2: business layer
	app.initializeBusinessLayer()

	// Phase 3: HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		return err
	}

	// Phase 4: serve until shutdown
	app.startWithGracefulShutdown()

	return nil
}

func (app *Application) initializeInfrastructure() error {
	var err error

	app.DB, err = initializeDatabase(app.Config)
	if err != nil {
		return err
	}

	app.MetricsRecorder = initializeMetrics(app.Config)

	app.RedisClient, err = initializeRedisClient(app.Config)
	if err != nil {
		return err
	}
	app.Caches = initializeCaches(app.Config, app.RedisClient)

	return nil
}

func (app *Application) initializeBusinessLayer() {
	app.Settings = services.NewSettings(app.Config, app.DB, app.Caches.Config)
	app.SessionService = services.NewSessionService(
		app.DB,
		app.Caches.Users,
		app.Caches.Teams,
		app.MetricsRecorder,
	)
	app.RegistrationAPI = auth.NewRegistrationClient(app.Config)
	app.UserService = services.NewUserService(
		app.DB,
		app.RegistrationAPI,
		app.SessionService,
		app.MetricsRecorder,
	)
	app.TeamService = services.NewTeamService(app.DB, app.SessionService)
	app.Serializer = token.NewEmailSerializer(app.Config.TokenSecret)
}

func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = initializeHandlers(app)

	router, err := setupRouter(app)
	if err != nil {
		return err
	}
	app.Router = router
	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}
