package container

import (
	"github.com/redis/go-redis/v9"

	"github.com/ilan2004/Ev-wheels-sub003/internal/api"
	"github.com/ilan2004/Ev-wheels-sub003/internal/auth"
	"github.com/ilan2004/Ev-wheels-sub003/internal/authz"
	"github.com/ilan2004/Ev-wheels-sub003/internal/config"
	"github.com/ilan2004/Ev-wheels-sub003/internal/database"
	"github.com/ilan2004/Ev-wheels-sub003/internal/logging"
	"github.com/ilan2004/Ev-wheels-sub003/internal/metrics"
	"github.com/ilan2004/Ev-wheels-sub003/internal/queue"
	"github.com/ilan2004/Ev-wheels-sub003/internal/scope"
)

type Container struct {
	Config        *config.Config
	Database      *database.Database
	Queue         *queue.TaskQueue
	RedisClient   *redis.Client
	AuthService   *auth.AuthService
	Authenticator *auth.Authenticator
	Gateway       *authz.Gateway
	Metrics       *metrics.AuthzMetrics
	Server        *api.Server
	Worker        *queue.Worker
}

func New(cfg config.Config) (*Container, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, err
	}

	taskQueue, err := queue.NewQueue(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	// Two separate Redis connection pools: the asynq task queue manages
	// its own, and this client holds auth state (refresh tokens).
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	jwtService, err := auth.NewJWTService([]byte(cfg.JWT.SigningKey), cfg.JWT.Issuer, cfg.JWT.Expiry)
	if err != nil {
		return nil, err
	}

	st := db.Store()
	authService := auth.NewAuthService(redisClient, jwtService, st, cfg.Auth)
	authenticator := auth.NewAuthenticator(jwtService, st)

	m := metrics.NewAuthzMetrics()
	gateway := authz.NewGateway(scope.NewResolver(cfg.Scoping.Enabled()), m)

	worker := queue.NewWorker(&cfg.Redis, queue.StdoutNotifier{})

	server := api.NewServer(api.Deps{
		Gateway:        gateway,
		Users:          st,
		Locations:      st,
		Customers:      st.Customers(),
		Workflow:       st.Workflow(),
		Auth:           authService,
		Tasks:          taskQueue,
		Metrics:        m,
		AuthMiddleware: authenticator.Middleware,
		CORS:           &cfg.CORS,
	})

	logging.Info("Connected to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port)

	return &Container{
		Config:        &cfg,
		Database:      db,
		Queue:         taskQueue,
		RedisClient:   redisClient,
		AuthService:   authService,
		Authenticator: authenticator,
		Gateway:       gateway,
		Metrics:       m,
		Server:        server,
		Worker:        worker,
	}, nil
}

func (c *Container) Cleanup() {
	if c.Queue != nil {
		c.Queue.Close()
		logging.Info("Queue client closed")
	}
	if c.Worker != nil {
		c.Worker.Close()
		logging.Info("Worker closed")
	}
	if c.RedisClient != nil {
		c.RedisClient.Close()
		logging.Info("Redis client closed")
	}
	if c.Database != nil {
		c.Database.Close()
		logging.Info("Database connection closed")
	}
}
