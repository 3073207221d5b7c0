package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/templui/filesmanager/internal/config"
	"github.com/templui/filesmanager/internal/db"
	"github.com/templui/filesmanager/internal/middleware"
	"github.com/templui/filesmanager/internal/model"
	"github.com/templui/filesmanager/internal/queue"
	"github.com/templui/filesmanager/internal/repository"
	"github.com/templui/filesmanager/internal/service"
	"github.com/templui/filesmanager/internal/session"
	"github.com/templui/filesmanager/internal/storage"
	"github.com/templui/filesmanager/internal/worker"
)

type App struct {
	Cfg     *config.Config
	DB      *sqlx.DB        // nil when DB_DRIVER=mongo
	Mongo   *mongo.Database // nil for SQL drivers
	Redis   *redis.Client
	Storage storage.Storage

	ThumbnailQueue *queue.Queue
	WelcomeQueue   *queue.Queue

	AuthService  *service.AuthService
	UserService  *service.UserService
	EmailService *service.EmailService
	FileService  *service.FileService
	AppService   *service.AppService

	Worker      *worker.Worker
	RateLimiter *middleware.RateLimiter

	done chan struct{}
}

// New connects every backing store and wires the services. It returns only
// once the document store and Redis have answered, so a caller that gets an
// App can start serving.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Cfg:  cfg,
		done: make(chan struct{}),
	}

	userRepository, fileRepository, pingDB, err := a.openDocumentStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Redis, err = db.InitRedis(ctx, cfg.RedisURL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	a.Storage, err = storage.New(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Queues
	a.ThumbnailQueue = queue.New(a.Redis, model.QueueThumbnails, cfg.QueueMaxAttempts)
	a.WelcomeQueue = queue.New(a.Redis, model.QueueWelcome, cfg.QueueMaxAttempts)

	// Services
	sessions := session.NewStore(a.Redis, cfg.SessionTTL)
	a.EmailService = service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	a.AuthService = service.NewAuthService(userRepository, sessions)
	a.UserService = service.NewUserService(userRepository, a.AuthService, a.EmailService, a.WelcomeQueue)
	a.FileService = service.NewFileService(fileRepository, service.NewContentService(a.Storage), a.ThumbnailQueue)
	a.AppService = service.NewAppService(sessions.Ping, pingDB, userRepository, fileRepository)

	a.Worker = worker.New(fileRepository, a.Storage, a.UserService)

	trusted, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.RateLimiter = middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst, trusted...)
	go a.RateLimiter.Run(a.done)

	return a, nil
}

func (a *App) openDocumentStore(ctx context.Context) (repository.UserRepository, repository.FileRepository, service.PingFunc, error) {
	if a.Cfg.DBDriver == "mongo" {
		mdb, err := db.InitMongo(ctx, a.Cfg.DBConnection, a.Cfg.DBDatabase)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.Mongo = mdb

		ping := func(ctx context.Context) error {
			return mdb.Client().Ping(ctx, readpref.Primary())
		}
		return repository.NewMongoUserRepository(mdb), repository.NewMongoFileRepository(mdb), ping, nil
	}

	database, err := db.Init(ctx, a.Cfg.DBDriver, a.Cfg.DBConnection)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = database

	// Run database migrations
	err = db.RunMigrations(database.DB, a.Cfg.DBDriver)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repository.NewUserRepository(database), repository.NewFileRepository(database), database.PingContext, nil
}

// Close releases every connection New opened. It is safe on a partially built App.
func (a *App) Close() {
	select {
	case <-a.done:
		return
	default:
		close(a.done)
	}

	if a.Redis != nil {
		err := a.Redis.Close()
		if err != nil {
			slog.Error("failed to close redis", "error", err)
		}
	}
	if a.Mongo != nil {
		err := db.CloseMongo(context.Background(), a.Mongo)
		if err != nil {
			slog.Error("failed to close mongo", "error", err)
		}
	}
	err := db.Close(a.DB)
	if err != nil {
		slog.Error("failed to close database", "error", err)
	}
}
