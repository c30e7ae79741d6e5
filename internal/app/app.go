// Package app wires configuration, storage, services and HTTP handlers into a
// runnable fiber application.
package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"ridesharing/internal/config"
	"ridesharing/internal/database"
	"ridesharing/internal/dto"
	"ridesharing/internal/entities"
	"ridesharing/internal/events"
	"ridesharing/internal/handlers"
	"ridesharing/internal/mapper"
	"ridesharing/internal/middleware"
	"ridesharing/internal/models"
	"ridesharing/internal/repositories"
	"ridesharing/internal/seed"
	"ridesharing/internal/services"
	"ridesharing/pkg/rabbitmq"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// App is the assembled service.
type App struct {
	Fiber   *fiber.App
	Auth    *services.AuthService
	Members *services.MemberService
	DB      *gorm.DB

	cfg     config.Config
	mq      *rabbitmq.Client
	rdb     *redis.Client
	started time.Time
}

// deps is shared by every entity registration.
type deps struct {
	db        *gorm.DB
	validate  *validator.Validate
	publisher events.Publisher
	cache     *middleware.ResponseCache
	protect   []fiber.Handler
	opts      handlers.Options
}

// New builds the application described by cfg. RabbitMQ and Redis are
// optional: when configured but unreachable the service starts without them.
func New(cfg config.Config) (*App, error) {
	a := &App{cfg: cfg, started: time.Now()}

	if cfg.DBDriver != "memory" {
		db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN, gormlogger.Warn)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		a.DB = db
		if cfg.SeedDir != "" {
			if _, err := seed.Load(context.Background(), db, cfg.SeedDir); err != nil {
				return nil, fmt.Errorf("failed to seed database: %w", err)
			}
		}
	} else if cfg.SeedDir != "" {
		log.Printf("Warning: SEED_DIR ignored for the memory driver")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQURL,
			Exchange: cfg.RabbitMQExchange,
			Queue:    cfg.RabbitMQQueue,
		})
		if err != nil {
			log.Printf("Warning: change events disabled: %v", err)
		} else {
			a.mq = mq
			publisher = events.NewBrokerPublisher(mq)
			if err := mq.ConsumeEvents(events.LogDelivery); err != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", err)
			}
		}
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Printf("Warning: response cache disabled: %v", err)
			rdb.Close()
		} else {
			a.rdb = rdb
		}
	}

	validate := services.NewValidator()

	memberRepo, err := newRepository[models.Member](a.DB, entities.Member.Name)
	if err != nil {
		return nil, err
	}
	a.Members = services.NewMemberService(repositories.NewMemberRepository(memberRepo), validate, publisher)
	a.Auth = services.NewAuthService(a.Members, cfg.JWTSecret, cfg.TokenTTL)

	a.Fiber = fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: handlers.ErrorHandler(cfg.AppName),
	})
	a.Fiber.Use(recover.New())
	a.Fiber.Use(logger.New())
	a.Fiber.Use(cors.New(cors.Config{
		ExposeHeaders: strings.Join([]string{
			handlers.AlertHeader(cfg.AppName),
			handlers.ErrorHeader(cfg.AppName),
			handlers.ParamsHeader(cfg.AppName),
			handlers.HeaderTotalCount,
			fiber.HeaderLink,
			fiber.HeaderLocation,
		}, ","),
	}))

	a.Fiber.Get("/health", a.handleHealth)

	api := a.Fiber.Group("/api")

	d := deps{
		db:        a.DB,
		validate:  validate,
		publisher: publisher,
		cache:     middleware.NewResponseCache(a.rdb, cfg.AppName, cfg.CacheTTL),
		opts: handlers.Options{
			AppName:         cfg.AppName,
			DefaultPageSize: cfg.PageSize,
			MaxPageSize:     cfg.MaxPageSize,
		},
	}
	if cfg.AuthEnabled {
		d.protect = append(d.protect, middleware.AuthRequired(a.Auth))
	}

	handlers.NewAuthHandler(a.Auth, handlers.Options{AppName: cfg.AppName}).
		RegisterRoutes(api, d.cache.Handler(entities.Member.Name))

	handlers.NewCrudHandler[dto.MemberDTO](entities.Member, a.Members, d.opts).
		RegisterRoutes(api, d.middleware(entities.Member)...)

	if err := register[models.Profile, dto.ProfileDTO](api, entities.Profile, mapper.ProfileMapper{}, d); err != nil {
		return nil, err
	}
	if err := register[models.Ride, dto.RideDTO](api, entities.Ride, mapper.RideMapper{}, d); err != nil {
		return nil, err
	}
	if err := register[models.RideRequest, dto.RideRequestDTO](api, entities.RideRequest, mapper.RideRequestMapper{}, d); err != nil {
		return nil, err
	}
	if err := register[models.Notification, dto.NotificationDTO](api, entities.Notification, mapper.NotificationMapper{}, d); err != nil {
		return nil, err
	}
	if err := register[models.Message, dto.MessageDTO](api, entities.Message, mapper.MessageMapper{}, d); err != nil {
		return nil, err
	}
	if err := register[models.Rating, dto.RatingDTO](api, entities.Rating, mapper.RatingMapper{}, d); err != nil {
		return nil, err
	}

	return a, nil
}

func (d deps) middleware(entity entities.Definition) []fiber.Handler {
	mw := append([]fiber.Handler{}, d.protect...)
	return append(mw, d.cache.Handler(entity.Name))
}

// register wires the generic repository, service and handler of one entity.
func register[R any, D dto.Identified](api fiber.Router, entity entities.Definition, m mapper.Mapper[R, D], d deps) error {
	repo, err := newRepository[R](d.db, entity.Name)
	if err != nil {
		return err
	}
	service := services.NewCrudService[R, D](entity, repo, m, d.validate, d.publisher)
	handlers.NewCrudHandler[D](entity, service, d.opts).RegisterRoutes(api, d.middleware(entity)...)
	return nil
}

// newRepository returns a GORM repository, or an in-memory one when db is nil.
func newRepository[R any](db *gorm.DB, entity string) (repositories.Repository[R], error) {
	if db != nil {
		return repositories.NewGORMRepository[R](db, entity), nil
	}
	mem, err := repositories.NewMemoryRepository[R](entity)
	if err != nil {
		return nil, err
	}
	return mem, nil
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	status := fiber.Map{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
		"uptime": time.Since(a.started).Round(time.Second).String(),
		"db":     a.cfg.DBDriver,
		"events": a.mq != nil,
		"cache":  a.rdb != nil,
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			status["status"] = "unhealthy"
			status["error"] = err.Error()
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
	}
	return c.JSON(status)
}

// Close releases the broker, cache and database connections.
func (a *App) Close() error {
	var errs []error
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close database: %w", err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during shutdown: %v", errs)
	}
	return nil
}
