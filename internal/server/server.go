package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hotelstay/internal/config"
	"hotelstay/internal/domain/booking"
	"hotelstay/internal/domain/inventory"
	"hotelstay/internal/domain/pricing"
	"hotelstay/internal/domain/roomboard"
	"hotelstay/internal/middleware"
	"hotelstay/internal/pkg/response"
	"hotelstay/internal/pkg/roomlock"
	"hotelstay/internal/repository"
)

// App holds the wired services of one running process.
type App struct {
	Config    *config.Config
	DB        *gorm.DB
	Store     *repository.Store
	Engine    *booking.Engine
	Pricing   *pricing.Service
	Inventory *inventory.Service
	Board     *roomboard.Hub
	Router    *gin.Engine

	redis *redis.Client
	log   *zap.Logger
}

// New wires repositories, services and handlers over an open database.
// A configured REDIS_ADDR switches room locks from in-process to Redis.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	app := &App{Config: cfg, DB: db, log: log}

	locker, err := app.roomLocker(ctx)
	if err != nil {
		return nil, err
	}

	app.Store = repository.NewStore(db)
	app.Board = roomboard.NewHub(log.Named("roomboard"))
	app.Engine = booking.NewEngine(app.Store, app.Store, locker, app.Board, cfg.EngineOptions(), log.Named("booking"))
	app.Pricing = pricing.NewService(app.Store, app.Store.Calendar(), log.Named("pricing"))
	app.Inventory = inventory.NewService(app.Store.Inventory())

	app.Router = app.routes()
	return app, nil
}

func (a *App) roomLocker(ctx context.Context) (booking.RoomLocker, error) {
	ttl, wait := a.Config.LockOptions()
	if a.Config.RedisAddr == "" {
		a.log.Info("using in-process room locks")
		return roomlock.NewLocalLocker(wait), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     a.Config.RedisAddr,
		Password: a.Config.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	a.redis = rdb
	a.log.Info("using redis room locks", zap.String("addr", a.Config.RedisAddr))
	return roomlock.NewRedisLocker(rdb, ttl, wait, a.log.Named("roomlock")), nil
}

func (a *App) routes() *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.ErrorLogger(a.log),
		middleware.RequestLogger(a.log),
		middleware.CORS(a.Config.CORSAllowedOrigins),
	)

	r.GET("/health", a.health)

	v1 := r.Group("/api/v1")
	{
		booking.NewHandler(a.Engine).RegisterRoutes(v1)
		pricing.NewHandler(a.Pricing).RegisterRoutes(v1)
		inventory.NewHandler(a.Inventory).RegisterRoutes(v1)
		roomboard.NewHandler(a.Board, a.Inventory, a.Config.CORSAllowedOrigins, a.log.Named("roomboard")).RegisterRoutes(v1)
	}
	return r
}

func (a *App) health(c *gin.Context) {
	sqlDB, err := a.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		response.Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
		return
	}
	if a.redis != nil {
		if err := a.redis.Ping(c.Request.Context()).Err(); err != nil {
			response.Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "redis unreachable")
			return
		}
	}
	response.Success(c, http.StatusOK, gin.H{
		"status":        "ok",
		"board_clients": a.Board.ClientCount(),
	})
}

// Close releases the Redis client and the database pool.
func (a *App) Close() error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
