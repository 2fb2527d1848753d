package main // Entry point package

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-task-manager/internal/apperr"
	"github.com/iliyamo/secure-task-manager/internal/auth"
	"github.com/iliyamo/secure-task-manager/internal/config"
	"github.com/iliyamo/secure-task-manager/internal/crypto"
	"github.com/iliyamo/secure-task-manager/internal/database"
	"github.com/iliyamo/secure-task-manager/internal/handler"
	"github.com/iliyamo/secure-task-manager/internal/queue"
	"github.com/iliyamo/secure-task-manager/internal/repository"
	"github.com/iliyamo/secure-task-manager/internal/router"
	queue_publisher "github.com/iliyamo/secure-task-manager/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	cipher, err := crypto.NewFieldCipher(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("field cipher: %v", err)
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.AccessTTLMin)*time.Minute)

	// Redis is optional: a nil client disables rate limiting and caching.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tasks := repository.NewTaskRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users, issuer)
	taskHandler := handler.NewTaskHandler(tasks, cipher, queue_publisher.PublishTaskActivity)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, issuer)
	router.RegisterTasks(e, taskHandler, issuer, rdb)

	// Background consumer turning task activity events into the activity log.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
