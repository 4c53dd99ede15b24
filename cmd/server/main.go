package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/go-redis/redis/v8"
	"github.com/refoapp/backend/internal/authz"
	"github.com/refoapp/backend/internal/config"
	"github.com/refoapp/backend/internal/database"
	"github.com/refoapp/backend/internal/handlers"
	"github.com/refoapp/backend/internal/jobs"
	"github.com/refoapp/backend/internal/queue"
	"github.com/refoapp/backend/internal/routes"
	"github.com/refoapp/backend/internal/services/ai"
	"github.com/refoapp/backend/internal/services/chat"
	"github.com/refoapp/backend/internal/services/email"
	"github.com/refoapp/backend/internal/services/notification"
	"github.com/refoapp/backend/internal/services/offer"
	"github.com/refoapp/backend/internal/services/payout"
	"github.com/refoapp/backend/internal/services/referral"
	"github.com/refoapp/backend/internal/services/task"
	"github.com/refoapp/backend/internal/services/wallet"
	"github.com/refoapp/backend/internal/storage"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	redisQueue := queue.NewRedisQueue(redisClient)

	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		log.Fatalf("Failed to initialize authorization: %v", err)
	}

	// Services
	emailService := email.NewEmailService(cfg.Resend)
	walletService := wallet.NewWalletService(db)
	payoutService := payout.NewPayoutService(db, walletService, redisQueue, cfg.Rewards.MinPayoutAmount)
	taskService := task.NewTaskService(db, walletService, redisQueue, cfg.Rewards.ReferralCommission)
	offerService := offer.NewOfferService(db)
	referralService := referral.NewReferralService(db, walletService)
	notificationService := notification.NewNotificationService(db)
	geminiClient := ai.NewGeminiClient(cfg.Gemini)
	chatService := chat.NewChatService(db, geminiClient)

	// Background workers
	jobProcessor := queue.NewJobProcessor(redisQueue, 5)
	jobs.RegisterAllJobHandlers(jobProcessor, db, emailService, referralService, notificationService)
	jobProcessor.Start()

	scheduler := gocron.NewScheduler(time.UTC)
	if err := jobs.ScheduleRecurringJobs(scheduler, db, walletService); err != nil {
		log.Fatalf("Failed to schedule recurring jobs: %v", err)
	}
	scheduler.StartAsync()

	router := routes.SetupRouter(cfg, enforcer, routes.Handlers{
		Auth:         handlers.NewAuthHandler(db, cfg, emailService),
		Profile:      handlers.NewProfileHandler(db, store),
		Wallet:       handlers.NewWalletHandler(walletService),
		Payout:       handlers.NewPayoutHandler(payoutService),
		Task:         handlers.NewTaskHandler(taskService, store),
		Offer:        handlers.NewOfferHandler(offerService),
		Referral:     handlers.NewReferralHandler(referralService),
		Notification: handlers.NewNotificationHandler(notificationService, redisQueue),
		Chat:         handlers.NewChatHandler(chatService),
		Admin:        handlers.NewAdminHandler(db),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Refo API server running on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	scheduler.Stop()
	jobProcessor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
