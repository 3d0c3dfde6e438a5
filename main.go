package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/config"
	"github.com/yeremiapane/tableside/database"
	"github.com/yeremiapane/tableside/middlewares"
	"github.com/yeremiapane/tableside/notify"
	"github.com/yeremiapane/tableside/router"
	"github.com/yeremiapane/tableside/services"
	"github.com/yeremiapane/tableside/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}
	utils.InitLogger(cfg.Log.Format)

	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate database: %v", err)
	}

	hub := notify.NewHub()
	emitters := notify.Multi{hub}
	if cfg.Notify.RedisAddr != "" {
		redisEmitter := notify.NewRedisEmitter(cfg.Notify.RedisAddr)
		defer redisEmitter.Close()
		emitters = append(emitters, redisEmitter)
		utils.InfoLogger.Infof("Publishing events to redis at %s", cfg.Notify.RedisAddr)
	}
	if len(cfg.Notify.KafkaBrokers) > 0 {
		kafkaEmitter := notify.NewKafkaEmitter(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic)
		defer kafkaEmitter.Close()
		emitters = append(emitters, kafkaEmitter)
		utils.InfoLogger.Infof("Publishing events to kafka topic %s", cfg.Notify.KafkaTopic)
	}

	var sender services.OTPSender = services.LogSender{}
	if cfg.Twilio.AccountSID != "" {
		twilioSender, err := services.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to configure Twilio: %v", err)
		}
		sender = twilioSender
	}

	g := cfg.Guest
	policies := &services.BranchPolicies{DB: db}
	sessions := services.NewSessionService(db, g.SessionTTL)
	parties := services.NewPartyService(db, policies, g.PartyTTL, g.PinAttempts)
	orders := services.NewOrderService(db, sessions, parties, policies, &services.MenuCatalog{DB: db}, emitters, g.OrderCooldown)
	bills := services.NewBillService(db, sessions, parties, policies, emitters, g.BillRequestExpiry, g.BillRequestCooldown)
	otp := services.NewOTPService(db, sessions, sender, g.OTPTTL, g.OTPMaxAttempts, g.OTPCooldown)
	waiter := services.NewWaiterService(db, sessions, policies, emitters, g.WaiterCallCooldown)

	sweeper := services.NewSweeper(parties, bills, g.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	limiter := middlewares.NewRateLimiter()
	stopPrune := make(chan struct{})
	defer close(stopPrune)
	go func() {
		window := time.Duration(g.RateLimitWindow) * time.Second
		ticker := time.NewTicker(g.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Prune(window)
			case <-stopPrune:
				return
			}
		}
	}()

	r := router.SetupRouter(router.Dependencies{
		DB:       db,
		Config:   cfg,
		Hub:      hub,
		Limiter:  limiter,
		Policies: policies,
		Sessions: sessions,
		Parties:  parties,
		Orders:   orders,
		Bills:    bills,
		OTP:      otp,
		Waiter:   waiter,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		utils.InfoLogger.Infof("Server running on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.InfoLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.ErrorLogger.Errorf("Server forced to shutdown: %v", err)
	}
}
