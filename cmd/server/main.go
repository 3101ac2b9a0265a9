package main

import (
	"log"
	"net/http"

	"go.uber.org/zap"

	"bonik-be/internal/bkash"
	"bonik-be/internal/cart"
	"bonik-be/internal/checkout"
	"bonik-be/internal/config"
	"bonik-be/internal/db"
	"bonik-be/internal/logger"
	"bonik-be/internal/middleware"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database, err := db.Open(db.Params{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.L().Fatal("database connection failed", zap.Error(err))
	}
	defer database.Close()

	client := bkash.NewClient(0)

	// Env credentials win when present; otherwise credentials come from
	// the admin-managed settings table, re-read on every payment.
	var creds bkash.CredentialProvider
	if cfg.BkashUsername != "" {
		creds = bkash.NewStaticProvider(bkash.Credentials{
			Username:  cfg.BkashUsername,
			Password:  cfg.BkashPassword,
			AppKey:    cfg.BkashAppKey,
			AppSecret: cfg.BkashAppSecret,
			BaseURL:   cfg.BkashBaseURL(),
			Sandbox:   cfg.BkashSandbox,
		})
	} else {
		creds = bkash.NewSettingsProvider(database, cfg.BkashSandboxBaseURL, cfg.BkashLiveBaseURL)
	}

	tokens := bkash.NewTokenCache(client, creds)

	policy := bkash.DefaultRetryPolicy()
	policy.MaxRetries = cfg.ExecuteMaxRetries
	policy.Backoff = cfg.ExecuteBackoff
	executor := bkash.NewExecutor(client, creds, tokens, policy)

	paymentRepo := bkash.NewRepository(database)
	cartRepo := cart.NewRepository(database)
	finalizeRepo := checkout.NewRepository(database)

	svc := checkout.NewService(
		cartRepo,
		paymentRepo,
		client,
		tokens,
		creds,
		executor,
		finalizeRepo,
		cfg.AppURL+"/bkash/callback",
	)

	handler := checkout.NewHandler(svc, cfg.SuccessURL, cfg.CartURL)

	mux := http.NewServeMux()
	mux.Handle("/checkout/payment", middleware.AuthMiddleware(http.HandlerFunc(handler.CreatePayment)))
	mux.Handle("/checkout/refund", middleware.AuthMiddleware(http.HandlerFunc(handler.Refund)))
	mux.HandleFunc("/bkash/callback", handler.Callback)

	chain := logger.Middleware(middleware.RateLimitMiddleware(mux))

	log.Printf("checkout server running at http://localhost:%s/", cfg.AppPort)
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, chain))
}
