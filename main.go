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
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	intconfig "skitro/internal/config"
	intdb "skitro/internal/db"
	"skitro/internal/events"
	router "skitro/internal/http"
	"skitro/internal/http/handlers"
	"skitro/internal/payment"
	"skitro/internal/utils"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	log := utils.Log

	db, err := intconfig.OpenDB(env)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer intconfig.CloseDB(db)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if err := intdb.EnsureSchema(bootCtx, db); err != nil {
		cancelBoot()
		log.WithError(err).Fatal("schema bootstrap failed")
	}
	cancelBoot()

	if env.PaystackSecretKey == "" {
		log.Warn("PAYSTACK_SECRET_KEY not set, payment calls will fail")
	}
	paystack := payment.NewClient(env.PaystackBaseURL, env.PaystackSecretKey, env.PaymentTimeout)

	hs := handlers.Handlers{
		DB:             db,
		Gateway:        paystack,
		Webhooks:       paystack,
		Currency:       env.Currency,
		CallbackURL:    env.PaymentCallbackURL,
		PaymentTimeout: env.PaymentTimeout,
	}

	if env.RabbitURL != "" {
		pub, err := events.NewPublisher(env.RabbitURL, env.BookingExchange)
		if err != nil {
			log.WithError(err).Warn("rabbitmq unavailable, booking events disabled")
		} else {
			defer pub.Close()
			hs.Events = pub
		}
	}

	opts := router.Options{JWTSecret: env.JWTSecret, CORSOrigins: env.CORSAllowedOrigins}

	if env.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: env.RedisAddr})
		defer rdb.Close()
		opts.Redis = rdb
	}

	if env.NewRelicLicenseKey != "" {
		app, err := newrelic.NewApplication(
			newrelic.ConfigAppName(env.NewRelicAppName),
			newrelic.ConfigLicense(env.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
		)
		if err != nil {
			log.WithError(err).Warn("new relic disabled")
		} else {
			defer app.Shutdown(5 * time.Second)
			opts.NewRelic = app
		}
	}

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           router.NewRouter(hs, opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithField("addr", env.AppAddr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown failed")
		return
	}
	log.Info("server stopped")
}
