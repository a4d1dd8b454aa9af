package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/caredent/clinic-backend/libs/config"
	"github.com/caredent/clinic-backend/libs/db"
	"github.com/caredent/clinic-backend/libs/httpx"
	"github.com/caredent/clinic-backend/libs/kafkax"
	otelx "github.com/caredent/clinic-backend/libs/otel"
	"github.com/caredent/clinic-backend/libs/runtime"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/authn"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/handlers"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/outbox"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "clinic-api")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
		MinConns: int32(config.Int("DB_MIN_CONNS", 0)),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)

	apptRepo := storage.NewAppointmentRepository(pool)
	userRepo := storage.NewUserRepository(pool)
	serviceRepo := storage.NewServiceRepository(pool)
	recordRepo := storage.NewRecordRepository(pool)
	billingRepo := storage.NewBillingRepository(pool)
	inventoryRepo := storage.NewInventoryRepository(pool)
	notificationRepo := storage.NewNotificationRepository(pool)
	toothChartRepo := storage.NewToothChartRepository(pool)
	locationRepo := storage.NewLocationRepository(pool)
	planRepo := storage.NewPlanRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	authHandler := handlers.NewAuthHandler(userRepo, jwtSecret, config.Duration("JWT_TTL", 24*time.Hour), logger)
	apptHandler := handlers.NewAppointmentHandler(apptRepo, userRepo, serviceRepo, recordRepo, outboxRepo, logger)
	serviceHandler := handlers.NewServiceHandler(serviceRepo)
	recordHandler := handlers.NewRecordHandler(recordRepo)
	billingHandler := handlers.NewBillingHandler(billingRepo, handlers.BillingConfig{
		StripeSecretKey:        config.String("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:    config.String("STRIPE_WEBHOOK_SECRET", ""),
		StripeWebhookTolerance: config.Duration("STRIPE_WEBHOOK_TOLERANCE", 5*time.Minute),
		CheckoutSuccessURL:     config.String("CHECKOUT_SUCCESS_URL", "https://example.com/billing/success"),
		CheckoutCancelURL:      config.String("CHECKOUT_CANCEL_URL", "https://example.com/billing/cancel"),
	}, logger)
	inventoryHandler := handlers.NewInventoryHandler(inventoryRepo)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	toothChartHandler := handlers.NewToothChartHandler(toothChartRepo)
	locationHandler := handlers.NewLocationHandler(locationRepo)
	planHandler := handlers.NewPlanHandler(planRepo)
	userHandler := handlers.NewUserHandler(userRepo)

	authed := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, authn.Require(jwtSecret))
	}
	staff := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, authn.Require(jwtSecret), authn.RequireStaff())
	}

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.Handle("GET /api/v1/auth/me", authed(authHandler.Me))

	mux.Handle("POST /api/v1/appointments", authed(apptHandler.Create))
	mux.Handle("GET /api/v1/appointments", authed(apptHandler.List))
	mux.Handle("GET /api/v1/appointments/today", staff(apptHandler.Today))
	mux.Handle("GET /api/v1/appointments/upcoming", authed(apptHandler.Upcoming))
	mux.Handle("GET /api/v1/appointments/booked_slots", authed(apptHandler.BookedSlots))
	mux.Handle("GET /api/v1/appointments/{id}", authed(apptHandler.Get))
	mux.Handle("PATCH /api/v1/appointments/{id}", staff(apptHandler.Update))
	mux.Handle("DELETE /api/v1/appointments/{id}", staff(apptHandler.Delete))

	mux.Handle("POST /api/v1/appointments/{id}/request_reschedule", authed(apptHandler.RequestReschedule))
	mux.Handle("POST /api/v1/appointments/{id}/approve_reschedule", staff(apptHandler.ApproveReschedule))
	mux.Handle("POST /api/v1/appointments/{id}/reject_reschedule", staff(apptHandler.RejectReschedule))
	mux.Handle("POST /api/v1/appointments/{id}/request_cancel", authed(apptHandler.RequestCancel))
	mux.Handle("POST /api/v1/appointments/{id}/approve_cancel", staff(apptHandler.ApproveCancel))
	mux.Handle("POST /api/v1/appointments/{id}/reject_cancel", staff(apptHandler.RejectCancel))
	mux.Handle("POST /api/v1/appointments/{id}/mark_completed", staff(apptHandler.Complete))
	mux.Handle("POST /api/v1/appointments/{id}/mark_missed", staff(apptHandler.MarkMissed))

	mux.Handle("GET /api/v1/services", authed(serviceHandler.List))
	mux.Handle("GET /api/v1/services/by_category", authed(serviceHandler.ByCategory))
	mux.Handle("GET /api/v1/services/{id}", authed(serviceHandler.Get))
	mux.Handle("POST /api/v1/services", staff(serviceHandler.Create))
	mux.Handle("PATCH /api/v1/services/{id}", staff(serviceHandler.Update))
	mux.Handle("DELETE /api/v1/services/{id}", staff(serviceHandler.Delete))

	mux.Handle("GET /api/v1/records", authed(recordHandler.List))
	mux.Handle("GET /api/v1/records/{id}", authed(recordHandler.Get))
	mux.Handle("POST /api/v1/records", staff(recordHandler.Create))
	mux.Handle("PATCH /api/v1/records/{id}", staff(recordHandler.Update))
	mux.Handle("DELETE /api/v1/records/{id}", staff(recordHandler.Delete))

	mux.Handle("GET /api/v1/billing", authed(billingHandler.List))
	mux.Handle("GET /api/v1/billing/{id}", authed(billingHandler.Get))
	mux.Handle("POST /api/v1/billing", staff(billingHandler.Create))
	mux.Handle("PATCH /api/v1/billing/{id}/status", staff(billingHandler.SetStatus))
	mux.Handle("POST /api/v1/billing/{id}/checkout", authed(billingHandler.Checkout))
	mux.HandleFunc("POST /api/v1/billing/stripe/webhook", billingHandler.StripeWebhook)

	mux.Handle("GET /api/v1/inventory", staff(inventoryHandler.List))
	mux.Handle("GET /api/v1/inventory/low_stock", staff(inventoryHandler.LowStock))
	mux.Handle("GET /api/v1/inventory/{id}", staff(inventoryHandler.Get))
	mux.Handle("POST /api/v1/inventory", staff(inventoryHandler.Create))
	mux.Handle("PATCH /api/v1/inventory/{id}", staff(inventoryHandler.Update))
	mux.Handle("DELETE /api/v1/inventory/{id}", staff(inventoryHandler.Delete))

	mux.Handle("GET /api/v1/tooth_charts/{patient_id}", authed(toothChartHandler.Get))
	mux.Handle("PUT /api/v1/tooth_charts/{patient_id}", staff(toothChartHandler.Put))

	mux.HandleFunc("GET /api/v1/locations", locationHandler.List)
	mux.HandleFunc("GET /api/v1/locations/{id}", locationHandler.Get)
	mux.Handle("POST /api/v1/locations", staff(locationHandler.Create))
	mux.Handle("PATCH /api/v1/locations/{id}", staff(locationHandler.Update))
	mux.Handle("DELETE /api/v1/locations/{id}", staff(locationHandler.Delete))

	mux.Handle("GET /api/v1/treatment_plans", authed(planHandler.List))
	mux.Handle("GET /api/v1/treatment_plans/{id}", authed(planHandler.Get))
	mux.Handle("POST /api/v1/treatment_plans", staff(planHandler.Create))
	mux.Handle("PATCH /api/v1/treatment_plans/{id}", staff(planHandler.Update))
	mux.Handle("DELETE /api/v1/treatment_plans/{id}", staff(planHandler.Delete))

	mux.Handle("GET /api/v1/notifications", authed(notificationHandler.List))
	mux.Handle("POST /api/v1/notifications/{id}/read", authed(notificationHandler.MarkRead))
	mux.Handle("POST /api/v1/notifications/read_all", authed(notificationHandler.MarkAllRead))

	mux.Handle("GET /api/v1/users/patients", staff(userHandler.ListPatients))
	mux.Handle("GET /api/v1/users/staff", authed(userHandler.ListStaff))

	bodyLimit := int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))
	requestTimeout := config.Duration("REQUEST_TIMEOUT", 10*time.Second)
	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 120)

	var rateLimitMW httpx.Middleware
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		redisDB := 0
		if v, err := strconv.Atoi(config.String("REDIS_DB", "0")); err == nil && v >= 0 {
			redisDB = v
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       redisDB,
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods:   config.List("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS"),
			AllowedHeaders:   config.List("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id"),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           config.Duration("CORS_MAX_AGE", 10*time.Minute),
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithBodyLimit(bodyLimit),
		httpx.WithTimeout(requestTimeout),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, "clinic-api")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
