package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/caredent/clinic-backend/libs/config"
	"github.com/caredent/clinic-backend/libs/db"
	"github.com/caredent/clinic-backend/libs/httpx"
	"github.com/caredent/clinic-backend/libs/kafkax"
	otelx "github.com/caredent/clinic-backend/libs/otel"
	"github.com/caredent/clinic-backend/libs/runtime"
	"github.com/caredent/clinic-backend/services/notification-service/internal/consumer"
	"github.com/caredent/clinic-backend/services/notification-service/internal/email"
	"github.com/caredent/clinic-backend/services/notification-service/internal/fanout"
	"github.com/caredent/clinic-backend/services/notification-service/internal/inbox"
	"github.com/caredent/clinic-backend/services/notification-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8081")
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

	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 5)),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	inboxRepo := inbox.NewRepository(pool)
	notificationsRepo := storage.NewRepository(pool)

	var sender email.Sender = email.NoopSender{}
	if host := config.String("SMTP_HOST", ""); host != "" {
		sender = email.NewSMTPSender(host, config.String("SMTP_PORT", "1025"), config.String("SMTP_FROM", "no-reply@caredent.local"))
		logger.Info("email mirroring enabled", "smtp_host", host)
	}
	deliverer := fanout.New(notificationsRepo, sender, logger)

	consumerCfg := consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
		Topics: []string{
			"clinic.appointment.booked.v1",
			"clinic.appointment.reschedule_requested.v1",
			"clinic.appointment.cancel_requested.v1",
			"clinic.appointment.cancelled.v1",
		},
	}
	eventConsumer := consumer.New(logger, inboxRepo, consumerCfg, func(ctx context.Context, msg kafka.Message) error {
		var payload fanout.Payload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			// Malformed payloads are dropped, not retried.
			logger.Error("invalid event payload", "topic", msg.Topic, "err", err)
			return nil
		}
		if payload.AppointmentID == "" {
			logger.Error("event missing appointment_id", "topic", msg.Topic)
			return nil
		}
		return deliverer.Deliver(ctx, msg.Topic, payload)
	})
	go eventConsumer.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
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
