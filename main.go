package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"boardhub/internal/auth"
	"boardhub/internal/config"
	"boardhub/internal/db"
	"boardhub/internal/grpcserver"
	"boardhub/internal/handlers"
	"boardhub/internal/logging"
	"boardhub/internal/middleware"
	"boardhub/internal/observability"
	"boardhub/internal/presence"
	"boardhub/internal/rabbitmq"
	"boardhub/internal/repositories"
	"boardhub/internal/telemetry"
	"boardhub/internal/ws"
)

const serviceName = "boardhub-chat"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Development(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, serviceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}

	database, err := db.Connect(ctx, cfg.DBDSN, logger)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer database.Close()

	tracker, closeRedis := newPresenceTracker(ctx, cfg, logger)
	defer closeRedis()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	audit := telemetry.NewAuditEmitter(publisher, telemetry.AuditRoutingKey, serviceName, cfg.Env, logger)
	logger.Info("event publisher ready",
		zap.String("mode", rabbitmq.PublisherMode(publisher)),
		zap.String("noop_reason", rabbitmq.PublisherNoopReason(publisher)),
	)

	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)

	messageRepo := repositories.NewMessageRepo(database)
	updateRepo := repositories.NewUpdateRepo(database)

	hub := ws.NewHub(ws.NewRegistry(), logger, ws.WithSendTimeout(cfg.WS.BroadcastTimeout))

	chatHandler := handlers.NewChatHandler(messageRepo, hub, tracker, audit, logger)
	updateHandler := handlers.NewUpdateHandler(updateRepo, audit, logger)
	chatWS := ws.NewHandler(hub, verifier, tracker, ws.Options{
		Subprotocol:     cfg.WS.Subprotocol,
		WriteTimeout:    cfg.WS.WriteTimeout,
		MaxMessageBytes: cfg.WS.MaxMessageBytes,
		RateLimit:       cfg.WS.RateLimit,
		RateBurst:       cfg.WS.RateBurst,
		AllowedOrigins:  cfg.WS.AllowedOrigins,
	}, logger)

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.RequestID())
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// the websocket route authenticates itself so browsers can pass tokens
	// through the subprotocol header or query string
	router.GET("/chat/ws", chatWS.Handle)

	api := router.Group("/", middleware.AuthMiddleware(verifier))
	api.GET("/chat/messages", chatHandler.GetMessages)
	api.POST("/chat/messages", chatHandler.PostMessage)
	api.GET("/chat/online-users", chatHandler.OnlineUsers)
	api.GET("/chat/presence/:user_id", chatHandler.Presence)

	api.GET("/updates", updateHandler.ListUpdates)
	api.POST("/updates", updateHandler.CreateUpdate)
	api.DELETE("/updates/:update_id", updateHandler.DeleteUpdate)

	handlers.RegisterDebugRoutes(api, hub, audit, cfg.DebugRoutes)

	grpcSrv := startGRPC(cfg.GRPCPort, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcSrv != nil {
		grpcSrv.Stop()
	}
	// hijacked websocket connections are not tracked by http.Server
	hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown", zap.Error(err))
	}
}

// newPresenceTracker connects to Redis when configured; otherwise, or when the
// server is unreachable, last-seen tracking is disabled.
func newPresenceTracker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (presence.Tracker, func()) {
	if cfg.RedisAddr == "" {
		logger.Info("presence mirror disabled", zap.String("reason", "empty redis addr"))
		return presence.NoopStore{}, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("presence mirror disabled", zap.Error(err))
		_ = client.Close()
		return presence.NoopStore{}, func() {}
	}

	return presence.NewRedisStore(client, "boardhub", 7*24*time.Hour), func() { _ = client.Close() }
}

func startGRPC(port string, logger *zap.Logger) *grpcserver.Server {
	if port == "" {
		return nil
	}
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		logger.Fatal("failed to listen for grpc", zap.String("port", port), zap.Error(err))
	}

	srv := grpcserver.New(logger)
	srv.SetServing(true)
	go func() {
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server error", zap.Error(err))
		}
	}()
	return srv
}
