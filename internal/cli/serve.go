package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/readify/storefront/internal/admin"
	"github.com/readify/storefront/internal/backend"
	"github.com/readify/storefront/internal/checkout"
	"github.com/readify/storefront/internal/config"
	"github.com/readify/storefront/internal/health"
	h "github.com/readify/storefront/internal/http"
	"github.com/readify/storefront/internal/ledger"
	"github.com/readify/storefront/internal/mail"
	"github.com/readify/storefront/internal/notify"
	"github.com/readify/storefront/internal/orders"
	"github.com/readify/storefront/internal/payment"
	"github.com/readify/storefront/internal/store"
	"github.com/readify/storefront/internal/sweeper"
	"github.com/readify/storefront/pkg/circuitbreaker"
)

const healthInterval = 15 * time.Second

// NewServeCommand runs the HTTP API and the gRPC health server.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts.cfg, rootOpts.log)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Forward trace context to the backend and accept it from callers
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	checks := make(map[string]health.Checker)

	kv, kvCheck, closeKV, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	closers = append(closers, closeKV)
	if kvCheck != nil {
		checks["store"] = kvCheck
	}

	cat, closeCatalog, err := openCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	closers = append(closers, closeCatalog)
	if pinger, ok := cat.(health.Checker); ok {
		checks["catalog"] = pinger
	}

	inbox := notify.NewInbox(0)
	carts := ledger.NewRegistry(kv, func(sessionID string) notify.Notifier {
		return notify.Multi{
			inbox.For(sessionID),
			notify.NewLogNotifier(log.With("session_id", sessionID)),
		}
	}, log)

	var (
		backends     []checkout.OrderBackend
		adminBackend h.AdminBackend
		apiClient    *backend.Client
		background   sync.WaitGroup
	)

	if cfg.Backend.URL != "" {
		apiClient = backend.NewClient(backend.Config{
			BaseURL: cfg.Backend.URL,
			Token:   cfg.Backend.Token,
			Timeout: cfg.Backend.Timeout,
			Breaker: circuitbreaker.DefaultSettings(),
		}, log)
		backends = append(backends, apiClient)
		adminBackend = apiClient
	} else {
		log.Warn("BACKEND_URL not set, orders are not forwarded and admin views are disabled")
	}

	if cfg.Orders.Host != "" {
		repo, err := openOrders(cfg.Orders, log)
		if err != nil {
			return err
		}
		closers = append(closers, func() { repo.Close() })
		backends = append(backends, repo)
		checks["orders"] = repo

		if len(cfg.Orders.KafkaBrokers) > 0 {
			poller := orders.NewOutboxPoller(repo, cfg.Orders.KafkaTopic, log, cfg.Orders.KafkaBrokers...)
			background.Add(1)
			go func() {
				defer background.Done()
				poller.Run(ctx)
			}()
		}
	}

	backends = append(backends, mail.NewMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, log))

	checkouts := checkout.NewManager(cat, checkout.Config{
		Payee:           cfg.Payment.Payee,
		SettleDelay:     cfg.Checkout.SettleDelay,
		DispatchTimeout: cfg.Checkout.DispatchTimeout,
	}, log, backends...)

	gates := admin.NewRegistry(kv, newAuthenticator(cfg.Admin, apiClient, log), log)

	sweep := sweeper.New(cfg.Sessions.SweepInterval, cfg.Sessions.IdleTimeout, log)
	sweep.Add("carts", carts)
	sweep.Add("admin_gates", gates)
	sweep.Add("notifications", inbox)
	sweep.Add("checkouts", checkouts)
	background.Add(1)
	go func() {
		defer background.Done()
		sweep.Run(ctx)
	}()

	qr := payment.NewQRRenderer(payment.QRConfig{
		Endpoint: cfg.Payment.QREndpoint,
		Size:     cfg.Payment.QRSize,
		Timeout:  cfg.Payment.QRTimeout,
		Breaker:  circuitbreaker.DefaultSettings(),
	}, nil, log)

	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		LoginRate:          cfg.Admin.LoginRate,
		LoginBurst:         cfg.Admin.LoginBurst,
	}, h.Deps{
		Catalog:   cat,
		Carts:     carts,
		Checkouts: checkouts,
		Gates:     gates,
		Inbox:     inbox,
		QR:        qr,
		Admin:     adminBackend,
	})

	healthSrv := health.NewServer(checks, log)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}
	background.Add(1)
	go func() {
		defer background.Done()
		healthSrv.Watch(ctx, healthInterval)
	}()
	go func() {
		log.Info("gRPC health server listening", "port", cfg.GRPCPort)
		if err := healthSrv.Serve(lis); err != nil {
			log.Error("gRPC server error", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("storefront starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err = <-serveErr:
		log.Error("server error", "error", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if e2 := srv.Shutdown(shutdownCtx); e2 != nil {
		log.Error("server forced to shutdown", "error", e2)
	}
	healthSrv.Stop()
	checkouts.Wait()
	cancel()
	background.Wait()

	log.Info("server exited")
	return err
}

// openStore returns the configured KV store, an optional health check and a
// release function.
func openStore(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (store.KV, health.Checker, func(), error) {
	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		rs := store.NewRedisStore(client, cfg.TTL)
		if err := rs.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		log.Info("redis ping succeeded", "addr", cfg.RedisAddr)
		return rs, rs, func() { client.Close() }, nil

	case "mongo":
		db, err := store.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, nil, err
		}
		disconnect := func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				log.Error("failed to disconnect from MongoDB", "error", err)
			}
		}
		ms := store.NewMongoStore(db)
		if err := ms.CreateIndexes(ctx, cfg.TTL); err != nil {
			disconnect()
			return nil, nil, nil, err
		}
		log.Info("connected to MongoDB", "db", cfg.MongoDB)
		return ms, ms, disconnect, nil

	default:
		log.Warn("using in-memory store, carts are lost on restart")
		return store.NewMemoryStore(), nil, func() {}, nil
	}
}

func openOrders(cfg config.OrdersConfig, log *slog.Logger) (*orders.Repository, error) {
	cred := &orders.Credentials{
		Host:              cfg.Host,
		Port:              cfg.Port,
		User:              cfg.User,
		Password:          cfg.Password,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	repo, err := orders.NewRepository(cred, log)
	if err != nil {
		return nil, err
	}
	if err := repo.RunMigrations(cred); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

// newAuthenticator prefers backend login with JWT role checks and falls back
// to the local bcrypt password.
func newAuthenticator(cfg config.AdminConfig, client *backend.Client, log *slog.Logger) admin.Authenticator {
	if client != nil && cfg.JWTSecret != "" {
		return admin.NewBackendAuthenticator(client, cfg.JWTSecret)
	}
	if cfg.PasswordHash == "" {
		log.Warn("no admin authenticator configured, admin login is disabled")
	}
	return admin.NewPasswordAuthenticator(cfg.PasswordHash)
}
