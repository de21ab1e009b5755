package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/gearup/storefront/internal/admin"
	"github.com/gearup/storefront/internal/auth"
	"github.com/gearup/storefront/internal/catalog"
	"github.com/gearup/storefront/internal/config"
	"github.com/gearup/storefront/internal/database"
	"github.com/gearup/storefront/internal/events"
	"github.com/gearup/storefront/internal/httpapi"
	"github.com/gearup/storefront/internal/imagehost"
	"github.com/gearup/storefront/internal/invoice"
	"github.com/gearup/storefront/internal/orders"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, newLogger(cmd.ErrOrStderr(), "storefront"))
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Printf("Connected to database successfully")

	cache, closeCache, err := openCache(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	publisher, closeBroker, err := openPublisher(cfg.AMQP, logger)
	if err != nil {
		return err
	}
	defer closeBroker()

	roles := auth.RoleResolver{AdminDomain: cfg.Storefront.AdminDomain}
	identity, err := auth.NewFirebase(ctx, cfg.Identity, roles)
	if err != nil {
		return fmt.Errorf("init identity provider: %w", err)
	}

	orderService := orders.NewService(orders.SQLRepository{DB: db}, publisher, logger)
	h := &httpapi.Handler{
		Auth:          identity,
		Orders:        orderService,
		Catalog:       catalog.NewService(catalog.SQLRepository{DB: db}, cache, logger),
		Users:         admin.NewUsers(identity, admin.SQLRepository{DB: db}, roles, logger),
		Images:        imagehost.New(cfg.ImageHost, nil),
		Invoice:       invoice.Options{Brand: cfg.Storefront.Brand},
		Logger:        logger,
		SessionTTL:    cfg.Storefront.SessionTTL,
		SecureCookies: cfg.Server.Production,
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpapi.NewRouter(h, cfg.Server.CORSAllowOrigins, cfg.Server.RequestTimeout),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Server starting on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Printf("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	orderService.Wait()

	logger.Printf("server exited")
	return nil
}

func openCache(ctx context.Context, cfg config.RedisConfig, logger *log.Logger) (catalog.Cache, func(), error) {
	if cfg.URL == "" {
		logger.Printf("REDIS_URL not set, catalog cache disabled")
		return catalog.NopCache{}, func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	return catalog.NewRedisCache(client, cfg.CatalogTTL), func() { client.Close() }, nil
}

func openPublisher(cfg config.AMQPConfig, logger *log.Logger) (events.Publisher, func(), error) {
	if cfg.URL == "" {
		logger.Printf("AMQP_URL not set, order events disabled")
		return events.NopPublisher{}, func() {}, nil
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to broker: %w", err)
	}
	publisher, err := events.NewAMQPPublisher(conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	return publisher, func() {
		publisher.Close()
		conn.Close()
	}, nil
}
