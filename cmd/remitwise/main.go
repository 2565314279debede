package main

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stellar/go/keypair"

	"github.com/layer-3/remitwise/adapters/events"
	"github.com/layer-3/remitwise/adapters/repository"
	"github.com/layer-3/remitwise/adapters/stellar"
	"github.com/layer-3/remitwise/adapters/store"
	"github.com/layer-3/remitwise/adapters/tokenizer"
	"github.com/layer-3/remitwise/config"
	"github.com/layer-3/remitwise/core"
	"github.com/layer-3/remitwise/logging"
	"github.com/layer-3/remitwise/ports"
	"github.com/layer-3/remitwise/service"
	transport "github.com/layer-3/remitwise/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New("remitwise", cfg.LogLevel, !cfg.IsProduction())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	signKey, err := loadSigningKey(cfg, logger)
	if err != nil {
		return err
	}

	var (
		nonces      ports.NonceStore
		revocations ports.Store
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		redisStore := store.NewRedisStore(redisClient)
		if err := redisStore.Ping(ctx); err != nil {
			return err
		}
		nonces, revocations = redisStore, redisStore
	} else {
		logger.Warn().Msg("REDIS_URL not set, keeping nonces in memory; do not run more than one instance")
		memStore := store.NewMemoryStore()
		nonces, revocations = memStore, memStore
	}

	eventPub, closeEvents, err := newEventPublisher(cfg, redisClient, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	users := repository.NewUserRepository(db)

	authService := service.NewAuthService(
		service.AuthConfig{NonceTTL: cfg.Session.NonceTTL, SessionTTL: cfg.Session.TTL},
		nonces,
		stellar.NewVerifier(),
		tokenizer.NewJWTTokenizer(signKey, cfg.Session.Issuer),
		revocations,
		users,
		eventPub,
		logger,
	)
	userService := service.NewUserService(users, eventPub, logger)

	txBuilder, err := newTxBuilder(cfg, logger)
	if err != nil {
		return err
	}
	contractService := service.NewContractService(txBuilder, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	cookie := transport.DefaultCookieConfig()
	cookie.Name = cfg.Session.CookieName
	cookie.Path = cfg.Session.CookiePath
	cookie.Domain = cfg.Session.CookieDomain
	cookie.Secure = cfg.Session.CookieSecure
	cookie.SameSite = cfg.SameSite()

	router := transport.SetupRouter(transport.RouterConfig{
		Logger:        logger,
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		Cookie:        cookie,
		AdminSecret:   cfg.AdminSecret,
		RetentionDays: cfg.Retention.Days,
	}, transport.Services{
		Auth:      authService,
		Users:     userService,
		Contracts: contractService,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func loadSigningKey(cfg *config.Config, logger zerolog.Logger) (*ecdsa.PrivateKey, error) {
	if cfg.Session.SigningKey != "" {
		return tokenizer.ParseSigningKey([]byte(cfg.Session.SigningKey))
	}

	logger.Warn().Msg("SESSION_SIGNING_KEY not set, generating an ephemeral key; sessions will not survive a restart")
	return tokenizer.GenerateSigningKey()
}

// newEventPublisher returns the event publisher and a function releasing it
func newEventPublisher(cfg *config.Config, client *redis.Client, logger zerolog.Logger) (ports.EventPublisher, func() error, error) {
	if !cfg.EventsEnabled {
		return events.NopPublisher{}, func() error { return nil }, nil
	}
	if client == nil {
		return nil, nil, errors.New("EVENTS_ENABLED requires REDIS_URL")
	}

	publisher, err := events.NewRedisStreamPublisher(client, logger)
	if err != nil {
		return nil, nil, err
	}

	return events.NewWatermillPublisher(publisher), publisher.Close, nil
}

func newTxBuilder(cfg *config.Config, logger zerolog.Logger) (ports.ContractInvoker, error) {
	builderCfg := stellar.TxBuilderConfig{
		NetworkPassphrase: cfg.Stellar.NetworkPassphrase,
		Contracts: map[core.Contract]string{
			core.ContractBills:     cfg.Stellar.BillsContractID,
			core.ContractInsurance: cfg.Stellar.InsuranceContractID,
			core.ContractSplit:     cfg.Stellar.SplitContractID,
		},
	}

	if cfg.Stellar.CustodialMode {
		signer, err := keypair.ParseFull(cfg.Stellar.ServerSecret)
		if err != nil {
			return nil, fmt.Errorf("invalid STELLAR_SERVER_SECRET: %w", err)
		}
		builderCfg.ServerSigner = signer
	}

	return stellar.NewTxBuilder(builderCfg, stellar.NewHorizonAccounts(cfg.Stellar.HorizonURL), logger), nil
}
