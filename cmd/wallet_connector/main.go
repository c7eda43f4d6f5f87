package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wallet_connector/internal/app/port"
	"wallet_connector/internal/app/service"
	"wallet_connector/internal/domain/entity"
	"wallet_connector/internal/infrastructure/configloader"
	"wallet_connector/internal/infrastructure/connector"
	"wallet_connector/internal/infrastructure/metrics"
	clientprovider "wallet_connector/internal/infrastructure/network/client"
	networkdefinition "wallet_connector/internal/infrastructure/network/definition"
	"wallet_connector/internal/infrastructure/restapi"
	"wallet_connector/internal/infrastructure/session"
	"wallet_connector/internal/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		logger.Fatal("Wallet connector stopped with error", "error", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Базовый логгер до загрузки конфига
	logger.InitSlog("INFO")

	cfgPath := configloader.Path()
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	zapLogger, err := logger.InitZap(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("init zap logger: %w", err)
	}
	defer zapLogger.Sync() //nolint:errcheck
	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	registry := networkdefinition.NewNetworkDefinitionProvider(logger.NewComponentAdapter("networks"), cfg.Networks)

	injectedEnv := clientprovider.NewInjectedEnvironment(
		cfg.Injected.ProviderURL,
		time.Duration(cfg.Injected.RPCCallTimeoutSeconds)*time.Second,
		logger.Info,
		logger.Error,
	)
	defer injectedEnv.Close()
	if injectedEnv.Present() {
		zapLogger.Info("Injected provider configured", zap.String("endpoint", cfg.Injected.ProviderURL))
	} else {
		zapLogger.Warn("No injected provider configured, only remote pairing is available")
	}

	store, err := session.New(ctx, session.Config{
		Backend:       cfg.Session.Backend,
		Origin:        cfg.Session.Origin,
		Path:          cfg.Session.Path,
		RedisAddr:     cfg.Session.Redis.Addr,
		RedisPassword: cfg.Session.Redis.Password,
		RedisDB:       cfg.Session.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	connMetrics := metrics.NewConnectionMetrics(prometheus.DefaultRegisterer)

	// The pairing connector reports its URI to the service, which is built after the factory.
	var svc *service.ConnectionServiceImpl
	display := port.PairingDisplayFunc(func(uri string, qrPNG []byte) {
		if svc != nil {
			svc.ShowPairingURI(uri, qrPNG)
		}
	})

	factory := connector.NewFactory(registry, logger.NewComponentAdapter("connector_factory"))
	factory.Register(entity.WalletInjected, connector.NewInjectedBuilder(
		injectedEnv,
		time.Duration(cfg.Injected.PollIntervalSeconds)*time.Second,
		logger.NewComponentAdapter("injected_connector"),
	))
	factory.Register(entity.WalletRemotePairing, connector.NewPairingBuilder(
		connector.PairingConfig{
			ProjectID: cfg.Pairing.ProjectID,
			RelayURL:  cfg.Pairing.RelayURL,
			Metadata: connector.PeerMetadata{
				Name:        cfg.Pairing.Metadata.Name,
				Description: cfg.Pairing.Metadata.Description,
				URL:         cfg.Pairing.Metadata.URL,
				Icons:       cfg.Pairing.Metadata.Icons,
			},
			QRSize:     cfg.Pairing.QRSize,
			RPCTimeout: time.Duration(cfg.Pairing.RPCTimeoutSeconds) * time.Second,
		},
		display,
		logger.NewComponentAdapter("pairing_connector"),
	))
	if cfg.Pairing.ProjectID == "" {
		zapLogger.Warn("Pairing project id is empty, remote pairing attempts will fail", zap.String("env", configloader.EnvPairingProjectID))
	}

	svc = service.NewConnectionService(
		registry,
		factory,
		store,
		injectedEnv,
		logger.NewComponentAdapter("connection"),
		service.WithMetrics(connMetrics),
	)

	gin.SetMode(gin.ReleaseMode)
	router := restapi.SetupRouter(
		restapi.NewConnectionHandler(svc, logger.NewComponentAdapter("restapi")),
		zapLogger,
		restapi.RouterConfig{
			AllowedOrigins:   cfg.Server.AllowedOrigins,
			ConnectPerMinute: cfg.RateLimit.ConnectPerMinute,
			ConnectBurst:     cfg.RateLimit.Burst,
			MetricsHandler:   promhttp.Handler(),
		},
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zapLogger.Info(fmt.Sprintf("Server starting on port %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		// Ошибка восстановления сессии не должна останавливать сервер
		if err := svc.Restore(gctx); err != nil {
			zapLogger.Warn("Silent reconnect failed", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	zapLogger.Info("Server exiting")
	return nil
}
