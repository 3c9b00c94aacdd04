package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/config"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/repository"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-timetravel/transport/rest"
	"github.com/rocketscienceinc/tictactoe-timetravel/transport/terminal"
	"github.com/rocketscienceinc/tictactoe-timetravel/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	sessionRepo, closeRepo, err := newSessionRepository(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer closeRepo()

	if conf.Mode == config.ModeTerminal {
		return runTerminal(ctx, logger, sessionRepo)
	}

	return runWeb(ctx, logger, conf, sessionRepo)
}

func newSessionRepository(ctx context.Context, logger *slog.Logger, conf *config.Config) (repository.SessionRepository, func(), error) {
	log := logger.With("component", "app")

	if conf.Storage.Driver == config.DriverMemory {
		log.Info("Using in-memory session storage", "ttl", conf.Storage.SessionTTL)
		return repository.NewMemorySessionRepository(conf.Storage.SessionTTL), func() {}, nil
	}

	redisStorage, err := storage.NewRedis(ctx, conf.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	log.Info("Using redis session storage", "addr", conf.Redis.GetRedisAddr(), "ttl", conf.Storage.SessionTTL)

	closeRedis := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewSessionRepository(redisStorage, conf.Storage.SessionTTL), closeRedis, nil
}

func runWeb(ctx context.Context, logger *slog.Logger, conf *config.Config, sessionRepo repository.SessionRepository) error {
	log := logger.With("component", "app")

	hub := websocket.NewHub(logger)
	gameManager := usecase.NewGameManager(logger, sessionRepo, hub)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, gameManager, conf.SocketPort)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameManager, hub)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// runTerminal - one local session, nobody else is listening for updates.
func runTerminal(ctx context.Context, logger *slog.Logger, sessionRepo repository.SessionRepository) error {
	gameManager := usecase.NewGameManager(logger, sessionRepo, nil)

	ui := terminal.New(logger, gameManager, uuid.NewString())
	if err := ui.Run(ctx); err != nil {
		return fmt.Errorf("terminal error: %w", err)
	}

	return nil
}
