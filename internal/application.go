package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/config"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/pkg/lock"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/repository"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/service"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-escrow/transport/rest"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	ledgerStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open custody storage: %w", err)
	}

	defer func() {
		if err = ledgerStorage.Close(); err != nil {
			log.Error("could not close custody storage", "error", err)
		}
	}()

	if err = ledgerStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init custody storage: %w", err)
	}

	authority := service.DeriveAuthority(conf.Escrow.ProgramID, conf.Escrow.Seed)
	log.Info("escrow authority derived", "authority", authority.Identity())

	gameService := service.NewGameService(repository.NewGameRepository(redisStorage))
	custodyService := service.NewCustodyService(logger, repository.NewLedgerRepository(ledgerStorage.Connection))
	authService := service.NewAuthService(conf.JWTSecretKey, conf.TokenTTL)

	gameUseCase := usecase.NewEscrowGameUseCase(logger, gameService, custodyService, lock.NewKeyLock(), authority)

	if conf.Dev.IssueTokens || conf.Dev.Faucet {
		log.Warn("development endpoints enabled", "issueTokens", conf.Dev.IssueTokens, "faucet", conf.Dev.Faucet)
	}

	log.Info("Starting HTTP server", "port", conf.HTTPPort)

	server := rest.New(logger, conf.Dev, gameUseCase, authService)
	if err = server.Start(ctx, conf.HTTPPort); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return nil
}
