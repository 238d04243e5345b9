package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Flow/internal/config"
	"Flow/internal/credential"
	"Flow/internal/handlers"
	"Flow/internal/middleware"
	"Flow/internal/offload"
	"Flow/internal/repo"
	"Flow/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 3 * time.Second

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, sugar); err != nil {
		sugar.Errorw("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) error {
	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.CloseDB(gormDB); err != nil {
			sugar.Warnw("Failed to close database", "error", err)
		}
	}()

	bodies, err := offload.New(cfg.StorageRoot)
	if err != nil {
		return err
	}
	creds, err := credential.OpenFileStore(cfg.CredentialsFile)
	if err != nil {
		return err
	}

	userRepo := repo.NewUserRepository(gormDB)
	itemRepo := repo.NewItemRepository(gormDB)

	userService := service.NewUserService(userRepo, itemRepo, credential.NewVerifier(creds, userRepo), bodies, sugar)
	itemService := service.NewItemService(itemRepo, bodies, sugar, service.Settings{
		PageSize:         cfg.PageSize,
		PrefetchDistance: cfg.PrefetchDistance,
		SeedUser:         cfg.SeedUser,
		SeedCount:        cfg.SeedCount,
	})

	// gctx живёт до остановки сервера: на нём же идёт фоновое наполнение
	g, gctx := errgroup.WithContext(ctx)
	h := handlers.NewHandler(gctx, userService, itemService, sugar, cfg)

	srv := &http.Server{
		Addr:              cfg.BaseURL,
		Handler:           h.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sugar.Infow("Starting server", "addr", srv.Addr)
	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"DatabaseDSN", cfg.DatabaseDSN,
		"StorageRoot", cfg.StorageRoot,
		"CredentialsFile", cfg.CredentialsFile,
		"PageSize", cfg.PageSize,
		"SeedUser", cfg.SeedUser,
	)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sugar.Infow("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// база закрывается после g.Wait, наполнение должно успеть отпустить её
		if werr := itemService.WaitSeeding(shutdownCtx); werr != nil {
			sugar.Warnw("Demo seeding did not finish before shutdown", "error", werr)
		}
		return err
	})
	return g.Wait()
}
