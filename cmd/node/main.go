package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/echo-chain/sidenode/internal/config"
	"github.com/echo-chain/sidenode/internal/engine"
	"github.com/echo-chain/sidenode/internal/store"
	"github.com/echo-chain/sidenode/internal/util"
)

func main() {
	cfg := config.LoadFromEnv("")

	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "data/node.log"
	}
	logger, err := util.NewLoggerWithFile(logFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", logFile)

	st, err := store.NewPebbleStore(cfg.DataDir)
	if err != nil {
		sugar.Fatalw("store_init_failed", "err", err)
	}
	defer st.Close()

	eng := engine.New(cfg, st, sugar)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		sugar.Infow("api_server_starting", "addr", cfg.HTTPAddr)
		if err := eng.API.Start(cfg.HTTPAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	sugar.Infow("node_started", "master_name", cfg.MasterName, "native_symbol", cfg.NativeSymbol)

	<-ctx.Done()
	sugar.Info("node_shutting_down")
}
