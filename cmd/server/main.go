package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/skshohagmiah/flinbase/internal/devserver"
	"github.com/skshohagmiah/flinbase/internal/logger"
)

var (
	addr      = flag.String("addr", ":8080", "HTTP listen address")
	logLevel  = flag.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat = flag.String("log-format", "text", "log format: text or json")
)

func main() {
	flag.Parse()

	l := logger.Init(logger.Config{Level: *logLevel, Format: *logFormat})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := devserver.New(l).ListenAndServe(ctx, *addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
	l.Info("dev backend stopped")
}
