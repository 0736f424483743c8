package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/park285/xiangqi-bot/internal/adapter/xiangqipresenter"
	appcfg "github.com/park285/xiangqi-bot/internal/config"
	"github.com/park285/xiangqi-bot/internal/obslog"
	"github.com/park285/xiangqi-bot/internal/xiangqibuilder"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.Init(obslog.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Console: cfg.Log.Console,
		ToFile:  cfg.Log.ToFile,
		File:    cfg.Log.File,
		Caller:  cfg.Log.Caller,
		Stdout:  os.Stderr,
	}); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	deps, err := xiangqibuilder.New(cfg, logger)
	if err != nil {
		logger.Fatal("init_failed", zap.Error(err))
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("shutdown_error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if deps.Relay != nil {
		sub, err := deps.Relay.Subscribe(ctx)
		if err != nil {
			logger.Fatal("relay_subscribe_failed", zap.Error(err))
		}
		defer sub.Close()
		go func() {
			if err := sub.Serve(ctx, deps.Manager.HandleRemote); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("relay_stopped", zap.Error(err))
			}
		}()
	}

	if cfg.HTTPAddr != "" {
		go func() {
			logger.Info("http_listen", zap.String("addr", cfg.HTTPAddr))
			if err := deps.HTTP.Listen(cfg.HTTPAddr); err != nil {
				logger.Error("http_stopped", zap.Error(err))
				stop()
			}
		}()
	}

	presenter := xiangqipresenter.NewPresenter(deps.Formatter, func(_, message string) error {
		_, err := fmt.Fprintln(os.Stdout, message)
		return err
	})
	con := &console{mgr: deps.Manager, presenter: presenter}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	logger.Info("xiangqid_ready", zap.String("node_id", cfg.NodeID))
	for {
		select {
		case <-ctx.Done():
			logger.Info("xiangqid_shutdown")
			return
		case line, ok := <-lines:
			if !ok || !con.handle(ctx, line) {
				return
			}
		}
	}
}
