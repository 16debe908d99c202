/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"messenger/internal"
	"messenger/internal/data"
	"messenger/internal/input"
	"messenger/internal/metrics"
	"messenger/internal/nlog"
	"messenger/internal/responder"
	"messenger/internal/service"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	folder := flag.String("config", ".", "folder holding the .cfg file")
	flag.Parse()

	if err := run(*folder); err != nil {
		fmt.Fprintf(os.Stderr, "messenger: %v\n", err)
		os.Exit(1)
	}
}

func run(folder string) error {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	boot := nlog.Console("boot")
	cfg, err := internal.LoadConfig(folder)
	if err != nil {
		return err
	}
	boot.Logf("Configuration loaded from %s {port:%d, responder:%s}", folder, cfg.HTTPServerPort, cfg.Responder.Kind)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Logging, one file per subsystem
	serverLogger, err := nlog.NewServerLogger(cfg.LogPath(), cfg.EnableLogging)
	if err != nil {
		return err
	}
	loggers := make(map[string]nlog.Logger)
	for _, subsystem := range []string{"http", "auth", "delivery", "responder", "storage"} {
		if loggers[subsystem], err = serverLogger.RegisterSubsystem(subsystem); err != nil {
			return err
		}
	}
	// The logger outlives ctx so the shutdown itself still gets logged
	loggerCtx, stopLogger := context.WithCancel(context.Background())
	loggerDone := make(chan struct{})
	go func() {
		serverLogger.Run(loggerCtx)
		close(loggerDone)
	}()
	defer func() {
		stopLogger()
		<-loggerDone
	}()

	// Storage
	db, err := data.OpenSQLite(cfg.DBPath())
	if err != nil {
		return err
	}
	storage, err := data.NewStorageManager(db)
	if err != nil {
		return err
	}
	defer storage.Close()
	loggers["storage"].Logf("Database ready at %s", cfg.DBPath())

	m := metrics.New()

	// Built once and shared by every request
	generator, err := responder.NewGenerator(cfg.Responder.GeneratorConfig())
	if err != nil {
		return err
	}
	autoResponder := responder.NewAutoResponder(generator, cfg.Responder.Timeout(), loggers["responder"], m)

	presenceService := service.NewPresenceService(storage.GetPresenceRepository(), loggers["auth"], m)
	conversationService := service.NewConversationService(storage.GetMessageRepository(), loggers["delivery"])
	settingsService := service.NewSettingsService(storage.GetPresenceRepository(), loggers["delivery"])
	policy := service.NewResponderPolicy(storage.GetPresenceRepository())
	deliveryService := service.NewDeliveryService(storage.GetUserRepository(), conversationService, policy, autoResponder, cfg.Responder.Window, loggers["delivery"], m)
	authService := service.NewAuthService(storage.GetUserRepository(), presenceService, loggers["auth"], cfg.StaffUsers...)
	userService := service.NewUserService(storage.GetUserRepository(), storage.GetPresenceRepository(), conversationService, loggers["auth"])
	if _, err := userService.PromoteStaff(ctx, cfg.StaffUsers); err != nil {
		return err
	}

	inputManager := input.NewInputManager()
	inputManager.SetLogger(loggers["http"])
	inputManager.SetMetrics(m)
	inputManager.SetAuthService(authService)
	inputManager.SetUserService(userService)
	inputManager.SetPresenceService(presenceService)
	inputManager.SetConversationService(conversationService)
	inputManager.SetSettingsService(settingsService)
	inputManager.SetDeliveryService(deliveryService)

	err = inputManager.Run(ctx, &input.IptConfig{
		ServerPort:   cfg.HTTPServerPort,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		SecretKey:    cfg.SecretKey,
		RateRPS:      cfg.RateLimit.RPS,
		RateBurst:    cfg.RateLimit.Burst,
	})
	stop()
	if err != nil {
		return err
	}
	boot.Logf("Shutting off...")
	return nil
}
