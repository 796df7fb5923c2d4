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

	"github.com/robfig/cron/v3"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/calendar/google"
	"github.com/example/room-booking/internal/config"
	httptransport "github.com/example/room-booking/internal/http"
	"github.com/example/room-booking/internal/logging"
	"github.com/example/room-booking/internal/notify"
	"github.com/example/room-booking/internal/slack"
	"github.com/example/room-booking/internal/store"
	"github.com/example/room-booking/internal/store/sqlite"
	"github.com/example/room-booking/internal/timegrid"
)

func main() {
	logger := logging.New(os.Stdout, "info", "json")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger = logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	catalog, err := config.LoadCatalog(cfg.RoomsFile)
	if err != nil {
		logger.Error("failed to load room catalogue", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open property store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close property store", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	loc := cfg.Location()
	gridOpts := timegrid.Options{
		SlotMinutes:   cfg.SlotMinutes,
		WorkStartHour: cfg.WorkStartHour,
		WorkEndHour:   cfg.WorkEndHour,
		Location:      loc,
	}
	office := application.OfficeHours{StartHour: cfg.OfficeStartHour, EndHour: cfg.OfficeEndHour}

	calClient := google.NewClient(google.StaticToken(cfg.CalendarToken))

	ledger := notify.NewLedger(
		storage,
		store.NewTTLCache(1024, cfg.ConfirmationRetention),
		store.NewTimedMutex(),
		cfg.LockTimeout,
		cfg.ConfirmationRetention,
		logger,
		time.Now,
	)

	var notifier application.BookingNotifier = application.NoopNotifier{}
	var scanner *notify.Scanner
	var reminder *notify.Reminder
	if cfg.SlackBotToken != "" {
		chat := slack.NewClient(cfg.SlackBotToken, slack.WithUserOverrides(catalog.UserOverrides()))
		service := notify.NewService(chat, catalog, ledger, loc, cfg.BookingAppURL, cfg.SlackAdminID, cfg.SlackDefaultChannel, logger)
		notifier = service
		scanner = notify.NewScanner(calClient, catalog, service, storage, office, loc, logger, time.Now)
		reminder = notify.NewReminder(calClient, catalog, service, store.NewTTLCache(1024, 6*time.Hour), office, loc, logger, time.Now)
	} else {
		logger.Info("chat token not configured, confirmations disabled")
	}

	gridService := application.NewGridService(calClient, catalog, gridOpts, logger, time.Now)
	bookingService := application.NewBookingService(calClient, catalog, notifier, gridOpts, office, logger, time.Now)

	gridHandler := httptransport.NewGridHandler(gridService, bookingService, loc, logger)
	bookingHandler := httptransport.NewBookingHandler(bookingService, loc, logger)

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Grid:     gridHandler,
		Bookings: bookingHandler,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireUser(logger),
		},
	})

	if scanner != nil {
		schedule := cron.New()
		if _, err := schedule.AddFunc(cfg.ScanSchedule, func() {
			if err := scanner.Run(ctx); err != nil {
				logger.Error("confirmation scan failed", "error", err)
			}
		}); err != nil {
			logger.Error("invalid scan schedule", "schedule", cfg.ScanSchedule, "error", err)
			os.Exit(1)
		}
		if _, err := schedule.AddFunc("* * * * *", func() {
			if err := reminder.RemindUpcoming(ctx); err != nil {
				logger.Error("start reminders failed", "error", err)
			}
			if err := reminder.RemindEnding(ctx); err != nil {
				logger.Error("end reminders failed", "error", err)
			}
		}); err != nil {
			logger.Error("invalid reminder schedule", "error", err)
			os.Exit(1)
		}
		if _, err := schedule.AddFunc("0 8 * * 1-5", func() {
			if err := reminder.DailyDigest(ctx); err != nil {
				logger.Error("daily digest failed", "error", err)
			}
		}); err != nil {
			logger.Error("invalid digest schedule", "error", err)
			os.Exit(1)
		}
		schedule.Start()
		defer schedule.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("room booking API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
