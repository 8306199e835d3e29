// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Shivanand-hulikatti/eventpass/internal/config"
	"github.com/Shivanand-hulikatti/eventpass/internal/database"
	"github.com/Shivanand-hulikatti/eventpass/internal/delivery"
	"github.com/Shivanand-hulikatti/eventpass/internal/handler"
	"github.com/Shivanand-hulikatti/eventpass/internal/limiter"
	"github.com/Shivanand-hulikatti/eventpass/internal/repository"
	"github.com/Shivanand-hulikatti/eventpass/internal/service"
	"github.com/Shivanand-hulikatti/eventpass/internal/ticketcode"
	"github.com/Shivanand-hulikatti/eventpass/lib/logger"
	"github.com/Shivanand-hulikatti/eventpass/lib/sl"
)

func main() {
	configPath := flag.String("conf", "", "path to config file; empty reads the environment only")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	lg, err := logger.SetupLogger(conf.Env, logger.FileConfig{
		Path:       conf.Log.Path,
		MaxSizeMB:  conf.Log.MaxSizeMB,
		MaxBackups: conf.Log.MaxBackups,
		MaxAgeDays: conf.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatal(err)
	}
	lg.Info("starting eventpass", slog.String("config", *configPath), slog.String("env", conf.Env))

	if err := run(conf, lg); err != nil {
		lg.Error("fatal", sl.Err(err))
		os.Exit(1)
	}
}

func run(conf *config.Config, lg *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	db, err := database.NewPool(ctx, conf.Database, lg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}
	lg.Info("connected to postgres", slog.String("host", conf.Database.Host), slog.String("db", conf.Database.Name))

	codec, err := ticketcode.New(conf.Ticket.Namespace, []byte(conf.Ticket.Secret))
	if err != nil {
		return err
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(db)
	userRepo := repository.NewUserRepository(db)
	regRepo := repository.NewRegistrationRepository(db, codec)
	channelRepo := repository.NewChannelRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	checkinRepo := repository.NewCheckinRepository(db)
	pinRepo := repository.NewPinRepository(db)

	var sender service.TicketSender
	if conf.Telegram.BotToken != "" {
		bot, err := gotgbot.NewBot(conf.Telegram.BotToken, nil)
		if err != nil {
			return err
		}
		sender = delivery.NewTelegram(bot, regRepo, codec, lg)
		lg.Info("ticket delivery enabled", slog.String("bot", bot.Username))
	} else {
		lg.Warn("telegram bot token not set, ticket delivery disabled")
	}

	gateOpts := []service.GateOption{service.WithPinLength(conf.Gate.PinLength)}
	if conf.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			lg.Warn("redis unreachable, pin attempts not limited until it recovers", sl.Err(err))
		}
		gateOpts = append(gateOpts, service.WithLimiter(limiter.New(rdb, conf.Gate.MaxAttempts, conf.Gate.Window)))
	}

	regs := service.NewRegistrations(eventRepo, userRepo, regRepo, codec, sender, lg)
	payments := service.NewPayments(channelRepo, paymentRepo, regRepo, eventRepo, conf.Ticket.Currency, sender, lg)
	checkins := service.NewCheckins(regRepo, checkinRepo, codec, lg)
	gate := service.NewGate(pinRepo, lg, gateOpts...)

	h := handler.New(regs, payments, checkins, gate, db, lg)

	// ── 3. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr: conf.Listen.BindIP + ":" + conf.Listen.Port,
		Handler: h.Router(handler.RouterConfig{
			APIKey:         conf.API.Key,
			RequestTimeout: conf.API.RequestTimeout,
		}, lg),
		ErrorLog:     slog.NewLogLogger(lg.Handler(), slog.LevelError),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	lg.Info("server stopped")
	return nil
}
