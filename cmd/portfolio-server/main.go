package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/finview/portfolio-tracker/internal/auth"
	"github.com/finview/portfolio-tracker/internal/config"
	"github.com/finview/portfolio-tracker/internal/investment"
	"github.com/finview/portfolio-tracker/internal/logger"
	"github.com/finview/portfolio-tracker/internal/market"
	"github.com/finview/portfolio-tracker/internal/portfolio"
	"github.com/finview/portfolio-tracker/internal/postgres"
	"github.com/finview/portfolio-tracker/internal/server"
	"github.com/finview/portfolio-tracker/internal/watchlist"
)

const _cfgFilePath = "./configs/config.yaml"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("can't detect .env file")
	}

	cfg, err := config.Load(_cfgFilePath)
	if err != nil {
		log.Fatalf("%s: can't load config", err)
	}

	zapLogger, loggerSync, err := logger.NewZapLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := postgres.NewDB(postgres.NewConfigFromEnv().Setup())
	if err != nil {
		zapLogger.Fatalf("%s: can't connect to postgres", err)
	}
	defer db.Close()

	marketSvc := market.NewService(cfg.Market, db, zapLogger.With("component", "market"))
	authSvc := auth.NewService(db, cfg.Session.TTL, zapLogger.With("component", "auth"))
	watchlistSvc := watchlist.NewService(watchlist.NewStore(db), zapLogger.With("component", "watchlist"))
	investmentSvc := investment.NewService(db, marketSvc, zapLogger.With("component", "investment"))
	portfolioSvc := portfolio.NewService(investmentSvc, marketSvc, cfg.BaseCurrency, zapLogger.With("component", "portfolio"))

	h := server.NewHandler(authSvc, watchlistSvc, investmentSvc, portfolioSvc, marketSvc, cfg.BaseCurrency, zapLogger)

	s := server.NewHTTPServer(ctx, cfg.Server.Port, h.Router())
	zapLogger.Infof("portfolio server listening on :%s", cfg.Server.Port)

	if err := s.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zapLogger.Fatalf("%s: server stopped", err)
	}
}
