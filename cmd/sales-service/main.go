package main

import (
	"fmt"
	"os"

	"github.com/nurpe/sales-backoffice/internal/auth"
	"github.com/nurpe/sales-backoffice/internal/config"
	"github.com/nurpe/sales-backoffice/internal/db"
	"github.com/nurpe/sales-backoffice/internal/excel"
	httphandler "github.com/nurpe/sales-backoffice/internal/http"
	"github.com/nurpe/sales-backoffice/internal/http/middleware"
	"github.com/nurpe/sales-backoffice/internal/logger"
	"github.com/nurpe/sales-backoffice/internal/pdf"
	"github.com/nurpe/sales-backoffice/internal/repository"
	"github.com/nurpe/sales-backoffice/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateHTTP(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	store := repository.NewStore(database)

	contractService := service.NewContractService(store, cfg.Contract, log)
	requestService := service.NewMonthlyRequestService(store, cfg.Request, pdf.NewGenerator(), excel.NewGenerator(), log)
	vacationService := service.NewPaidVacationService(store, cfg.PaidVacation, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(contractService, requestService, vacationService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.CORSAllowedOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting sales back-office service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
