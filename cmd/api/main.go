package main

import (
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/netdoctor/netdoctor/internal/config"
	"github.com/netdoctor/netdoctor/internal/diagnose"
	"github.com/netdoctor/netdoctor/internal/httpapi"
	"github.com/netdoctor/netdoctor/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	runner := diagnose.NewRunner(logger, cfg.Diagnostics)
	api := httpapi.NewServer(logger, runner, cfg.PublicRPM, cfg.PublicBurst)

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, api.Router()); err != nil {
		log.Fatal(err)
	}
}
