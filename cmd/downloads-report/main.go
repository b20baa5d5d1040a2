package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"downloads-report/internal/config"
	"downloads-report/internal/infrastructure/asset"
	"downloads-report/internal/infrastructure/sendowl"
	"downloads-report/internal/report"
	"downloads-report/internal/server"
)

func main() {
	_ = godotenv.Load(".env", ".env.local")
	envDefaults := config.EnvDefaults()

	env := flag.String("env", envDefaults.Env, "")
	port := flag.Int("port", envDefaults.Port, "")
	apiBase := flag.String("api-base", envDefaults.APIBase, "")
	apiKey := flag.String("api-key", envDefaults.APIKey, "")
	apiSecret := flag.String("api-secret", envDefaults.APISecret, "")
	timeout := flag.Int("timeout", envDefaults.TimeoutSeconds, "")
	reports := flag.String("reports", envDefaults.ReportsDir, "")
	logJSON := flag.Bool("log-json", envDefaults.LogJSON, "")
	watermark := flag.String("watermark", envDefaults.Watermark, "")
	timezone := flag.String("timezone", envDefaults.Timezone, "")

	flag.Parse()

	cfg := config.Config{
		Env:            *env,
		Port:           *port,
		APIBase:        *apiBase,
		APIKey:         *apiKey,
		APISecret:      *apiSecret,
		TimeoutSeconds: *timeout,
		ReportsDir:     *reports,
		LogJSON:        *logJSON,
		Watermark:      *watermark,
		Timezone:       *timezone,
	}

	if cfg.LogJSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stdout)
	if cfg.Env == "dev" {
		log.SetLevel(log.DebugLevel)
	}

	ensureDir(cfg.ReportsDir)

	cache := sendowl.NewProductNameCache()
	client := sendowl.NewClient(cfg.APIBase, cfg.APIKey, cfg.APISecret, cfg.Timeout(), cache)
	renderer := &report.Renderer{Watermark: cfg.Watermark, Location: cfg.Location()}
	writer := asset.NewFSWriter(cfg.ReportsDir, "")
	srv := server.New(cfg, client, renderer, writer)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.WithFields(log.Fields{"addr": addr, "api_base": cfg.APIBase}).Info("downloads-report listening")
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func ensureDir(p string) {
	if p == "" {
		return
	}
	if _, err := os.Stat(p); os.IsNotExist(err) {
		_ = os.MkdirAll(p, 0o755)
	}
}
