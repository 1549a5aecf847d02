package main

import (
	"flag"
	"net/http"
	"net/url"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gitaguru/internal/app"
	"github.com/shrimpsizemoose/gitaguru/internal/handlers"
	"github.com/shrimpsizemoose/gitaguru/migrations"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	if err := service.Store.ApplyMigrations(migrations.FS); err != nil {
		logger.Error.Fatalf("Failed to apply migrations: %v", err)
	}

	mux := http.NewServeMux()
	handlers.NewHandler(service).Routes(mux)

	if local := service.Config.Storage.Local; strings.EqualFold(service.Config.Storage.Backend, "local") {
		base, err := url.Parse(local.BaseURL)
		if err != nil {
			logger.Error.Fatalf("Invalid storage.local.base_url: %v", err)
		}
		prefix := strings.TrimRight(base.Path, "/") + "/"
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(local.Root))))
		logger.Debug.Printf("Serving %s under %s", local.Root, prefix)
	}

	logger.Info.Printf("Starting gitaguru server on %s", service.Config.Server.Port)
	logger.Debug.Printf("Storage backend: %s", service.Config.Storage.Backend)
	logger.Debug.Println("Requiring headers:")
	for _, h := range service.Config.API.RequiredHeaders {
		logger.Debug.Printf("  %s: %s", h.Name, h.Value)
	}
	if err := http.ListenAndServe(service.Config.Server.Port, mux); err != nil {
		logger.Error.Fatalf("gitaguru server failed: %v", err)
	}
}
