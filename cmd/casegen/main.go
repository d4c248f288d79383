package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/homemade/casegen/addon"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config layered over the embedded defaults")
	flag.Parse()

	cfg, err := addon.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	server, err := addon.NewServer(cfg, addon.NewInstallationStore())
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Serving add-on %q on %s (base URL %s)", cfg.Addon.Key, cfg.Server.Addr, cfg.Server.BaseURL)
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
