package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"quiosco/api-gateway/internal/gateway"
	"quiosco/config"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/rs/cors"
)

func main() {
	log.SetPrefix("[api-gateway] ")

	addr := config.GetEnv("HTTP_ADDR", ":8080")
	server := &http.Server{
		Addr:              addr,
		Handler:           newHandler(loadConfig()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("API Gateway starting on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed:", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), 10*time.Second, map[string]gfshutdown.Operation{
		"http": func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
	os.Exit(<-wait)
}

func loadConfig() gateway.Config {
	return gateway.Config{
		OrderSvcURL:  config.GetEnv("ORDER_SVC_URL", "http://localhost:8081"),
		NotifySvcURL: config.GetEnv("NOTIFY_SVC_URL", "http://localhost:8082"),
		FrontendDir:  os.Getenv("FRONTEND_DIR"),
	}
}

func newHandler(cfg gateway.Config) http.Handler {
	gw := gateway.NewGateway(cfg, &http.Client{Timeout: 30 * time.Second})
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(gw.SetupRoutes())
}
