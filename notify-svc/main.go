package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"quiosco/config"
	httpapi "quiosco/notify-svc/internal/api/http"
	"quiosco/notify-svc/internal/service"
	"quiosco/notify-svc/internal/storage"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gorilla/mux"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.SetPrefix("[notify-svc] ")

	rdb := config.MustInitRedis()
	reader := config.NewKafkaReader(
		config.GetEnv("ORDER_EVENTS_TOPIC", config.DefaultOrderEventsTopic),
		config.GetEnv("NOTIFY_GROUP_ID", "notify-svc-consumer"),
	)
	store := storage.NewStore(rdb, config.GetEnvDuration("NOTIFY_MARKER_TTL", 7*24*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := run(ctx, reader, store)

	addr := config.GetEnv("HTTP_ADDR", ":8082")
	server := &http.Server{
		Addr:              addr,
		Handler:           newRouter(store),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Notification Service listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed:", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), shutdownTimeout, map[string]gfshutdown.Operation{
		"notify-svc": func(ctx context.Context) error {
			err := server.Shutdown(ctx)
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
				return errors.Join(err, ctx.Err())
			}
			return errors.Join(err, reader.Close(), rdb.Close())
		},
	})

	code := <-wait
	log.Println("Notification Service stopped")
	os.Exit(code)
}

func newRouter(outbox service.OutboxReader) http.Handler {
	r := mux.NewRouter()
	httpapi.NewHandler(outbox).RegisterRoutes(r)
	return r
}

// run starts the consumer in the background; the returned channel closes when it stops.
func run(ctx context.Context, reader service.MessageReader, store *storage.Store) <-chan struct{} {
	if pending, err := store.Recent(ctx, storage.OutboxLimit); err != nil {
		log.Printf("WARNING: reading outbox: %v", err)
	} else {
		log.Printf("%d notifications in outbox", len(pending))
	}

	consumer := service.NewConsumer(reader, store)
	done := make(chan struct{})
	go func() {
		defer close(done)
		consumer.Start(ctx)
	}()
	return done
}
