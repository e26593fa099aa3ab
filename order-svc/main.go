package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"quiosco/config"
	httpapi "quiosco/order-svc/internal/api/http"
	"quiosco/order-svc/internal/service"
	"quiosco/order-svc/internal/storage"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func main() {
	log.SetPrefix("[order-svc] ")
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "order-svc",
		Short: "Kiosk ordering API: catalog, carts, orders",
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := config.MustInitPostgres()
			defer db.Close()
			return migrate(cmd.Context(), db)
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default menu categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := config.MustInitPostgres()
			defer db.Close()
			return seed(cmd.Context(), db)
		},
	}
}

func migrate(ctx context.Context, db *sql.DB) error {
	if err := storage.NewPostgresRepository(db).EnsureSchema(ctx); err != nil {
		return err
	}
	log.Println("Schema is up to date")
	return nil
}

func seed(ctx context.Context, db *sql.DB) error {
	inserted, err := storage.NewPostgresRepository(db).SeedCategories(ctx, storage.DefaultCategories)
	if err != nil {
		return err
	}
	log.Printf("Seeded %d categories", inserted)
	return nil
}

func serve(ctx context.Context) error {
	db := config.MustInitPostgres()
	repo := storage.NewPostgresRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure schema:", err)
	}

	rdb := config.MustInitRedis()
	writer := config.NewKafkaWriter(config.GetEnv("ORDER_EVENTS_TOPIC", config.DefaultOrderEventsTopic))
	publisher := storage.NewKafkaPublisher(writer)

	var blobs service.BlobStore
	uploadDir := ""
	s3Settings := config.LoadS3Settings()
	s3Client, err := config.NewS3Client(ctx, s3Settings)
	if err != nil {
		log.Fatal("Failed to configure S3:", err)
	}
	if s3Client != nil {
		blobs = storage.NewS3BlobStore(s3Client, s3Settings.Bucket, s3Settings.BaseURL)
	} else {
		uploadDir = config.GetEnv("UPLOAD_DIR", "./uploads")
		log.Printf("WARNING: S3_BUCKET not set, storing uploads in %s", uploadDir)
		blobs = storage.NewLocalBlobStore(uploadDir, "/uploads")
	}

	qr := service.DefaultQRGenerator{Size: 256}
	notifier := service.NewWhatsAppNotifier(
		config.GetEnv("WHATSAPP_NUMBER", config.DefaultWhatsAppNumber), qr, repo, publisher)

	cache := storage.NewRedisOrderCache(rdb, config.GetEnvDuration("ORDERS_CACHE_TTL", time.Minute))
	orderSvc := service.NewOrderService(repo, cache, notifier, qr, publisher)
	catalogSvc := service.NewCatalogService(repo, blobs)
	cartSvc := service.NewCartService(
		storage.NewRedisCartStore(rdb, config.GetEnvDuration("CART_TTL", 2*time.Hour)), catalogSvc, orderSvc)

	handler := httpapi.NewHandler(catalogSvc, orderSvc, cartSvc)
	addr := config.GetEnv("HTTP_ADDR", ":8081")
	server := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewRouter(handler, uploadDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Order Service starting on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed:", err)
		}
	}()

	// Steps depend on each other, so they share one operation.
	wait := gfshutdown.GracefulShutdown(context.Background(), shutdownTimeout, map[string]gfshutdown.Operation{
		"order-svc": func(ctx context.Context) error {
			err := server.Shutdown(ctx)
			orderSvc.Wait()
			return errors.Join(err, writer.Close(), rdb.Close(), db.Close())
		},
	})

	if code := <-wait; code != 0 {
		return fmt.Errorf("shutdown finished with exit code %d", code)
	}
	log.Println("Order Service stopped")
	return nil
}
