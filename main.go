// Command triphubs serves recorded trip clustering runs: a JSON API for
// run results plus ECharts debug views. Runs are produced by cmd/cluster.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/triphubs/internal/db"
)

var (
	devMode       = flag.Bool("dev", false, "Run in dev mode (mounts the admin debug routes)")
	listen        = flag.String("listen", ":8080", "Listen address")
	dbFile        = flag.String("db", "triphubs.db", "Path to the sqlite database")
	migrationsDir = flag.String("migrations", "migrations", "Path to the migrations directory")
	applyMigrate  = flag.Bool("migrate", false, "Apply pending migrations before serving")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if *applyMigrate {
		if err := database.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	}
	if err := database.CheckMigrations(*migrationsDir); err != nil {
		log.Fatalf("Schema check failed: %v (run with -migrate to apply)", err)
	}

	mux, err := newMux(database, *devMode)
	if err != nil {
		log.Fatalf("Failed to build routes: %v", err)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		})

		server := &http.Server{
			Addr:    *listen,
			Handler: h,
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
