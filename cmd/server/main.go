package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bentahub/backend/internal/config"
	"bentahub/backend/internal/httpapi"
	"bentahub/backend/internal/notify"
	"bentahub/backend/internal/service"
	"bentahub/backend/internal/store"
	"bentahub/backend/internal/store/bolt"
	"bentahub/backend/internal/store/memory"
)

func main() {
	cfg := config.Load()

	st, kind, err := openStore(cfg)
	if err != nil {
		log.Fatalf("store unavailable (%v) and DATA_PATH is set; refusing to start without persistence", err)
	}
	log.Printf("store: %s", kind)

	notifier := notify.New()
	notifier.SubscribeLog()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	svc := service.New(ctx, st, notifier)
	cancel()

	api := httpapi.New(svc, cfg.AllowedOrigin, cfg.TerminalID, cfg.MaxQRImageKB, cfg.RequestLogging)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("%s POS backend listening on %s", cfg.StoreName, cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownSecs)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	if err := st.Close(); err != nil {
		log.Printf("close error: %v", err)
	}

	log.Println("server stopped")
}

// openStore picks the durable bolt store when DATA_PATH is set, otherwise an
// in-memory store for demo use. A configured path that cannot be opened is
// an error rather than a silent fallback.
func openStore(cfg config.Config) (store.Store, string, error) {
	if cfg.DataPath == "" {
		return memory.New(), "in-memory", nil
	}
	st, err := bolt.Open(cfg.DataPath)
	if err != nil {
		return nil, "", err
	}
	return st, "bolt:" + cfg.DataPath, nil
}
