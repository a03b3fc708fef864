package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"surveylens/internal/config"
	"surveylens/internal/container"
	"surveylens/ui"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	if _, err := appContainer.Preload(); err != nil {
		log.Fatalf("Failed to load data file: %v", err)
	}

	app, err := ui.NewApp(ui.Config{
		Port:           appConfig.UI.Port,
		MaxUploadBytes: appConfig.Data.MaxUploadBytes(),
	}, appContainer.Store, appContainer.Analyzer, appContainer.Reader)
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}

	server := &http.Server{Addr: app.Addr(), Handler: app.Handler()}
	go func() {
		log.Printf("Starting surveylens dashboard on http://localhost%s", app.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Dashboard failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	_ = appContainer.Shutdown(ctx)
}
