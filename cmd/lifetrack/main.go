// LifeTrack Daemon - the insight engine service
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lifetrack/lifetrack/internal/api"
	"github.com/lifetrack/lifetrack/internal/config"
	"github.com/lifetrack/lifetrack/internal/core"
	"github.com/lifetrack/lifetrack/internal/logging"
	"github.com/lifetrack/lifetrack/internal/recommend"
	"github.com/lifetrack/lifetrack/internal/storage"
)

var (
	dataDir string
	port    int
)

func main() {
	// A missing .env is fine; environment variables still apply.
	godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "lifetrack",
		Short: "LifeTrack - insight and optimization engine",
		RunE:  runDaemon,
	}

	home, _ := os.UserHomeDir()
	defaultDataDir := filepath.Join(home, ".lifetrack")

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir, "Data directory")
	rootCmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")

	rootCmd.AddCommand(trainCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	return cfg, nil
}

func openDB(cfg *config.Config) (*storage.DB, error) {
	db, err := storage.Open(storage.Config{
		Path: filepath.Join(cfg.DataDir, "lifetrack.db"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Load the trained priority model if one exists.
	model, err := recommend.LoadPriorityModel(cfg.Engine.ModelPath)
	if err != nil {
		logging.Warn("priority model unavailable: %v", err)
		model = nil
	}
	if model != nil {
		logging.WithField("version", model.Version).Info("priority model loaded")
	} else {
		logging.Info("no priority model trained, using due-date heuristic")
	}

	server := api.New(api.Config{
		Port:          cfg.Server.Port,
		Host:          cfg.Server.Host,
		DB:            db,
		Engine:        cfg.Engine,
		PriorityModel: model,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		logging.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Stop(ctx)
	}()

	logging.Info("listening on http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func trainCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the task priority model from completed task history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			tasks, err := storage.NewTaskStore(db).ListByUser(user)
			if err != nil {
				return err
			}

			model, err := recommend.TrainPriorityModel(tasks, time.Now().UTC())
			if err != nil {
				if errors.Is(err, core.ErrInsufficientSamples) {
					fmt.Println("Not enough completed tasks to train; complete more tasks first.")
					return nil
				}
				return err
			}

			if err := model.Save(cfg.Engine.ModelPath); err != nil {
				return fmt.Errorf("failed to save model: %w", err)
			}

			fmt.Printf("Trained priority model from %d samples -> %s\n", model.Samples, cfg.Engine.ModelPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "default", "User whose history trains the model")
	return cmd
}
