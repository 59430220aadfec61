package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fan_controller/internal/config"
	"fan_controller/internal/ectool"
	"fan_controller/internal/handlers"
	"fan_controller/internal/logger"
	"fan_controller/internal/repository"
	"fan_controller/internal/repository/db"
	"fan_controller/internal/server"
	"fan_controller/internal/service"

	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

//go:generate swag init -g main.go --dir .,../internal/handlers,../internal/service,../internal/models --output ../docs

// @title                       Fan Controller API
// @version                     1.0
// @description                 Local control surface for the ectool fan curve loop.
// @host                        localhost:8080
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}
	log.SetLevel(viper.GetString("log.level"))

	// open DB
	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// seed runtime settings from the settings file
	store := config.NewFileStore(viper.GetString("settings.path"))
	initial, err := store.Load()
	if err != nil {
		log.Warnw("settings file unreadable; using defaults", "path", store.Path(), "err", err)
		initial = config.Runtime{IntervalSeconds: config.DefaultInterval}
	}
	log.Infow("settings_loaded", "path", store.Path(), "tool_path", initial.ToolPath, "interval", initial.IntervalSeconds)

	signingKey, generated, err := service.SigningKey(viper.GetString("auth.signing_key"))
	if err != nil {
		log.Fatalw("invalid auth configuration", "err", err)
	}
	if generated {
		log.Warnw("auth.signing_key is not set; using a random key, tokens will not survive a restart")
	}

	// wire dependencies
	tool := ectool.New(log)
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, service.Deps{
		Holder:     config.NewHolder(initial),
		Store:      store,
		Sensor:     tool,
		Actuator:   tool,
		SigningKey: signingKey,
		Log:        log,
	})
	if err := seedOperator(services, log); err != nil {
		log.Fatalw("failed to seed operator account", "err", err)
	}
	apiHandler := handlers.NewHandler(services, log)

	// context for the control loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := services.Controller.Run(ctx); err != nil {
			log.Errorw("control loop exited", "err", err)
		}
	}()

	// bind before serving so a taken port fails startup
	srv := server.New(viper.GetString("port"), apiHandler.InitRoutes())
	if err := srv.Listen(); err != nil {
		log.Fatalw("error starting server", "err", err)
	}
	log.Infow("listening", "addr", srv.Addr())
	go func() {
		if err := srv.Serve(); err != nil {
			log.Fatalw("server stopped", "err", err)
		}
	}()

	// graceful shutdown
	waitForShutdown(cancel, loopDone, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")

	viper.SetDefault("port", "127.0.0.1:8080")
	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetDefault("db.path", "fan_controller.db")
	viper.SetDefault("settings.path", "config.json")

	viper.SetEnvPrefix("FANCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	log.Infow("opening sqlite", "path", dbPath)
	return db.InitDB(dbPath)
}

// seedOperator creates the operator account from auth.operator.* when the
// users table is empty. Without those keys the first /auth/sign-up claims it.
func seedOperator(services *service.Service, log *logger.Logger) error {
	username := viper.GetString("auth.operator.username")
	password := viper.GetString("auth.operator.password")
	if username == "" && password == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	created, err := services.EnsureOperator(ctx, username, password)
	if err != nil {
		return err
	}
	if created {
		log.Infow("operator_account_created", "username", username)
	}
	return nil
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, loopDone <-chan struct{}, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the control loop and let it record STOP
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	select {
	case <-loopDone:
	case <-ctx.Done():
		log.Warnw("control loop did not stop in time")
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
