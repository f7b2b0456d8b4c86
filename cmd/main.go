package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "wear_relay/docs"
	"wear_relay/internal/handlers"
	"wear_relay/internal/hub"
	"wear_relay/internal/logger"
	"wear_relay/internal/permission"
	"wear_relay/internal/repository"
	"wear_relay/internal/repository/db"
	"wear_relay/internal/sensor"
	"wear_relay/internal/server"
	"wear_relay/internal/service"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

// @title        Wear Relay API
// @version      1.0
// @description  Heart-rate relay between a watch and paired handheld nodes.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load config.yml
	cfgErr := loadConfig()

	// init logger
	log := logger.Get(viper.GetString("log.level"))
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

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

	// context for sends, data puts and node connections
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	items, closeItems, err := openDataItems(ctx, log)
	if err != nil {
		log.Fatalw("failed to init data-sync store", "err", err)
	}
	defer closeItems()

	nodes := hub.New(hub.Config{
		MessagesPerSecond: viper.GetFloat64("hub.max_messages_per_second"),
		Burst:             viper.GetInt("hub.burst"),
		SendBuffer:        viper.GetInt("hub.send_buffer"),
	}, log)

	source, err := newSensorSource(log)
	if err != nil {
		log.Fatalw("failed to init sensor", "err", err)
	}
	sensors := sensor.NewManager(source, log)

	policy, err := permission.ParsePolicy(viper.GetString("permission.policy"))
	if err != nil {
		log.Fatalw("invalid permission policy", "err", err)
	}
	revision, err := service.ParseRevision(viper.GetString("controller.revision"))
	if err != nil {
		log.Fatalw("invalid controller revision", "err", err)
	}

	services := service.NewService(ctx, repos, service.Config{
		Auth: service.AuthConfig{
			SigningKey: viper.GetString("auth.signing_key"),
			TokenTTL:   viper.GetDuration("auth.token_ttl"),
		},
		Revision: revision,
	}, service.Deps{
		Transport:   nodes,
		Sensors:     sensors,
		Permissions: permission.NewStore(policy, log),
		DataItems:   items,
		Clock:       clockwork.NewRealClock(),
		Log:         log,
	})
	apiHandler := handlers.NewHandler(services, nodes, log)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)
	log.Infow("relay_started", "port", viper.GetString("port"), "revision", revision, "permission_policy", policy)

	// graceful shutdown
	waitForShutdown(func() {
		cancel()
		services.Close()
		sensors.Close()
	}, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")

	viper.SetEnvPrefix("RELAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("port", server.DefaultPort)
	viper.SetDefault("db.path", "relay.db")
	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetDefault("auth.token_ttl", time.Hour)
	viper.SetDefault("controller.revision", string(service.RevisionAuthorize))
	viper.SetDefault("permission.policy", string(permission.PolicyPrompt))
	viper.SetDefault("sensor.source", "simulated")
	viper.SetDefault("sensor.ble.scan_timeout", 30*time.Second)
	viper.SetDefault("datasync.backend", "sqlite")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	if viper.GetString("auth.signing_key") == "" {
		return errors.New("auth.signing_key is required")
	}
	return nil
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	log.Infow("opening sqlite", "path", dbPath)
	return db.InitDB(dbPath)
}

// openDataItems returns the configured data-sync backend. A nil repo means
// the SQLite repository from NewRepository is used.
func openDataItems(ctx context.Context, log *logger.Logger) (repository.DataItemRepo, func(), error) {
	switch backend := viper.GetString("datasync.backend"); backend {
	case "sqlite":
		return nil, func() {}, nil
	case "redis":
		r, err := repository.NewDataItemRedis(viper.GetString("datasync.redis_url"))
		if err != nil {
			return nil, nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := r.Ping(pingCtx); err != nil {
			_ = r.Close()
			return nil, nil, err
		}
		log.Infow("datasync_backend", "backend", backend)
		return r, func() {
			if err := r.Close(); err != nil {
				log.Errorw("failed to close redis", "err", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown datasync.backend %q", backend)
	}
}

func newSensorSource(log *logger.Logger) (sensor.Source, error) {
	switch src := viper.GetString("sensor.source"); src {
	case "simulated":
		return sensor.NewSimulator(clockwork.NewRealClock(), uint64(time.Now().UnixNano())), nil
	case "ble":
		return sensor.NewBLESource(
			viper.GetString("sensor.ble.address"),
			viper.GetDuration("sensor.ble.scan_timeout"),
			log,
		), nil
	default:
		return nil, fmt.Errorf("unknown sensor.source %q", src)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(stop func(), srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop sends, the screen and the sensor
	stop()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
