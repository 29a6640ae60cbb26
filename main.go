package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/NourhenHamza/TalentGo-sub001/internal/app"
	"github.com/NourhenHamza/TalentGo-sub001/internal/auth"
	"github.com/NourhenHamza/TalentGo-sub001/internal/config"
	"github.com/NourhenHamza/TalentGo-sub001/internal/database"
	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/NourhenHamza/TalentGo-sub001/internal/repository"
	"github.com/NourhenHamza/TalentGo-sub001/internal/service"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/NourhenHamza/TalentGo-sub001/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrations(os.Args[2:])
			return
		case "worker":
			runWorker()
			return
		case "token":
			issueToken(os.Args[2:])
			return
		case "bootstrap-admin":
			bootstrapAdmin(os.Args[2:])
			return
		}
	}

	runServer()
}

func loadConfig() (*config.Config, zerolog.Logger) {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	return cfg, logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Pretty, cfg.Logging.NoColor)
}

func connectDatabase(cfg *config.Config, log zerolog.Logger) *sql.DB {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}

	log.Info().Msg("Database connection established")
	return db
}

func runServer() {
	cfg, log := loadConfig()
	db := connectDatabase(cfg, log)

	application, err := app.New(cfg, log, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := application.Run(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to run application")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down workflow service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown gracefully")
	}

	log.Info().Msg("Workflow service stopped")
}

func runWorker() {
	cfg, log := loadConfig()
	db := connectDatabase(cfg, log)
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunWorker(ctx, cfg, log, db); err != nil {
		log.Fatal().Err(err).Msg("Mail worker failed")
	}
}

func runMigrations(args []string) {
	cmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	direction := cmd.String("direction", "up", "direction of migration (up/down)")
	force := cmd.Int("force", -1, "force the schema version and clear the dirty flag")
	cmd.Parse(args)

	cfg, log := loadConfig()

	migrator, err := database.NewMigrator(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrator")
	}

	if *force >= 0 {
		if err := migrator.Force(*force); err != nil {
			log.Fatal().Err(err).Msg("Failed to force migration version")
		}
		log.Info().Int("version", *force).Msg("Migration version forced")
		return
	}

	switch *direction {
	case "up":
		if err := migrator.Up(); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Msg("Migrations applied successfully")
	case "down":
		if err := migrator.Down(); err != nil {
			log.Fatal().Err(err).Msg("Failed to rollback migrations")
		}
		log.Info().Msg("Migrations rolled back successfully")
	default:
		log.Fatal().Msg("Invalid migration direction. Use 'up' or 'down'")
	}
}

// issueToken prints a bearer token, for local use and service accounts.
func issueToken(args []string) {
	cmd := flag.NewFlagSet("token", flag.ExitOnError)
	actorID := cmd.String("actor", "", "actor id (required)")
	roles := cmd.String("roles", "", "comma separated roles carried in the token")
	cmd.Parse(args)

	cfg, log := loadConfig()

	var parsed []workflow.Role
	for _, raw := range strings.Split(*roles, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		role, err := workflow.ParseRole(raw)
		if err != nil {
			log.Fatal().Err(err).Str("role", raw).Msg("Invalid role")
		}
		parsed = append(parsed, role)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	token, expiresAt, err := tokens.Issue(*actorID, parsed)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to issue token")
	}

	log.Info().Time("expires_at", expiresAt).Str("actor_id", *actorID).Msg("Token issued")
	fmt.Println(token)
}

func bootstrapAdmin(args []string) {
	cmd := flag.NewFlagSet("bootstrap-admin", flag.ExitOnError)
	id := cmd.String("id", "", "actor id (generated when empty)")
	name := cmd.String("name", "Administrator", "display name")
	email := cmd.String("email", "", "e-mail address (required)")
	cmd.Parse(args)

	cfg, log := loadConfig()
	db := connectDatabase(cfg, log)
	defer db.Close()

	actors := service.NewActorService(repository.NewActorRepository(db, log), log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actor, err := actors.BootstrapAdmin(ctx, &models.CreateActorRequest{ID: *id, Name: *name, Email: *email})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap administrator")
	}

	log.Info().Str("actor_id", actor.ID).Str("email", actor.Email).Msg("Administrator ready")
}
