package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gymbucket/gymbucket/internal/auth"
	"github.com/gymbucket/gymbucket/internal/config"
	"github.com/gymbucket/gymbucket/internal/models"
	"github.com/gymbucket/gymbucket/internal/plans"
	"github.com/gymbucket/gymbucket/internal/storage"
	"github.com/gymbucket/gymbucket/internal/validate"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	exercisesPath := flag.String("exercises", "", "path to exercise catalogue YAML")
	trainerEmail := flag.String("trainer-email", "", "create a verified trainer account with this email")
	trainerName := flag.String("trainer-name", "", "trainer first and last name")
	dryRun := flag.Bool("dry-run", false, "parse the catalogue and report without writing")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exercisesPath == "" && *trainerEmail == "" {
		fmt.Fprintf(os.Stderr, "Usage: gymbucket-seed -config config.yaml [-exercises exercises.yaml] [-trainer-email addr -trainer-name \"First Last\"] [-dry-run]\n")
		fmt.Fprintf(os.Stderr, "The trainer password is read from GYMBUCKET_SEED_PASSWORD.\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var catalogue []models.Exercise
	if *exercisesPath != "" {
		data, err := os.ReadFile(*exercisesPath)
		if err != nil {
			log.Error("reading catalogue", "path", *exercisesPath, "error", err)
			os.Exit(1)
		}
		catalogue, err = plans.ParseCatalogue(data)
		if err != nil {
			log.Error("invalid catalogue", "path", *exercisesPath, "error", err)
			os.Exit(1)
		}
		log.Info("catalogue parsed", "exercises", len(catalogue))
	}

	if *dryRun {
		log.Info("DRY RUN mode: nothing written")
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var inserted, updated int
	for _, e := range catalogue {
		isNew, err := db.UpsertExercise(ctx, e)
		if err != nil {
			log.Error("upserting exercise", "id", e.ID, "error", err)
			os.Exit(1)
		}
		if isNew {
			inserted++
		} else {
			updated++
		}
	}
	if len(catalogue) > 0 {
		log.Info("catalogue seeded", "inserted", inserted, "updated", updated)
	}

	if *trainerEmail != "" {
		if err := createTrainer(ctx, db, *trainerEmail, *trainerName, os.Getenv("GYMBUCKET_SEED_PASSWORD")); err != nil {
			log.Error("creating trainer", "email", *trainerEmail, "error", err)
			os.Exit(1)
		}
		log.Info("trainer created", "email", *trainerEmail)
	}
}

func createTrainer(ctx context.Context, db *storage.DB, email, name, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validate.Email(email) {
		return errors.New("email address is invalid")
	}
	if !validate.StrongPassword(password) {
		return errors.New("GYMBUCKET_SEED_PASSWORD must be a strong password")
	}
	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	if first == "" {
		first = "Trainer"
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	rec := &models.UserRecord{
		User: models.User{
			Email:         email,
			FirstName:     first,
			LastName:      strings.TrimSpace(last),
			Role:          models.RoleTrainer,
			IsActive:      true,
			EmailVerified: true,
		},
		PasswordHash: hash,
	}
	if err := db.CreateUser(ctx, rec); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return fmt.Errorf("%s already has an account", email)
		}
		return err
	}
	return nil
}
