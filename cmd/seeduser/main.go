// Command seeduser creates or updates an administrator account.
//
//	go run ./cmd/seeduser -username admin -email admin@example.com -password 'S3cret!pass'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/config"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/infra"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	username := flag.String("username", envOr("SEED_ADMIN_USERNAME", "admin"), "login name")
	email := flag.String("email", envOr("SEED_ADMIN_EMAIL", "admin@tripletsrewards.local"), "email address")
	password := flag.String("password", os.Getenv("SEED_ADMIN_PASSWORD"), "password (required)")
	flag.Parse()

	if *password == "" {
		log.Fatal().Msg("a password is required (-password or SEED_ADMIN_PASSWORD)")
	}
	if err := service.ValidatePassword(*password); err != nil {
		log.Fatal().Err(err).Msg("password rejected")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL, true)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	hash, err := service.HashPassword(*password)
	if err != nil {
		log.Fatal().Err(err).Msg("hash password")
	}

	code, err := upsertAdmin(context.Background(), db, *username, *email, hash)
	if err != nil {
		log.Fatal().Err(err).Msg("seed administrator")
	}
	fmt.Printf("administrator %q ready (code %d)\n", *username, code)
}

// upsertAdmin resets an existing account with the same username to an
// active, unlocked administrator, or creates one.
func upsertAdmin(ctx context.Context, db *gorm.DB, username, email, hash string) (uint, error) {
	var code uint
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a model.Account
		err := tx.Where("username = ?", username).First(&a).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			a = model.Account{
				Username:     username,
				Email:        email,
				FirstName:    "System",
				LastName:     "Administrator",
				PasswordHash: &hash,
				Role:         model.RoleAdministrator,
				Active:       true,
				Admin:        &model.AdminProfile{RoleTitle: "Administrator"},
			}
			if err := tx.Create(&a).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if a.Role != model.RoleAdministrator {
				return fmt.Errorf("account %q exists with role %s", username, a.Role)
			}
			err := tx.Model(&a).Updates(map[string]interface{}{
				"email":           email,
				"password_hash":   hash,
				"active":          true,
				"failed_attempts": 0,
				"lockout_until":   nil,
				"lockout_reason":  model.LockoutNone,
			}).Error
			if err != nil {
				return err
			}
			if err := tx.Where(model.AdminProfile{Code: a.Code}).
				FirstOrCreate(&model.AdminProfile{Code: a.Code, RoleTitle: "Administrator"}).Error; err != nil {
				return err
			}
		}
		code = a.Code
		return nil
	})
	return code, err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
