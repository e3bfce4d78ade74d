package myconfig

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// LoadEnv loads environment variables from a local .env file (outside production)
// and processes them into cfg via envconfig struct tags.
func LoadEnv(cfg any) error {
	env := os.Getenv("ENV")
	if env != "production" && env != "prod" {
		// Best effort: a missing .env file is fine
		_ = godotenv.Load(".env")
	}

	err := envconfig.Process("", cfg)
	if err != nil {
		return fmt.Errorf("error processing environment config: %s", err)
	}

	return nil
}
