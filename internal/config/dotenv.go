package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads a .env file for local development. Variables already
// present in the environment take precedence. A missing file is not an
// error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}
