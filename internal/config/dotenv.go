package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file.
// If path is empty, it loads from ".env" in the current directory.
// A missing file is not an error. Variables already set win.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	return godotenv.Load(path)
}
