package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// envFileOrder lists the dotenv cascade for an environment, highest priority first
func envFileOrder(env string) []string {
	files := make([]string, 0, 4)
	if env != "" {
		files = append(files, ".env."+env+".local", ".env."+env)
	}
	return append(files, ".env.local", ".env")
}

// LoadDotEnv loads the dotenv files found in dir into the process environment.
// Variables already set in the environment are never overwritten, and an earlier
// file in the cascade wins over a later one. APP_ENV selects the environment files;
// when unset it is taken from dir/.env. Returns the files that were loaded.
func LoadDotEnv(dir string) ([]string, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		if base, err := godotenv.Read(filepath.Join(dir, ".env")); err == nil {
			env = base["APP_ENV"]
		}
	}

	var loaded []string
	for _, name := range envFileOrder(env) {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("stat %s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, fmt.Errorf("load %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}
