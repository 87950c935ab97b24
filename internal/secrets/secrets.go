// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a .env file and the process environment.
// The .env file takes the usual dotenv form (KEY=value, one per line) and is
// optional: the environment always wins and a missing file is not an error.
//
// Known keys: NEBIUS_API_KEY, EPMC_EMAIL.
package secrets

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// knownKeys lists the environment variables the pipeline cares about.
var knownKeys = []string{"NEBIUS_API_KEY", "EPMC_EMAIL"}

// Load reads the .env file at path (if it exists) into the process
// environment, then returns the known keys that are set. Values already
// present in the environment are not overwritten by the file.
func Load(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}

	secrets := make(map[string]string)
	for _, key := range knownKeys {
		if v := os.Getenv(key); v != "" {
			secrets[key] = v
		}
	}
	return secrets, nil
}
