package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultTokenEnv is the variable consulted when runtime config has no token.
const DefaultTokenEnv = "HA_TOKEN"

// LoadEnvFiles loads KEY=value files into the process environment. Missing
// files are skipped; variables already set are not overridden.
func LoadEnvFiles(files ...string) ([]string, error) {
	var loaded []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("stat %s: %w", f, err)
		}
		if err := godotenv.Load(f); err != nil {
			return loaded, fmt.Errorf("load %s: %w", f, err)
		}
		loaded = append(loaded, f)
	}
	return loaded, nil
}

// envToken reads the token variable.
func envToken(name string) string {
	if name == "" {
		name = DefaultTokenEnv
	}
	return os.Getenv(name)
}
