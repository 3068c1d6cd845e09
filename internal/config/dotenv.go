package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DotenvPath returns the .env.<target> file consulted for a target.
// It lives next to sqlbatch.toml, or in the working directory without one.
func (c *Config) DotenvPath(targetName string) string {
	fileName := ".env." + targetName

	baseDir := c.ConfigDir()
	if baseDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			baseDir = cwd
		}
	}
	if baseDir == "" {
		return fileName
	}
	return filepath.Join(baseDir, fileName)
}

// DotenvURL reads the connection URL for a target from its .env.<target> file.
// found is false when the file does not exist or defines no URL.
func (c *Config) DotenvURL(targetName string) (url string, found bool, err error) {
	path := c.DotenvPath(targetName)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to access %s: %w", path, err)
	}
	if info.IsDir() {
		return "", false, nil
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Generic DATABASE_URL wins over database-specific variables
	for _, key := range []string{"DATABASE_URL", "SQLSERVER_URL", "POSTGRES_URL", "MYSQL_URL", "SQLITE_DB_PATH"} {
		if value := values[key]; value != "" {
			return value, true, nil
		}
	}

	if value := values["LIBSQL_URL"]; value != "" {
		if authToken := values["LIBSQL_AUTH_TOKEN"]; authToken != "" {
			return fmt.Sprintf("%s?authToken=%s", value, authToken), true, nil
		}
		return value, true, nil
	}

	return "", false, nil
}
