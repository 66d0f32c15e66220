package config

import (
	"os"
	"path/filepath"
)

const (
	defaultAPIURL = "http://localhost:8080"
	tokenFileName = ".taskdeck_token"
)

// APIURL returns the base URL for the taskdeck API.
// It can be overridden with the TASKDECK_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("TASKDECK_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

// SaveToken stores the session token in the user's home directory with 0600 perms.
func SaveToken(token string) error {
	return os.WriteFile(tokenPath(), []byte(token), 0o600)
}

// LoadToken reads the stored session token. Returns an error when not logged in.
func LoadToken() (string, error) {
	data, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RemoveToken deletes the stored token (logout).
func RemoveToken() error {
	err := os.Remove(tokenPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func tokenPath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, tokenFileName)
}
