package common

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/friendsofgo/errors"
	"github.com/joho/godotenv"
)

const (
	EnvBaseURL    = "NSLOGIN_BASE_URL"
	EnvCookieFile = "NSLOGIN_COOKIE_FILE"
	EnvLogLevel   = "NSLOGIN_LOG_LEVEL"
)

const (
	DefaultBaseURL    = "http://127.0.0.1:8222/"
	DefaultCookieFile = ".nslogin-cookies.yaml"
	DefaultLogLevel   = "info"
)

var (
	_, b, _, _ = runtime.Caller(0)

	// Root folder of this project
	RootFilePath = filepath.Join(filepath.Dir(b), "../..")
)

// Settings is the resolved client configuration.
type Settings struct {
	BaseURL    string
	CookieFile string
	LogLevel   string
}

// LoadEnv reads .env from the working directory, then from the project root.
// A missing file is not an error; the process environment still applies.
func LoadEnv() error {
	for _, path := range []string{".env", filepath.Join(RootFilePath, ".env")} {
		if _, err := os.Stat(path); err != nil {
			continue
		}

		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "failed to load %s", path)
		}
		return nil
	}

	return nil
}

// SettingsFromEnv resolves settings from the environment, falling back to defaults.
func SettingsFromEnv() Settings {
	return Settings{
		BaseURL:    getEnv(EnvBaseURL, DefaultBaseURL),
		CookieFile: getEnv(EnvCookieFile, DefaultCookieFile),
		LogLevel:   getEnv(EnvLogLevel, DefaultLogLevel),
	}
}

func getEnv(key string, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}
