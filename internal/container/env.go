package container

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// EnvPrefix is the prefix humacli reads options from.
const EnvPrefix = "SERVICE_"

// envNames are the unprefixed variable names accepted for each option.
var envNames = []string{
	"PORT",
	"REDIS_ADDR",
	"STORE",
	"LOG_FORMAT",
	"MAX_REQUESTS_PER_MINUTE",
	"RATE_LIMIT_EXPIRATION",
	"ERROR_PROBABILITY",
	"MIN_DURATION_SECONDS",
	"MAX_DURATION_SECONDS",
	"JOB_TTL",
	"SEED",
	"CORS_ORIGIN",
	"EVENTS_ENABLED",
	"EVENTS_SINK",
	"DATABASE_URL",
}

// LoadEnv loads files (".env" when none are given) without overriding the
// real environment, then copies each unprefixed option variable to its
// SERVICE_ name unless that is already set.
func LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	for _, name := range envNames {
		value, ok := os.LookupEnv(name)
		if !ok {
			continue
		}

		if _, set := os.LookupEnv(EnvPrefix + name); set {
			continue
		}

		if err := os.Setenv(EnvPrefix+name, value); err != nil {
			return err
		}
	}

	return nil
}
