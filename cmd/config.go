package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/inconshreveable/log15"
	"github.com/joho/godotenv"
)

const (
	envLogLevel = "QIDICOM_LOG_LEVEL"
	envJournal  = "QIDICOM_JOURNAL"
	envNoTUI    = "QIDICOM_NO_TUI"
)

var errBadEnv = errors.New("invalid environment value")

var dotEnvKeys = []string{
	envLogLevel,
	envJournal,
	envNoTUI,
}

// loadDotEnv seeds the QIDICOM_ variables from .env, then .env.local, in the
// working directory. Variables already in the process environment win.
func loadDotEnv() {
	orig := originalEnvKeys(dotEnvKeys)

	loadDotEnvFile(".env", orig)
	loadDotEnvFile(".env.local", orig)
}

func originalEnvKeys(keys []string) map[string]struct{} {
	orig := map[string]struct{}{}

	for _, key := range keys {
		if _, ok := os.LookupEnv(key); ok {
			orig[key] = struct{}{}
		}
	}

	return orig
}

func loadDotEnvFile(path string, orig map[string]struct{}) {
	env, err := godotenv.Read(path)
	if err != nil {
		return
	}

	for _, key := range dotEnvKeys {
		val, ok := env[key]
		if !ok {
			continue
		}

		if _, ok := orig[key]; ok {
			continue
		}

		_ = os.Setenv(key, val)
	}
}

func flagOrEnv(flag, key string) string {
	if flag != "" {
		return flag
	}

	return os.Getenv(key)
}

// boolFlagOrEnv is true when the flag is set, otherwise the parsed value of
// key.
func boolFlagOrEnv(flag bool, key string) (bool, error) {
	if flag {
		return true, nil
	}

	val := os.Getenv(key)
	if val == "" {
		return false, nil
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", errBadEnv, key, val)
	}

	return b, nil
}

func parseLogLevel(name string) (log15.Lvl, error) {
	if name == "" {
		return log15.LvlInfo, nil
	}

	lvl, err := log15.LvlFromString(name)
	if err != nil {
		return 0, fmt.Errorf("log level %q: %w", name, err)
	}

	return lvl, nil
}
