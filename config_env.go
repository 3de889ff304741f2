package tracker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvStates          = "TRACKER_STATES"
	EnvStoragePath     = "TRACKER_STORAGE_PATH"
	EnvStorageAtomic   = "TRACKER_STORAGE_ATOMIC"
	EnvActivityEnabled = "TRACKER_ACTIVITY_ENABLED"
	EnvActivityChannel = "TRACKER_ACTIVITY_CHANNEL"
)

// LoadDotEnv loads each existing file into the process environment. Variables
// already set are left alone; missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("tracker: load env file %q: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides config fields from the TRACKER_* variables and
// revalidates. TRACKER_STATES is a comma separated list.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if value, ok := lookup(EnvStates); ok {
		var states []string
		for _, state := range strings.Split(value, ",") {
			states = append(states, strings.TrimSpace(state))
		}
		c.States = states
	}
	if value, ok := lookup(EnvStoragePath); ok {
		c.Storage.Path = value
	}
	if value, ok := lookup(EnvStorageAtomic); ok {
		atomic, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("tracker: %s: %w", EnvStorageAtomic, err)
		}
		c.Storage.Atomic = atomic
	}
	if value, ok := lookup(EnvActivityEnabled); ok {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("tracker: %s: %w", EnvActivityEnabled, err)
		}
		c.Activity.Enabled = enabled
	}
	if value, ok := lookup(EnvActivityChannel); ok {
		c.Activity.Channel = value
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("tracker: validate config: %w", err)
	}
	return nil
}
