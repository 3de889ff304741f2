package tracker

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-tracker/pkg/activity"
	"github.com/goliatone/go-tracker/pkg/storage"
	"gopkg.in/yaml.v3"
)

// Config is the YAML form of a tracker declaration.
type Config struct {
	// States lists the declared state names in order.
	States []string `yaml:"states"`

	// Storage configures the JSON file adapter. An empty path means the
	// tracker is built without storage.
	Storage StorageConfig `yaml:"storage"`

	// Activity configures event emission.
	Activity activity.Config `yaml:"activity"`
}

// StorageConfig configures the JSON file adapter.
type StorageConfig struct {
	Path      string `yaml:"path"`
	Atomic    bool   `yaml:"atomic"`
	Indent    string `yaml:"indent"`
	UseNumber bool   `yaml:"use_number"`
	// FileMode is an octal permission string such as "0600".
	FileMode string `yaml:"file_mode"`
}

// DefaultConfig returns a config with activity emission enabled on the
// default channel.
func DefaultConfig() *Config {
	return &Config{
		Activity: activity.Config{
			Enabled: true,
			Channel: activity.DefaultChannel,
		},
	}
}

// LoadConfig decodes and validates a YAML config. Unknown fields are
// rejected.
func LoadConfig(r io.Reader) (*Config, error) {
	config := DefaultConfig()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("tracker: parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("tracker: validate config: %w", err)
	}
	return config, nil
}

// LoadConfigFile reads path and passes it to LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tracker: read config file: %w", err)
	}
	defer file.Close()
	return LoadConfig(file)
}

// Validate checks the state declaration and storage settings.
func (c *Config) Validate() error {
	if len(c.States) == 0 {
		return fmt.Errorf("%w: at least one state is required", ErrInvalidStates)
	}
	seen := make(map[string]struct{}, len(c.States))
	for _, state := range c.States {
		if strings.TrimSpace(state) == "" {
			return fmt.Errorf("%w: state name must not be empty", ErrInvalidStates)
		}
		if _, dup := seen[state]; dup {
			return fmt.Errorf("%w: duplicate state %q", ErrInvalidStates, state)
		}
		seen[state] = struct{}{}
	}
	if _, err := c.Storage.fileMode(); err != nil {
		return err
	}
	return nil
}

// Options returns the tracker options the config describes, excluding
// storage, which depends on the tracker's type parameters.
func (c *Config) Options() []Option {
	return []Option{WithActivityConfig(c.Activity)}
}

func (s StorageConfig) fileMode() (fs.FileMode, error) {
	if s.FileMode == "" {
		return 0, nil
	}
	mode, err := strconv.ParseUint(s.FileMode, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid file_mode %q: %w", s.FileMode, err)
	}
	return fs.FileMode(mode), nil
}

// NewStorage builds the JSON file adapter described by cfg. It returns nil
// when no path is configured.
func NewStorage[K comparable, V any](cfg StorageConfig, opts ...storage.Option[K, V]) (*storage.JSONFile[K, V], error) {
	if cfg.Path == "" {
		return nil, nil
	}
	mode, err := cfg.fileMode()
	if err != nil {
		return nil, err
	}
	options := []storage.Option[K, V]{
		storage.WithAtomicWrite[K, V](cfg.Atomic),
		storage.WithIndent[K, V](cfg.Indent),
		storage.WithFileMode[K, V](mode),
	}
	if cfg.UseNumber {
		options = append(options, storage.WithUseNumber[K, V]())
	}
	return storage.NewJSONFile(cfg.Path, append(options, opts...)...), nil
}

// NewFromConfig builds a tracker from cfg. Extra options are applied after
// the ones derived from cfg.
func NewFromConfig[K comparable, V any](cfg *Config, opts ...Option) (*Tracker[K, V], error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidStates)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := cfg.Options()
	store, err := NewStorage[K, V](cfg.Storage)
	if err != nil {
		return nil, err
	}
	if store != nil {
		options = append(options, WithStorage[K, V](store))
	}
	return New[K, V](cfg.States, append(options, opts...)...)
}
