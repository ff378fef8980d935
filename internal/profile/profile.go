package profile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/spigell/autofiller/internal/secrets"
)

const (
	keyResume       = "resume"
	keyAPIKey       = "api_key"
	keyInstructions = "instructions"
)

var (
	ErrMissingResume = errors.New("missing resume")
	ErrMissingAPIKey = errors.New("missing API key")
)

// Profile holds the applicant data read at the start of each capture.
type Profile struct {
	Resume       string `mapstructure:"resume"`
	APIKey       string `mapstructure:"api_key"`
	Instructions string `mapstructure:"instructions"`
}

// Validate reports the first missing precondition, résumé before API key.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Resume) == "" {
		return ErrMissingResume
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return ErrMissingAPIKey
	}

	return nil
}

// Source loads a profile.
type Source interface {
	Load(ctx context.Context) (Profile, error)
}

// Store keeps the profile in a YAML file readable only by the owner.
type Store struct {
	mu   sync.Mutex
	path string
	v    *viper.Viper
}

// DefaultPath returns <user config dir>/autofiller/profile.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}

	return filepath.Join(dir, "autofiller", "profile.yaml"), nil
}

// Open reads the profile file at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read profile %q: %w", path, err)
	}

	return &Store{path: path, v: v}, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored profile.
func (s *Store) Load(_ context.Context) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p Profile
	if err := s.v.Unmarshal(&p); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}

	return p, nil
}

// SetResume stores the résumé text.
func (s *Store) SetResume(text string) error {
	return s.set(keyResume, strings.TrimSpace(text))
}

// SetAPIKey stores the model API key.
func (s *Store) SetAPIKey(key string) error {
	return s.set(keyAPIKey, strings.TrimSpace(key))
}

// SetInstructions stores optional free-text guidance added to every prompt.
func (s *Store) SetInstructions(text string) error {
	return s.set(keyInstructions, strings.TrimSpace(text))
}

func (s *Store) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write profile %q: %w", s.path, err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("restrict profile %q: %w", s.path, err)
	}

	return nil
}

// Overrides replaces stored values with secrets given on the command line or in the
// environment. Empty sources leave the stored value untouched.
type Overrides struct {
	Base   Source
	Resume secrets.Source
	APIKey secrets.Source
}

// Load reads the base profile and applies the overrides.
func (o Overrides) Load(ctx context.Context) (Profile, error) {
	var p Profile
	if o.Base != nil {
		var err error
		if p, err = o.Base.Load(ctx); err != nil {
			return Profile{}, err
		}
	}

	if configured(o.Resume) {
		resume, err := secrets.Load(o.Resume)
		if err != nil {
			return Profile{}, err
		}
		p.Resume = resume
	}

	if configured(o.APIKey) {
		key, err := secrets.Load(o.APIKey)
		if err != nil {
			return Profile{}, err
		}
		p.APIKey = key
	}

	return p, nil
}

func configured(src secrets.Source) bool {
	return strings.TrimSpace(src.Value) != "" || strings.TrimSpace(src.File) != ""
}
