package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Keys used in the settings file.
const (
	keyToolPath = "ectool_path"
	keyInterval = "interval"
)

// FileStore persists Runtime to a JSON settings file using its own viper
// instance, independent of the process configuration.
type FileStore struct {
	path string
	v    *viper.Viper
}

// NewFileStore returns a store bound to path. The file does not have to
// exist yet.
func NewFileStore(path string) *FileStore {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault(keyToolPath, "")
	v.SetDefault(keyInterval, DefaultInterval)
	return &FileStore{path: path, v: v}
}

// Path returns the settings file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the settings file. A missing file yields the defaults.
// An interval outside the valid range is replaced by DefaultInterval.
func (s *FileStore) Load() (Runtime, error) {
	if err := s.v.ReadInConfig(); err != nil {
		if !isNotExist(err) {
			return Runtime{}, fmt.Errorf("read settings %q: %w", s.path, err)
		}
	}

	rt := Runtime{
		ToolPath:        s.v.GetString(keyToolPath),
		IntervalSeconds: s.v.GetInt(keyInterval),
	}
	if !ValidInterval(rt.IntervalSeconds) {
		rt.IntervalSeconds = DefaultInterval
	}
	return rt, nil
}

// Save writes rt to the settings file, creating parent directories.
func (s *FileStore) Save(rt Runtime) error {
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir %q: %w", dir, err)
		}
	}
	s.v.Set(keyToolPath, rt.ToolPath)
	s.v.Set(keyInterval, rt.IntervalSeconds)
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write settings %q: %w", s.path, err)
	}
	return nil
}

// isNotExist covers both viper's own not-found error and the fs error
// returned when SetConfigFile points at a missing file.
func isNotExist(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist)
}
