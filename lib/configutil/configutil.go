package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

func readOverride[T any](out *T, path string) (bool, error) {
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(contents) == 0 {
		return false, nil
	}

	var override T
	err = json5.Unmarshal(contents, &override)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	err = mergo.Merge(out, override, mergo.WithOverride)
	if err != nil {
		return false, fmt.Errorf("merge %s: %w", path, err)
	}
	return true, nil
}

// ReadConfig reads a configuration file on top of `defaults`, `name` should come with a file
// extension, it will automatically be lopped off to produce the other extensions.
// this function will merge the following, where higher number is more prioritized.
// 0. defaults
// 1. <name>.<ext>
// 2. <name>.local.<ext>
//
// Zero values in a file never override a default. A missing file is not an error,
// ReadConfig reports whether any file was found.
func ReadConfig[T any](name string, defaults T) (T, bool, error) {
	out := defaults

	dirname := filepath.Dir(name)
	basename := filepath.Base(name)
	prefixname, ext := splitExt(basename)

	foundDefault, err := readOverride(&out, name)
	if err != nil {
		return defaults, false, err
	}

	localFilepath := filepath.Join(
		dirname,
		fmt.Sprintf("%s.local.%s", prefixname, ext),
	)
	foundLocal, err := readOverride(&out, localFilepath)
	if err != nil {
		return defaults, false, err
	}
	if foundLocal {
		slog.Info("merging config with local overrides", "local", localFilepath)
	}

	return out, foundDefault || foundLocal, nil
}

// EnvString overrides *out with the environment variable `key` if it is set and non-empty.
func EnvString(out *string, key string) {
	value, ok := os.LookupEnv(key)
	if ok && value != "" {
		*out = value
	}
}

// EnvInt overrides *out with the environment variable `key` if it is set, it returns an
// error if the variable is not an integer.
func EnvInt(out *int, key string) error {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("env %s: %w", key, err)
	}
	*out = parsed
	return nil
}
