package config

import (
	"flag"
	"strconv"
)

// OptionalFloat is a flag.Value for a float flag whose absence matters.
// It stays nil until set on the command line or from a config file.
type OptionalFloat struct {
	v *float64
}

// String formats the value, or "" when unset.
func (o *OptionalFloat) String() string {
	if o == nil || o.v == nil {
		return ""
	}
	return strconv.FormatFloat(*o.v, 'g', -1, 64)
}

// Set parses s as a float.
func (o *OptionalFloat) Set(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	o.v = &f
	return nil
}

// Ptr returns the value, or nil when unset.
func (o *OptionalFloat) Ptr() *float64 {
	return o.v
}

// ApplyFile loads the config at path and applies it to fs with
// ApplyToFlags. An empty path is a no-op.
func ApplyFile(fs *flag.FlagSet, path string) error {
	if path == "" {
		return nil
	}
	cfg, err := LoadPipelineConfig(path)
	if err != nil {
		return err
	}
	return ApplyToFlags(fs, cfg)
}
