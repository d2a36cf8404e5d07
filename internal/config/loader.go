// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ik5/soundpool"
	"github.com/ik5/soundpool/formats"
	"github.com/ik5/soundpool/output/device"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over [Default] and validates
// the result. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	// Pool
	p := cfg.Pool
	if p.MaxStreams < 1 || p.MaxStreams > soundpool.MaxStreams {
		errs = append(errs, fmt.Errorf("pool.max_streams %d must be between 1 and %d", p.MaxStreams, soundpool.MaxStreams))
	}
	if p.StreamThreads < 1 {
		errs = append(errs, fmt.Errorf("pool.stream_threads %d must be at least 1", p.StreamThreads))
	}
	if p.DecoderThreads < 1 {
		errs = append(errs, fmt.Errorf("pool.decoder_threads %d must be at least 1", p.DecoderThreads))
	}
	if p.StopGrace < 0 {
		errs = append(errs, fmt.Errorf("pool.stop_grace %s must not be negative", p.StopGrace))
	}
	if _, ok := parseStreamType(p.StreamType); !ok {
		errs = append(errs, fmt.Errorf("pool.stream_type %q is invalid; valid values: music, alarm, notification, ring, system, voice_call", p.StreamType))
	}

	// Output
	o := cfg.Output
	if !o.Driver.IsValid() {
		errs = append(errs, fmt.Errorf("output.driver %q is invalid; valid values: beep, oto, null", o.Driver))
	}
	if o.SampleRate < formats.MinSampleRate || o.SampleRate > formats.MaxSampleRate {
		errs = append(errs, fmt.Errorf("output.sample_rate %d must be between %d and %d",
			o.SampleRate, formats.MinSampleRate, formats.MaxSampleRate))
	}
	if o.Channels != 1 && o.Channels != 2 {
		errs = append(errs, fmt.Errorf("output.channels %d must be 1 or 2", o.Channels))
	}
	if o.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("output.buffer_size %d must be positive", o.BufferSize))
	}
	if o.Record != "" && o.Driver != device.DriverNull {
		errs = append(errs, fmt.Errorf("output.record requires driver %q, got %q", device.DriverNull, o.Driver))
	}

	return errors.Join(errs...)
}
