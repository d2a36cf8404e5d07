// SPDX-License-Identifier: EPL-2.0

// Package config loads the YAML file driving the soundpool command.
package config

import (
	"log/slog"
	"time"

	"github.com/ik5/soundpool"
	"github.com/ik5/soundpool/output"
	"github.com/ik5/soundpool/output/device"
)

// LogLevel is a slog level name.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level returns the slog level for l. Unknown levels map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Config is the top level of the configuration file.
type Config struct {
	LogLevel LogLevel      `yaml:"log_level"`
	Pool     PoolConfig    `yaml:"pool"`
	Output   OutputConfig  `yaml:"output"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// PoolConfig mirrors soundpool.Config.
type PoolConfig struct {
	MaxStreams          int           `yaml:"max_streams"`
	StreamThreads       int           `yaml:"stream_threads"`
	DecoderThreads      int           `yaml:"decoder_threads"`
	StealOldestFirst    bool          `yaml:"steal_oldest_first"`
	PlayOnCallingThread bool          `yaml:"play_on_calling_thread"`
	StrictLocking       bool          `yaml:"strict_locking"`
	StopGrace           time.Duration `yaml:"stop_grace"`

	// StreamType is one of music, alarm, notification, ring, system or
	// voice_call.
	StreamType string `yaml:"stream_type"`
	FastTracks bool   `yaml:"fast_tracks"`
}

// OutputConfig selects and sizes the audio device.
type OutputConfig struct {
	Driver     device.Driver `yaml:"driver"`
	SampleRate int           `yaml:"sample_rate"`
	Channels   int           `yaml:"channels"`

	// BufferSize is in frames.
	BufferSize int `yaml:"buffer_size"`

	// Record, with the null driver, writes everything played to a WAV file.
	Record string `yaml:"record"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns the configuration used for keys the file leaves out.
func Default() *Config {
	pool := soundpool.DefaultConfig()
	return &Config{
		LogLevel: LogInfo,
		Pool: PoolConfig{
			MaxStreams:          pool.MaxStreams,
			StreamThreads:       pool.StreamThreads,
			DecoderThreads:      pool.DecoderThreads,
			StealOldestFirst:    pool.StealOldestFirst,
			PlayOnCallingThread: pool.PlayOnCallingThread,
			StrictLocking:       pool.StrictLocking,
			StopGrace:           pool.StopGrace,
			StreamType:          pool.StreamType.String(),
		},
		Output: OutputConfig{
			Driver:     device.DriverOto,
			SampleRate: 48000,
			Channels:   2,
			BufferSize: 1024,
		},
	}
}

// SoundPool returns the pool settings. Call it on a validated Config.
func (c *Config) SoundPool() soundpool.Config {
	st, _ := parseStreamType(c.Pool.StreamType)
	var flags output.Flags
	if c.Pool.FastTracks {
		flags |= output.FlagFast
	}
	return soundpool.Config{
		MaxStreams:          c.Pool.MaxStreams,
		StreamThreads:       c.Pool.StreamThreads,
		DecoderThreads:      c.Pool.DecoderThreads,
		StealOldestFirst:    c.Pool.StealOldestFirst,
		PlayOnCallingThread: c.Pool.PlayOnCallingThread,
		StrictLocking:       c.Pool.StrictLocking,
		StopGrace:           c.Pool.StopGrace,
		StreamType:          st,
		TrackFlags:          flags,
	}
}

func parseStreamType(name string) (output.StreamType, bool) {
	for t := output.StreamMusic; t <= output.StreamVoiceCall; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return output.StreamMusic, false
}
