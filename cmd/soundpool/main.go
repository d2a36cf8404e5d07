// SPDX-License-Identifier: EPL-2.0

// Command soundpool loads audio files into a sound pool and plays each of
// them once. Files named earlier get a higher priority, so with fewer
// streams than files the later ones are the first to be cut off.
//
//	soundpool [-config pool.yaml] [-record out.wav] file1.wav file2.ogg ...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ik5/soundpool"
	"github.com/ik5/soundpool/internal/config"
	"github.com/ik5/soundpool/internal/observe"
	"github.com/ik5/soundpool/output/device"
	"github.com/ik5/soundpool/output/softmix"
	"github.com/ik5/soundpool/sound"
)

const pollInterval = 50 * time.Millisecond

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the YAML configuration file (defaults when empty)")
	record := flag.String("record", "", "render without a sound card into this WAV file")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: soundpool [-config pool.yaml] [-record out.wav] file...")
		return 2
	}

	cfg, err := loadConfig(*configPath, *record)
	if err != nil {
		fmt.Fprintf(os.Stderr, "soundpool: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel.Level()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "soundpool"})
	if err != nil {
		slog.Error("failed to init metrics", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(sctx); err != nil {
			slog.Warn("metrics shutdown", "err", err)
		}
	}()

	mixer := softmix.New(cfg.Output.SampleRate, cfg.Output.Channels, softmix.WithLogger(logger))
	dev, err := openDevice(cfg.Output, mixer)
	if err != nil {
		slog.Error("failed to open output", "driver", cfg.Output.Driver, "err", err)
		return 1
	}

	pool := soundpool.New(cfg.SoundPool(), mixer, soundpool.WithLogger(logger))

	slog.Info("soundpool starting",
		"config", *configPath,
		"driver", cfg.Output.Driver,
		"sample_rate", cfg.Output.SampleRate,
		"max_streams", cfg.Pool.MaxStreams,
		"files", len(files),
	)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Listen != "" {
		serveMetrics(gctx, g, cfg.Metrics.Listen)
	}
	g.Go(func() error {
		// Ends the metrics server once playback is over.
		defer stop()
		return play(gctx, pool, files)
	})

	code := 0
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("playback failed", "err", err)
		code = 1
	}

	if err := pool.Release(); err != nil {
		slog.Warn("releasing pool", "err", err)
	}
	if err := dev.Close(); err != nil {
		slog.Error("closing output", "err", err)
		code = 1
	}
	return code
}

func loadConfig(path, record string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if record != "" {
		cfg.Output.Driver = device.DriverNull
		cfg.Output.Record = record
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// recordingDevice closes the WAV file after the null device has written it.
type recordingDevice struct {
	*device.Null
	f *os.File
}

func (d recordingDevice) Close() error {
	return errors.Join(d.Null.Close(), d.f.Close())
}

func openDevice(oc config.OutputConfig, mixer *softmix.Mixer) (device.Device, error) {
	if oc.Record == "" {
		return device.Open(oc.Driver, mixer, oc.BufferSize)
	}
	f, err := os.Create(oc.Record)
	if err != nil {
		return nil, fmt.Errorf("creating recording: %w", err)
	}
	return recordingDevice{Null: device.NewNull(mixer, oc.BufferSize, f), f: f}, nil
}

func serveMetrics(ctx context.Context, g *errgroup.Group, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error {
		slog.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
}

// play loads every file, plays the ones that decoded and waits until no
// stream is busy.
func play(ctx context.Context, pool *soundpool.Pool, files []string) error {
	events := make(chan sound.Event, len(files))
	pool.SetListener(func(e sound.Event) { events <- e })

	names := make(map[int32]string, len(files))
	order := make([]int32, 0, len(files))
	for _, name := range files {
		id, err := pool.LoadPath(name)
		if err != nil {
			slog.Error("failed to load", "file", name, "err", err)
			continue
		}
		names[id] = name
		order = append(order, id)
	}

	ready := make(map[int32]bool, len(order))
	for range order {
		select {
		case e := <-events:
			if e.Status != sound.StatusOK {
				slog.Error("failed to decode", "file", names[e.SoundID], "status", e.Status)
				continue
			}
			ready[e.SoundID] = true
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for i, id := range order {
		if !ready[id] {
			continue
		}
		priority := int32(len(order) - i)
		streamID := pool.Play(id, 1, 1, priority, 0, 1)
		slog.Info("playing", "file", names[id], "stream_id", streamID, "priority", priority)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		q := pool.Queues()
		if q.Active == 0 && q.Restarting == 0 && q.Processing == 0 {
			slog.Info("playback finished")
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
