// SPDX-License-Identifier: EPL-2.0

// Package soundpool plays short, preloaded sounds on a fixed number of
// concurrent streams.
//
// Sounds are loaded once and decoded in the background into 16-bit PCM.
// Playing a sound picks a stream by priority, stealing the least important
// playing stream when every stream is busy, and returns a stream id that
// addresses that one playback. Ids go stale as streams are reused, and
// commands on a stale id do nothing.
//
// # Supported Formats
//
// Sounds are sniffed from their first bytes and decoded by:
//   - WAV (8, 16, 24 and 32-bit PCM) via formats/wav
//   - AIFF and AIFC via formats/aiff
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//
// # Quick Start
//
//	mixer := softmix.New(48000, 2)
//	dev, _ := device.Open(device.DriverOto, mixer, 4096)
//	defer dev.Close()
//
//	pool := soundpool.New(soundpool.DefaultConfig(), mixer)
//	defer pool.Release()
//
//	loaded := make(chan sound.Event, 1)
//	pool.SetListener(func(e sound.Event) { loaded <- e })
//
//	id, _ := pool.LoadPath("click.wav")
//	if e := <-loaded; e.Status == sound.StatusOK {
//		pool.Play(id, 1, 1, 0, 0, 1)
//	}
//
// # Outputs
//
// A Pool plays through any output.Output. The softmix package mixes tracks
// in process and the device package feeds a mixer to the sound card through
// beep or oto. The null device renders without hardware and can record the
// result to a WAV file.
//
// # Configuration
//
// Config holds the scheduler settings. The internal/config package reads
// them, with output and logging settings, from a YAML file for the
// soundpool command.
package soundpool
