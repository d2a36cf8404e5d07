// SPDX-License-Identifier: EPL-2.0

package device

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/ik5/soundpool/output/softmix"
)

// otoReader renders the mixer as float32 little-endian bytes for an oto
// player.
type otoReader struct {
	m   *softmix.Mixer
	buf []float32
}

func (r *otoReader) Read(p []byte) (int, error) {
	ch := r.m.Channels()
	n := len(p) / 4
	n -= n % ch
	if cap(r.buf) < n {
		r.buf = make([]float32, n)
	}
	buf := r.buf[:n]

	written := r.m.Read(buf)
	for i, v := range buf[:written] {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
	}
	return written * 4, nil
}

type otoDevice struct {
	player *oto.Player
}

func openOto(m *softmix.Mixer, bufferSize int) (Device, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   m.SampleRate(),
		ChannelCount: m.Channels(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(bufferSize) * time.Second / time.Duration(m.SampleRate()),
	})
	if err != nil {
		return nil, fmt.Errorf("creating oto context: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(&otoReader{m: m})
	player.Play()
	return &otoDevice{player: player}, nil
}

func (d *otoDevice) Close() error {
	if err := d.player.Close(); err != nil {
		return fmt.Errorf("closing oto player: %w", err)
	}
	return nil
}
