// SPDX-License-Identifier: EPL-2.0

package device

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ik5/soundpool/formats/wav"
	"github.com/ik5/soundpool/output/softmix"
	"github.com/ik5/soundpool/utils"
)

// Null pulls a mixer at real-time pace without a sound card. When a
// recorder is given, everything rendered is written to it as a WAV file on
// Close.
type Null struct {
	m      *softmix.Mixer
	record io.Writer

	done chan struct{}
	wg   sync.WaitGroup

	mu       sync.Mutex
	captured []int16
	closed   bool
}

func NewNull(m *softmix.Mixer, bufferSize int, record io.Writer) *Null {
	n := &Null{
		m:      m,
		record: record,
		done:   make(chan struct{}),
	}
	period := time.Duration(bufferSize) * time.Second / time.Duration(m.SampleRate())

	n.wg.Add(1)
	go n.run(bufferSize*m.Channels(), period)
	return n
}

func (n *Null) run(samples int, period time.Duration) {
	defer n.wg.Done()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	buf := make([]float32, samples)
	for {
		select {
		case <-n.done:
			return
		case <-ticker.C:
		}

		written := n.m.Read(buf)
		if n.record == nil {
			continue
		}
		n.mu.Lock()
		for _, v := range buf[:written] {
			n.captured = append(n.captured, utils.Float32ToInt16(v))
		}
		n.mu.Unlock()
	}
}

// Frames returns the number of frames recorded so far.
func (n *Null) Frames() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.captured) / n.m.Channels()
}

func (n *Null) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()

	if n.record == nil {
		return nil
	}
	if err := wav.WriteWAV16(n.record, n.m.SampleRate(), n.m.Channels(), n.captured); err != nil {
		return fmt.Errorf("writing recording: %w", err)
	}
	return nil
}
