// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/soundpool/audio"
	"github.com/ik5/soundpool/internal/audiotest"
)

func ExampleResampler() {
	// One second of a stereo tone at 48 kHz, folded to mono 16 kHz.
	src := audiotest.NewSineSource(48000, 2, 48000, 440.0)
	mono := audio.NewMonoMixer(audio.NewResampler(src, 16000))

	buf := make([]float32, 4096)
	total := 0
	for {
		n, err := mono.ReadSamples(buf)
		total += n
		if errors.Is(err, io.EOF) {
			break
		}
	}

	fmt.Printf("%d Hz, %d channel, %d frames\n", mono.SampleRate(), mono.Channels(), total)
	// Output:
	// 16000 Hz, 1 channel, 16000 frames
}
