// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"bytes"
	"fmt"

	"github.com/ik5/soundpool/formats/wav"
)

func Example() {
	data := new(bytes.Buffer)
	if err := wav.WriteWAV16(data, 16000, 2, []int16{100, 200, 300, 400}); err != nil {
		fmt.Println(err)
		return
	}

	src, err := wav.Decoder{}.Decode(data)
	if err != nil {
		fmt.Println(err)
		return
	}

	buf := make([]float32, 10)
	n, _ := src.ReadSamples(buf)

	fmt.Printf("%d Hz, %d channels, %d samples\n", src.SampleRate(), src.Channels(), n)
	// Output:
	// 16000 Hz, 2 channels, 4 samples
}
