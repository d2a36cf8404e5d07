// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes RIFF/WAVE files.
//
// Decoding uses github.com/go-audio/wav and accepts uncompressed integer PCM
// at 8 (unsigned), 16, 24 and 32 bits with any number of channels. Extra
// chunks such as LIST or smpl before the data chunk are skipped.
//
// # Decoding
//
//	src, err := wav.Decoder{}.Decode(file)
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
// A reader that is not an io.ReadSeeker is buffered in memory first.
//
// # Encoding
//
// WriteWAV16 writes interleaved 16-bit samples with a canonical 44 byte
// header. It is used to produce test fixtures and to export rendered mixes:
//
//	wav.WriteWAV16(out, 48000, 2, samples)
package wav
