// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF and AIFF-C files with uncompressed big-endian
// PCM using github.com/go-audio/aiff.
//
// Supported sample sizes are 8, 16, 24 and 32 bits. Samples are normalised
// to float32 in [-1, 1) by their bit depth.
package aiff
