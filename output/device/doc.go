// SPDX-License-Identifier: EPL-2.0

// Package device connects a softmix.Mixer to real audio hardware through
// github.com/gopxl/beep or github.com/ebitengine/oto/v3, or to nothing at
// all with the null driver, which can also record a session to WAV.
package device
