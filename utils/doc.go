// SPDX-License-Identifier: EPL-2.0

// Package utils has small sample conversion and interpolation helpers.
package utils
