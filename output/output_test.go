// SPDX-License-Identifier: EPL-2.0

package output

import "testing"

func TestEvent_String(t *testing.T) {
	t.Parallel()

	seen := make(map[string]Event)
	for e := EventMoreData; e <= EventNewTrack; e++ {
		s := e.String()
		if s == "unknown" {
			t.Errorf("Event(%d).String() = unknown", e)
		}
		if prev, ok := seen[s]; ok {
			t.Errorf("Event(%d) and Event(%d) share name %q", prev, e, s)
		}
		seen[s] = e
	}
	if got := Event(99).String(); got != "unknown" {
		t.Errorf("Event(99).String() = %q, want unknown", got)
	}
}

func TestStreamType_String(t *testing.T) {
	t.Parallel()

	if got := StreamAlarm.String(); got != "alarm" {
		t.Errorf("StreamAlarm.String() = %q, want alarm", got)
	}
	if got := StreamType(-1).String(); got != "unknown" {
		t.Errorf("StreamType(-1).String() = %q, want unknown", got)
	}
}
