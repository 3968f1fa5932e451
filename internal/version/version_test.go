// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package version

import "testing"

func TestString(t *testing.T) {
	tests := []struct {
		name string
		info *Info
		want string
	}{
		{"nil", nil, "dev"},
		{"zero value", &Info{}, "dev"},
		{"injected", &Info{Version: "v1.2.3"}, "v1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBanner(t *testing.T) {
	info := &Info{
		Version:   "v1.0.0",
		GitCommit: "abc1234",
		BuildTime: "2025-01-30T12:00:00Z",
	}

	want := "instituto v1.0.0 (commit: abc1234, built: 2025-01-30T12:00:00Z)"
	if got := info.Banner("instituto"); got != want {
		t.Errorf("Banner() = %q, want %q", got, want)
	}
}

func TestBannerZeroValue(t *testing.T) {
	var info Info

	want := "instituto dev (commit: unknown, built: unknown)"
	if got := info.Banner("instituto"); got != want {
		t.Errorf("Banner() = %q, want %q", got, want)
	}
}
