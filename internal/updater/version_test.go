package updater

import (
	"fmt"
	"testing"

	"github.com/Masterminds/semver/v3"
	"pgregory.net/rapid"
)

func TestIsNewer(t *testing.T) {
	tests := []struct {
		name      string
		installed string
		latest    string
		expected  bool
	}{
		{"older patch", "1.0.0", "1.0.1", true},
		{"older minor", "1.0.0", "1.1.0", true},
		{"numeric not lexicographic", "1.2.0", "1.10.0", true},
		{"lexicographic trap reversed", "1.10.0", "1.2.0", false},
		{"equal", "1.2.3", "1.2.3", false},
		{"v prefix", "v1.0.0", "1.0.1", true},
		{"prerelease before release", "1.0.0-beta", "1.0.0", true},
		{"release after prerelease", "1.0.0", "1.0.0-rc.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsNewer(semver.MustParse(tt.installed), semver.MustParse(tt.latest))
			if got != tt.expected {
				t.Errorf("IsNewer(%s, %s) = %v, want %v", tt.installed, tt.latest, got, tt.expected)
			}
		})
	}
}

func TestIsNewer_Nil(t *testing.T) {
	if !IsNewer(nil, semver.MustParse("0.0.1")) {
		t.Error("missing installed version should be older")
	}
	if IsNewer(semver.MustParse("1.0.0"), nil) {
		t.Error("missing latest version should never be newer")
	}
}

func TestIsNewer_MatchesNumericOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		part := rapid.IntRange(0, 30)
		a := [3]int{part.Draw(t, "a0"), part.Draw(t, "a1"), part.Draw(t, "a2")}
		b := [3]int{part.Draw(t, "b0"), part.Draw(t, "b1"), part.Draw(t, "b2")}

		want := false
		for i := range 3 {
			if a[i] != b[i] {
				want = b[i] > a[i]
				break
			}
		}

		va := semver.MustParse(fmt.Sprintf("%d.%d.%d", a[0], a[1], a[2]))
		vb := semver.MustParse(fmt.Sprintf("%d.%d.%d", b[0], b[1], b[2]))
		if got := IsNewer(va, vb); got != want {
			t.Fatalf("IsNewer(%s, %s) = %v, want %v", va, vb, got, want)
		}
	})
}
