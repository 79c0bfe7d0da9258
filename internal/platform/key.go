package platform

import (
	"fmt"
	"runtime"
)

// Key returns the canonical "{os}-{arch}" asset key. The OS name "macos" is
// rewritten to "darwin" because release assets use Unix naming; every other
// value passes through unchanged.
func Key(os, arch string) string {
	if os == "macos" {
		os = "darwin"
	}
	return fmt.Sprintf("%s-%s", os, arch)
}

// Current returns the asset key for the running host. It is recomputed on
// every call.
func Current() string {
	return Key(runtime.GOOS, HostArch())
}

// HostArch returns the running architecture in the naming used by published
// extension assets (x86_64, aarch64, ...). Unknown values pass through.
func HostArch() string {
	return archName(runtime.GOARCH)
}

func archName(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "386":
		return "x86"
	case "arm":
		return "arm"
	default:
		return goarch
	}
}
