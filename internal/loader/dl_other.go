//go:build !(darwin || linux || freebsd || windows)

package loader

import (
	"fmt"
	"runtime"
)

func openLibrary(string) (Plugin, error) {
	return nil, fmt.Errorf("native extensions are not supported on %s", runtime.GOOS)
}
