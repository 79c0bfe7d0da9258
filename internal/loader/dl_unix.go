//go:build darwin || linux || freebsd

package loader

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"
)

type dlPlugin struct {
	handle uintptr
	run    func() *byte
	free   func(*byte)
}

var (
	libcOnce sync.Once
	libcFree func(*byte)
	libcErr  error
)

func libcName() string {
	switch runtime.GOOS {
	case "darwin":
		return "/usr/lib/libSystem.B.dylib"
	case "freebsd":
		return "libc.so.7"
	default:
		return "libc.so.6"
	}
}

// cFree returns the C allocator's free.
func cFree() (func(*byte), error) {
	libcOnce.Do(func() {
		h, err := purego.Dlopen(libcName(), purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			libcErr = fmt.Errorf("opening libc: %w", err)
			return
		}
		sym, err := purego.Dlsym(h, "free")
		if err != nil {
			libcErr = fmt.Errorf("resolving free: %w", err)
			return
		}
		purego.RegisterFunc(&libcFree, sym)
	})
	return libcFree, libcErr
}

func openLibrary(path string) (Plugin, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, err
	}

	sym, err := purego.Dlsym(h, EntryPoint)
	if err != nil {
		_ = purego.Dlclose(h)
		return nil, fmt.Errorf("resolving symbol %q: %w", EntryPoint, err)
	}

	p := &dlPlugin{handle: h}
	purego.RegisterFunc(&p.run, sym)

	if freeSym, err := purego.Dlsym(h, FreeFunc); err == nil {
		purego.RegisterFunc(&p.free, freeSym)
	} else if p.free, err = cFree(); err != nil {
		_ = purego.Dlclose(h)
		return nil, err
	}
	return p, nil
}

func (p *dlPlugin) Call() (string, error) {
	ptr := p.run()
	if ptr == nil {
		return "", errNullResult
	}
	s := unix.BytePtrToString(ptr)
	p.free(ptr)
	return decode(s)
}

func (p *dlPlugin) Close() error {
	return purego.Dlclose(p.handle)
}
