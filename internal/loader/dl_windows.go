//go:build windows

package loader

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

var (
	kernel32       = windows.NewLazySystemDLL("kernel32.dll")
	getProcessHeap = kernel32.NewProc("GetProcessHeap")
	heapFree       = kernel32.NewProc("HeapFree")
)

type dllPlugin struct {
	dll  *windows.DLL
	run  func() *byte
	free func(*byte)
}

// processHeapFree releases memory allocated from the process heap, which
// is where the default allocators of extension toolchains place strings.
func processHeapFree(p *byte) {
	heap, _, _ := getProcessHeap.Call()
	_, _, _ = heapFree.Call(heap, 0, uintptr(unsafe.Pointer(p)))
}

func openLibrary(path string) (Plugin, error) {
	dll, err := windows.LoadDLL(path)
	if err != nil {
		return nil, err
	}

	proc, err := dll.FindProc(EntryPoint)
	if err != nil {
		_ = dll.Release()
		return nil, fmt.Errorf("resolving symbol %q: %w", EntryPoint, err)
	}

	p := &dllPlugin{dll: dll, free: processHeapFree}
	purego.RegisterFunc(&p.run, proc.Addr())
	if freeProc, err := dll.FindProc(FreeFunc); err == nil {
		purego.RegisterFunc(&p.free, freeProc.Addr())
	}
	return p, nil
}

func (p *dllPlugin) Call() (string, error) {
	ptr := p.run()
	if ptr == nil {
		return "", errNullResult
	}
	s := windows.BytePtrToString(ptr)
	p.free(ptr)
	return decode(s)
}

func (p *dllPlugin) Close() error {
	return p.dll.Release()
}
