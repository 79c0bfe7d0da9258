//go:build !windows && !darwin

package platform

// LibraryFileName is the shared library every extension ships for this OS.
const LibraryFileName = "lib.so"
