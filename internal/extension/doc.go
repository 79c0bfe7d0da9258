// Package extension owns the extensions root directory: it enumerates
// installed extensions in display order, installs checksum-verified archives
// by swapping in a fully unpacked staging directory, removes extensions, and
// serializes mutations of a single extension through per-id locks.
package extension
