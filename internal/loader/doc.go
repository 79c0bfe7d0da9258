// Package loader runs installed extensions. An extension ships a native
// shared library exporting a C function "run" that takes no arguments and
// returns a heap-allocated, nul-terminated string: empty means success and
// anything else is an error message for the user. Libraries are opened
// through a per-OS backend behind the Plugin interface and run with the
// full privileges of this process.
package loader
