// Package platform answers host-specific questions for the extension
// lifecycle: which release asset key this host downloads, which shared
// library filename an extension ships for it, and how file permissions are
// applied. On Windows, permission bits are a no-op.
package platform
