package platform

import (
	"io/fs"
	"os"
	"runtime"
)

// Default permissions for unpacked extension content.
const (
	DirPerm  fs.FileMode = 0o755
	FilePerm fs.FileMode = 0o644
	ExecPerm fs.FileMode = 0o755
)

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

// ArchiveFileMode maps a mode recorded in an archive entry to the mode used
// on disk. Only the owner-execute bit is honored; setuid, setgid, sticky and
// world-writable bits from third-party archives are never applied.
func ArchiveFileMode(recorded fs.FileMode) fs.FileMode {
	if recorded&0o100 != 0 {
		return ExecPerm
	}
	return FilePerm
}
