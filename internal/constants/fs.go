package constants

import "os"

const (
	// DefaultFilePermissions sets the default permissions for regular files: (rw-r--r--).
	DefaultFilePermissions os.FileMode = 0o644

	// DefaultFolderPermissions sets the default permissions for regular folders: (rwxr-xr-x).
	DefaultFolderPermissions os.FileMode = 0o755

	// OverwriteFileOptions truncates an existing file or creates a new one for writing.
	OverwriteFileOptions = os.O_CREATE | os.O_TRUNC | os.O_WRONLY
)

// File extension constants.
const (
	ExtensionMP3  = ".mp3"
	ExtensionFLAC = ".flac"
	ExtensionJPG  = ".jpg"
	ExtensionLRC  = ".lrc"
	ExtensionTXT  = ".txt"
)

// Temporary asset basenames, completed with the track ID: cover_<id>.jpg, lyric_<id>.lrc.
const (
	CoverTempPrefix = "cover_"
	LyricTempPrefix = "lyric_"
)
