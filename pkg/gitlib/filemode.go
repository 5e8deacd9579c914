package gitlib

// Filemode holds the raw mode bits of a tree entry.
type Filemode uint16

// Tree entry modes as stored by git.
const (
	// ModeTypeMask selects the object-type bits of a mode.
	ModeTypeMask Filemode = 0o170000
	// ModeTree marks a subtree entry.
	ModeTree Filemode = 0o040000
	// ModeRegular marks the type bits of a regular file.
	ModeRegular Filemode = 0o100000
	// ModeBlob is a non-executable regular file.
	ModeBlob Filemode = 0o100644
	// ModeBlobExecutable is an executable regular file.
	ModeBlobExecutable Filemode = 0o100755
	// ModeSymlink is a symbolic link entry.
	ModeSymlink Filemode = 0o120000
	// ModeGitlink is a submodule entry.
	ModeGitlink Filemode = 0o160000
)

// TypeBits returns only the object-type bits of the mode.
func (m Filemode) TypeBits() Filemode {
	return m & ModeTypeMask
}

// IsRegular reports whether the mode describes a regular file.
// Symlinks and gitlinks return false.
func (m Filemode) IsRegular() bool {
	return m.TypeBits() == ModeRegular
}

// SameType reports whether two modes describe the same kind of object.
// A regular file is never the same type as a symlink or a gitlink.
func SameType(a, b Filemode) bool {
	return a.TypeBits() == b.TypeBits()
}
