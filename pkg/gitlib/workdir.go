package gitlib

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrBareRepository is returned when a working-directory operation is
// attempted on a bare repository.
var ErrBareRepository = errors.New("repository is bare")

// gitDirName is the repository metadata directory skipped during workdir walks.
const gitDirName = ".git"

// WorkdirFiles enumerates the files of the working directory, honoring
// the repository's ignore rules. Entry ids are the zero hash: workdir
// content is addressed by path, not by object id. Symlinks are reported
// with ModeSymlink so callers can filter them out.
func (r *Repository) WorkdirFiles() ([]TreeFile, error) {
	root := r.WorkdirRoot()
	if root == "" {
		return nil, ErrBareRepository
	}

	var files []TreeFile

	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if rel == "." {
			return nil
		}

		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if entry.Name() == gitDirName || r.IsPathIgnored(rel+"/") {
				return filepath.SkipDir
			}

			return nil
		}

		if r.IsPathIgnored(rel) {
			return nil
		}

		mode := ModeBlob
		if entry.Type()&fs.ModeSymlink != 0 {
			mode = ModeSymlink
		}

		files = append(files, TreeFile{Path: rel, Mode: mode, ID: ZeroHash()})

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk workdir: %w", walkErr)
	}

	return files, nil
}

// ReadWorkdirFile reads the contents of a working-directory file by its
// repository-relative path.
func (r *Repository) ReadWorkdirFile(path string) ([]byte, error) {
	root := r.WorkdirRoot()
	if root == "" {
		return nil, ErrBareRepository
	}

	if strings.Contains(path, "..") {
		return nil, fmt.Errorf("read workdir file: invalid path %q", path)
	}

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
	if err != nil {
		return nil, fmt.Errorf("read workdir file: %w", err)
	}

	return data, nil
}
