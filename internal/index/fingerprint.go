package index

import (
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Matches reports whether the file at path still has the size and
// modification time recorded when the index was built.
func (idx *Index) Matches(path string) (bool, error) {
	fp, err := StatFile(path)
	if err != nil {
		return false, err
	}
	return fp.Size == idx.Metadata.FileSize && fp.ModTime.UnixNano() == idx.Metadata.LastWriteTime, nil
}
