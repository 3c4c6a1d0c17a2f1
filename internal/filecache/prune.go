package filecache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Prune deletes files under root whose names end in suffix and that were
// last modified more than maxAge before now. A missing root is not an
// error. It returns the number of files removed.
func Prune(root, suffix string, maxAge time.Duration, now time.Time) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := now.Add(-maxAge)
	removed := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("filecache: prune %s: %w", path, err)
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// PruneJob is a scheduled Prune over one directory tree.
type PruneJob struct {
	Root   string
	Suffix string
	MaxAge time.Duration
	now    func() time.Time
}

// Name identifies the job in logs.
func (j *PruneJob) Name() string { return "prune:" + j.Root }

// Run prunes once.
func (j *PruneJob) Run() error {
	now := time.Now
	if j.now != nil {
		now = j.now
	}
	_, err := Prune(j.Root, j.Suffix, j.MaxAge, now())
	return err
}
