// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blast

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// SweepTempFiles deletes regular files in dir last modified more than
// maxAge before now and returns how many were removed. Files that cannot
// be removed are logged and skipped.
func SweepTempFiles(dir string, maxAge time.Duration, now time.Time, log *logrus.Entry) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading temp dir %s: %w", dir, err)
	}

	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.WithError(err).WithField("path", path).Warn("could not delete temp file")
			continue
		}
		log.WithField("path", path).Info("deleted temp file")
		removed++
	}
	return removed, nil
}
