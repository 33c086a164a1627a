// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the file contents (trimmed) are the value.
//
// Supported key files: multiblast-auth-key, multiblast-user-id, textsearch-dsn.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
)

// Key file names.
const (
	MultiBlastAuthKey = "multiblast-auth-key"
	MultiBlastUserID  = "multiblast-user-id"
	TextSearchDSN     = "textsearch-dsn"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logrus.WithField("secret", name).WithError(err).Warn("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// UserContext builds the request context identifying the CLI user to the
// multi-blast service. With an auth key the user is registered; otherwise
// the user id, or "0", is sent as a guest.
func UserContext(secrets map[string]string) map[string]string {
	ctx := map[string]string{}
	if key := secrets[MultiBlastAuthKey]; key != "" {
		ctx[wsf.ContextUserGuest] = "false"
		ctx[wsf.ContextAuthKey] = key
		if id := secrets[MultiBlastUserID]; id != "" {
			ctx[wsf.ContextUserID] = id
		}
		return ctx
	}
	id := secrets[MultiBlastUserID]
	if id == "" {
		id = "0"
	}
	ctx[wsf.ContextUserGuest] = "true"
	ctx[wsf.ContextUserID] = id
	return ctx
}
