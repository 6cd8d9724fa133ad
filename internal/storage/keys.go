package storage

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var fileNameSafe = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// ObjectKey derives a collision-resistant blob key of the shape
// <folder>/<unix-ms>-<uuid>-<sanitized-filename>. Concurrent uploads of the
// same filename by the same or different owners never collide.
func ObjectKey(fileName, folder string) string {
	clean := strings.ToLower(fileNameSafe.ReplaceAllString(fileName, "_"))
	if clean == "" {
		clean = "file"
	}
	key := time.Now().UTC().Format("20060102T150405") + "-" + uuid.NewString() + "-" + clean
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return key
	}
	return folder + "/" + key
}
