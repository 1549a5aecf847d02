// Package blob stores audio bytes and hands out public URLs for them.
package blob

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrObjectExists is returned by Upload with upsert=false when the path is
// already taken.
var ErrObjectExists = errors.New("object already exists")

// Store is a flat namespace of objects addressed by slash separated paths.
// Upload with upsert replaces any existing object at path.
type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string, upsert bool) error
	PublicURL(path string) string
}

const submissionTimeFormat = "20060102T150405Z"

// ReferencePath is the deterministic location of a verse's reference audio:
// {base}/{chapter}/{verse}.{ext}
func ReferencePath(base string, chapter int, verse, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return cleanPath(path.Join(base, fmt.Sprint(chapter), verse+"."+ext))
}

// SubmissionPath builds a collision-free path for a learner upload:
// {base}/{user}/{kind}_{verse}_{timestamp}_{random}{ext}
func SubmissionPath(base, userID, kind, verseID string, now time.Time, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	id := uuid.New()
	name := fmt.Sprintf("%s_%s_%s_%s%s",
		kind,
		verseID,
		now.UTC().Format(submissionTimeFormat),
		hex.EncodeToString(id[:]),
		strings.ToLower(ext),
	)
	return cleanPath(path.Join(base, userID, name))
}

// DetectContentType sniffs data and returns its MIME type and the file
// extension to store it under. The extension of filename wins when present.
func DetectContentType(data []byte, filename string) (string, string) {
	mt := mimetype.Detect(data)
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = mt.Extension()
	}
	return mt.String(), ext
}

// IsAudio reports whether data sniffs as an audio container.
func IsAudio(data []byte) bool {
	for mt := mimetype.Detect(data); mt != nil; mt = mt.Parent() {
		if strings.HasPrefix(mt.String(), "audio/") {
			return true
		}
	}
	return false
}

func cleanPath(p string) string {
	return strings.TrimLeft(path.Clean("/"+p), "/")
}

func joinURL(base, p string) string {
	return strings.TrimRight(base, "/") + "/" + cleanPath(p)
}
