// Package classify routes input files to an extraction path based on
// their extension, and rejects unsupported or oversized files before
// any extraction is attempted.
package classify

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nao1215/pcaplens/internal/model"
)

// Classification errors.
//
// Design decision: We use package-level sentinel errors so callers can
// use errors.Is() for programmatic handling while the wrapped message
// still names the offending file.
var (
	// ErrUnsupportedFileType is returned for extensions outside the
	// supported set (.pcap, .pcapng, .log, .txt).
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFileTooLarge is returned when the file exceeds the size ceiling.
	ErrFileTooLarge = errors.New("file too large")
)

// kindByExtension is the routing table from file extension to input kind.
// Extensions are matched case-insensitively.
var kindByExtension = map[string]model.InputKind{
	".pcap":   model.KindCapture,
	".pcapng": model.KindCapture,
	".log":    model.KindLog,
	".txt":    model.KindLog,
}

// Classifier decides how an input file is processed.
type Classifier struct {
	// maxSize is the size ceiling in bytes. Files above it are rejected.
	maxSize int64
}

// NewClassifier creates a Classifier with the given size ceiling.
func NewClassifier(maxSize int64) *Classifier {
	return &Classifier{maxSize: maxSize}
}

// Classify returns the input kind for the given file name and size.
// The size check runs first so oversized files are rejected before
// any extension lookup or extraction attempt.
func (c *Classifier) Classify(path string, size int64) (model.InputKind, error) {
	if c.maxSize > 0 && size > c.maxSize {
		return "", fmt.Errorf("%w: %s is %d bytes (limit %d)",
			ErrFileTooLarge, filepath.Base(path), size, c.maxSize)
	}

	ext := strings.ToLower(filepath.Ext(path))
	kind, ok := kindByExtension[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}

	return kind, nil
}
