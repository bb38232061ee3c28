// Package transfer implements the bulk import/export orchestrator: a
// sequential pipeline that picks a spreadsheet file, sends it to a remote
// extraction service, maps the extracted rows, and writes them one by one
// through the record gateway; plus the reverse direction, serializing
// collections for clipboard and share delivery.
package transfer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// ErrCancelled means the user backed out of file selection. It halts the
// pipeline but is not an error condition; callers surface nothing.
var ErrCancelled = errors.New("file selection cancelled")

// File is a picked file's name and raw content.
type File struct {
	Name    string
	Content []byte
}

// FilePicker is the external file-selection boundary.
type FilePicker interface {
	// Pick returns the selected file, or ErrCancelled when the user
	// dismissed the selection.
	Pick(ctx context.Context) (File, error)
}

// Clipboard receives exported text.
type Clipboard interface {
	Copy(ctx context.Context, text string) error
}

// Sharer delivers an exported file to an external share target.
type Sharer interface {
	Share(ctx context.Context, name string, content []byte) error
}

// DirPicker picks the lexically last regular file from a directory.
// An empty directory behaves as a dismissed selection.
type DirPicker struct {
	Dir string
}

func (p DirPicker) Pick(ctx context.Context) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}

	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		return File{}, err
	}

	name := ""
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			name = entry.Name()
		}
	}
	if name == "" {
		return File{}, ErrCancelled
	}

	content, err := os.ReadFile(filepath.Join(p.Dir, name))
	if err != nil {
		return File{}, err
	}
	return File{Name: name, Content: content}, nil
}

// CacheDir implements Clipboard and Sharer over a local cache directory:
// clipboard text lands in a fixed buffer file, shared files keep their
// names. It stands in for platform clipboard and share sheets on the
// server side.
type CacheDir struct {
	Dir string
}

const clipboardFile = "clipboard.txt"

func (c CacheDir) Copy(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.Dir, clipboardFile), []byte(text), 0o644)
}

func (c CacheDir) Share(ctx context.Context, name string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.Dir, filepath.Base(name)), content, 0o644)
}
