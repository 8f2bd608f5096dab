// Package blobstore persists uploaded documents on local disk.
package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
)

const filesDir = "private_files"

// Disk writes documents to <root>/private_files/<name>, overwriting by name.
type Disk struct {
	dir string
}

var _ ports.BlobStore = (*Disk)(nil)

func NewDisk(root string) *Disk {
	if root == "" {
		root = ".cache"
	}
	return &Disk{dir: filepath.Join(root, filesDir)}
}

// Save writes doc.Data verbatim and returns the file path.
func (d *Disk) Save(ctx context.Context, doc *entities.Document) (string, error) {
	name := filepath.Base(doc.Name)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", entities.ErrInvalidName, doc.Name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", d.dir, err)
	}

	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, doc.Data, 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// Dir returns the directory files are written to.
func (d *Disk) Dir() string {
	return d.dir
}
