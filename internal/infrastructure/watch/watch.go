// Package watch feeds files dropped into a directory into a session.
package watch

import (
	"context"

	"github.com/0xcro3dile/privategpt-go/internal/adapters/loader"
	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
	"github.com/0xcro3dile/privategpt-go/internal/logger"
)

// Uploader is the part of a session the watcher drives.
type Uploader interface {
	Upload(ctx context.Context, up entities.Upload) (*entities.Document, error)
}

// Ingestor uploads every created or modified file reported by a watcher.
type Ingestor struct {
	watcher  ports.FileWatcher
	uploader Uploader
	read     func(path string) (entities.Upload, error)
}

func NewIngestor(watcher ports.FileWatcher, uploader Uploader) *Ingestor {
	return &Ingestor{
		watcher:  watcher,
		uploader: uploader,
		read:     loader.ReadUpload,
	}
}

// Run watches dir until ctx is cancelled or the watcher stops. Failed
// uploads are logged and do not stop the loop.
func (i *Ingestor) Run(ctx context.Context, dir string) error {
	events, err := i.watcher.Watch(ctx, dir)
	if err != nil {
		return err
	}

	log := logger.GetLogger().WithField("dir", dir)
	log.Info("watching directory for documents")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Operation == ports.FileDeleted {
				continue
			}
			i.ingest(ctx, ev.Path)
		}
	}
}

func (i *Ingestor) ingest(ctx context.Context, path string) {
	log := logger.GetLogger().WithField("path", path)

	up, err := i.read(path)
	if err != nil {
		log.WithError(err).Warn("reading watched file")
		return
	}
	doc, err := i.uploader.Upload(ctx, up)
	if err != nil {
		log.WithError(err).Error("uploading watched file")
		return
	}
	log.WithField("document", doc.Name).Info("watched file uploaded")
}
