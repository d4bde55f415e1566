package storage

import (
	"context"
	"io"
	"path"
)

// Storage stages uploaded spreadsheets until an ingestion worker picks them up.
type Storage interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Upload(ctx context.Context, key string, data io.ReadSeeker) error
	Delete(ctx context.Context, key string) error
}

// ImportKey is the object key of the staged file of one import.
func ImportKey(prefix, importID, fileName string) string {
	return path.Join(prefix, "imports", importID, path.Base(fileName))
}
