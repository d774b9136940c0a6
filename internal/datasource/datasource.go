// Package datasource abstracts where source bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source yields the raw bytes of one source extract.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// ReadAll opens src and reads it to the end.
func ReadAll(ctx context.Context, src Source) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
