package archive

import (
	"context"
	"errors"
)

// ErrAlreadyExists is returned by Upload when overwrite is false and an
// object with the same name is already stored.
var ErrAlreadyExists = errors.New("archive object already exists")

// Archive is the cold-storage sink for exported reading batches.
type Archive interface {
	Upload(ctx context.Context, name string, content []byte, overwrite bool) error
}
