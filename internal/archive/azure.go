package archive

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// BlobArchive stores exported files as blobs in one Azure Storage container.
type BlobArchive struct {
	client    *azblob.Client
	container string
}

// NewBlobArchive builds a BlobArchive from a storage account connection
// string and a container name.
func NewBlobArchive(connectionString, container string) (*BlobArchive, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}

	return &BlobArchive{
		client:    client,
		container: container,
	}, nil
}

// Upload writes content under name. With overwrite disabled the upload is
// guarded by an If-None-Match condition so an existing blob fails the call
// instead of being replaced.
func (a *BlobArchive) Upload(ctx context.Context, name string, content []byte, overwrite bool) error {
	opts := &azblob.UploadBufferOptions{}
	if !overwrite {
		opts.AccessConditions = &blob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{
				IfNoneMatch: to.Ptr(azcore.ETagAny),
			},
		}
	}

	_, err := a.client.UploadBuffer(ctx, a.container, name, content, opts)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobAlreadyExists, bloberror.ConditionNotMet) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
		}
		return fmt.Errorf("upload blob %s: %w", name, err)
	}
	return nil
}
