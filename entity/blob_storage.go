package entity

import (
	"context"
	"io"
)

// StorageRepository is the blob store converted audio is archived to.
// DownloadObject reports a missing key as ErrArchiveNotFound.
type StorageRepository interface {
	DownloadObject(ctx context.Context, bucket string, key string, w io.Writer) error
	UploadObject(ctx context.Context, bucket string, key string, r io.Reader) error
}

// ArchiveExt is the extension of archived object names.
const ArchiveExt = ".wav"

// ArchiveKey builds the object key a session's converted audio is stored under.
func ArchiveKey(sessionID, name string) string {
	return sessionID + "/" + name + ArchiveExt
}
