// Package natsstore archives converted audio in NATS JetStream object stores.
package natsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"voice_conversion/entity"
)

const traceName = "NATS-Store"

// NatsObjectStore implements entity.StorageRepository with one JetStream
// object store bucket per storage bucket name.
type NatsObjectStore struct {
	jetstreamContext nats.JetStreamContext

	mu     sync.Mutex
	stores map[string]nats.ObjectStore
}

var _ entity.StorageRepository = (*NatsObjectStore)(nil)

// New -.
func New(jetstreamContext nats.JetStreamContext) *NatsObjectStore {
	return &NatsObjectStore{
		jetstreamContext: jetstreamContext,
		stores:           make(map[string]nats.ObjectStore),
	}
}

// bucket creates the object store on first use and binds to it when it exists.
func (n *NatsObjectStore) bucket(name string) (nats.ObjectStore, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if store, ok := n.stores[name]; ok {
		return store, nil
	}

	store, err := n.jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Converted audio for the %s bucket.", name),
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", name, err)
		}
		store, err = n.jetstreamContext.ObjectStore(name)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", name, err)
		}
	}

	n.stores[name] = store
	return store, nil
}

// DownloadObject copies an archived object into w.
func (n *NatsObjectStore) DownloadObject(ctx context.Context, bucket string, key string, w io.Writer) error {
	_, span := otel.Tracer(traceName).Start(ctx, "DownloadObject")
	defer span.End()

	span.SetAttributes(attribute.String("bucket", bucket), attribute.String("key", key))

	store, err := n.bucket(bucket)
	if err != nil {
		return err
	}

	obj, err := store.Get(key)
	if errors.Is(err, nats.ErrObjectNotFound) {
		return fmt.Errorf("object '%s' in bucket '%s': %w", key, bucket, entity.ErrArchiveNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, bucket, err)
	}

	_, copyErr := io.Copy(w, obj)
	closeErr := obj.Close()

	if copyErr != nil {
		return fmt.Errorf("failed to read object '%s': %w", key, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return nil
}

// UploadObject stores r under key.
func (n *NatsObjectStore) UploadObject(ctx context.Context, bucket string, key string, r io.Reader) error {
	_, span := otel.Tracer(traceName).Start(ctx, "UploadObject")
	defer span.End()

	span.SetAttributes(attribute.String("bucket", bucket), attribute.String("key", key))

	store, err := n.bucket(bucket)
	if err != nil {
		return err
	}

	_, err = store.Put(&nats.ObjectMeta{
		Name:        key,
		Description: "converted audio (audio/wav)",
	}, r)
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, bucket, err)
	}

	return nil
}
