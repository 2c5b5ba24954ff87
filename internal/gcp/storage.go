package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// SaveToGCSAtomically writes content to a GCS object only if it doesn't already exist.
// It reports whether this call created the object.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName string, content []byte, contentType string) (bool, error) {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			slog.Info("Object already exists. Skipping.", "gcsObject", objectName)
			return false, nil
		}
		return false, fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			slog.Info("Object already exists. Skipping.", "gcsObject", objectName)
			return false, nil
		}
		return false, fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return true, nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 412
}

// ExportPublisher stores export bundles under exports/<session>/<filename>.
type ExportPublisher struct {
	bucket     *storage.BucketHandle
	bucketName string
}

func NewExportPublisher(client *storage.Client, bucketName string) *ExportPublisher {
	return &ExportPublisher{bucket: client.Bucket(bucketName), bucketName: bucketName}
}

// Publish returns the gs:// URI of the bundle. Filenames carry the export
// date, so a second export of the same session on the same day is kept as is.
func (p *ExportPublisher) Publish(ctx context.Context, sessionKey, filename string, data []byte) (string, error) {
	objectName := path.Join("exports", sessionKey, filename)
	if _, err := SaveToGCSAtomically(ctx, p.bucket, objectName, data, "application/json"); err != nil {
		return "", classify("export", err)
	}
	return fmt.Sprintf("gs://%s/%s", p.bucketName, objectName), nil
}

// ObjectReader downloads uploaded bundles along with their custom metadata.
type ObjectReader struct {
	client *storage.Client
}

func NewObjectReader(client *storage.Client) *ObjectReader {
	return &ObjectReader{client: client}
}

func (r *ObjectReader) ReadObject(ctx context.Context, bucket, object string) ([]byte, map[string]string, error) {
	handle := r.client.Bucket(bucket).Object(object)
	attrs, err := handle.Attrs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read attributes of gs://%s/%s: %w", bucket, object, err)
	}
	gcsReader, err := handle.NewReader(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer gcsReader.Close()

	data, err := io.ReadAll(gcsReader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read GCS object gs://%s/%s: %w", bucket, object, err)
	}
	return data, attrs.Metadata, nil
}
