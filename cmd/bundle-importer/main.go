package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/routinesharing/internal/services"
)

var (
	importerInstance *services.BundleImporterFunction
	once             sync.Once
	initErr          error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("ImportBundle", importBundle)
}

// main is required by the Go Functions Framework.
func main() {}

// importBundle is the Cloud Function entry point for object finalize events.
func importBundle(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		importerInstance, initErr = services.NewBundleImporter(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	result, err := importerInstance.Process(ctx, gcsEvent)
	if err != nil && services.Retryable(result, err) {
		return err
	}
	return nil
}
