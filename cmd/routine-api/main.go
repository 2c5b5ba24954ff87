package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/routinesharing/internal/api"
	"github.com/Lllllllleong/routinesharing/internal/services"
)

var (
	router  http.Handler
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleRoutineAPI" is the entry point name we'll see in GCP.
	functions.HTTP("HandleRoutineAPI", handleRoutineAPI)
}

// main is required by the Go Functions Framework.
func main() {}

func handleRoutineAPI(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var svc *services.RoutineService
		svc, initErr = services.NewRoutineService(context.Background())
		if initErr == nil {
			router = (&api.API{Service: svc}).Router()
		}
	})
	if initErr != nil {
		slog.Error("Routine API initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	router.ServeHTTP(w, r)
}
