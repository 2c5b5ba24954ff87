package gcp

import (
	"context"
	"errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/routinesharing/internal/routines"
)

// classify wraps a Google API error in a routines.StorageError, keeping the
// distinction between permission problems and connectivity problems.
func classify(op string, err error) error {
	return &routines.StorageError{Op: op, Kind: kindOf(err), Err: err}
}

func kindOf(err error) routines.StorageKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return routines.StorageUnavailable
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 401, 403:
			return routines.StoragePermissionDenied
		case 404:
			return routines.StorageNotFound
		case 502, 503, 504:
			return routines.StorageUnavailable
		}
		return routines.StorageUnknown
	}
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return routines.StoragePermissionDenied
	case codes.Unavailable, codes.DeadlineExceeded:
		return routines.StorageUnavailable
	case codes.NotFound:
		return routines.StorageNotFound
	}
	return routines.StorageUnknown
}
