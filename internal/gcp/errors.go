package gcp

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// IsNotFound reports whether err is a 404 from a REST client or a NotFound
// status from a gRPC client.
func IsNotFound(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound
	}
	return status.Code(err) == codes.NotFound
}

// IsAlreadyExists reports whether err signals that the resource being
// created already exists.
func IsAlreadyExists(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusConflict
	}
	return status.Code(err) == codes.AlreadyExists
}

// IsPermissionDenied reports a 403 / PermissionDenied. Resource Manager
// answers 403 rather than 404 when probing a project the caller cannot see,
// so existence probes treat it as absent.
func IsPermissionDenied(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusForbidden
	}
	return status.Code(err) == codes.PermissionDenied
}
