package gcp

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "rest 404",
			err:  &googleapi.Error{Code: 404, Message: "bucket not found"},
			want: true,
		},
		{
			name: "wrapped rest 404",
			err:  fmt.Errorf("probe failed: %w", &googleapi.Error{Code: 404}),
			want: true,
		},
		{
			name: "grpc not found",
			err:  status.Error(codes.NotFound, "keyring not found"),
			want: true,
		},
		{
			name: "rest 403",
			err:  &googleapi.Error{Code: 403},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsAlreadyExists(t *testing.T) {
	if !IsAlreadyExists(&googleapi.Error{Code: 409}) {
		t.Error("409 should be AlreadyExists")
	}
	if !IsAlreadyExists(status.Error(codes.AlreadyExists, "keyring exists")) {
		t.Error("grpc AlreadyExists should be AlreadyExists")
	}
	if IsAlreadyExists(&googleapi.Error{Code: 404}) {
		t.Error("404 is not AlreadyExists")
	}
}

func TestIsPermissionDenied(t *testing.T) {
	if !IsPermissionDenied(&googleapi.Error{Code: 403}) {
		t.Error("403 should be PermissionDenied")
	}
	if IsPermissionDenied(status.Error(codes.NotFound, "nope")) {
		t.Error("NotFound is not PermissionDenied")
	}
}
