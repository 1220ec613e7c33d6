// Package logger builds a Cloud Logging backed standard logger for the
// cmd tools, which run outside the functions runtime and cannot rely on
// stdout being collected.
package logger

import (
	"context"
	"log"

	"cloud.google.com/go/compute/metadata"
	"cloud.google.com/go/logging"
)

func FromContext(ctx context.Context, name string) *log.Logger {
	projectID, err := metadata.ProjectIDWithContext(ctx)
	if err != nil {
		log.Fatalf("failed to get project ID: %v", err)
	}
	client, err := logging.NewClient(ctx, projectID)
	if err != nil {
		log.Fatalf("failed to create logging client: %v", err)
	}
	return client.Logger(name).StandardLogger(logging.Info)
}

// ForProject is FromContext with an explicit project, for runs where
// the metadata server is unreachable.
func ForProject(ctx context.Context, projectID, name string) *log.Logger {
	client, err := logging.NewClient(ctx, projectID)
	if err != nil {
		log.Fatalf("failed to create logging client: %v", err)
	}
	return client.Logger(name).StandardLogger(logging.Info)
}
