// Package main implements the entry point for the Mentora API server,
// which generates AI-powered learning content (courses, quizzes and
// mindmaps) and tracks learner credits and progress.
package main

import (
	"context"
	"log"
)

// main is the entry point for the mentora-api server. It initializes
// configuration, logging, the database, all services and the HTTP server,
// then runs until interrupted.
func main() {
	app, err := newApplication(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.cleanup()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
