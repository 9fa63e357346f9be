// Package main implements the entry point for the TaskTrack API server,
// which manages task lifecycles and tracks time spent on in-progress work.
package main

import (
	"context"
	"log"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := initializeApp(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	go app.db.RunHealthLoop(ctx, app.healthCheckInterval())

	app.pauseJob.Start()

	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
