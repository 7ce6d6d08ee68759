package main

import (
	"log"

	"github.com/ilan2004/Ev-wheels-sub003/internal/config"
	"github.com/ilan2004/Ev-wheels-sub003/internal/logging"
	"github.com/ilan2004/Ev-wheels-sub003/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.Init(&cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	worker := queue.NewWorker(&cfg.Redis, queue.StdoutNotifier{})

	log.Println("Starting queue worker...")
	if err := worker.Start(); err != nil {
		log.Fatalf("Worker failed to start: %v", err)
	}

	select {}
}
