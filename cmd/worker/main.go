package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"presence/internal/capture"
	"presence/internal/config"
	"presence/internal/presence"
	"presence/internal/queue"
	"presence/internal/recognizer"
	"presence/internal/store"
)

// Worker consumes queued captures, identifies students via the recognizer
// service, and writes the day's presence records.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.CaptureQueueKey)
	}

	rec := recognizer.New(cfg.RecognizerURL, cfg.RecognizerSkip)
	if !cfg.RecognizerSkip {
		if err := rec.Health(ctx); err != nil {
			log.Printf("WARNING: recognizer not available: %v", err)
			log.Println("Worker will retry recognition when captures arrive")
		} else {
			log.Println("Recognizer connected")
		}
	}

	processor := capture.NewProcessor(q, rec, presence.NewRepository(db.Client), cfg.MatchThreshold)
	if err := processor.Run(ctx); err != nil {
		log.Fatalf("capture processor failed: %v", err)
	}
}
