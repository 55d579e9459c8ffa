// Package capture consumes queued camera frames, resolves them to students
// via the external recognizer, and writes the day's presence record. This is
// the only writer of presence rows; everything downstream is derivation.
package capture

import (
	"context"
	"log"
	"time"

	"presence/internal/calendar"
	"presence/internal/queue"
	"presence/internal/recognizer"
)

// Identifier resolves a captured frame to candidate students.
type Identifier interface {
	Identify(ctx context.Context, imageURL string) (*recognizer.IdentifyResult, error)
}

// Recorder persists a presence row idempotently.
type Recorder interface {
	Insert(ctx context.Context, studentID int64, instituteID string, day, capturedAt time.Time) (bool, error)
}

// Processor is the worker loop.
type Processor struct {
	queue      queue.Queue
	identifier Identifier
	recorder   Recorder
	threshold  float64
}

// NewProcessor wires the pipeline.
func NewProcessor(q queue.Queue, id Identifier, rec Recorder, threshold float64) *Processor {
	if threshold <= 0 {
		threshold = 0.45
	}
	return &Processor{queue: q, identifier: id, recorder: rec, threshold: threshold}
}

// Run consumes captures until ctx is canceled. Individual capture failures
// are logged and counted, never fatal.
func (p *Processor) Run(ctx context.Context) error {
	captures, err := p.queue.Consume(ctx)
	if err != nil {
		return err
	}
	log.Println("capture processor started, waiting for frames...")
	for c := range captures {
		p.process(ctx, c)
	}
	log.Println("capture processor stopped")
	return nil
}

func (p *Processor) process(ctx context.Context, c queue.Capture) {
	processedTotal.Inc()

	result, err := p.identifier.Identify(ctx, c.ImageURL)
	if err != nil {
		failedTotal.Inc()
		log.Printf("capture %s: recognition failed: %v", c.ID, err)
		return
	}
	match, ok := result.Best(p.threshold)
	if !ok {
		unmatchedTotal.Inc()
		log.Printf("capture %s: no match above threshold (%d faces)", c.ID, result.FacesDetected)
		return
	}

	capturedAt := c.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}
	created, err := p.recorder.Insert(ctx, match.StudentID, c.InstituteID, calendar.Date(capturedAt), capturedAt)
	if err != nil {
		failedTotal.Inc()
		log.Printf("capture %s: record insert failed: %v", c.ID, err)
		return
	}
	if !created {
		// Student already seen today; the first record stands.
		duplicateTotal.Inc()
		return
	}
	recordedTotal.Inc()
	log.Printf("capture %s: recorded student %d (similarity %.2f)", c.ID, match.StudentID, match.Similarity)
}
