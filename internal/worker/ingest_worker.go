package worker

import (
	"context"
	"errors"
	"log"
	"sync"

	"docqa/internal/model"
)

// ErrQueueFull is returned when the ingest queue cannot take another job, so
// overload is visible to the caller instead of growing unbounded.
var ErrQueueFull = errors.New("ingest queue full")

// Processor runs the ingestion pipeline for one document.
type Processor interface {
	Process(ctx context.Context, doc model.Document) error
}

// IngestWorker drains a bounded queue of uploaded documents with a fixed pool
// of workers. Submitting is non-blocking; a full queue is an error. A job
// that has started always runs to completion, independent of worker shutdown.
type IngestWorker struct {
	processor Processor
	jobs      chan model.Document

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIngestWorker(processor Processor, queueSize int) *IngestWorker {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &IngestWorker{
		processor: processor,
		jobs:      make(chan model.Document, queueSize),
	}
}

func (w *IngestWorker) Start(ctx context.Context, workers int) error {
	if w.cancel != nil {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case doc, ok := <-w.jobs:
					if !ok {
						return
					}
					// The pipeline gets its own context: an in-flight
					// document finishes even during shutdown.
					if err := w.processor.Process(context.Background(), doc); err != nil {
						log.Printf("ingest worker: %v", err)
					}
				}
			}
		}()
	}
	return nil
}

// Submit enqueues a document for ingestion without blocking.
func (w *IngestWorker) Submit(doc model.Document) error {
	select {
	case w.jobs <- doc:
		return nil
	default:
		return ErrQueueFull
	}
}

// QueueDepth reports how many documents are waiting.
func (w *IngestWorker) QueueDepth() int {
	return len(w.jobs)
}

func (w *IngestWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
