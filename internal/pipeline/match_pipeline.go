package pipeline

import (
	"context"
	"sync"
	"time"

	"legistarevents/internal/logger"
	"legistarevents/internal/matchstate"
	"legistarevents/internal/metrics"
	"legistarevents/internal/transform/legistar"
	"legistarevents/pkg/models"
)

// Config controls worker count and batching.
type Config struct {
	Workers       int
	BatchSize     int
	FlushInterval time.Duration
}

// MatchPipeline consumes match jobs, selects and normalizes one event per job,
// and writes canonical events in batches.
type MatchPipeline struct {
	source        JobSource
	processor     *Processor
	writer        EventWriter
	recorder      MatchRecorder
	metrics       *metrics.Metrics
	workers       int
	batchSize     int
	flushInterval time.Duration
}

type workItem struct {
	event  *models.CanonicalEvent
	record matchstate.Record
}

// NewMatchPipeline creates a pipeline. recorder and m may be nil.
func NewMatchPipeline(source JobSource, processor *Processor, writer EventWriter, recorder MatchRecorder, m *metrics.Metrics, cfg Config) *MatchPipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	return &MatchPipeline{
		source:        source,
		processor:     processor,
		writer:        writer,
		recorder:      recorder,
		metrics:       m,
		workers:       cfg.Workers,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
	}
}

// Run processes jobs until ctx is cancelled, then drains in-flight work and
// flushes the last batch.
func (p *MatchPipeline) Run(ctx context.Context) error {
	logger.Infof("Match pipeline started: workers=%d batch_size=%d", p.workers, p.batchSize)

	msgCh := make(chan []byte, p.workers*4)
	workCh := make(chan workItem, p.workers*4)

	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		p.readLoop(ctx, msgCh)
		close(msgCh)
	}()

	var workers sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			p.workerLoop(msgCh, workCh)
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.writeLoop(ctx, workCh)
	}()

	readers.Wait()
	workers.Wait()
	close(workCh)
	<-done
	return ctx.Err()
}

// Close releases pipeline resources.
func (p *MatchPipeline) Close() error {
	if p.recorder != nil {
		if err := p.recorder.Close(); err != nil {
			logger.Errorf("Failed to close match recorder: %v", err)
		}
	}
	if p.writer != nil {
		if err := p.writer.Close(); err != nil {
			logger.Errorf("Failed to close event writer: %v", err)
		}
	}
	if p.source != nil {
		return p.source.Close()
	}
	return nil
}

func (p *MatchPipeline) readLoop(ctx context.Context, out chan<- []byte) {
	for {
		if ctx.Err() != nil {
			return
		}
		payload, err := p.source.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorf("Failed to pop match job: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		if payload == nil {
			continue
		}
		select {
		case out <- payload:
		case <-ctx.Done():
			return
		}
	}
}

func (p *MatchPipeline) workerLoop(in <-chan []byte, out chan<- workItem) {
	for payload := range in {
		job, err := legistar.ParseJob(payload)
		if err != nil {
			logger.Warnf("Failed to parse match job: %v", err)
			p.metrics.ObserveJob(metrics.OutcomeDecodeErr)
			continue
		}

		outcome, err := p.processor.Process(job)
		record := matchstate.RecordFromResult(job.SourceID, outcome.Match, time.Now())
		p.metrics.ObserveMatch(record.Candidates, record.SelectedScore, record.SelectedEventID != "")

		if err != nil {
			kind := ErrorKind(err)
			logger.Warnf("Failed to normalize event %s for %s (%s): %v", record.SelectedEventID, job.SourceID, kind, err)
			p.metrics.ObserveNormalizeError(kind)
			p.metrics.ObserveJob(metrics.OutcomeFailed)
			out <- workItem{record: record}
			continue
		}
		if outcome.Event == nil {
			logger.Infof("No candidate events for %s", job.SourceID)
			p.metrics.ObserveJob(metrics.OutcomeNoMatch)
			out <- workItem{record: record}
			continue
		}

		logger.Debugf("Matched %s to event %d (score=%d, candidates=%d)",
			job.SourceID, outcome.Event.LegistarEventID, record.SelectedScore, record.Candidates)
		p.metrics.ObserveIgnored(outcome.Ignored)
		p.metrics.ObserveJob(metrics.OutcomeNormalized)
		out <- workItem{event: outcome.Event, record: record}
	}
}

func (p *MatchPipeline) writeLoop(ctx context.Context, in <-chan workItem) {
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	var batchEvents []*models.CanonicalEvent
	var batchRecords []matchstate.Record

	flush := func() {
		if len(batchEvents) > 0 {
			for {
				err := p.writer.WriteEvents(batchEvents)
				if err == nil {
					batchEvents = nil
					break
				}
				logger.Errorf("Failed to write canonical events: %v", err)
				p.metrics.ObserveWriteFailure()
				if ctx.Err() != nil {
					logger.Errorf("Dropping %d canonical events on shutdown", len(batchEvents))
					batchEvents = nil
					break
				}
				select {
				case <-ctx.Done():
				case <-time.After(1 * time.Second):
				}
			}
		}
		if p.recorder != nil && len(batchRecords) > 0 {
			// Match records are advisory; a failed write is logged, not retried.
			if err := p.recorder.WriteRecords(context.Background(), batchRecords); err != nil {
				logger.Errorf("Failed to write match records: %v", err)
			}
		}
		batchRecords = nil
	}

	for {
		select {
		case <-ticker.C:
			flush()
		case item, ok := <-in:
			if !ok {
				flush()
				return
			}
			if item.event != nil {
				batchEvents = append(batchEvents, item.event)
			}
			batchRecords = append(batchRecords, item.record)
			if len(batchEvents) >= p.batchSize {
				flush()
			}
		}
	}
}
