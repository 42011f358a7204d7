package worker

import (
	"context"
	"sync"
	"time"

	"noor-community/internal/domain/model"
	"noor-community/internal/domain/ports/adapter"
	"noor-community/internal/domain/ports/repository"
	"noor-community/internal/infra/metrics"

	"github.com/rs/zerolog"
)

const recordTimeout = 5 * time.Second

var _ adapter.AuditSink = (*AuditDispatcher)(nil)

// AuditDispatcher drains decision events onto the audit repository
// from a bounded queue. Record never blocks: when the queue is full
// the event is dropped and counted.
type AuditDispatcher struct {
	repo    repository.AuditEventRepository
	queue   chan *model.AuditEvent
	wg      sync.WaitGroup
	quit    chan struct{}
	workers int
	log     *zerolog.Logger
}

func NewAuditDispatcher(repo repository.AuditEventRepository, queueSize, workers int, logger *zerolog.Logger) *AuditDispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 1
	}
	l := logger.With().Str("component", "audit_dispatcher").Logger()
	return &AuditDispatcher{
		repo:    repo,
		queue:   make(chan *model.AuditEvent, queueSize),
		quit:    make(chan struct{}),
		workers: workers,
		log:     &l,
	}
}

func (d *AuditDispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-d.quit:
					d.drain()
					return
				case e := <-d.queue:
					d.append(e)
				}
			}
		}()
	}
}

// Stop flushes queued events and waits for the workers to exit.
func (d *AuditDispatcher) Stop() {
	close(d.quit)
	d.wg.Wait()
}

func (d *AuditDispatcher) Record(ctx context.Context, e *model.AuditEvent) {
	if e == nil {
		return
	}
	select {
	case d.queue <- e:
	default:
		metrics.IncAuditDropped()
		d.log.Warn().Str("action", string(e.Action)).Msg("audit queue full, event dropped")
	}
}

func (d *AuditDispatcher) drain() {
	for {
		select {
		case e := <-d.queue:
			d.append(e)
		default:
			return
		}
	}
}

func (d *AuditDispatcher) append(e *model.AuditEvent) {
	if e == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := d.repo.Append(ctx, repository.NoTX, e); err != nil {
		metrics.IncAuditDropped()
		d.log.Error().Err(err).Str("action", string(e.Action)).Msg("audit append failed")
	}
}
