package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "storefront/pkg/platform/audit"
	"storefront/pkg/requestcontext"
)

// Publisher stamps audit events with request metadata and hands them to a
// Store, either inline or through a bounded async buffer.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	async   chan audit.Event
	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

type Option func(*Publisher)

// WithAsyncBuffer makes Emit non-blocking. Events are dropped (and logged)
// when the buffer is full.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.async = make(chan audit.Event, size)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.async != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. Missing timestamp, category and request metadata
// are filled from ctx.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	md := requestcontext.MetadataFrom(ctx)
	if event.RequestID == "" {
		event.RequestID = md.RequestID
	}
	if event.ClientIP == "" {
		event.ClientIP = md.ClientIP
	}
	if event.UserAgent == "" {
		event.UserAgent = md.UserAgent
	}

	if p.async == nil {
		return p.store.Append(ctx, event)
	}

	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed {
		return p.store.Append(ctx, event)
	}
	select {
	case p.async <- event:
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, dropping event", "action", event.Action)
		}
	}
	return nil
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.async {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.store.Append(ctx, event); err != nil && p.logger != nil {
			p.logger.Error("failed to persist audit event", "action", event.Action, "error", err)
		}
		cancel()
	}
}

// Close flushes buffered events. Safe to call more than once.
func (p *Publisher) Close() {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	if p.async != nil {
		close(p.async)
	}
	p.closeMu.Unlock()
	p.wg.Wait()
}
