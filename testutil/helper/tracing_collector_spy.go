package helper

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// SpySpanContext is the span handed out by TracingCollectorSpy.
type SpySpanContext struct {
	mu         sync.Mutex
	name       string
	status     string
	attributes map[string]string
}

func (c *SpySpanContext) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

func (c *SpySpanContext) AddAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attributes == nil {
		c.attributes = make(map[string]string)
	}
	c.attributes[key] = value
}

// SpySpanRecord represents a started (and possibly finished) span.
type SpySpanRecord struct {
	Name            string
	StartAttributes map[string]string
	Status          string
	EndAttributes   map[string]string
	Finished        bool
}

// TracingCollectorSpy captures tracing calls for inspection in tests.
type TracingCollectorSpy struct {
	mu          sync.Mutex
	records     []*SpySpanRecord
	spans       map[*SpySpanContext]*SpySpanRecord
	recordCalls bool
}

// NewTracingCollectorSpy creates a new TracingCollectorSpy.
func NewTracingCollectorSpy(recordCalls bool) *TracingCollectorSpy {
	return &TracingCollectorSpy{
		spans:       make(map[*SpySpanContext]*SpySpanRecord),
		recordCalls: recordCalls,
	}
}

func (s *TracingCollectorSpy) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, scheduler.SpanContext) {
	span := &SpySpanContext{name: name}
	if !s.recordCalls {
		return ctx, span
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := &SpySpanRecord{Name: name, StartAttributes: maps.Clone(attrs)}
	s.records = append(s.records, record)
	s.spans[span] = record

	return ctx, span
}

func (s *TracingCollectorSpy) FinishSpan(spanCtx scheduler.SpanContext, status string, attrs map[string]string) {
	if !s.recordCalls {
		return
	}

	span, ok := spanCtx.(*SpySpanContext)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if record, found := s.spans[span]; found {
		record.Status = status
		record.EndAttributes = maps.Clone(attrs)
		record.Finished = true
	}
}

// SpanRecords returns copies of all span records in start order.
func (s *TracingCollectorSpy) SpanRecords() []SpySpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]SpySpanRecord, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, *record)
	}

	return records
}

// HasFinishedSpan reports whether a span with name was finished with status.
func (s *TracingCollectorSpy) HasFinishedSpan(name, status string) bool {
	for _, record := range s.SpanRecords() {
		if record.Name == name && record.Finished && record.Status == status {
			return true
		}
	}

	return false
}
