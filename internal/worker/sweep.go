package worker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/casehq/triage/internal/model"
	"github.com/casehq/triage/internal/store"
)

// Classifier produces a classification for a ticket's text.
type Classifier interface {
	Classify(subject, description string) model.ClassificationResult
}

// SweepResult is one ticket's outcome in a re-classification sweep.
type SweepResult struct {
	index    int
	TicketID string
	Subject  string
	Category model.Category
	Priority model.Priority
	Skipped  bool // manual override left in place
	Err      error
}

// GetError returns the error from the sweep result
func (r *SweepResult) GetError() error {
	return r.Err
}

// sweepJob re-classifies one stored ticket.
type sweepJob struct {
	index    int
	ticketID string
	store    store.Store
	engine   Classifier
	force    bool
	now      func() time.Time
}

// Execute loads the ticket, classifies it, and persists the result.
// Manual overrides are left untouched unless the sweep is forced.
func (j *sweepJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &SweepResult{index: j.index, TicketID: j.ticketID, Err: err}
	}

	ticket, err := j.store.Get(j.ticketID)
	if err != nil {
		return &SweepResult{index: j.index, TicketID: j.ticketID, Err: err}
	}

	if ticket.Classification != nil && ticket.Classification.ManualOverride && !j.force {
		return &SweepResult{
			index:    j.index,
			TicketID: ticket.ID,
			Subject:  ticket.Subject,
			Category: ticket.Classification.Category,
			Priority: ticket.Classification.Priority,
			Skipped:  true,
		}
	}

	classification := &model.Classification{
		ClassificationResult: j.engine.Classify(ticket.Subject, ticket.Description),
		ClassifiedAt:         j.now(),
	}

	updated, err := j.store.Update(ticket.ID, model.TicketPatch{
		Classification:      classification,
		ForceClassification: j.force,
	})
	if err != nil {
		return &SweepResult{index: j.index, TicketID: ticket.ID, Subject: ticket.Subject, Err: err}
	}

	return &SweepResult{
		index:    j.index,
		TicketID: updated.ID,
		Subject:  updated.Subject,
		Category: updated.Classification.Category,
		Priority: updated.Classification.Priority,
	}
}

// Sweeper re-classifies stored tickets concurrently.
type Sweeper struct {
	store   store.Store
	engine  Classifier
	workers int
	force   bool
	now     func() time.Time
}

// NewSweeper creates a sweeper. Force re-classifies past manual
// overrides; without it overridden tickets are reported as skipped.
func NewSweeper(st store.Store, engine Classifier, workers int, force bool) *Sweeper {
	if workers <= 0 {
		workers = 4
	}
	return &Sweeper{
		store:   st,
		engine:  engine,
		workers: workers,
		force:   force,
		now:     time.Now,
	}
}

// Run re-classifies every ticket matching the filter and reports
// per-ticket outcomes in listing order.
func (s *Sweeper) Run(ctx context.Context, filter store.ListFilter) ([]*SweepResult, error) {
	tickets, err := s.store.List(filter)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	if len(tickets) == 0 {
		return []*SweepResult{}, nil
	}

	pool := NewPool(s.workers)
	pool.Start()

	// Drain results while submitting; workers block once the results
	// buffer fills, and then so would Submit.
	collector := NewResultCollector()
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for result := range pool.Results() {
			collector.Add(result)
		}
	}()

	for i, ticket := range tickets {
		if ctx.Err() != nil {
			break
		}
		pool.Submit(&sweepJob{
			index:    i,
			ticketID: ticket.ID,
			store:    s.store,
			engine:   s.engine,
			force:    s.force,
			now:      s.now,
		})
	}

	pool.Close()
	<-drained

	results := collector.Results()
	out := make([]*SweepResult, 0, len(results))
	for _, result := range results {
		out = append(out, result.(*SweepResult))
	}
	// Workers finish out of order; report in listing order.
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out, nil
}
