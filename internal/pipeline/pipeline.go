package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/casehq/triage/internal/cache"
	"github.com/casehq/triage/internal/classify"
	"github.com/casehq/triage/internal/ingest"
	"github.com/casehq/triage/internal/model"
	"github.com/casehq/triage/internal/notify"
	"github.com/casehq/triage/internal/store"
	"github.com/casehq/triage/internal/validate"
)

// Importer orchestrates the bulk-import path: normalize raw bytes,
// validate each record in order, create the valid ones, and classify
// them on request. Row failures never abort the batch; only a payload
// that cannot be parsed at all is fatal.
type Importer struct {
	registry  *ingest.Registry
	validator *validate.Validator
	engine    *classify.Engine
	store     store.Store
	fetcher   *Fetcher
	notifier  notify.Notifier
	now       func() time.Time
}

// NewImporter creates an importer wired to the given store and
// classification engine. Feed fetching and payload caching follow the
// configuration.
func NewImporter(cfg *model.Config, st store.Store, engine *classify.Engine) *Importer {
	fetcher := NewFetcher(cfg.Feed)
	if cfg.Cache.Enabled {
		fetcher.SetCache(
			cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL),
			cfg.Cache.DiskTTL,
		)
	}

	return &Importer{
		registry:  ingest.NewRegistry(),
		validator: validate.NewValidator(0, 0),
		engine:    engine,
		store:     st,
		fetcher:   fetcher,
		notifier:  notify.New(cfg.Notify),
		now:       time.Now,
	}
}

// Import runs one bulk import over an already-loaded payload.
//
// Every normalized record is processed in payload order: rejected rows
// are recorded with their 1-based position, raw mapping, and messages,
// and never affect the rows around them. With autoClassify each created
// ticket is immediately classified and the result persisted. With
// dryRun nothing is written; the summary reports what would happen.
func (imp *Importer) Import(ctx context.Context, data []byte, format ingest.Format, autoClassify, dryRun bool) (*model.ImportSummary, error) {
	normalizer, err := imp.registry.ForFormat(format)
	if err != nil {
		return nil, err
	}

	records, err := normalizer.Normalize(data)
	if err != nil {
		return nil, err
	}

	summary := &model.ImportSummary{Total: len(records)}

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := i + 1

		fieldErrs := imp.validator.Validate(record, true)
		if len(fieldErrs) > 0 {
			messages := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				messages = append(messages, fe.String())
			}
			summary.Failed++
			summary.Errors = append(summary.Errors, model.RowError{
				Row:    row,
				Data:   record,
				Errors: messages,
			})
			continue
		}

		if dryRun {
			summary.Successful++
			continue
		}

		created, err := imp.store.Create(validate.BuildTicket(record))
		if err != nil {
			return nil, fmt.Errorf("create ticket (row %d): %w", row, err)
		}

		if autoClassify {
			classification := &model.Classification{
				ClassificationResult: imp.engine.Classify(created.Subject, created.Description),
				ClassifiedAt:         imp.now(),
			}
			updated, err := imp.store.Update(created.ID, model.TicketPatch{Classification: classification})
			if err != nil {
				return nil, fmt.Errorf("persist classification (row %d): %w", row, err)
			}
			if classification.Priority == model.PriorityUrgent {
				imp.notifier.UrgentTicket(updated)
			}
		}

		summary.Successful++
	}

	return summary, nil
}

// ImportFile imports a local payload file. The format comes from
// formatName when given, otherwise from the file extension.
func (imp *Importer) ImportFile(ctx context.Context, path, formatName string, autoClassify, dryRun bool) (*model.ImportSummary, error) {
	format, err := resolveFormat(formatName, "", path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	summary, err := imp.Import(ctx, data, format, autoClassify, dryRun)
	if err == nil && !dryRun {
		imp.notifier.ImportCompleted(filepath.Base(path), summary)
	}
	return summary, err
}

// ImportURL fetches a remote feed and imports it. The format comes from
// formatName when given, otherwise from the response Content-Type with
// the URL path extension as fallback.
func (imp *Importer) ImportURL(ctx context.Context, rawURL, formatName string, autoClassify, dryRun bool) (*model.ImportSummary, error) {
	result, err := imp.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	path := rawURL
	if parsed, perr := url.Parse(rawURL); perr == nil {
		path = parsed.Path
	}
	format, err := resolveFormat(formatName, result.ContentType, path)
	if err != nil {
		return nil, err
	}

	summary, err := imp.Import(ctx, result.Body, format, autoClassify, dryRun)
	if err == nil && !dryRun {
		imp.notifier.ImportCompleted(rawURL, summary)
	}
	return summary, err
}

// AutoClassify re-runs the engine against a stored ticket and persists
// the result. A manual override is returned untouched unless force is
// set; a missing ticket surfaces store.ErrNotFound with no mutation.
func (imp *Importer) AutoClassify(ticketID string, force bool) (model.ClassificationResult, error) {
	ticket, err := imp.store.Get(ticketID)
	if err != nil {
		return model.ClassificationResult{}, err
	}

	if ticket.Classification != nil && ticket.Classification.ManualOverride && !force {
		return ticket.Classification.ClassificationResult, nil
	}

	classification := &model.Classification{
		ClassificationResult: imp.engine.Classify(ticket.Subject, ticket.Description),
		ClassifiedAt:         imp.now(),
	}
	updated, err := imp.store.Update(ticket.ID, model.TicketPatch{
		Classification:      classification,
		ForceClassification: force,
	})
	if err != nil {
		return model.ClassificationResult{}, err
	}
	if classification.Priority == model.PriorityUrgent {
		imp.notifier.UrgentTicket(updated)
	}

	return classification.ClassificationResult, nil
}

func resolveFormat(formatName, contentType, path string) (ingest.Format, error) {
	if formatName != "" {
		return ingest.ParseFormat(formatName)
	}
	return ingest.DetectFormat(contentType, path)
}
