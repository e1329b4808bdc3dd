package batch

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Softsensor-org/Kaizen/internal/claim"
	"github.com/Softsensor-org/Kaizen/internal/compliance"
	"github.com/Softsensor-org/Kaizen/internal/edi837"
	"github.com/Softsensor-org/Kaizen/internal/payerrules"
	"github.com/Softsensor-org/Kaizen/internal/report"
	"github.com/Softsensor-org/Kaizen/internal/validate"
	"github.com/Softsensor-org/Kaizen/internal/x12"
)

// Options configures a batch run.
type Options struct {
	Writer edi837.Options
	Rules  *payerrules.RuleSet
	// Workers bounds the per-claim enrich/validate/assemble concurrency.
	// Zero means 4.
	Workers int
	// Progress receives per-claim completion events; nil means none.
	Progress Progress
}

// ClaimOutcome is the per-claim record of a batch run.
type ClaimOutcome struct {
	ClmNumber string
	Record    *claim.Record
	PreReport *report.Report
	// Err holds the writer failure when scratch assembly rejected the
	// claim; validation failures live in PreReport instead.
	Err      error
	Excluded bool
}

// Result is the full outcome of a batch run.
type Result struct {
	// RunID identifies the batch run in logs and reports.
	RunID string
	// EDI is nil when every claim was excluded.
	EDI              []byte
	SegmentCount     int
	BatchReport      *report.Report
	Claims           []*ClaimOutcome
	ComplianceReport *report.Report
	PayerReport      *report.Report
}

// Process groups trips into claims and drives each claim through the
// pipeline into one shared envelope. Invalid claims are excluded from
// emission but listed; the batch continues as long as at least one claim
// survives. Per-claim work up to scratch assembly runs on a bounded worker
// pool; final envelope emission and control numbering stay serialized.
func Process(trips []*claim.Trip, opts Options, cn *x12.ControlNumbers) (*Result, error) {
	res := &Result{
		RunID:       uuid.NewString(),
		BatchReport: report.New("batch"),
	}

	recs, duplicates := Group(trips, res.BatchReport)
	if len(recs) == 0 {
		return res, nil
	}

	res.Claims = prepareClaims(recs, duplicates, opts)

	var emit []*claim.Record
	for _, oc := range res.Claims {
		if !oc.Excluded {
			emit = append(emit, oc.Record)
		}
	}
	if len(emit) == 0 {
		res.BatchReport.AddWarning("BATCH_040", "claims", "every claim failed validation; no interchange emitted")
		return res, nil
	}

	out, err := edi837.Write(emit, opts.Writer, cn)
	if err != nil {
		// Scratch assembly already vetted each claim individually, so a
		// failure here is a programmer error, not bad claim data.
		return nil, fmt.Errorf("batch: envelope emission failed: %w", err)
	}
	res.EDI = out.Bytes
	res.SegmentCount = out.SegmentCount

	// Both output checks are pure functions of the emitted bytes and run
	// concurrently.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.ComplianceReport = compliance.Check(res.EDI).Report
	}()
	go func() {
		defer wg.Done()
		res.PayerReport = payerrules.Check(res.EDI, opts.Rules)
	}()
	wg.Wait()

	return res, nil
}

// prepareClaims runs enrichment, validation, and scratch assembly for every
// claim on a bounded worker pool and marks the exclusions.
func prepareClaims(recs []*claim.Record, duplicates map[int]bool, opts Options) []*ClaimOutcome {
	outcomes := make([]*ClaimOutcome, len(recs))

	progress := opts.Progress
	if progress == nil {
		progress = NoopProgress{}
	}
	progress.Start(len(recs))
	defer progress.Done()

	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	enricher := claim.NewEnricher()
	for i, rec := range recs {
		wg.Add(1)
		go func(idx int, rec *claim.Record) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			oc := &ClaimOutcome{Record: rec}
			enricher.Enrich(rec)
			oc.ClmNumber = rec.Claim.ClmNumber
			oc.PreReport = validate.Claim(rec)

			switch {
			case duplicates[idx]:
				oc.Excluded = true
			case !oc.PreReport.IsValid():
				oc.Excluded = true
			default:
				// Assemble into a scratch buffer with throwaway control
				// numbers; a WriterError here excludes only this claim.
				if _, err := edi837.Write([]*claim.Record{rec}, opts.Writer, x12.NewControlNumbers()); err != nil {
					oc.Err = err
					oc.Excluded = true
				}
			}
			outcomes[idx] = oc
			progress.ClaimDone(oc)
		}(i, rec)
	}
	wg.Wait()

	return outcomes
}
