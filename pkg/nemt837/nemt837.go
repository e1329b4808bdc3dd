// Package nemt837 is the public entry point of the claim-to-EDI pipeline:
// one call converts a claim record (or a batch of trip records) into an X12
// 837 Professional interchange plus the validation reports from every stage.
package nemt837

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Softsensor-org/Kaizen/internal/batch"
	"github.com/Softsensor-org/Kaizen/internal/claim"
	"github.com/Softsensor-org/Kaizen/internal/codes"
	"github.com/Softsensor-org/Kaizen/internal/compliance"
	"github.com/Softsensor-org/Kaizen/internal/edi837"
	"github.com/Softsensor-org/Kaizen/internal/payerrules"
	"github.com/Softsensor-org/Kaizen/internal/report"
	"github.com/Softsensor-org/Kaizen/internal/validate"
	"github.com/Softsensor-org/Kaizen/internal/x12"
)

// Config is the caller-supplied interchange configuration. Field zero
// values take the documented defaults.
type Config struct {
	InterchangeSenderQual   string // ISA05, default ZZ
	InterchangeSenderID     string // ISA06
	InterchangeReceiverQual string // ISA07, default ZZ
	InterchangeReceiverID   string // ISA08
	GSSenderCode            string // GS02
	GSReceiverCode          string // GS03
	UsageIndicator          string // ISA15: T test, P production; default T

	// PayerPreset selects a known payer; when set it overrides the
	// receiver's payer_id/payer_name and fills the interchange receiver
	// qualifier and id where those are unset.
	PayerPreset string

	// UseCR1Locations selects CR109/CR110 emission (nil means true).
	UseCR1Locations *bool

	SegmentTerminator string
	ElementSeparator  string
	Pretty            bool

	// Timestamp stamps envelope headers; zero means the current time.
	Timestamp time.Time

	// Workers bounds batch concurrency; zero takes the batch default.
	Workers int

	// Progress receives per-claim batch events; nil means none.
	Progress batch.Progress
}

// BuildResult is the outcome of a single-claim conversion. EDI is nil when
// pre-submission validation blocked emission.
type BuildResult struct {
	EDI              []byte
	PreReport        *report.Report
	ComplianceReport *report.Report
	PayerReport      *report.Report
}

// IsValid reports whether every stage passed.
func (r *BuildResult) IsValid() bool {
	for _, rep := range []*report.Report{r.PreReport, r.ComplianceReport, r.PayerReport} {
		if rep != nil && !rep.IsValid() {
			return false
		}
	}
	return r.EDI != nil
}

func (c Config) writerOptions() edi837.Options {
	senderQual := c.InterchangeSenderQual
	if senderQual == "" {
		senderQual = "ZZ"
	}
	receiverQual := c.InterchangeReceiverQual
	if receiverQual == "" {
		receiverQual = "ZZ"
	}
	useCR1 := true
	if c.UseCR1Locations != nil {
		useCR1 = *c.UseCR1Locations
	}
	return edi837.Options{
		SenderQual:      senderQual,
		SenderID:        c.InterchangeSenderID,
		ReceiverQual:    receiverQual,
		ReceiverID:      c.InterchangeReceiverID,
		GSSenderCode:    c.GSSenderCode,
		GSReceiverCode:  c.GSReceiverCode,
		UsageIndicator:  c.UsageIndicator,
		UseCR1Locations: useCR1,
		ElementSep:      c.ElementSeparator,
		SegmentTerm:     c.SegmentTerminator,
		Pretty:          c.Pretty,
		Timestamp:       c.Timestamp,
	}
}

// resolvePreset applies the payer preset to the config and returns the
// receiver override, if any. An unknown preset key is a configuration
// error and fails loudly.
func (c *Config) resolvePreset() (*codes.PayerPreset, error) {
	if c.PayerPreset == "" {
		return nil, nil
	}
	preset, ok := codes.Payer(c.PayerPreset)
	if !ok {
		return nil, fmt.Errorf("nemt837: unknown payer preset %q (known: %v)", c.PayerPreset, codes.PayerKeys())
	}
	if c.InterchangeReceiverQual == "" {
		c.InterchangeReceiverQual = preset.InterchangeQualifier
	}
	if c.InterchangeReceiverID == "" {
		c.InterchangeReceiverID = preset.InterchangeReceiver
	}
	return &preset, nil
}

func applyPresetToReceiver(preset *codes.PayerPreset, recv *claim.Receiver) {
	if preset == nil {
		return
	}
	recv.PayerID = preset.PayerID
	recv.PayerName = preset.PayerName
}

// Build converts one claim record: enrich, validate, emit, then re-check
// the emitted bytes. The record is enriched in place.
func Build(rec *claim.Record, cfg Config) (*BuildResult, error) {
	preset, err := cfg.resolvePreset()
	if err != nil {
		return nil, err
	}
	applyPresetToReceiver(preset, &rec.Receiver)

	claim.NewEnricher().Enrich(rec)

	res := &BuildResult{PreReport: validate.Claim(rec)}
	if !res.PreReport.IsValid() {
		return res, nil
	}

	out, err := edi837.Write([]*claim.Record{rec}, cfg.writerOptions(), x12.NewControlNumbers())
	if err != nil {
		return nil, err
	}
	res.EDI = out.Bytes

	res.ComplianceReport = compliance.Check(res.EDI).Report
	rules, _ := payerrules.Get(cfg.PayerPreset)
	res.PayerReport = payerrules.Check(res.EDI, rules)
	return res, nil
}

// BuildJSON is Build for a JSON-encoded claim record.
func BuildJSON(data []byte, cfg Config) (*BuildResult, error) {
	var rec claim.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("nemt837: decoding claim record: %w", err)
	}
	return Build(&rec, cfg)
}

// Validate enriches a claim record in place and runs pre-submission
// validation without emitting any EDI.
func Validate(rec *claim.Record) *report.Report {
	claim.NewEnricher().Enrich(rec)
	return validate.Claim(rec)
}

// ValidateJSON is Validate for a JSON-encoded claim record.
func ValidateJSON(data []byte) (*report.Report, error) {
	var rec claim.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("nemt837: decoding claim record: %w", err)
	}
	return Validate(&rec), nil
}

// BuildBatch groups trip records into claims and emits one interchange
// containing every valid claim.
func BuildBatch(trips []*claim.Trip, cfg Config) (*batch.Result, error) {
	preset, err := cfg.resolvePreset()
	if err != nil {
		return nil, err
	}
	for _, t := range trips {
		applyPresetToReceiver(preset, &t.Receiver)
	}
	rules, _ := payerrules.Get(cfg.PayerPreset)
	return batch.Process(trips, batch.Options{
		Writer:   cfg.writerOptions(),
		Rules:    rules,
		Workers:  cfg.Workers,
		Progress: cfg.Progress,
	}, x12.NewControlNumbers())
}

// BuildBatchJSON is BuildBatch for a JSON-encoded trip array.
func BuildBatchJSON(data []byte, cfg Config) (*batch.Result, error) {
	var trips []*claim.Trip
	if err := json.Unmarshal(data, &trips); err != nil {
		return nil, fmt.Errorf("nemt837: decoding trip records: %w", err)
	}
	return BuildBatch(trips, cfg)
}
