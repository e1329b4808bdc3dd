// Package edi837 assembles complete 837 Professional interchanges from
// enriched, validated claim records. The envelope, hierarchy, and loop
// ordering follow the payer companion guide; the low-level delimiter policy
// lives in the x12 package.
package edi837

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Softsensor-org/Kaizen/internal/claim"
	"github.com/Softsensor-org/Kaizen/internal/x12"
)

// Options configures one interchange emission.
type Options struct {
	SenderQual     string
	SenderID       string
	ReceiverQual   string
	ReceiverID     string
	GSSenderCode   string
	GSReceiverCode string
	UsageIndicator string // T test, P production

	// UseCR1Locations selects CR109/CR110 location descriptors (the
	// default) over the legacy NTE + 2310E/F + 2420G/H emission.
	UseCR1Locations bool

	ElementSep  string
	SegmentTerm string
	Pretty      bool

	// Timestamp stamps ISA/GS/BHT. Zero means time.Now().
	Timestamp time.Time
}

// Result is an emitted interchange plus the writer's own tallies, which
// callers cross-verify against the compliance checker's re-parse tally.
type Result struct {
	Bytes            []byte
	SegmentCount     int
	TransactionCount int
}

// Write emits one interchange containing every record as its own ST/SE
// transaction set, sharing a single ISA/GS envelope. Control numbers advance
// monotonically on cn. Records must already be enriched and validated; a
// missing mandatory field surfaces as *x12.WriterError.
func Write(recs []*claim.Record, opts Options, cn *x12.ControlNumbers) (*Result, error) {
	if len(recs) == 0 {
		return nil, &x12.WriterError{Tag: "ISA", Reason: "no claims to emit"}
	}
	for _, rec := range recs {
		if err := requireMandatory(rec); err != nil {
			return nil, err
		}
	}

	now := opts.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	w := x12.NewWriter(x12.Options{
		ElementSep:  opts.ElementSep,
		SegmentTerm: opts.SegmentTerm,
		Pretty:      opts.Pretty,
	})

	isaCN := cn.NextISA()
	gsCN := cn.NextGS()

	usage := opts.UsageIndicator
	if usage == "" {
		usage = "T"
	}
	w.ISA(opts.SenderQual, opts.SenderID, opts.ReceiverQual, opts.ReceiverID, usage, isaCN, now)
	if err := w.GS("HC", opts.GSSenderCode, opts.GSReceiverCode, gsCN, now); err != nil {
		return nil, err
	}

	for _, rec := range recs {
		stCN := cn.NextST()
		if err := w.ST(stCN); err != nil {
			return nil, err
		}
		if err := writeTransaction(w, rec, opts, now); err != nil {
			return nil, err
		}
		if err := w.SE(stCN); err != nil {
			return nil, err
		}
	}

	if err := w.GE(len(recs), gsCN); err != nil {
		return nil, err
	}
	if err := w.IEA(1, isaCN); err != nil {
		return nil, err
	}

	return &Result{
		Bytes:            w.Bytes(),
		SegmentCount:     w.Count(),
		TransactionCount: len(recs),
	}, nil
}

// requireMandatory is the writer's last-line defense: the validator should
// already have rejected records missing these fields.
func requireMandatory(rec *claim.Record) error {
	switch {
	case rec.Claim.ClmNumber == "":
		return &x12.WriterError{Tag: "CLM", Reason: "claim number is missing"}
	case rec.Claim.From == "":
		return &x12.WriterError{Tag: "DTP", Reason: "claim service date is missing"}
	case rec.BillingProvider.NPI == "" || rec.BillingProvider.Name == "":
		return &x12.WriterError{Tag: "NM1", Reason: "billing provider identity is missing"}
	case rec.BillingProvider.Address == nil:
		return &x12.WriterError{Tag: "N3", Reason: "billing provider address is missing"}
	case rec.Subscriber.MemberID == "" || rec.Subscriber.Name.Last == "":
		return &x12.WriterError{Tag: "NM1", Reason: "subscriber identity is missing"}
	case len(rec.Services) == 0:
		return &x12.WriterError{Tag: "LX", Reason: "claim has no service lines"}
	}
	return nil
}

// writeTransaction emits the 837 body for one claim: BHT, submitter and
// receiver loops, the billing/subscriber hierarchy, and Loop 2300.
func writeTransaction(w *x12.Writer, rec *claim.Record, opts Options, now time.Time) error {
	bhtRef := rec.Claim.ClmNumber
	if len(bhtRef) > 30 {
		bhtRef = bhtRef[:30]
	}
	if err := w.Segment("BHT", "0019", "00", bhtRef, now.Format("20060102"), now.Format("1504"), "CH"); err != nil {
		return err
	}

	// Loop 1000A submitter
	subm := rec.Submitter
	qual := subm.IDQualifier
	if qual == "" {
		qual = "46"
	}
	if err := w.Segment("NM1", "41", "2", subm.Name, "", "", "", "", qual, subm.ID); err != nil {
		return err
	}
	if subm.ContactName != "" || subm.ContactPhone != "" {
		if err := w.Segment("PER", "IC", subm.ContactName, "TE", subm.ContactPhone); err != nil {
			return err
		}
	}

	// Loop 1000B receiver
	recvName := rec.Receiver.PayerName
	if recvName == "" {
		recvName = "RECEIVER"
	}
	if err := w.Segment("NM1", "40", "2", recvName, "", "", "", "", "46", strings.TrimSpace(opts.ReceiverID)); err != nil {
		return err
	}

	// Loop 2000A billing provider hierarchy
	if err := w.Segment("HL", "1", "", "20", "1"); err != nil {
		return err
	}
	bp := rec.BillingProvider
	if bp.Taxonomy != "" {
		if err := w.Segment("PRV", "BI", "PXC", bp.Taxonomy); err != nil {
			return err
		}
	}

	// Loop 2010AA
	if err := w.Segment("NM1", "85", "2", bp.Name, "", "", "", "", "XX", bp.NPI); err != nil {
		return err
	}
	if err := writeAddress(w, bp.Address); err != nil {
		return err
	}
	if bp.TaxID != "" {
		if err := w.Segment("REF", "EI", bp.TaxID); err != nil {
			return err
		}
	}

	// Loop 2010AC pay-to plan, only when data present
	if pp := rec.PayToPlan; pp != nil {
		if err := w.Segment("NM1", "PE", "2", pp.Name, "", "", "", "", "PI", pp.PayerID); err != nil {
			return err
		}
		if err := writeAddress(w, pp.Address); err != nil {
			return err
		}
	}

	// Loop 2000B subscriber hierarchy
	if err := w.Segment("HL", "2", "1", "22", "0"); err != nil {
		return err
	}
	rel := "18"
	if rec.Subscriber.Relationship != "" && rec.Subscriber.Relationship != "self" {
		rel = "01"
	}
	if err := w.Segment("SBR", "P", rel, "", "", "", "", "", "", "MC"); err != nil {
		return err
	}

	// Loop 2010BA
	sub := rec.Subscriber
	if err := w.Segment("NM1", "IL", "1", sub.Name.Last, sub.Name.First, "", "", "", "MI", sub.MemberID); err != nil {
		return err
	}
	if err := writeAddress(w, sub.Address); err != nil {
		return err
	}
	if sub.DOB != "" || sub.Sex != "" {
		if err := w.Segment("DMG", "D8", d8(sub.DOB), sub.Sex); err != nil {
			return err
		}
	}
	if rec.Claim.SubscriberInternalID != "" {
		if err := w.Segment("REF", "23", rec.Claim.SubscriberInternalID); err != nil {
			return err
		}
	}

	// Loop 2010BB payer
	if err := w.Segment("NM1", "PR", "2", rec.Receiver.PayerName, "", "", "", "", "PI", rec.Receiver.PayerID); err != nil {
		return err
	}
	if rec.Receiver.PayerID != "" {
		if err := w.Segment("REF", "2U", rec.Receiver.PayerID); err != nil {
			return err
		}
	}

	return writeClaimLoop(w, rec, opts)
}

// writeAddress emits an N3/N4 pair for a non-nil address.
func writeAddress(w *x12.Writer, addr *claim.Address) error {
	if addr == nil {
		return nil
	}
	if err := w.Segment("N3", addr.Line1, addr.Line2); err != nil {
		return err
	}
	return w.Segment("N4", addr.City, addr.State, addr.Zip)
}

// d8 converts an ISO date to the D8 wire form.
func d8(iso string) string {
	return strings.ReplaceAll(iso, "-", "")
}

// amount renders a fixed two-decimal money value.
func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// qty renders a quantity without trailing zeros or a trailing decimal
// point.
func qty(d decimal.Decimal) string {
	return d.String()
}

// idQualifier returns the qualifier only when the identifier is present, so
// a missing NPI never leaves a dangling NM108.
func idQualifier(qualifier, id string) string {
	if id == "" {
		return ""
	}
	return qualifier
}

// padTrip zero-pads a numeric trip number to nine digits.
func padTrip(n string) string {
	if n == "" {
		return ""
	}
	for len(n) < 9 {
		n = "0" + n
	}
	return n
}
