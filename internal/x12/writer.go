// Package x12 provides low-level X12 segment emission and re-parsing. The
// writer owns delimiter policy, trailing-element trimming, and the live
// segment counter used for SE totals; it knows nothing about the 837P loop
// structure built on top of it.
package x12

import (
	"fmt"
	"strings"
	"time"
)

// Default delimiters per the payer companion guide.
const (
	DefaultElementSep    = "*"
	DefaultSegmentTerm   = "~"
	DefaultComponentSep  = ":"
	DefaultRepetitionSep = "^"
)

// WriterError reports an impossible state inside the writer: an element
// containing a reserved delimiter, or a segment with no content. Upstream
// validation should make these unreachable.
type WriterError struct {
	Tag    string
	Reason string
}

func (e *WriterError) Error() string {
	return fmt.Sprintf("x12: segment %s: %s", e.Tag, e.Reason)
}

// ControlNumbers holds the interchange, group, and transaction-set control
// number counters for one interchange emission. Counters advance
// monotonically and are owned exclusively by the emitter.
type ControlNumbers struct {
	ISA int
	GS  int
	ST  int
}

// NewControlNumbers returns counters starting at 1.
func NewControlNumbers() *ControlNumbers {
	return &ControlNumbers{ISA: 1, GS: 1, ST: 1}
}

// NextISA returns the current ISA control number and advances it.
func (c *ControlNumbers) NextISA() int { v := c.ISA; c.ISA++; return v }

// NextGS returns the current GS control number and advances it.
func (c *ControlNumbers) NextGS() int { v := c.GS; c.GS++; return v }

// NextST returns the current ST control number and advances it.
func (c *ControlNumbers) NextST() int { v := c.ST; c.ST++; return v }

// Options configures a Writer. Zero-value fields take the X12 defaults.
type Options struct {
	ElementSep    string
	SegmentTerm   string
	ComponentSep  string
	RepetitionSep string
	// Pretty appends a newline after every segment terminator. Diagnostic
	// only; the payer ignores it.
	Pretty bool
}

// Writer accumulates X12 segments as strings.
type Writer struct {
	elementSep    string
	segmentTerm   string
	componentSep  string
	repetitionSep string
	pretty        bool

	segments []string
	stIndex  int // 1-based index of the most recent ST segment, 0 if none
}

// NewWriter returns a Writer with the given options.
func NewWriter(opts Options) *Writer {
	w := &Writer{
		elementSep:    opts.ElementSep,
		segmentTerm:   opts.SegmentTerm,
		componentSep:  opts.ComponentSep,
		repetitionSep: opts.RepetitionSep,
		pretty:        opts.Pretty,
	}
	if w.elementSep == "" {
		w.elementSep = DefaultElementSep
	}
	if w.segmentTerm == "" {
		w.segmentTerm = DefaultSegmentTerm
	}
	if w.componentSep == "" {
		w.componentSep = DefaultComponentSep
	}
	if w.repetitionSep == "" {
		w.repetitionSep = DefaultRepetitionSep
	}
	return w
}

// ElementSep returns the configured element separator.
func (w *Writer) ElementSep() string { return w.elementSep }

// SegmentTerm returns the configured segment terminator.
func (w *Writer) SegmentTerm() string { return w.segmentTerm }

// ComponentSep returns the configured component separator.
func (w *Writer) ComponentSep() string { return w.componentSep }

// Count returns the number of segments written so far.
func (w *Writer) Count() int { return len(w.segments) }

// Segment emits one segment: trailing empty elements are trimmed, the
// remainder joined with the element separator and closed with the segment
// terminator. A segment whose elements are all empty is refused; elements
// containing a reserved delimiter (other than the component separator, which
// legitimately appears inside composites) are refused.
func (w *Writer) Segment(tag string, elements ...string) error {
	trimmed := elements
	for len(trimmed) > 0 && trimmed[len(trimmed)-1] == "" {
		trimmed = trimmed[:len(trimmed)-1]
	}
	if len(trimmed) == 0 {
		return &WriterError{Tag: tag, Reason: "no non-empty elements"}
	}
	for i, el := range trimmed {
		if strings.Contains(el, w.elementSep) || strings.Contains(el, w.segmentTerm) || strings.Contains(el, w.repetitionSep) {
			return &WriterError{Tag: tag, Reason: fmt.Sprintf("element %d contains a reserved delimiter: %q", i+1, el)}
		}
	}
	w.append(tag + w.elementSep + strings.Join(trimmed, w.elementSep))
	return nil
}

// Composite joins components with the component separator, trimming trailing
// empties. Components may not contain any reserved delimiter.
func (w *Writer) Composite(components ...string) (string, error) {
	trimmed := components
	for len(trimmed) > 0 && trimmed[len(trimmed)-1] == "" {
		trimmed = trimmed[:len(trimmed)-1]
	}
	for i, c := range trimmed {
		if strings.Contains(c, w.elementSep) || strings.Contains(c, w.segmentTerm) ||
			strings.Contains(c, w.componentSep) || strings.Contains(c, w.repetitionSep) {
			return "", &WriterError{Tag: "composite", Reason: fmt.Sprintf("component %d contains a reserved delimiter: %q", i+1, c)}
		}
	}
	return strings.Join(trimmed, w.componentSep), nil
}

func (w *Writer) append(body string) {
	seg := body + w.segmentTerm
	if w.pretty {
		seg += "\n"
	}
	w.segments = append(w.segments, seg)
}

func pad(s string, length int) string {
	if len(s) > length {
		return s[:length]
	}
	return s + strings.Repeat(" ", length-len(s))
}

func zero(n, length int) string {
	return fmt.Sprintf("%0*d", length, n)
}

// ISA writes the fixed-width interchange header. Unlike every other segment,
// ISA keeps all sixteen elements even when empty.
func (w *Writer) ISA(senderQual, senderID, receiverQual, receiverID, usageIndicator string, controlNumber int, at time.Time) {
	elements := []string{
		"00", pad("", 10),
		"00", pad("", 10),
		pad(senderQual, 2), pad(senderID, 15),
		pad(receiverQual, 2), pad(receiverID, 15),
		at.Format("060102"), at.Format("1504"),
		w.repetitionSep, pad("00501", 5),
		zero(controlNumber, 9), "0",
		pad(usageIndicator, 1), w.componentSep,
	}
	w.append("ISA" + w.elementSep + strings.Join(elements, w.elementSep))
}

// IEA writes the interchange trailer.
func (w *Writer) IEA(groupCount, controlNumber int) error {
	return w.Segment("IEA", fmt.Sprintf("%d", groupCount), zero(controlNumber, 9))
}

// GS writes the functional group header.
func (w *Writer) GS(functionalID, senderCode, receiverCode string, controlNumber int, at time.Time) error {
	return w.Segment("GS", functionalID, senderCode, receiverCode,
		at.Format("20060102"), at.Format("1504"),
		fmt.Sprintf("%d", controlNumber), "X", VersionID)
}

// GE writes the functional group trailer.
func (w *Writer) GE(txCount, controlNumber int) error {
	return w.Segment("GE", fmt.Sprintf("%d", txCount), fmt.Sprintf("%d", controlNumber))
}

// VersionID is the implementation guide identifier for the 837 Professional.
const VersionID = "005010X222A1"

// ST writes the transaction set header and records its position so SE can
// compute the inclusive segment count.
func (w *Writer) ST(controlNumber int) error {
	if err := w.Segment("ST", "837", zero(controlNumber, 4), VersionID); err != nil {
		return err
	}
	w.stIndex = len(w.segments)
	return nil
}

// SE writes the transaction set trailer. The count covers every segment from
// the matching ST through the SE itself.
func (w *Writer) SE(controlNumber int) error {
	if w.stIndex == 0 {
		return &WriterError{Tag: "SE", Reason: "SE without a preceding ST"}
	}
	count := len(w.segments) - w.stIndex + 2 // ST..last emitted, plus SE itself
	err := w.Segment("SE", fmt.Sprintf("%d", count), zero(controlNumber, 4))
	w.stIndex = 0
	return err
}

// SegmentsSinceST returns the number of segments emitted since the most
// recent ST, inclusive of the ST itself. Zero when no ST is open.
func (w *Writer) SegmentsSinceST() int {
	if w.stIndex == 0 {
		return 0
	}
	return len(w.segments) - w.stIndex + 1
}

// Bytes returns the interchange accumulated so far.
func (w *Writer) Bytes() []byte {
	return []byte(strings.Join(w.segments, ""))
}

// String returns the interchange accumulated so far.
func (w *Writer) String() string {
	return strings.Join(w.segments, "")
}
