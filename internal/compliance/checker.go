// Package compliance re-parses emitted interchanges and verifies structural
// integrity: envelope balance, required segments, and loop ordering. It is a
// pure function of the emitted bytes and knows nothing about the input
// records.
package compliance

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Softsensor-org/Kaizen/internal/report"
	"github.com/Softsensor-org/Kaizen/internal/x12"
)

// Result is the compliance report plus the checker's own segment tally,
// which callers cross-verify against the writer's count.
type Result struct {
	Report       *report.Report
	SegmentCount int
}

// Check re-parses the interchange and runs every structural verification.
func Check(edi []byte) *Result {
	rep := report.New("compliance")
	ic, err := x12.Parse(edi)
	if err != nil {
		rep.Add(report.Issue{
			Severity: report.SeverityError,
			Code:     "PARSE_001",
			Message:  fmt.Sprintf("failed to parse interchange: %v", err),
		})
		return &Result{Report: rep}
	}

	c := &checker{ic: ic, rep: rep}
	c.envelope()
	c.transactions()
	return &Result{Report: rep, SegmentCount: len(ic.Segments)}
}

type checker struct {
	ic  *x12.Interchange
	rep *report.Report
}

func (c *checker) err(code string, seg *x12.Segment, format string, args ...any) {
	iss := report.Issue{Severity: report.SeverityError, Code: code, Message: fmt.Sprintf(format, args...)}
	if seg != nil {
		iss.SegmentID = seg.ID
		iss.SegmentIndex = seg.Index
	}
	c.rep.Add(iss)
}

func (c *checker) warn(code string, seg *x12.Segment, format string, args ...any) {
	iss := report.Issue{Severity: report.SeverityWarning, Code: code, Message: fmt.Sprintf(format, args...)}
	if seg != nil {
		iss.SegmentID = seg.ID
		iss.SegmentIndex = seg.Index
	}
	c.rep.Add(iss)
}

func ctlValue(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return -1
	}
	return n
}

// envelope verifies ISA/IEA, GS/GE, and ST/SE pairing, counts, and control
// number agreement.
func (c *checker) envelope() {
	segs := c.ic.Segments
	if segs[0].ID != "ISA" {
		c.err("ENV_001", &segs[0], "interchange must start with ISA, got %s", segs[0].ID)
	}
	last := segs[len(segs)-1]
	if last.ID != "IEA" {
		c.err("ENV_002", &last, "interchange must end with IEA, got %s", last.ID)
	}

	isa := c.ic.Find("ISA")
	iea := c.ic.Find("IEA")
	gs := c.ic.Find("GS")
	ge := c.ic.Find("GE")
	st := c.ic.Find("ST")
	se := c.ic.Find("SE")

	if len(isa) != len(iea) {
		c.err("ENV_003", nil, "mismatched ISA/IEA segments: %d ISA vs %d IEA", len(isa), len(iea))
	}
	if len(gs) != len(ge) {
		c.err("ENV_004", nil, "mismatched GS/GE segments: %d GS vs %d GE", len(gs), len(ge))
	}
	if len(st) != len(se) {
		c.err("ENV_005", nil, "mismatched ST/SE segments: %d ST vs %d SE", len(st), len(se))
	}

	if len(isa) == 1 && len(iea) == 1 {
		if ctlValue(isa[0].Element(13)) != ctlValue(iea[0].Element(2)) {
			c.err("ENV_006", &iea[0], "ISA13 control number %q does not match IEA02 %q",
				isa[0].Element(13), iea[0].Element(2))
		}
		if ctlValue(iea[0].Element(1)) != len(gs) {
			c.err("ENV_007", &iea[0], "IEA01 reports %s functional groups, found %d", iea[0].Element(1), len(gs))
		}
	}
	if len(gs) == 1 && len(ge) == 1 {
		if ctlValue(gs[0].Element(6)) != ctlValue(ge[0].Element(2)) {
			c.err("ENV_008", &ge[0], "GS06 control number %q does not match GE02 %q",
				gs[0].Element(6), ge[0].Element(2))
		}
		if ctlValue(ge[0].Element(1)) != len(st) {
			c.err("ENV_009", &ge[0], "GE01 reports %s transaction sets, found %d", ge[0].Element(1), len(st))
		}
	}

	// SE control numbers and segment counts per transaction set
	for _, stSeg := range st {
		seIdx := c.closingSE(stSeg.Index)
		if seIdx < 0 {
			continue // pairing mismatch already reported
		}
		seSeg := c.segmentAt(seIdx)
		if ctlValue(stSeg.Element(2)) != ctlValue(seSeg.Element(2)) {
			c.err("ENV_010", seSeg, "ST02 control number %q does not match SE02 %q",
				stSeg.Element(2), seSeg.Element(2))
		}
		actual := c.countBetween(stSeg.Index, seIdx)
		if ctlValue(seSeg.Element(1)) != actual {
			c.err("ENV_011", seSeg, "SE01 reports %s segments, counted %d from ST through SE",
				seSeg.Element(1), actual)
		}
	}
}

func (c *checker) segmentAt(index int) *x12.Segment {
	for i := range c.ic.Segments {
		if c.ic.Segments[i].Index == index {
			return &c.ic.Segments[i]
		}
	}
	return nil
}

// closingSE returns the index of the SE that closes the ST at stIndex, or -1.
func (c *checker) closingSE(stIndex int) int {
	for _, s := range c.ic.Segments {
		if s.Index > stIndex && s.ID == "SE" {
			return s.Index
		}
		if s.Index > stIndex && s.ID == "ST" {
			return -1
		}
	}
	return -1
}

func (c *checker) countBetween(from, to int) int {
	n := 0
	for _, s := range c.ic.Segments {
		if s.Index >= from && s.Index <= to {
			n++
		}
	}
	return n
}

// transactions verifies required segments and loop ordering inside each
// ST/SE pair.
func (c *checker) transactions() {
	sts := c.ic.Find("ST")
	for _, st := range sts {
		seIdx := c.closingSE(st.Index)
		if seIdx < 0 {
			continue
		}
		var body []x12.Segment
		for _, s := range c.ic.Segments {
			if s.Index > st.Index && s.Index < seIdx {
				body = append(body, s)
			}
		}
		c.requiredSegments(body)
		c.claimLoops(body)
	}
}

func (c *checker) requiredSegments(body []x12.Segment) {
	find := func(id string, check func(s x12.Segment) bool) *x12.Segment {
		for i := range body {
			if body[i].ID == id && (check == nil || check(body[i])) {
				return &body[i]
			}
		}
		return nil
	}
	if find("BHT", nil) == nil {
		c.err("STR_001", nil, "transaction set is missing the BHT segment")
	}
	if find("NM1", func(s x12.Segment) bool { return s.Element(1) == "85" }) == nil {
		c.err("STR_002", nil, "transaction set is missing the billing provider loop (NM1*85)")
	}
	if find("NM1", func(s x12.Segment) bool { return s.Element(1) == "IL" }) == nil {
		c.err("STR_003", nil, "transaction set is missing the subscriber loop (NM1*IL)")
	}
	clms := 0
	for _, s := range body {
		if s.ID == "CLM" {
			clms++
		}
	}
	if clms == 0 {
		c.err("STR_004", nil, "transaction set contains no CLM segment")
	}
}

// claimLoops walks the CLM blocks within one transaction body.
func (c *checker) claimLoops(body []x12.Segment) {
	var clmIdx []int
	for i, s := range body {
		if s.ID == "CLM" {
			clmIdx = append(clmIdx, i)
		}
	}
	for n, start := range clmIdx {
		end := len(body)
		if n+1 < len(clmIdx) {
			end = clmIdx[n+1]
		}
		c.claimBlock(body[start:end])
	}
}

func (c *checker) claimBlock(block []x12.Segment) {
	firstLX := -1
	cr1s := 0
	sv1s := 0
	for i, s := range block {
		switch s.ID {
		case "LX":
			if firstLX < 0 {
				firstLX = i
			}
		case "CR1":
			if firstLX < 0 {
				cr1s++
			}
		case "SV1":
			sv1s++
		}
	}
	clm := block[0]
	if sv1s == 0 {
		c.err("STR_005", &clm, "claim %s has no SV1 service line", clm.Element(1))
	}
	if cr1s > 1 {
		c.err("NEMT_005", &clm, "claim %s has %d CR1 segments; at most one is allowed", clm.Element(1), cr1s)
	}

	claimEnd := len(block)
	if firstLX >= 0 {
		claimEnd = firstLX
	}
	c.claimOrder(block[:claimEnd])
	c.locationLevels(block, firstLX)

	if firstLX < 0 {
		return
	}
	var lxIdx []int
	for i := firstLX; i < len(block); i++ {
		if block[i].ID == "LX" {
			lxIdx = append(lxIdx, i)
		}
	}
	for n, start := range lxIdx {
		end := len(block)
		if n+1 < len(lxIdx) {
			end = lxIdx[n+1]
		}
		c.serviceBlock(block[start:end])
	}
}

// claimOrder verifies the 2300 segment sequence: each recognized tag class
// must not appear before a class that precedes it.
func (c *checker) claimOrder(header []x12.Segment) {
	rank := func(s x12.Segment) int {
		switch s.ID {
		case "CLM":
			return 1
		case "DTP":
			if s.Element(1) == "472" {
				return 2
			}
			return 8
		case "HI":
			return 3
		case "CR1":
			return 4
		case "REF":
			return 5
		case "K3":
			return 6
		case "NTE":
			return 7
		case "CAS", "MOA", "AMT":
			return 8
		default:
			return 0 // provider and COB loops; not rank-checked here
		}
	}
	max := 0
	for i := range header {
		// Once a provider or COB loop opens, the ranked claim-level
		// segments are done; REF/DTP inside those loops are their own.
		if header[i].ID == "NM1" || header[i].ID == "SBR" {
			return
		}
		r := rank(header[i])
		if r == 0 {
			continue
		}
		if r < max {
			c.err("ORDER_002", &header[i], "%s segment out of order within Loop 2300", header[i].ID)
			return
		}
		if r > max {
			max = r
		}
	}
}

// serviceBlock verifies one Loop 2400: SV1 shape and K3-before-provider
// ordering.
func (c *checker) serviceBlock(block []x12.Segment) {
	firstNM1 := -1
	firstK3 := -1
	for i, s := range block {
		switch s.ID {
		case "NM1":
			if firstNM1 < 0 {
				firstNM1 = i
			}
		case "K3":
			if firstK3 < 0 {
				firstK3 = i
			}
		case "SV1":
			c.sv1Shape(&block[i])
		}
	}
	if firstK3 >= 0 && firstNM1 >= 0 && firstK3 > firstNM1 {
		c.err("ORDER_001", &block[firstK3], "K3 must appear before provider loops (NM1) within Loop 2400")
	}
}

// sv1Shape verifies the emergency indicator rides in SV111, never SV110.
func (c *checker) sv1Shape(s *x12.Segment) {
	if s.Element(10) != "" {
		c.err("EMG_001", s, "SV110 is populated; the emergency indicator belongs in SV111")
	}
	if ind := s.Element(11); ind != "" && ind != "Y" && ind != "N" {
		c.err("EMG_002", s, "SV111 emergency indicator must be Y or N, got %q", ind)
	}
}

// locationLevels warns when pickup/dropoff parties appear at both the claim
// and the service level of the same claim.
func (c *checker) locationLevels(block []x12.Segment, firstLX int) {
	if firstLX < 0 {
		return
	}
	level := func(qualifier string) (claimLevel, serviceLevel bool) {
		for i, s := range block {
			if s.ID == "NM1" && s.Element(1) == qualifier {
				if i < firstLX {
					claimLevel = true
				} else {
					serviceLevel = true
				}
			}
		}
		return
	}
	if cl, sl := level("PW"); cl && sl {
		c.warn("LOOP_002", &block[0], "pickup location present at both claim level (2310E) and service level (2420G)")
	}
	if cl, sl := level("45"); cl && sl {
		c.warn("LOOP_003", &block[0], "dropoff location present at both claim level (2310F) and service level (2420H)")
	}
}
