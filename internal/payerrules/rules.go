// Package payerrules enforces payer-specific content constraints on emitted
// interchanges: K3 grammar, mandatory member-group notes, supervising
// provider coverage, denial adjustments, and the NEMIS duplicate criterion.
// Rule sets are data: the K3 grammar lives in a table, not in code paths.
package payerrules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Softsensor-org/Kaizen/internal/codes"
	"github.com/Softsensor-org/Kaizen/internal/report"
	"github.com/Softsensor-org/Kaizen/internal/x12"
)

// k3Rule validates one K3 tag's value grammar. Matching is case-sensitive
// and exact; the payer's intake rejects close-enough.
type k3Rule struct {
	tag     string
	pattern *regexp.Regexp
}

// RuleSet is one payer's rule collection.
type RuleSet struct {
	Name    string
	K3Rules []k3Rule
}

// UHC returns the United Healthcare Community & State rule set.
func UHC() *RuleSet {
	return &RuleSet{
		Name: "UHC",
		K3Rules: []k3Rule{
			{"PYMS", regexp.MustCompile(`^[PD]$`)},
			{"SNWK", regexp.MustCompile(`^[IO]$`)},
			{"TRPN", regexp.MustCompile(`^ASPUFE(ELECTRONIC|PAPER)$`)},
			{"SUB", regexp.MustCompile(`^\S+$`)},
			{"IPAD", regexp.MustCompile(`^[0-9a-fA-F.:]+$`)},
			{"USER", regexp.MustCompile(`^\S+$`)},
			{"DREC", regexp.MustCompile(`^\d{8}$`)},
			{"DADJ", regexp.MustCompile(`^\d{8}$`)},
			{"PAIDDT", regexp.MustCompile(`^\d{8}$`)},
			{"AL1", regexp.MustCompile(`^.+$`)},
			{"AL2", regexp.MustCompile(`^.+$`)},
			{"CY", regexp.MustCompile(`^.+$`)},
			{"ST", regexp.MustCompile(`^[A-Z]{2}$`)},
			{"ZIP", regexp.MustCompile(`^\d{5}(-\d{4})?$`)},
			{"TRIPNUM", regexp.MustCompile(`^\d{9}$`)},
			{"SPECNEED", regexp.MustCompile(`^[YN]$`)},
		},
	}
}

// Get resolves a rule set by payer name or preset key. UHC presets all
// share one rule set; unknown payers fall back to it with ok=false.
func Get(name string) (*RuleSet, bool) {
	if name == "" || strings.HasPrefix(name, "UHC") {
		return UHC(), true
	}
	return UHC(), false
}

// Check re-parses the interchange and applies the payer rule set.
func Check(edi []byte, rules *RuleSet) *report.Report {
	rep := report.New("payer")
	if rules == nil {
		rules = UHC()
	}
	ic, err := x12.Parse(edi)
	if err != nil {
		rep.Add(report.Issue{
			Severity: report.SeverityError,
			Code:     "PAYER_000",
			Message:  fmt.Sprintf("failed to parse interchange: %v", err),
		})
		return rep
	}

	v := &validator{ic: ic, rules: rules, rep: rep}
	v.claims()
	v.duplicates()
	return rep
}

type validator struct {
	ic    *x12.Interchange
	rules *RuleSet
	rep   *report.Report
}

func (v *validator) err(code string, seg *x12.Segment, format string, args ...any) {
	iss := report.Issue{Severity: report.SeverityError, Code: code, Message: fmt.Sprintf(format, args...)}
	if seg != nil {
		iss.SegmentID = seg.ID
		iss.SegmentIndex = seg.Index
	}
	v.rep.Add(iss)
}

// claimBlock is the segment span of one claim: CLM through the segment
// before the next CLM or SE.
type claimBlock struct {
	clm      x12.Segment
	segments []x12.Segment
	firstLX  int // offset within segments, -1 when no service lines
}

func (v *validator) claimBlocks() []claimBlock {
	var blocks []claimBlock
	segs := v.ic.Segments
	for i, s := range segs {
		if s.ID != "CLM" {
			continue
		}
		end := len(segs)
		for j := i + 1; j < len(segs); j++ {
			if segs[j].ID == "CLM" || segs[j].ID == "SE" {
				end = j
				break
			}
		}
		block := claimBlock{clm: s, segments: segs[i:end], firstLX: -1}
		for off, b := range block.segments {
			if b.ID == "LX" {
				block.firstLX = off
				break
			}
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func (v *validator) claims() {
	for _, block := range v.claimBlocks() {
		v.k3Grammar(block)
		v.memberGroupNote(block)
		v.supervising(block)
		v.denialAdjustments(block)
	}
}

// k3Grammar verifies every K3 tag-value pair in the claim against the rule
// set's grammar table.
func (v *validator) k3Grammar(block claimBlock) {
	for i, s := range block.segments {
		if s.ID != "K3" {
			continue
		}
		for _, part := range strings.Split(s.Element(1), ";") {
			tag, value, found := strings.Cut(part, "-")
			if !found {
				v.err("PAYER_010", &block.segments[i], "K3 value %q is not in TAG-value form", part)
				continue
			}
			rule := v.rule(tag)
			if rule == nil {
				v.err("PAYER_011", &block.segments[i], "K3 tag %q is not recognized by the %s rule set", tag, v.rules.Name)
				continue
			}
			if !rule.pattern.MatchString(value) {
				v.err("PAYER_012", &block.segments[i], "K3 %s value %q does not match the required format", tag, value)
			}
		}
	}
}

func (v *validator) rule(tag string) *k3Rule {
	for i := range v.rules.K3Rules {
		if v.rules.K3Rules[i].tag == tag {
			return &v.rules.K3Rules[i]
		}
	}
	return nil
}

// memberGroupNote requires the NTE*ADD*GRP-... note on every claim.
func (v *validator) memberGroupNote(block claimBlock) {
	end := len(block.segments)
	if block.firstLX >= 0 {
		end = block.firstLX
	}
	for _, s := range block.segments[:end] {
		if s.ID == "NTE" && s.Element(1) == "ADD" && strings.HasPrefix(s.Element(2), "GRP-") {
			return
		}
	}
	v.err("PAYER_020", &block.clm, "claim %s is missing the member group note (NTE*ADD*GRP-...)", block.clm.Element(1))
}

// supervising requires an NM1*DQ loop when any service line bills a
// special-transport HCPCS.
func (v *validator) supervising(block claimBlock) {
	var special []string
	for _, s := range block.segments {
		if s.ID != "SV1" {
			continue
		}
		hcpcs := hcpcsOf(s, v.ic.ComponentSep)
		if codes.SupervisingRequired[hcpcs] {
			special = append(special, hcpcs)
		}
	}
	if len(special) == 0 {
		return
	}
	for _, s := range block.segments {
		if s.ID == "NM1" && s.Element(1) == "DQ" {
			return
		}
	}
	v.err("PAYER_030", &block.clm, "claim %s bills %s but carries no supervising provider (NM1*DQ)",
		block.clm.Element(1), strings.Join(special, ", "))
}

func hcpcsOf(sv1 x12.Segment, componentSep string) string {
	return sv1.Component(1, 2, componentSep)
}

// denialAdjustments requires at least one CAS at the matching level when a
// PYMS-D K3 marks the claim or a line as denied.
func (v *validator) denialAdjustments(block claimBlock) {
	end := len(block.segments)
	if block.firstLX >= 0 {
		end = block.firstLX
	}
	if hasK3Value(block.segments[:end], "PYMS-D") && !hasSegment(block.segments[:end], "CAS") {
		v.err("PAYER_040", &block.clm, "denied claim %s carries no claim-level CAS adjustment", block.clm.Element(1))
	}
	if block.firstLX < 0 {
		return
	}
	lines := block.segments[block.firstLX:]
	var starts []int
	for i, s := range lines {
		if s.ID == "LX" {
			starts = append(starts, i)
		}
	}
	for n, start := range starts {
		stop := len(lines)
		if n+1 < len(starts) {
			stop = starts[n+1]
		}
		line := lines[start:stop]
		if hasK3Value(line, "PYMS-D") && !hasSegment(line, "CAS") {
			v.err("PAYER_041", &line[0], "denied service line %s carries no CAS adjustment", line[0].Element(1))
		}
	}
}

func hasK3Value(segs []x12.Segment, value string) bool {
	for _, s := range segs {
		if s.ID != "K3" {
			continue
		}
		for _, part := range strings.Split(s.Element(1), ";") {
			if part == value {
				return true
			}
		}
	}
	return false
}

func hasSegment(segs []x12.Segment, id string) bool {
	for _, s := range segs {
		if s.ID == id {
			return true
		}
	}
	return false
}

// duplicates applies the NEMIS criterion: (CLM01, CLM05-3, REF*F8) must be
// unique within the interchange.
func (v *validator) duplicates() {
	seen := map[[3]string]bool{}
	for _, block := range v.claimBlocks() {
		freq := block.clm.Component(5, 3, v.ic.ComponentSep)
		orig := ""
		end := len(block.segments)
		if block.firstLX >= 0 {
			end = block.firstLX
		}
		for _, s := range block.segments[:end] {
			if s.ID == "REF" && s.Element(1) == "F8" {
				orig = s.Element(2)
				break
			}
		}
		key := [3]string{block.clm.Element(1), freq, orig}
		if seen[key] {
			v.err("PAYER_050", &block.clm,
				"duplicate claim per NEMIS criteria: CLM01=%s CLM05-3=%s REF*F8=%s", key[0], key[1], key[2])
			continue
		}
		seen[key] = true
	}
}
