package compliance

import (
	"strings"
	"testing"

	"github.com/Softsensor-org/Kaizen/internal/report"
)

// minimal well-formed single-claim interchange, assembled by hand so each
// test can tamper with individual segments.
func sampleSegments() []string {
	return []string{
		"ISA*00*          *00*          *ZZ*SENDER         *ZZ*RECEIVER       *260115*1430*^*00501*000000001*0*T*:",
		"GS*HC*SENDER*RECEIVER*20260115*1430*1*X*005010X222A1",
		"ST*837*0001*005010X222A1",
		"BHT*0019*00*TEST-001*20260115*1430*CH",
		"NM1*41*2*SUBMITTER*****46*ID01",
		"NM1*40*2*PAYER*****46*RECV",
		"HL*1**20*1",
		"NM1*85*2*PROVIDER*****XX*1234567890",
		"N3*123 Test St",
		"N4*Testville*NY*12345",
		"HL*2*1*22*0",
		"SBR*P*18*******MC",
		"NM1*IL*1*Test*Patient****MI*M123",
		"NM1*PR*2*PAYER*****PI*87726",
		"CLM*TEST-001*62.50***41:B:1*Y*A*Y*Y*P*OA",
		"DTP*472*D8*20260101",
		"K3*PYMS-P",
		"NTE*ADD*GRP-G;SGR-S;CLS-C;PLN-P;PRD-R",
		"LX*1",
		"SV1*HC:A0130:RH*60.00*UN*1***41",
		"DTP*472*D8*20260101",
		"K3*PYMS-P",
		"LX*2",
		"SV1*HC:A0425*2.50*UN*8***41",
		"DTP*472*D8*20260101",
		"K3*PYMS-P",
		"SE*25*0001",
		"GE*1*1",
		"IEA*1*000000001",
	}
}

func joinEDI(segs []string) []byte {
	return []byte(strings.Join(segs, "~") + "~")
}

func hasCode(rep *report.Report, code string) bool {
	for _, iss := range rep.Issues {
		if iss.Code == code {
			return true
		}
	}
	return false
}

func TestCheck_ValidInterchange(t *testing.T) {
	res := Check(joinEDI(sampleSegments()))
	if !res.Report.IsValid() {
		t.Fatalf("expected compliant interchange, got:\n%s", res.Report)
	}
	if res.SegmentCount != len(sampleSegments()) {
		t.Errorf("SegmentCount = %d, want %d", res.SegmentCount, len(sampleSegments()))
	}
}

func TestCheck_UnparsableInput(t *testing.T) {
	res := Check([]byte("garbage"))
	if !hasCode(res.Report, "PARSE_001") {
		t.Errorf("expected PARSE_001:\n%s", res.Report)
	}
}

func replace(segs []string, prefix, replacement string) []string {
	out := make([]string, len(segs))
	copy(out, segs)
	for i, s := range out {
		if strings.HasPrefix(s, prefix) {
			out[i] = replacement
		}
	}
	return out
}

func TestCheck_EnvelopeViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]string) []string
		code   string
	}{
		{"wrong SE count", func(s []string) []string { return replace(s, "SE*", "SE*99*0001") }, "ENV_011"},
		{"mismatched SE control number", func(s []string) []string { return replace(s, "SE*", "SE*25*0002") }, "ENV_010"},
		{"mismatched IEA control number", func(s []string) []string { return replace(s, "IEA*", "IEA*1*000000009") }, "ENV_006"},
		{"wrong GE transaction count", func(s []string) []string { return replace(s, "GE*", "GE*4*1") }, "ENV_009"},
		{"mismatched GE control number", func(s []string) []string { return replace(s, "GE*", "GE*1*7") }, "ENV_008"},
		{"missing GE", func(s []string) []string {
			var out []string
			for _, seg := range s {
				if !strings.HasPrefix(seg, "GE*") {
					out = append(out, seg)
				}
			}
			return out
		}, "ENV_004"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Check(joinEDI(tt.mutate(sampleSegments())))
			if !hasCode(res.Report, tt.code) {
				t.Errorf("expected %s, got:\n%s", tt.code, res.Report)
			}
		})
	}
}

func TestCheck_MissingRequiredSegments(t *testing.T) {
	drop := func(prefix string) []string {
		var out []string
		for _, seg := range sampleSegments() {
			if !strings.HasPrefix(seg, prefix) {
				out = append(out, seg)
			}
		}
		// Keep SE01 consistent so only the structural issue fires.
		return replace(out, "SE*", "SE*24*0001")
	}
	tests := []struct {
		prefix string
		code   string
	}{
		{"BHT*", "STR_001"},
		{"NM1*85*", "STR_002"},
		{"NM1*IL*", "STR_003"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			res := Check(joinEDI(drop(tt.prefix)))
			if !hasCode(res.Report, tt.code) {
				t.Errorf("expected %s, got:\n%s", tt.code, res.Report)
			}
		})
	}
}

func TestCheck_NoCLM(t *testing.T) {
	var out []string
	for _, seg := range sampleSegments() {
		switch {
		case strings.HasPrefix(seg, "CLM*"),
			strings.HasPrefix(seg, "LX*"),
			strings.HasPrefix(seg, "SV1*"),
			strings.HasPrefix(seg, "K3*"),
			strings.HasPrefix(seg, "NTE*"),
			strings.HasPrefix(seg, "DTP*"):
		default:
			out = append(out, seg)
		}
	}
	out = replace(out, "SE*", "SE*13*0001")
	res := Check(joinEDI(out))
	if !hasCode(res.Report, "STR_004") {
		t.Errorf("expected STR_004, got:\n%s", res.Report)
	}
}

func TestCheck_K3AfterProviderLoop(t *testing.T) {
	segs := sampleSegments()
	// Move the first service line's K3 after an NM1 provider loop.
	var out []string
	for _, seg := range segs {
		if seg == "LX*2" {
			out = append(out, "NM1*DQ*1*Smith*Alex", "K3*PYMS-P", "LX*2")
			continue
		}
		if seg == "K3*PYMS-P" && len(out) > 0 && out[len(out)-1] == "DTP*472*D8*20260101" && contains(out, "LX*1") && !contains(out, "LX*2") {
			continue // drop the correctly placed K3 in line 1
		}
		out = append(out, seg)
	}
	out = replace(out, "SE*", "SE*26*0001")
	res := Check(joinEDI(out))
	if !hasCode(res.Report, "ORDER_001") {
		t.Errorf("expected ORDER_001, got:\n%s", res.Report)
	}
}

func contains(segs []string, want string) bool {
	for _, s := range segs {
		if s == want {
			return true
		}
	}
	return false
}

func TestCheck_EmergencyIndicatorPosition(t *testing.T) {
	segs := replace(sampleSegments(), "SV1*HC:A0130", "SV1*HC:A0130:RH*60.00*UN*1***41***Y")
	res := Check(joinEDI(segs))
	if !hasCode(res.Report, "EMG_001") {
		t.Errorf("expected EMG_001 for SV110 emergency indicator, got:\n%s", res.Report)
	}

	segs = replace(sampleSegments(), "SV1*HC:A0130", "SV1*HC:A0130:RH*60.00*UN*1***41****Y")
	res = Check(joinEDI(segs))
	if hasCode(res.Report, "EMG_001") || hasCode(res.Report, "EMG_002") {
		t.Errorf("SV111 indicator must pass, got:\n%s", res.Report)
	}
}

func TestCheck_MultipleCR1(t *testing.T) {
	segs := sampleSegments()
	var out []string
	for _, seg := range segs {
		out = append(out, seg)
		if strings.HasPrefix(seg, "DTP*472*D8") && !contains(out, "LX*1") {
			out = append(out, "CR1*LB*150*A*DH", "CR1*LB*150*A*DH")
		}
	}
	out = replace(out, "SE*", "SE*27*0001")
	res := Check(joinEDI(out))
	if !hasCode(res.Report, "NEMT_005") {
		t.Errorf("expected NEMT_005 for duplicate CR1, got:\n%s", res.Report)
	}
}

func TestCheck_BothLevelLocationsWarn(t *testing.T) {
	segs := sampleSegments()
	var out []string
	for _, seg := range segs {
		if seg == "LX*1" {
			out = append(out, "NM1*PW*2", "N3*1 Claim St", "N4*Town*KY*40202", seg)
			continue
		}
		out = append(out, seg)
		if seg == "K3*PYMS-P" && contains(out, "LX*1") && !contains(out, "LX*2") {
			out = append(out, "NM1*PW*2", "N3*2 Line St", "N4*Town*KY*40202")
		}
	}
	out = replace(out, "SE*", "SE*31*0001")
	res := Check(joinEDI(out))
	if res.Report.IsValid() == false {
		t.Fatalf("both-level locations are a warning, not an error:\n%s", res.Report)
	}
	if !hasCode(res.Report, "LOOP_002") {
		t.Errorf("expected LOOP_002 warning, got:\n%s", res.Report)
	}
}

func TestCheck_OutOfOrderClaimHeader(t *testing.T) {
	segs := sampleSegments()
	var out []string
	for _, seg := range segs {
		if seg == "NTE*ADD*GRP-G;SGR-S;CLS-C;PLN-P;PRD-R" {
			// NTE before K3 inverts the required 2300 order.
			out = append(out[:len(out)-1], seg, out[len(out)-1])
			continue
		}
		out = append(out, seg)
	}
	res := Check(joinEDI(out))
	if !hasCode(res.Report, "ORDER_002") {
		t.Errorf("expected ORDER_002, got:\n%s", res.Report)
	}
}
