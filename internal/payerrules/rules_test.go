package payerrules

import (
	"strings"
	"testing"

	"github.com/Softsensor-org/Kaizen/internal/report"
)

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
		"HL*2*1*22*0",
		"NM1*IL*1*Test*Patient****MI*M123",
		"NM1*PR*2*PAYER*****PI*87726",
		"CLM*TEST-001*62.50***41:B:1*Y*A*Y*Y*P*OA",
		"DTP*472*D8*20260101",
		"K3*PYMS-P",
		"K3*SNWK-I",
		"K3*TRPN-ASPUFEELECTRONIC",
		"NTE*ADD*GRP-G;SGR-S;CLS-C;PLN-P;PRD-R",
		"LX*1",
		"SV1*HC:A0130:RH*60.00*UN*1***41",
		"DTP*472*D8*20260101",
		"K3*PYMS-P",
		"LX*2",
		"SV1*HC:A0425*2.50*UN*8***41",
		"DTP*472*D8*20260101",
		"K3*PYMS-P",
		"SE*24*0001",
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

func TestCheck_CleanClaimPasses(t *testing.T) {
	rep := Check(joinEDI(sampleSegments()), UHC())
	if !rep.IsValid() {
		t.Fatalf("expected pass, got:\n%s", rep)
	}
}

func TestCheck_K3Grammar(t *testing.T) {
	tests := []struct {
		name string
		k3   string
		code string
	}{
		{"bad payment status", "K3*PYMS-X", "PAYER_012"},
		{"bad network", "K3*SNWK-Z", "PAYER_012"},
		{"bad channel tag", "K3*TRPN-ASPUFEFAX", "PAYER_012"},
		{"lowercase channel rejected", "K3*TRPN-ASPUFEelectronic", "PAYER_012"},
		{"bad date", "K3*DREC-2026011", "PAYER_012"},
		{"untagged value", "K3*JUSTNOISE", "PAYER_010"},
		{"unknown tag", "K3*WHAT-EVER", "PAYER_011"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := sampleSegments()
			out := make([]string, 0, len(segs)+1)
			for _, seg := range segs {
				if seg == "NTE*ADD*GRP-G;SGR-S;CLS-C;PLN-P;PRD-R" {
					out = append(out, tt.k3)
				}
				out = append(out, seg)
			}
			rep := Check(joinEDI(out), UHC())
			if !hasCode(rep, tt.code) {
				t.Errorf("expected %s, got:\n%s", tt.code, rep)
			}
		})
	}
}

func TestCheck_CompoundK3Values(t *testing.T) {
	segs := sampleSegments()
	var out []string
	for _, seg := range segs {
		out = append(out, seg)
		if seg == "K3*TRPN-ASPUFEELECTRONIC" {
			out = append(out,
				"K3*SUB-M123;IPAD-192.168.1.100;USER-PORTAL01",
				"K3*DREC-20260110;DADJ-20260115;PAIDDT-20260118",
				"K3*AL1-123 Test St;AL2-Suite 4",
				"K3*CY-Testville;ST-NY;ZIP-12345",
			)
		}
	}
	rep := Check(joinEDI(out), UHC())
	if !rep.IsValid() {
		t.Fatalf("compound K3 values must pass:\n%s", rep)
	}
}

func TestCheck_MissingMemberGroupNote(t *testing.T) {
	var out []string
	for _, seg := range sampleSegments() {
		if strings.HasPrefix(seg, "NTE*ADD*GRP-") {
			continue
		}
		out = append(out, seg)
	}
	rep := Check(joinEDI(out), UHC())
	if !hasCode(rep, "PAYER_020") {
		t.Errorf("expected PAYER_020, got:\n%s", rep)
	}
}

func TestCheck_SupervisingRequired(t *testing.T) {
	segs := sampleSegments()
	// Swap the wheelchair van for a bus trip, which requires supervision.
	out := make([]string, len(segs))
	copy(out, segs)
	for i, seg := range out {
		if strings.HasPrefix(seg, "SV1*HC:A0130") {
			out[i] = "SV1*HC:A0110*60.00*UN*1***41"
		}
	}
	rep := Check(joinEDI(out), UHC())
	if !hasCode(rep, "PAYER_030") {
		t.Errorf("expected PAYER_030, got:\n%s", rep)
	}

	// Adding the supervising loop clears it.
	var fixed []string
	for _, seg := range out {
		fixed = append(fixed, seg)
		if strings.HasPrefix(seg, "NTE*ADD*GRP-") {
			fixed = append(fixed, "NM1*DQ*1*Smith*Alex")
		}
	}
	rep = Check(joinEDI(fixed), UHC())
	if hasCode(rep, "PAYER_030") {
		t.Errorf("supervising loop present, violation should clear:\n%s", rep)
	}
}

func TestCheck_DeniedWithoutCAS(t *testing.T) {
	segs := sampleSegments()
	out := make([]string, len(segs))
	copy(out, segs)
	for i, seg := range out {
		if seg == "K3*PYMS-P" {
			out[i] = "K3*PYMS-D"
		}
	}
	rep := Check(joinEDI(out), UHC())
	if !hasCode(rep, "PAYER_040") {
		t.Errorf("expected PAYER_040 for denied claim without CAS:\n%s", rep)
	}
	if !hasCode(rep, "PAYER_041") {
		t.Errorf("expected PAYER_041 for denied line without CAS:\n%s", rep)
	}

	// CAS at both levels clears the violations.
	var fixed []string
	for _, seg := range out {
		fixed = append(fixed, seg)
		if seg == "K3*PYMS-D" {
			fixed = append(fixed, "CAS*CO*45*60.00")
		}
	}
	rep = Check(joinEDI(fixed), UHC())
	if hasCode(rep, "PAYER_040") || hasCode(rep, "PAYER_041") {
		t.Errorf("CAS present, violations should clear:\n%s", rep)
	}
}

func TestCheck_DuplicateTriple(t *testing.T) {
	segs := sampleSegments()
	var out []string
	for _, seg := range segs {
		if strings.HasPrefix(seg, "SE*") {
			// Second claim with identical CLM01/CLM05-3 and no REF*F8.
			out = append(out,
				"CLM*TEST-001*62.50***41:B:1*Y*A*Y*Y*P*OA",
				"DTP*472*D8*20260101",
				"K3*PYMS-P",
				"NTE*ADD*GRP-G;SGR-S;CLS-C;PLN-P;PRD-R",
				"LX*1",
				"SV1*HC:A0130*62.50*UN*1***41",
				"K3*PYMS-P",
			)
		}
		out = append(out, seg)
	}
	rep := Check(joinEDI(out), UHC())
	if !hasCode(rep, "PAYER_050") {
		t.Errorf("expected PAYER_050, got:\n%s", rep)
	}

	// A replacement referencing the original via REF*F8 is a distinct triple.
	var distinct []string
	for _, seg := range segs {
		if strings.HasPrefix(seg, "SE*") {
			distinct = append(distinct,
				"CLM*TEST-001*62.50***41:B:7*Y*A*Y*Y*P*OA",
				"REF*F8*TEST-001",
				"K3*PYMS-P",
				"NTE*ADD*GRP-G;SGR-S;CLS-C;PLN-P;PRD-R",
				"LX*1",
				"SV1*HC:A0130*62.50*UN*1***41",
				"K3*PYMS-P",
			)
		}
		distinct = append(distinct, seg)
	}
	rep = Check(joinEDI(distinct), UHC())
	if hasCode(rep, "PAYER_050") {
		t.Errorf("distinct triples must not collide:\n%s", rep)
	}
}

func TestGet(t *testing.T) {
	if rules, ok := Get("UHC_CS"); !ok || rules.Name != "UHC" {
		t.Errorf("UHC_CS should resolve to the UHC rule set")
	}
	if _, ok := Get("ACME"); ok {
		t.Error("unknown payer should report ok=false")
	}
}
