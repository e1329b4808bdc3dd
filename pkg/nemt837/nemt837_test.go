package nemt837

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Softsensor-org/Kaizen/internal/claim"
)

func testConfig() Config {
	return Config{
		InterchangeSenderID:   "SENDERID",
		InterchangeReceiverID: "RECEIVERID",
		GSSenderCode:          "SENDER",
		GSReceiverCode:        "RECEIVER",
		UsageIndicator:        "T",
		Timestamp:             time.Date(2026, 1, 15, 14, 30, 0, 0, time.UTC),
	}
}

func testRecord(t *testing.T) *claim.Record {
	t.Helper()
	units := decimal.NewFromInt(8)
	return &claim.Record{
		Submitter: claim.Submitter{Name: "TEST SUBMITTER", ID: "TESTID01"},
		Receiver:  claim.Receiver{PayerName: "TEST PAYER", PayerID: "12345"},
		BillingProvider: claim.Provider{
			NPI:      "1234567890",
			Name:     "Test Transport LLC",
			Taxonomy: "343900000X",
			Address:  &claim.Address{Line1: "123 Test St", City: "Testville", State: "NY", Zip: "12345"},
		},
		Subscriber: claim.Subscriber{
			MemberID: "TEST123456",
			Name:     claim.PersonName{First: "Patient", Last: "Test"},
		},
		Claim: claim.Info{
			ClmNumber:         "TEST-001",
			TotalCharge:       decimal.RequireFromString("62.50"),
			From:              "2026-01-01",
			PaymentStatus:     "P",
			SubmissionChannel: "ELECTRONIC",
			NetworkIndicator:  "I",
			MemberGroup: claim.MemberGroup{
				GroupID: "G", SubGroupID: "SG", ClassID: "C", PlanID: "PL", ProductID: "PR",
			},
		},
		Services: []*claim.Service{
			{HCPCS: "A0130", Charge: decimal.NewFromInt(60)},
			{HCPCS: "A0425", Charge: decimal.RequireFromString("2.50"), Units: &units},
		},
	}
}

func TestBuild_EndToEnd(t *testing.T) {
	res, err := Build(testRecord(t), testConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !res.IsValid() {
		t.Fatalf("expected valid result:\npre: %s\ncompliance: %s\npayer: %s",
			res.PreReport, res.ComplianceReport, res.PayerReport)
	}
	edi := string(res.EDI)
	if !strings.HasPrefix(edi, "ISA*") || !strings.HasSuffix(edi, "IEA*1*000000001~") {
		t.Errorf("unexpected envelope:\n%s", edi)
	}
}

func TestBuild_InvalidClaimReturnsReportOnly(t *testing.T) {
	rec := testRecord(t)
	rec.BillingProvider.NPI = "bad"
	res, err := Build(rec, testConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.EDI != nil {
		t.Error("invalid claim must not produce EDI")
	}
	if res.PreReport.IsValid() {
		t.Error("expected failing pre-submission report")
	}
	if res.ComplianceReport != nil || res.PayerReport != nil {
		t.Error("output checks must not run without output")
	}
	if res.IsValid() {
		t.Error("result must not be valid")
	}
}

func TestBuild_PayerPresetOverridesReceiver(t *testing.T) {
	rec := testRecord(t)
	cfg := testConfig()
	cfg.PayerPreset = "UHC_CS"
	cfg.InterchangeReceiverID = ""
	res, err := Build(rec, cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	edi := string(res.EDI)
	if !strings.Contains(edi, "NM1*PR*2*UNITED HEALTHCARE COMMUNITY & STATE*****PI*87726~") {
		t.Errorf("preset payer not applied:\n%s", edi)
	}
	if rec.Receiver.PayerID != "87726" {
		t.Errorf("receiver payer id = %q", rec.Receiver.PayerID)
	}
}

func TestBuild_UnknownPresetFailsLoudly(t *testing.T) {
	cfg := testConfig()
	cfg.PayerPreset = "ACME"
	if _, err := Build(testRecord(t), cfg); err == nil {
		t.Error("unknown preset must be a configuration error")
	}
}

func TestBuildJSON(t *testing.T) {
	data := []byte(`{
		"submitter": {"name": "TEST SUBMITTER", "id": "TESTID01"},
		"receiver": {"payer_name": "TEST PAYER", "payer_id": "12345"},
		"billing_provider": {
			"npi": "1234567890",
			"name": "Test Transport LLC",
			"address": {"line1": "123 Test St", "city": "Testville", "state": "NY", "zip": "12345"}
		},
		"subscriber": {"member_id": "TEST123456", "name": {"first": "Patient", "last": "Test"}},
		"claim": {
			"clm_number": "TEST-001",
			"total_charge": 60,
			"from": "2026-01-01",
			"payment_status": "P",
			"submission_channel": "ELECTRONIC",
			"rendering_network_indicator": "I",
			"member_group": {"group_id": "G", "sub_group_id": "SG", "class_id": "C", "plan_id": "PL", "product_id": "PR"}
		},
		"services": [{"hcpcs": "A0130", "charge": 60}]
	}`)
	res, err := BuildJSON(data, testConfig())
	if err != nil {
		t.Fatalf("BuildJSON: %v", err)
	}
	if !res.IsValid() {
		t.Fatalf("expected valid result:\n%s", res.PreReport)
	}

	if _, err := BuildJSON([]byte("{"), testConfig()); err == nil {
		t.Error("malformed JSON must error")
	}
}

func TestValidate(t *testing.T) {
	rec := testRecord(t)
	rec.Claim.SubmissionChannel = ""
	rep := Validate(rec)
	if rep.IsValid() {
		t.Error("expected failing report")
	}
	if rec.Claim.POS != "41" {
		t.Error("Validate should enrich the record first")
	}
}

func TestBuildBatchJSON(t *testing.T) {
	data := []byte(`[
		{
			"submitter": {"name": "TEST SUBMITTER", "id": "TESTID01"},
			"receiver": {"payer_name": "TEST PAYER", "payer_id": "12345"},
			"billing_provider": {
				"npi": "1111111111",
				"name": "Alpha Transit",
				"address": {"line1": "1 Fleet Way", "city": "Louisville", "state": "KY", "zip": "40202"}
			},
			"member": {"member_id": "JOHN123456", "name": {"first": "John", "last": "Doe"}},
			"dos": "2026-01-01",
			"service": {"hcpcs": "A0130", "charge": 60},
			"payment_status": "P",
			"submission_channel": "ELECTRONIC",
			"rendering_network_indicator": "I",
			"member_group": {"group_id": "G", "sub_group_id": "SG", "class_id": "C", "plan_id": "PL", "product_id": "PR"}
		}
	]`)
	res, err := BuildBatchJSON(data, testConfig())
	if err != nil {
		t.Fatalf("BuildBatchJSON: %v", err)
	}
	if res.EDI == nil {
		t.Fatalf("expected an interchange:\n%s", res.BatchReport)
	}
	if !strings.Contains(string(res.EDI), "CLM*KZN-20260101-001*60.00*") {
		t.Errorf("missing generated claim:\n%s", res.EDI)
	}
}
