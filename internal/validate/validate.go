// Package validate implements the pre-submission validator: structural and
// semantic checks on an enriched claim record, producing an ordered issue
// report. Nothing here mutates the record.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Softsensor-org/Kaizen/internal/claim"
	"github.com/Softsensor-org/Kaizen/internal/codes"
	"github.com/Softsensor-org/Kaizen/internal/report"
)

var (
	npiRe     = regexp.MustCompile(`^\d{10}$`)
	taxIDRe   = regexp.MustCompile(`^\d{9}$`)
	zipRe     = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	timeRe    = regexp.MustCompile(`^([01]\d|2[0-3])[0-5]\d$`)
	numericRe = regexp.MustCompile(`^\d+$`)
)

// chargeTolerance is the allowed drift between the claim total and the sum
// of service charges.
var chargeTolerance = decimal.NewFromFloat(0.01)

// Claim runs every pre-submission check against an enriched record and
// returns the ordered report. The record must not be mutated afterwards if
// the report is to stay meaningful.
func Claim(rec *claim.Record) *report.Report {
	v := &validator{rep: report.New("pre-submission")}
	v.billingProvider(&rec.BillingProvider)
	v.subscriber(&rec.Subscriber)
	v.claimInfo(&rec.Claim)
	v.ambulance(rec.Claim.Ambulance)
	v.services(rec)
	v.chargeBalance(rec)
	v.mileageAdjacency(rec)
	v.locationAmbiguity(rec)
	v.supervisingCoverage(rec)
	return v.rep
}

type validator struct {
	rep *report.Report
}

func (v *validator) errf(code, path, format string, args ...any) {
	v.rep.AddError(code, path, fmt.Sprintf(format, args...))
}

func (v *validator) warnf(code, path, format string, args ...any) {
	v.rep.AddWarning(code, path, fmt.Sprintf(format, args...))
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func (v *validator) date(code, path, value string, required bool) {
	if value == "" {
		if required {
			v.errf(code, path, "%s is required", path)
		}
		return
	}
	if !validDate(value) {
		v.errf(code, path, "%s must be an ISO date (yyyy-mm-dd), got %q", path, value)
	}
}

func (v *validator) address(path string, addr *claim.Address) {
	if addr == nil {
		v.errf("VAL_005", path, "%s is required", path)
		return
	}
	if addr.Line1 == "" {
		v.errf("VAL_005", path+".line1", "%s.line1 is required", path)
	} else if len(addr.Line1) > 55 {
		v.errf("VAL_006", path+".line1", "%s.line1 exceeds 55 characters", path)
	}
	if addr.City == "" {
		v.errf("VAL_007", path+".city", "%s.city is required", path)
	} else if len(addr.City) > 30 {
		v.errf("VAL_008", path+".city", "%s.city exceeds 30 characters", path)
	}
	if addr.State == "" {
		v.errf("VAL_009", path+".state", "%s.state is required", path)
	} else if !codes.States[strings.ToUpper(addr.State)] {
		v.errf("VAL_010", path+".state", "%s.state %q is not a recognized US postal code", path, addr.State)
	}
	if addr.Zip == "" {
		v.errf("VAL_011", path+".zip", "%s.zip is required", path)
	} else if !zipRe.MatchString(addr.Zip) {
		v.errf("VAL_012", path+".zip", "%s.zip %q must match 12345 or 12345-6789", path, addr.Zip)
	}
}

func (v *validator) billingProvider(bp *claim.Provider) {
	if bp.NPI == "" {
		v.errf("VAL_001", "billing_provider.npi", "billing_provider.npi is required")
	} else if !npiRe.MatchString(bp.NPI) {
		v.errf("VAL_002", "billing_provider.npi", "billing_provider.npi must be 10 digits, got %q", bp.NPI)
	}
	if bp.Name == "" {
		v.errf("VAL_003", "billing_provider.name", "billing_provider.name is required")
	} else if len(bp.Name) > 60 {
		v.errf("VAL_004", "billing_provider.name", "billing_provider.name exceeds 60 characters")
	}
	v.address("billing_provider.address", bp.Address)
	if bp.TaxID != "" && !taxIDRe.MatchString(bp.TaxID) {
		v.errf("VAL_013", "billing_provider.tax_id", "billing_provider.tax_id must be 9 digits, got %q", bp.TaxID)
	}
}

func (v *validator) subscriber(sub *claim.Subscriber) {
	if sub.MemberID == "" {
		v.errf("VAL_020", "subscriber.member_id", "subscriber.member_id is required")
	} else if len(sub.MemberID) > 80 {
		v.errf("VAL_021", "subscriber.member_id", "subscriber.member_id exceeds 80 characters")
	}
	if sub.Name.Last == "" {
		v.errf("VAL_022", "subscriber.name.last", "subscriber.name.last is required")
	} else if len(sub.Name.Last) > 60 {
		v.errf("VAL_023", "subscriber.name.last", "subscriber.name.last exceeds 60 characters")
	}
	if sub.Name.First == "" {
		v.errf("VAL_024", "subscriber.name.first", "subscriber.name.first is required")
	} else if len(sub.Name.First) > 35 {
		v.errf("VAL_025", "subscriber.name.first", "subscriber.name.first exceeds 35 characters")
	}
	v.date("VAL_026", "subscriber.dob", sub.DOB, false)
	if sub.Sex != "" && !codes.Known(codes.KindSex, sub.Sex) {
		v.errf("VAL_027", "subscriber.sex", "subscriber.sex %q is not one of F, M, U", sub.Sex)
	}
}

func (v *validator) claimInfo(info *claim.Info) {
	if info.ClmNumber == "" {
		v.errf("VAL_030", "claim.clm_number", "claim.clm_number is required")
	} else if len(info.ClmNumber) > 30 {
		v.errf("VAL_031", "claim.clm_number", "claim.clm_number exceeds 30 characters")
	}
	if info.TotalCharge.IsNegative() {
		v.errf("VAL_032", "claim.total_charge", "claim.total_charge must not be negative")
	} else if info.TotalCharge.IsZero() && info.FrequencyCode != "8" {
		v.errf("VAL_033", "claim.total_charge", "claim.total_charge must be greater than zero unless the claim is a void (frequency_code=8)")
	}
	v.date("VAL_034", "claim.from", info.From, true)
	v.date("VAL_036", "claim.to", info.To, false)
	if info.POS != "" && !codes.Known(codes.KindPlaceOfService, info.POS) {
		v.errf("VAL_037", "claim.pos", "claim.pos %q is not a recognized place of service", info.POS)
	}
	if info.FrequencyCode != "" && !codes.Known(codes.KindFrequency, info.FrequencyCode) {
		v.errf("VAL_038", "claim.frequency_code", "claim.frequency_code %q is not one of 1, 6, 7, 8", info.FrequencyCode)
	}
	if codes.AdjustmentFrequencies[info.FrequencyCode] && info.OriginalClaimNumber == "" {
		v.errf("VAL_039", "claim.original_claim_number", "claim.original_claim_number is required when frequency_code is %s", info.FrequencyCode)
	}

	if info.PaymentStatus == "" {
		v.errf("VAL_060", "claim.payment_status", "claim.payment_status is required")
	} else if !codes.Known(codes.KindPaymentStatus, info.PaymentStatus) {
		v.errf("VAL_060", "claim.payment_status", "claim.payment_status %q is not one of P, D", info.PaymentStatus)
	}
	if info.SubmissionChannel == "" {
		v.errf("VAL_061", "claim.submission_channel", "claim.submission_channel is required")
	} else if !codes.Known(codes.KindSubmissionChannel, info.SubmissionChannel) {
		v.errf("VAL_061", "claim.submission_channel", "claim.submission_channel %q is not one of ELECTRONIC, PAPER", info.SubmissionChannel)
	}
	if info.NetworkIndicator == "" {
		v.errf("VAL_062", "claim.rendering_network_indicator", "claim.rendering_network_indicator is required")
	} else if !codes.Known(codes.KindNetworkIndicator, info.NetworkIndicator) {
		v.errf("VAL_062", "claim.rendering_network_indicator", "claim.rendering_network_indicator %q is not one of I, O", info.NetworkIndicator)
	}
	if !info.MemberGroup.Complete() {
		v.errf("VAL_063", "claim.member_group", "claim.member_group requires group_id, sub_group_id, class_id, plan_id, and product_id")
	}

	v.date("VAL_064", "claim.receipt_date", info.ReceiptDate, false)
	v.date("VAL_064", "claim.adjudication_date", info.AdjudicationDate, false)
	v.date("VAL_064", "claim.payment_date", info.PaymentDate, false)
}

func (v *validator) ambulance(amb *claim.Ambulance) {
	if amb == nil {
		return
	}
	if amb.WeightUnit != "" && !codes.Known(codes.KindWeightUnit, amb.WeightUnit) {
		v.errf("VAL_070", "claim.ambulance.weight_unit", "claim.ambulance.weight_unit %q is not one of LB, KG", amb.WeightUnit)
	}
	if amb.TransportCode != "" && !codes.Known(codes.KindTransportCode, amb.TransportCode) {
		v.errf("VAL_071", "claim.ambulance.transport_code", "claim.ambulance.transport_code %q is not one of A-E", amb.TransportCode)
	}
	if amb.TransportReason != "" && !codes.Known(codes.KindTransportReason, amb.TransportReason) {
		v.errf("VAL_072", "claim.ambulance.transport_reason", "claim.ambulance.transport_reason %q is not one of A, B, C, D, DH, E", amb.TransportReason)
	}
	if amb.TripNumber != "" && !numericRe.MatchString(amb.TripNumber) {
		v.errf("VAL_073", "claim.ambulance.trip_number", "claim.ambulance.trip_number must be numeric, got %q", amb.TripNumber)
	}
	if amb.SpecialNeeds != "" && amb.SpecialNeeds != "Y" && amb.SpecialNeeds != "N" {
		v.errf("VAL_074", "claim.ambulance.special_needs", "claim.ambulance.special_needs must be Y or N, got %q", amb.SpecialNeeds)
	}
	v.location("claim.ambulance.pickup", amb.Pickup)
	v.location("claim.ambulance.dropoff", amb.Dropoff)
}

func (v *validator) location(path string, loc *claim.Location) {
	if loc == nil {
		return
	}
	if loc.State != "" && !codes.States[strings.ToUpper(loc.State)] {
		v.errf("VAL_010", path+".state", "%s.state %q is not a recognized US postal code", path, loc.State)
	}
	if loc.Zip != "" && !zipRe.MatchString(loc.Zip) {
		v.errf("VAL_012", path+".zip", "%s.zip %q must match 12345 or 12345-6789", path, loc.Zip)
	}
	if loc.ArrivalTime != "" && !timeRe.MatchString(loc.ArrivalTime) {
		v.errf("VAL_075", path+".arrival_time", "%s.arrival_time must be HHMM, got %q", path, loc.ArrivalTime)
	}
	if loc.DepartureTime != "" && !timeRe.MatchString(loc.DepartureTime) {
		v.errf("VAL_075", path+".departure_time", "%s.departure_time must be HHMM, got %q", path, loc.DepartureTime)
	}
}

func (v *validator) services(rec *claim.Record) {
	if len(rec.Services) == 0 {
		v.errf("VAL_040", "services", "at least one service is required")
		return
	}
	for i, svc := range rec.Services {
		path := fmt.Sprintf("services[%d]", i)
		if svc.HCPCS == "" {
			v.errf("VAL_041", path+".hcpcs", "%s.hcpcs is required", path)
		} else {
			if len(svc.HCPCS) > 5 {
				v.errf("VAL_042", path+".hcpcs", "%s.hcpcs exceeds 5 characters", path)
			}
			if !codes.Known(codes.KindHCPCS, svc.HCPCS) {
				v.warnf("VAL_080", path+".hcpcs", "%s.hcpcs %q is not in the NEMT code registry", path, svc.HCPCS)
			}
		}
		if svc.Charge.IsNegative() {
			v.errf("VAL_043", path+".charge", "%s.charge must not be negative", path)
		}
		if len(svc.Modifiers) > 4 {
			v.errf("VAL_044", path+".modifiers", "%s.modifiers is limited to 4 entries", path)
		}
		for _, mod := range svc.Modifiers {
			if len(mod) != 2 {
				v.errf("VAL_045", path+".modifiers", "%s modifier %q must be exactly 2 characters", path, mod)
			} else if !codes.Known(codes.KindModifier, mod) {
				v.warnf("VAL_081", path+".modifiers", "%s modifier %q is not in the modifier registry", path, mod)
			}
		}
		if svc.POS != "" && !codes.Known(codes.KindPlaceOfService, svc.POS) {
			v.errf("VAL_046", path+".pos", "%s.pos %q is not a recognized place of service", path, svc.POS)
		}
		v.date("VAL_047", path+".dos", svc.DOS, false)
		if svc.PaymentStatus != "" && !codes.Known(codes.KindPaymentStatus, svc.PaymentStatus) {
			v.errf("VAL_048", path+".payment_status", "%s.payment_status %q is not one of P, D", path, svc.PaymentStatus)
		}
		if svc.TripNumber != "" && !numericRe.MatchString(svc.TripNumber) {
			v.errf("VAL_073", path+".trip_number", "%s.trip_number must be numeric, got %q", path, svc.TripNumber)
		}
		v.location(path+".pickup", svc.Pickup)
		v.location(path+".dropoff", svc.Dropoff)
	}
}

// chargeBalance verifies the claim total equals the sum of service charges
// within tolerance. Voids pass trivially when both sides are zero.
func (v *validator) chargeBalance(rec *claim.Record) {
	if len(rec.Services) == 0 {
		return
	}
	sum := rec.ServiceChargeSum()
	diff := rec.Claim.TotalCharge.Sub(sum).Abs()
	if diff.GreaterThan(chargeTolerance) {
		v.rep.Add(report.Issue{
			Severity:  report.SeverityError,
			Code:      "VAL_050",
			FieldPath: "claim.total_charge",
			Message:   "claim.total_charge does not match the sum of service charges",
			Expected:  sum.StringFixed(2),
			Actual:    rec.Claim.TotalCharge.StringFixed(2),
		})
	}
}

// mileageAdjacency enforces the service/mileage pairing rule: every mileage
// line must immediately follow a non-mileage transport line.
func (v *validator) mileageAdjacency(rec *claim.Record) {
	for i, svc := range rec.Services {
		if !codes.Mileage[svc.HCPCS] {
			continue
		}
		path := fmt.Sprintf("services[%d].hcpcs", i)
		if i == 0 {
			v.errf("BATCH_021", path, "mileage code %s appears as the first service line; it must follow a transport service", svc.HCPCS)
			continue
		}
		if prev := rec.Services[i-1]; codes.Mileage[prev.HCPCS] {
			v.errf("BATCH_022", path, "consecutive mileage lines: %s follows %s; each mileage line must follow a transport service", svc.HCPCS, prev.HCPCS)
		}
	}
}

// locationAmbiguity warns when pickup/dropoff appear at both the claim and
// the service level; downstream parsers may disagree on precedence.
func (v *validator) locationAmbiguity(rec *claim.Record) {
	amb := rec.Claim.Ambulance
	if amb == nil || (amb.Pickup == nil && amb.Dropoff == nil) {
		return
	}
	for i, svc := range rec.Services {
		// Cascaded locations are shared pointers; only caller-supplied
		// line-level locations are ambiguous.
		if (svc.Pickup != nil && svc.Pickup != amb.Pickup) || (svc.Dropoff != nil && svc.Dropoff != amb.Dropoff) {
			v.warnf("VAL_083", fmt.Sprintf("services[%d]", i),
				"pickup/dropoff supplied at both claim and service level; downstream parsers may disagree on precedence")
			return
		}
	}
}

// supervisingCoverage warns when a special-transport HCPCS has no
// supervising provider at either level.
func (v *validator) supervisingCoverage(rec *claim.Record) {
	for i, svc := range rec.Services {
		if !codes.SupervisingRequired[svc.HCPCS] {
			continue
		}
		if svc.SupervisingProvider == nil && rec.SupervisingProvider == nil {
			v.warnf("VAL_082", fmt.Sprintf("services[%d].supervising_provider", i),
				"HCPCS %s expects a supervising or attendant provider", svc.HCPCS)
		}
	}
}
