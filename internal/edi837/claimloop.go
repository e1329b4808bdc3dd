package edi837

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Softsensor-org/Kaizen/internal/claim"
	"github.com/Softsensor-org/Kaizen/internal/codes"
	"github.com/Softsensor-org/Kaizen/internal/x12"
)

// writeClaimLoop emits Loop 2300 and everything nested under it, in the
// companion-guide order.
func writeClaimLoop(w *x12.Writer, rec *claim.Record, opts Options) error {
	info := &rec.Claim

	// CLM
	clm05, err := w.Composite(pos2(info.POS), "B", info.FrequencyCode)
	if err != nil {
		return err
	}
	if err := w.Segment("CLM", info.ClmNumber, amount(info.TotalCharge), "", "", clm05,
		"Y", "A", "Y", "Y", "P", "OA"); err != nil {
		return err
	}

	// DTP*472 claim service date, ranged when from and to differ
	if info.To != "" && info.To != info.From {
		if err := w.Segment("DTP", "472", "RD8", d8(info.From)+"-"+d8(info.To)); err != nil {
			return err
		}
	} else {
		if err := w.Segment("DTP", "472", "D8", d8(info.From)); err != nil {
			return err
		}
	}

	// HI diagnosis codes
	if len(info.ICD10) > 0 {
		comps := make([]string, 0, len(info.ICD10))
		for i, code := range info.ICD10 {
			qual := "ABF"
			if i == 0 {
				qual = "ABK"
			}
			c, err := w.Composite(qual, code)
			if err != nil {
				return err
			}
			comps = append(comps, c)
		}
		if err := w.Segment("HI", comps...); err != nil {
			return err
		}
	}

	if err := writeCR1(w, info, opts); err != nil {
		return err
	}

	// Claim-level REFs
	if info.TrackingNumber != "" {
		if err := w.Segment("REF", "D9", info.TrackingNumber); err != nil {
			return err
		}
	}
	if codes.AdjustmentFrequencies[info.FrequencyCode] && info.OriginalClaimNumber != "" {
		if err := w.Segment("REF", "F8", info.OriginalClaimNumber); err != nil {
			return err
		}
	}
	if info.PatientAccount != "" {
		if err := w.Segment("REF", "EA", info.PatientAccount); err != nil {
			return err
		}
	}
	if info.AuthNumber != "" {
		if err := w.Segment("REF", "G1", info.AuthNumber); err != nil {
			return err
		}
	}

	if err := writeClaimK3(w, rec); err != nil {
		return err
	}

	// Member group NTE, always present
	g := info.MemberGroup
	groupNote := strings.Join([]string{
		"GRP-" + g.GroupID,
		"SGR-" + g.SubGroupID,
		"CLS-" + g.ClassID,
		"PLN-" + g.PlanID,
		"PRD-" + g.ProductID,
	}, ";")
	if err := w.Segment("NTE", "ADD", groupNote); err != nil {
		return err
	}

	// Claim-level trip descriptors, legacy mode only
	if !opts.UseCR1Locations {
		if amb := info.Ambulance; amb != nil {
			var parts []string
			if amb.TripNumber != "" {
				parts = append(parts, "TRIPNUM-"+padTrip(amb.TripNumber))
			}
			if amb.SpecialNeeds != "" {
				parts = append(parts, "SPECNEED-"+amb.SpecialNeeds)
			}
			if len(parts) > 0 {
				if err := w.Segment("NTE", "ADD", strings.Join(parts, ";")); err != nil {
					return err
				}
			}
		}
	}

	// Denied claims carry an adjustment and the standard remark code.
	if info.PaymentStatus == "D" {
		cas := info.ClaimCAS
		if len(cas) == 0 {
			cas = []claim.CASAdjustment{{Group: "CO", Reason: "45", Amount: info.TotalCharge}}
		}
		for _, c := range cas {
			if err := writeCAS(w, c); err != nil {
				return err
			}
		}
		moa := info.MOACode
		if moa == "" {
			moa = "MA130"
		}
		if err := w.Segment("MOA", "", moa); err != nil {
			return err
		}
	}

	// Coordination-of-benefits amounts
	if len(rec.OtherPayers) > 0 {
		if err := writeAMT(w, "EAF", info.RemainingLiability); err != nil {
			return err
		}
		if err := writeAMT(w, "B6", info.AllowedAmount); err != nil {
			return err
		}
		if err := writeAMT(w, "AU", info.CoveredAmount); err != nil {
			return err
		}
		if err := writeAMT(w, "F2", info.PatientPaidAmount); err != nil {
			return err
		}
	}

	// Claim lifecycle dates
	if err := writeDTP(w, "050", info.ReceiptDate); err != nil {
		return err
	}
	if err := writeDTP(w, "036", info.AdjudicationDate); err != nil {
		return err
	}
	if err := writeDTP(w, "573", info.PaymentDate); err != nil {
		return err
	}

	// Loop 2310A referring provider
	if rp := rec.ReferringProvider; rp != nil {
		role := rp.Role
		if role == "" {
			role = "DN"
		}
		if err := w.Segment("NM1", role, "1", rp.Name.Last, rp.Name.First, "", "", "", idQualifier("XX", rp.NPI), rp.NPI); err != nil {
			return err
		}
		if rp.AtypicalID != "" {
			if err := w.Segment("REF", "G2", rp.AtypicalID); err != nil {
				return err
			}
		}
	}

	// Loop 2310B rendering provider
	if rp := rec.RenderingProvider; rp != nil {
		if err := w.Segment("NM1", "82", "2", rp.Name, "", "", "", "", idQualifier("XX", rp.NPI), rp.NPI); err != nil {
			return err
		}
		if rp.Taxonomy != "" {
			if err := w.Segment("PRV", "PE", "PXC", rp.Taxonomy); err != nil {
				return err
			}
		}
		if rp.AtypicalID != "" {
			if err := w.Segment("REF", "G2", rp.AtypicalID); err != nil {
				return err
			}
		}
		if rp.LicenseNum != "" {
			if err := w.Segment("REF", "0B", rp.LicenseNum); err != nil {
				return err
			}
		}
	}

	// Loop 2310C service facility
	if sf := rec.ServiceFacility; sf != nil {
		if err := w.Segment("NM1", "77", "2", sf.Name, "", "", "", "", idQualifier("XX", sf.NPI), sf.NPI); err != nil {
			return err
		}
		if err := writeAddress(w, sf.Address); err != nil {
			return err
		}
	}

	// Loop 2310D supervising provider
	if sp := rec.SupervisingProvider; sp != nil {
		if err := w.Segment("NM1", "DQ", "1", sp.Name.Last, sp.Name.First, "", "", "", idQualifier("XX", sp.NPI), sp.NPI); err != nil {
			return err
		}
		if sp.LicenseNum != "" {
			if err := w.Segment("REF", "0B", sp.LicenseNum); err != nil {
				return err
			}
		}
		if amb := info.Ambulance; amb != nil && amb.TripNumber != "" {
			if err := w.Segment("REF", "LU", padTrip(amb.TripNumber)); err != nil {
				return err
			}
		}
	}

	// Loops 2310E/F claim-level pickup and dropoff, legacy mode only
	if !opts.UseCR1Locations {
		if amb := info.Ambulance; amb != nil {
			if err := writeLocationLoop(w, "PW", amb.Pickup); err != nil {
				return err
			}
			if err := writeLocationLoop(w, "45", amb.Dropoff); err != nil {
				return err
			}
		}
	}

	// Loops 2320/2330 per other payer
	for _, op := range rec.OtherPayers {
		resp := op.ResponsibilityCode
		if resp == "" {
			resp = "S"
		}
		if err := w.Segment("SBR", resp, "18", "", "", "", "", "", "", "MC"); err != nil {
			return err
		}
		for _, c := range op.CAS {
			if err := writeCAS(w, c); err != nil {
				return err
			}
		}
		if err := w.Segment("AMT", "D", amount(op.PaidAmount)); err != nil {
			return err
		}
		if err := w.Segment("OI", "", "", "Y", "", "", "Y"); err != nil {
			return err
		}
		if err := w.Segment("NM1", "PR", "2", op.PayerName, "", "", "", "", "PI", op.PayerID); err != nil {
			return err
		}
	}

	// Loop 2400 per service
	for i, svc := range rec.Services {
		if err := writeServiceLoop(w, rec, svc, i+1, opts); err != nil {
			return err
		}
	}
	return nil
}

// writeCR1 emits the ambulance transport segment. CR109/CR110 carry encoded
// pickup/dropoff descriptors in the default mode; legacy mode stops at CR108.
func writeCR1(w *x12.Writer, info *claim.Info, opts Options) error {
	amb := info.Ambulance
	if amb == nil {
		return nil
	}
	weight := ""
	if !amb.PatientWeight.IsZero() {
		weight = qty(amb.PatientWeight)
	}
	mileUnit, miles := "", ""
	if amb.Mileage != nil {
		mileUnit, miles = "DH", qty(*amb.Mileage)
	}
	elements := []string{
		amb.WeightUnit, weight,
		amb.TransportCode, amb.TransportReason,
		mileUnit, miles,
		"", "",
	}
	if opts.UseCR1Locations {
		elements = append(elements, locationDescriptor(amb.Pickup), locationDescriptor(amb.Dropoff))
	} else {
		elements[7] = padTrip(amb.TripNumber)
	}
	empty := true
	for _, el := range elements {
		if el != "" {
			empty = false
			break
		}
	}
	if empty {
		return nil
	}
	return w.Segment("CR1", elements...)
}

// locationDescriptor flattens a location into the comma-separated CR109/
// CR110 descriptor form.
func locationDescriptor(loc *claim.Location) string {
	if loc == nil {
		return ""
	}
	line := loc.Line1
	if loc.Line2 != "" {
		line += " " + loc.Line2
	}
	parts := []string{line, loc.City, loc.State, loc.Zip}
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// k3Entry is one K3 occurrence: tagged values joined with semicolons. The
// emitter is table-driven so payer-specific additions stay data changes.
type k3Entry struct {
	parts []string
}

func (e *k3Entry) add(tag, value string) {
	if value != "" {
		e.parts = append(e.parts, tag+"-"+value)
	}
}

func (e *k3Entry) write(w *x12.Writer) error {
	if len(e.parts) == 0 {
		return nil
	}
	return w.Segment("K3", strings.Join(e.parts, ";"))
}

// writeClaimK3 emits the claim-level K3 occurrences in the payer-required
// order: payment status, portal tracking, network standing, submission
// channel, lifecycle dates, then the rendering provider address block.
func writeClaimK3(w *x12.Writer, rec *claim.Record) error {
	info := &rec.Claim

	var pyms k3Entry
	pyms.add("PYMS", info.PaymentStatus)

	var tracking k3Entry
	tracking.add("SUB", info.SubscriberInternalID)
	tracking.add("IPAD", info.IPAddress)
	tracking.add("USER", info.UserID)

	var network k3Entry
	network.add("SNWK", info.NetworkIndicator)

	var channel k3Entry
	if info.SubmissionChannel != "" {
		channel.add("TRPN", "ASPUFE"+info.SubmissionChannel)
	}

	var dates k3Entry
	dates.add("DREC", d8(info.ReceiptDate))
	dates.add("DADJ", d8(info.AdjudicationDate))
	dates.add("PAIDDT", d8(info.PaymentDate))

	var addrLines, addrCity k3Entry
	if rp := rec.RenderingProvider; rp != nil && rp.Address != nil {
		addrLines.add("AL1", rp.Address.Line1)
		addrLines.add("AL2", rp.Address.Line2)
		addrCity.add("CY", rp.Address.City)
		addrCity.add("ST", rp.Address.State)
		addrCity.add("ZIP", rp.Address.Zip)
	}

	for _, e := range []*k3Entry{&pyms, &tracking, &network, &channel, &dates, &addrLines, &addrCity} {
		if err := e.write(w); err != nil {
			return err
		}
	}
	return nil
}

// writeCAS emits one claim adjustment.
func writeCAS(w *x12.Writer, c claim.CASAdjustment) error {
	return w.Segment("CAS", c.Group, c.Reason, amount(c.Amount), c.Quantity)
}

// writeAMT emits one amount segment when the value is present.
func writeAMT(w *x12.Writer, qualifier string, d *decimal.Decimal) error {
	if d == nil {
		return nil
	}
	return w.Segment("AMT", qualifier, amount(*d))
}

// writeDTP emits one date segment when the value is present.
func writeDTP(w *x12.Writer, qualifier, iso string) error {
	if iso == "" {
		return nil
	}
	return w.Segment("DTP", qualifier, "D8", d8(iso))
}

// writeLocationLoop emits the NM1/N3/N4 block for a pickup (PW) or dropoff
// (45) party.
func writeLocationLoop(w *x12.Writer, qualifier string, loc *claim.Location) error {
	if loc == nil {
		return nil
	}
	if err := w.Segment("NM1", qualifier, "2"); err != nil {
		return err
	}
	if err := w.Segment("N3", loc.Line1, loc.Line2); err != nil {
		return err
	}
	return w.Segment("N4", loc.City, loc.State, loc.Zip)
}

// pos2 left-pads a place-of-service code to two digits.
func pos2(pos string) string {
	if len(pos) == 1 {
		return "0" + pos
	}
	return pos
}
