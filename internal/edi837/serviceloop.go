package edi837

import (
	"fmt"
	"strings"

	"github.com/Softsensor-org/Kaizen/internal/claim"
	"github.com/Softsensor-org/Kaizen/internal/x12"
)

// writeServiceLoop emits one Loop 2400: LX, SV1, the line date, K3 before
// any 2420 provider loops, then the provider and adjudication loops.
func writeServiceLoop(w *x12.Writer, rec *claim.Record, svc *claim.Service, lineNo int, opts Options) error {
	if err := w.Segment("LX", fmt.Sprintf("%d", lineNo)); err != nil {
		return err
	}

	procComps := append([]string{"HC", svc.HCPCS}, svc.Modifiers...)
	proc, err := w.Composite(procComps...)
	if err != nil {
		return err
	}

	// Emergency rides in SV111; unused SV105-SV110 stay empty and trim away
	// when nothing follows them.
	emergency := ""
	if svc.Emergency {
		emergency = "Y"
	}
	if err := w.Segment("SV1", proc, amount(svc.Charge), "UN", qty(svc.UnitsOrDefault()),
		"", "", svc.POS, "", "", "", emergency); err != nil {
		return err
	}

	if svc.DOS != "" {
		if err := w.Segment("DTP", "472", "D8", d8(svc.DOS)); err != nil {
			return err
		}
	}

	// K3 must precede every 2420 loop.
	var pyms k3Entry
	pyms.add("PYMS", svc.PaymentStatus)
	if err := pyms.write(w); err != nil {
		return err
	}

	// Service-level trip notes, legacy mode only
	if !opts.UseCR1Locations {
		var parts []string
		if svc.Pickup != nil {
			if svc.Pickup.LocationCode != "" {
				parts = append(parts, "PULOC-"+svc.Pickup.LocationCode)
			}
			if svc.Pickup.DepartureTime != "" {
				parts = append(parts, "PUTIME-"+svc.Pickup.DepartureTime)
			}
		}
		if svc.Dropoff != nil {
			if svc.Dropoff.LocationCode != "" {
				parts = append(parts, "DOLOC-"+svc.Dropoff.LocationCode)
			}
			if svc.Dropoff.ArrivalTime != "" {
				parts = append(parts, "DOTIME-"+svc.Dropoff.ArrivalTime)
			}
		}
		if len(parts) > 0 {
			if err := w.Segment("NTE", "ADD", strings.Join(parts, ";")); err != nil {
				return err
			}
		}
	}

	// Loop 2420D line-level supervising provider
	if sp := svc.SupervisingProvider; sp != nil {
		if err := w.Segment("NM1", "DQ", "1", sp.Name.Last, sp.Name.First, "", "", "", idQualifier("XX", sp.NPI), sp.NPI); err != nil {
			return err
		}
		if sp.LicenseNum != "" {
			if err := w.Segment("REF", "0B", sp.LicenseNum); err != nil {
				return err
			}
		}
		if svc.TripNumber != "" {
			if err := w.Segment("REF", "LU", padTrip(svc.TripNumber)); err != nil {
				return err
			}
		}
	}

	// Loops 2420G/H line-level pickup and dropoff, legacy mode only
	if !opts.UseCR1Locations {
		if err := writeLocationLoop(w, "PW", svc.Pickup); err != nil {
			return err
		}
		if err := writeLocationLoop(w, "45", svc.Dropoff); err != nil {
			return err
		}
	}

	return writeLineAdjudication(w, rec, svc, proc)
}

// writeLineAdjudication emits Loop 2430 when prior-payer detail exists, and
// synthesizes the denial adjustment when a denied line carries none.
func writeLineAdjudication(w *x12.Writer, rec *claim.Record, svc *claim.Service, proc string) error {
	adj := svc.Adjudication
	if adj == nil {
		// A denied line must still carry an adjustment for the payer's
		// duplicate of the claim-level CAS rule.
		if svc.PaymentStatus == "D" {
			return writeCAS(w, claim.CASAdjustment{Group: "CO", Reason: "45", Amount: svc.Charge})
		}
		return nil
	}

	payerID := adj.PayerID
	if payerID == "" {
		payerID = rec.Receiver.PayerID
	}
	paidUnits := ""
	if adj.PaidUnits != nil {
		paidUnits = qty(*adj.PaidUnits)
	}
	if err := w.Segment("SVD", payerID, amount(adj.PaidAmount), proc, "", paidUnits); err != nil {
		return err
	}

	cas := adj.LineCAS
	if len(cas) == 0 && svc.PaymentStatus == "D" {
		cas = []claim.CASAdjustment{{Group: "CO", Reason: "45", Amount: svc.Charge}}
	}
	for _, c := range cas {
		if err := writeCAS(w, c); err != nil {
			return err
		}
	}

	return writeDTP(w, "573", adj.LineDates.Payment)
}
