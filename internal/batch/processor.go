// Package batch groups atomic trip records into claims, aggregates
// submission channels, detects duplicates, and drives the per-claim pipeline
// into a single shared interchange envelope.
package batch

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Softsensor-org/Kaizen/internal/claim"
	"github.com/Softsensor-org/Kaizen/internal/report"
)

// groupKey identifies the claim a trip belongs to.
type groupKey struct {
	BillingNPI   string
	RenderingNPI string
	DOS          string
	MemberID     string
}

// Group folds an ordered sequence of trips into claim records. Trips with
// the same (billing NPI, rendering NPI, date of service, member) combine
// into one claim with their services in input order; claim order follows
// the first appearance of each key. Grouping issues land on rep. The second
// return marks the indices of claims that collided on the NEMIS duplicate
// criterion and must not be emitted.
func Group(trips []*claim.Trip, rep *report.Report) ([]*claim.Record, map[int]bool) {
	if len(trips) == 0 {
		rep.AddError("BATCH_001", "trips", "no trips provided in batch")
		return nil, nil
	}
	if !validateTrips(trips, rep) {
		return nil, nil
	}

	var order []groupKey
	groups := map[groupKey][]*claim.Trip{}
	for _, t := range trips {
		key := groupKey{
			BillingNPI: t.BillingProvider.NPI,
			DOS:        t.DOS,
			MemberID:   t.Member.MemberID,
		}
		if t.RenderingProvider != nil {
			key.RenderingNPI = t.RenderingProvider.NPI
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], t)
	}

	recs := make([]*claim.Record, 0, len(order))
	seq := 0
	for _, key := range order {
		group := groups[key]
		seq++
		rec := buildClaim(key, group, seq, rep)
		if len(group) > 1 {
			rep.AddInfo("BATCH_100", "trips", fmt.Sprintf(
				"grouped %d trips into claim %s (dos=%s member=%s provider=%s)",
				len(group), rec.Claim.ClmNumber, key.DOS, key.MemberID, key.RenderingNPI))
		}
		recs = append(recs, rec)
	}

	return recs, detectDuplicates(recs, rep)
}

func validateTrips(trips []*claim.Trip, rep *report.Report) bool {
	ok := true
	for i, t := range trips {
		if t.DOS == "" {
			rep.AddError("BATCH_002", fmt.Sprintf("trips[%d].dos", i), "trip is missing the date of service")
			ok = false
		}
		if t.Member.MemberID == "" {
			rep.AddError("BATCH_003", fmt.Sprintf("trips[%d].member", i), "trip is missing the member")
			ok = false
		}
		if t.Service == nil {
			rep.AddError("BATCH_004", fmt.Sprintf("trips[%d].service", i), "trip is missing the service")
			ok = false
		} else if t.Service.HCPCS == "" {
			rep.AddError("BATCH_005", fmt.Sprintf("trips[%d].service.hcpcs", i), "trip service is missing the HCPCS code")
			ok = false
		}
	}
	return ok
}

// buildClaim assembles one claim record from a trip group. Claim-level data
// comes from the first trip; fields that must agree across the group are
// cross-checked.
func buildClaim(key groupKey, group []*claim.Trip, seq int, rep *report.Report) *claim.Record {
	first := group[0]

	rec := &claim.Record{
		Submitter:           first.Submitter,
		Receiver:            first.Receiver,
		BillingProvider:     first.BillingProvider,
		RenderingProvider:   first.RenderingProvider,
		SupervisingProvider: first.SupervisingProvider,
		Subscriber:          first.Member,
	}

	clmNumber := first.ClmNumber
	if clmNumber == "" {
		clmNumber = fmt.Sprintf("KZN-%s-%03d", stripDashes(key.DOS), seq)
	}

	rec.Claim = claim.Info{
		ClmNumber:           clmNumber,
		From:                key.DOS,
		To:                  key.DOS,
		POS:                 first.POS,
		FrequencyCode:       first.FrequencyCode,
		OriginalClaimNumber: first.OriginalClaimNumber,
		PaymentStatus:       first.PaymentStatus,
		NetworkIndicator:    first.NetworkIndicator,
		MemberGroup:         first.MemberGroup,
		Ambulance:           first.Ambulance,
		ReceiptDate:         first.ReceiptDate,
		AdjudicationDate:    first.AdjudicationDate,
		PaymentDate:         first.PaymentDate,
		TrackingNumber:      first.TrackingNumber,
		PatientAccount:      first.PatientAccount,
		AuthNumber:          first.AuthNumber,
	}

	total := decimal.Zero
	electronic := false
	anyChannel := ""
	for _, t := range group {
		svc := *t.Service
		if svc.Pickup == nil {
			svc.Pickup = t.Pickup
		}
		if svc.Dropoff == nil {
			svc.Dropoff = t.Dropoff
		}
		if svc.DOS == "" {
			svc.DOS = t.DOS
		}
		if svc.PaymentStatus == "" {
			svc.PaymentStatus = t.PaymentStatus
		}
		rec.Services = append(rec.Services, &svc)
		total = total.Add(svc.Charge)

		switch t.SubmissionChannel {
		case "ELECTRONIC":
			electronic = true
		case "":
		default:
			anyChannel = t.SubmissionChannel
		}

		if t.MemberGroup != first.MemberGroup {
			rep.AddError("BATCH_030", "trips.member_group", fmt.Sprintf(
				"claim %s: member_group disagrees across grouped trips", clmNumber))
		}
		if t.PaymentStatus != first.PaymentStatus {
			rep.AddError("BATCH_030", "trips.payment_status", fmt.Sprintf(
				"claim %s: payment_status disagrees across grouped trips", clmNumber))
		}
		if t.NetworkIndicator != first.NetworkIndicator {
			rep.AddError("BATCH_030", "trips.rendering_network_indicator", fmt.Sprintf(
				"claim %s: rendering_network_indicator disagrees across grouped trips", clmNumber))
		}
	}
	rec.Claim.TotalCharge = total

	// ELECTRONIC wins when any trip in the group reported it.
	if electronic {
		rec.Claim.SubmissionChannel = "ELECTRONIC"
	} else if anyChannel != "" {
		rec.Claim.SubmissionChannel = anyChannel
	}

	return rec
}

// detectDuplicates applies the NEMIS criterion across the grouped claims
// before any emission happens, returning the colliding indices.
func detectDuplicates(recs []*claim.Record, rep *report.Report) map[int]bool {
	seen := map[[3]string]bool{}
	excluded := map[int]bool{}
	for i, rec := range recs {
		key := rec.DedupKey()
		// Enrichment has not run yet; an unset frequency code is an
		// original claim for duplicate purposes.
		if key[1] == "" {
			key[1] = claim.DefaultFrequency
		}
		if seen[key] {
			rep.AddError("BATCH_010", fmt.Sprintf("claims[%d]", i), fmt.Sprintf(
				"duplicate claim per NEMIS criteria: clm_number=%s frequency_code=%s original_claim_number=%s",
				key[0], key[1], key[2]))
			excluded[i] = true
			continue
		}
		seen[key] = true
	}
	return excluded
}

func stripDashes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '-' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
