package claim

import "github.com/shopspring/decimal"

// Default values applied by the enricher.
const (
	DefaultPOS       = "41" // ambulance, land
	DefaultFrequency = "1"  // original claim
)

// Enricher fills cascading defaults and derived fields on a Record. Rules
// run in a fixed order and the whole transformation is idempotent. The
// enricher never invents member group, payment status, or submission
// channel values; missing ones stay missing for the validator to report.
type Enricher struct {
	POS           string
	FrequencyCode string
}

// NewEnricher returns an Enricher with the standard defaults.
func NewEnricher() *Enricher {
	return &Enricher{POS: DefaultPOS, FrequencyCode: DefaultFrequency}
}

// Enrich applies all enrichment rules to the record in place.
func (e *Enricher) Enrich(rec *Record) {
	e.enrichClaim(&rec.Claim)
	e.enrichServices(rec)
	e.deriveRenderingProvider(rec)
}

func (e *Enricher) enrichClaim(info *Info) {
	if info.To == "" {
		info.To = info.From
	}
	if info.POS == "" {
		info.POS = e.POS
	}
	if info.FrequencyCode == "" {
		switch info.AdjustmentType {
		case "replacement":
			info.FrequencyCode = "7"
		case "void":
			info.FrequencyCode = "8"
		default:
			info.FrequencyCode = e.FrequencyCode
		}
	}
}

func (e *Enricher) enrichServices(rec *Record) {
	info := &rec.Claim
	amb := info.Ambulance

	for _, svc := range rec.Services {
		if svc.DOS == "" {
			svc.DOS = info.From
		}
		if svc.POS == "" {
			svc.POS = info.POS
		}
		if svc.Units == nil {
			one := decimal.NewFromInt(1)
			svc.Units = &one
		}
		if svc.PaymentStatus == "" {
			svc.PaymentStatus = info.PaymentStatus
		}
		if amb != nil {
			if svc.TripNumber == "" {
				svc.TripNumber = amb.TripNumber
			}
			if svc.Pickup == nil && amb.Pickup != nil {
				svc.Pickup = amb.Pickup
			}
			if svc.Dropoff == nil && amb.Dropoff != nil {
				svc.Dropoff = amb.Dropoff
			}
		}
	}
}

// deriveRenderingProvider copies the billing provider into the rendering
// slot when the caller supplied neither an NPI nor a name, so every claim
// carries an identified renderer.
func (e *Enricher) deriveRenderingProvider(rec *Record) {
	rp := rec.RenderingProvider
	if rp != nil && (rp.NPI != "" || rp.Name != "") {
		return
	}
	bp := rec.BillingProvider
	rec.RenderingProvider = &bp
}
