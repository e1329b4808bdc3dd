// Package claim defines the structured claim, service, and trip records the
// pipeline operates on, plus the enricher that fills cascading defaults.
// Records are plain data: unknown input fields are dropped by JSON decoding
// and every optional field is a pointer or a zero value.
package claim

import (
	"github.com/shopspring/decimal"
)

// Submitter is the party responsible for the submission (Loop 1000A).
type Submitter struct {
	Name         string `json:"name"`
	ID           string `json:"id"`
	IDQualifier  string `json:"id_qualifier,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
}

// Receiver is the destination payer (Loop 1000B and 2010BB).
type Receiver struct {
	PayerName string `json:"payer_name"`
	PayerID   string `json:"payer_id"`
}

// Address is a postal address. Line2 is optional.
type Address struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2,omitempty"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// Provider is an organizational provider: billing, rendering, or a service
// facility.
type Provider struct {
	NPI        string   `json:"npi"`
	Name       string   `json:"name"`
	TaxID      string   `json:"tax_id,omitempty"`
	Taxonomy   string   `json:"taxonomy,omitempty"`
	Address    *Address `json:"address,omitempty"`
	AtypicalID string   `json:"atypical_id,omitempty"`
	LicenseNum string   `json:"license_number,omitempty"`
}

// PersonName is a subscriber or individual provider name.
type PersonName struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// Subscriber is the member the trips were furnished to.
type Subscriber struct {
	MemberID     string     `json:"member_id"`
	Name         PersonName `json:"name"`
	DOB          string     `json:"dob,omitempty"` // yyyy-mm-dd
	Sex          string     `json:"sex,omitempty"` // F, M, U
	Relationship string     `json:"relationship,omitempty"`
	Address      *Address   `json:"address,omitempty"`
}

// SupervisingProvider is the individual overseeing special-transport
// services (Loops 2310D / 2420D).
type SupervisingProvider struct {
	Name       PersonName `json:"name"`
	NPI        string     `json:"npi,omitempty"`
	Taxonomy   string     `json:"taxonomy,omitempty"`
	LicenseNum string     `json:"license_number,omitempty"`
}

// ReferringProvider is the referring or primary care provider (Loop 2310A).
// Role is DN (referring) or P3 (primary care).
type ReferringProvider struct {
	Name       PersonName `json:"name"`
	NPI        string     `json:"npi,omitempty"`
	Role       string     `json:"role,omitempty"`
	AtypicalID string     `json:"atypical_id,omitempty"`
}

// PayToPlan is the optional Loop 2010AC party.
type PayToPlan struct {
	Name    string   `json:"name"`
	PayerID string   `json:"payer_id"`
	Address *Address `json:"address,omitempty"`
}

// MemberGroup is the five-part member group structure the payer requires on
// every claim.
type MemberGroup struct {
	GroupID    string `json:"group_id"`
	SubGroupID string `json:"sub_group_id"`
	ClassID    string `json:"class_id"`
	PlanID     string `json:"plan_id"`
	ProductID  string `json:"product_id"`
}

// Empty reports whether no group field is populated.
func (g MemberGroup) Empty() bool {
	return g.GroupID == "" && g.SubGroupID == "" && g.ClassID == "" &&
		g.PlanID == "" && g.ProductID == ""
}

// Complete reports whether all five group fields are populated.
func (g MemberGroup) Complete() bool {
	return g.GroupID != "" && g.SubGroupID != "" && g.ClassID != "" &&
		g.PlanID != "" && g.ProductID != ""
}

// Location is a pickup or dropoff site, with optional arrival and departure
// times (HHMM).
type Location struct {
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
	LocationCode  string `json:"location_code,omitempty"`
	ArrivalTime   string `json:"arrival_time,omitempty"`
	DepartureTime string `json:"departure_time,omitempty"`
}

// Ambulance carries claim-level transport details (CR1 and trip K3/NTE
// content).
type Ambulance struct {
	WeightUnit      string           `json:"weight_unit,omitempty"` // LB, KG
	PatientWeight   decimal.Decimal  `json:"patient_weight,omitempty"`
	TransportCode   string           `json:"transport_code,omitempty"`   // A-E
	TransportReason string           `json:"transport_reason,omitempty"` // A, B, C, D, DH, E
	Mileage         *decimal.Decimal `json:"mileage,omitempty"`
	TripNumber      string           `json:"trip_number,omitempty"` // numeric, padded to 9 digits on emit
	SpecialNeeds    string           `json:"special_needs,omitempty"` // Y, N
	Pickup          *Location        `json:"pickup,omitempty"`
	Dropoff         *Location        `json:"dropoff,omitempty"`
}

// CASAdjustment is one reason-coded monetary adjustment.
type CASAdjustment struct {
	Group    string          `json:"group"` // CO, PR, OA, PI
	Reason   string          `json:"reason"`
	Amount   decimal.Decimal `json:"amount"`
	Quantity string          `json:"quantity,omitempty"`
}

// LineDates are the adjudication lifecycle dates of a service line.
type LineDates struct {
	Receipt      string `json:"receipt,omitempty"`
	Adjudication string `json:"adjudication,omitempty"`
	Payment      string `json:"payment,omitempty"`
}

// Adjudication is prior-payer line adjudication detail (Loop 2430).
type Adjudication struct {
	PayerID    string           `json:"payer_id"`
	PaidAmount decimal.Decimal  `json:"paid_amount"`
	PaidUnits  *decimal.Decimal `json:"paid_units,omitempty"`
	LineCAS    []CASAdjustment  `json:"line_cas,omitempty"`
	LineDates  LineDates        `json:"line_dates,omitempty"`
}

// Service is one service line (Loop 2400).
type Service struct {
	HCPCS     string           `json:"hcpcs"`
	Modifiers []string         `json:"modifiers,omitempty"`
	Charge    decimal.Decimal  `json:"charge"`
	Units     *decimal.Decimal `json:"units,omitempty"`
	DOS       string           `json:"dos,omitempty"`
	POS       string           `json:"pos,omitempty"`
	Emergency bool             `json:"emergency,omitempty"`

	Pickup     *Location `json:"pickup,omitempty"`
	Dropoff    *Location `json:"dropoff,omitempty"`
	TripNumber string    `json:"trip_number,omitempty"`

	SupervisingProvider *SupervisingProvider `json:"supervising_provider,omitempty"`
	Adjudication        *Adjudication        `json:"adjudication,omitempty"`
	PaymentStatus       string               `json:"payment_status,omitempty"` // P, D

	// PassThroughPayee is accepted for mass-transit monthly-pass trips but
	// is not yet consumed by grouping or adjudication.
	PassThroughPayee string `json:"pass_through_payee,omitempty"`
}

// UnitsOrDefault returns the line units, defaulting to 1 when unset.
func (s *Service) UnitsOrDefault() decimal.Decimal {
	if s.Units == nil {
		return decimal.NewFromInt(1)
	}
	return *s.Units
}

// Info is the claim-level block of a Record.
type Info struct {
	ClmNumber           string          `json:"clm_number"`
	TotalCharge         decimal.Decimal `json:"total_charge"`
	From                string          `json:"from"`
	To                  string          `json:"to,omitempty"`
	POS                 string          `json:"pos,omitempty"`
	FrequencyCode       string          `json:"frequency_code,omitempty"`
	AdjustmentType      string          `json:"adjustment_type,omitempty"` // legacy: replacement, void
	OriginalClaimNumber string          `json:"original_claim_number,omitempty"`

	PaymentStatus     string `json:"payment_status,omitempty"`     // P, D
	SubmissionChannel string `json:"submission_channel,omitempty"` // ELECTRONIC, PAPER
	NetworkIndicator  string `json:"rendering_network_indicator,omitempty"` // I, O

	MemberGroup MemberGroup `json:"member_group"`
	Ambulance   *Ambulance  `json:"ambulance,omitempty"`

	ReceiptDate      string `json:"receipt_date,omitempty"`
	AdjudicationDate string `json:"adjudication_date,omitempty"`
	PaymentDate      string `json:"payment_date,omitempty"`

	TrackingNumber string `json:"tracking_number,omitempty"`
	PatientAccount string `json:"patient_account,omitempty"`
	AuthNumber     string `json:"auth_number,omitempty"`

	SubscriberInternalID string `json:"subscriber_internal_id,omitempty"`
	IPAddress            string `json:"ip_address,omitempty"`
	UserID               string `json:"user_id,omitempty"`

	ICD10 []string `json:"icd10,omitempty"`

	// Coordination-of-benefits amounts, emitted when other payers are
	// present.
	AllowedAmount      *decimal.Decimal `json:"allowed_amount,omitempty"`
	CoveredAmount      *decimal.Decimal `json:"covered_amount,omitempty"`
	PatientPaidAmount  *decimal.Decimal `json:"patient_paid_amount,omitempty"`
	RemainingLiability *decimal.Decimal `json:"remaining_liability,omitempty"`

	// ClaimCAS overrides the automatic CAS*CO*45 fallback for denied claims.
	ClaimCAS []CASAdjustment `json:"claim_cas,omitempty"`
	MOACode  string          `json:"moa_code,omitempty"`
}

// OtherPayer is one coordination-of-benefits payer (Loops 2320/2330).
type OtherPayer struct {
	PayerID            string          `json:"payer_id"`
	PayerName          string          `json:"payer_name"`
	ResponsibilityCode string          `json:"responsibility_code,omitempty"` // SBR01: P, S, T
	PaidAmount         decimal.Decimal `json:"paid_amount"`
	CAS                []CASAdjustment `json:"cas,omitempty"`
}

// Record is the root claim record for the single-claim flow.
type Record struct {
	Submitter           Submitter            `json:"submitter"`
	Receiver            Receiver             `json:"receiver"`
	BillingProvider     Provider             `json:"billing_provider"`
	Subscriber          Subscriber           `json:"subscriber"`
	RenderingProvider   *Provider            `json:"rendering_provider,omitempty"`
	SupervisingProvider *SupervisingProvider `json:"supervising_provider,omitempty"`
	ReferringProvider   *ReferringProvider   `json:"referring_provider,omitempty"`
	ServiceFacility     *Provider            `json:"service_facility,omitempty"`
	PayToPlan           *PayToPlan           `json:"pay_to_plan,omitempty"`
	Claim               Info                 `json:"claim"`
	Services            []*Service           `json:"services"`
	OtherPayers         []*OtherPayer        `json:"other_payers,omitempty"`
}

// ServiceChargeSum returns the sum of all service line charges.
func (r *Record) ServiceChargeSum() decimal.Decimal {
	sum := decimal.Zero
	for _, svc := range r.Services {
		sum = sum.Add(svc.Charge)
	}
	return sum
}

// DedupKey is the NEMIS duplicate criterion: claim number, frequency code,
// and original claim number.
func (r *Record) DedupKey() [3]string {
	return [3]string{r.Claim.ClmNumber, r.Claim.FrequencyCode, r.Claim.OriginalClaimNumber}
}

// Trip is a flattened single service event, the batch-processor input.
type Trip struct {
	Submitter           Submitter            `json:"submitter"`
	Receiver            Receiver             `json:"receiver"`
	BillingProvider     Provider             `json:"billing_provider"`
	RenderingProvider   *Provider            `json:"rendering_provider,omitempty"`
	SupervisingProvider *SupervisingProvider `json:"supervising_provider,omitempty"`
	Member              Subscriber           `json:"member"`

	DOS     string   `json:"dos"`
	Service *Service `json:"service"`

	Pickup  *Location `json:"pickup,omitempty"`
	Dropoff *Location `json:"dropoff,omitempty"`

	ClmNumber           string `json:"clm_number,omitempty"`
	FrequencyCode       string `json:"frequency_code,omitempty"`
	OriginalClaimNumber string `json:"original_claim_number,omitempty"`

	POS               string      `json:"pos,omitempty"`
	PaymentStatus     string      `json:"payment_status,omitempty"`
	SubmissionChannel string      `json:"submission_channel,omitempty"`
	NetworkIndicator  string      `json:"rendering_network_indicator,omitempty"`
	MemberGroup       MemberGroup `json:"member_group"`
	Ambulance         *Ambulance  `json:"ambulance,omitempty"`

	ReceiptDate      string `json:"receipt_date,omitempty"`
	AdjudicationDate string `json:"adjudication_date,omitempty"`
	PaymentDate      string `json:"payment_date,omitempty"`

	TrackingNumber string `json:"tracking_number,omitempty"`
	PatientAccount string `json:"patient_account,omitempty"`
	AuthNumber     string `json:"auth_number,omitempty"`
}
