// Package codes holds the closed code tables used across the pipeline:
// places of service, ambulance transport codes, HCPCS procedure codes,
// origin/destination modifiers, frequency codes, and payer presets. Tables
// are built once at init and never mutated.
package codes

import "sort"

// Kind names a lookup table.
type Kind string

const (
	KindPlaceOfService    Kind = "pos"
	KindHCPCS             Kind = "hcpcs"
	KindModifier          Kind = "modifier"
	KindFrequency         Kind = "frequency"
	KindTransportCode     Kind = "transport_code"
	KindTransportReason   Kind = "transport_reason"
	KindWeightUnit        Kind = "weight_unit"
	KindSex               Kind = "sex"
	KindNetworkIndicator  Kind = "network_indicator"
	KindSubmissionChannel Kind = "submission_channel"
	KindPaymentStatus     Kind = "payment_status"
)

// PlacesOfService covers the ambulance codes plus the clinical settings a
// NEMT trip may terminate at.
var PlacesOfService = map[string]string{
	"02": "Telehealth",
	"11": "Office",
	"12": "Home",
	"21": "Inpatient Hospital",
	"22": "On Campus-Outpatient Hospital",
	"23": "Emergency Room - Hospital",
	"31": "Skilled Nursing Facility",
	"32": "Nursing Facility",
	"33": "Custodial Care Facility",
	"41": "Ambulance - Land",
	"42": "Ambulance - Air or Water",
	"49": "Independent Clinic",
	"50": "Federally Qualified Health Center",
	"53": "Community Mental Health Center",
	"62": "Comprehensive Outpatient Rehabilitation Facility",
	"65": "End-Stage Renal Disease Treatment Facility",
	"71": "Public Health Clinic",
	"72": "Rural Health Clinic",
	"99": "Other Place of Service",
}

// HCPCS is the NEMT procedure code set: the A0021-A0436 ambulance series and
// the T2xxx non-emergency transportation series.
var HCPCS = map[string]string{
	"A0021": "Ambulance service, outside state per mile, transport",
	"A0080": "Non-emergency transportation, per mile - vehicle provided by volunteer",
	"A0090": "Non-emergency transportation, per mile - vehicle provided by individual",
	"A0100": "Non-emergency transportation; taxi",
	"A0110": "Non-emergency transportation and bus, intra- or inter-state carrier",
	"A0120": "Non-emergency transportation: mini-bus, mountain area transports",
	"A0130": "Non-emergency transportation: wheelchair van",
	"A0140": "Non-emergency transportation and air travel (private or commercial) intra- or inter-state",
	"A0160": "Non-emergency transportation: per mile - case worker or social worker",
	"A0170": "Transportation ancillary: parking fees, tolls, other",
	"A0180": "Non-emergency transportation: ancillary: lodging-recipient",
	"A0190": "Non-emergency transportation: ancillary: meals-recipient",
	"A0200": "Non-emergency transportation: ancillary: lodging-escort",
	"A0210": "Non-emergency transportation: ancillary: meals-escort",
	"A0225": "Ambulance service, neonatal transport, base rate, emergency transport",
	"A0380": "BLS mileage (per mile)",
	"A0382": "BLS routine disposable supplies",
	"A0384": "BLS specialized service disposable supplies",
	"A0390": "ALS mileage (per mile)",
	"A0392": "ALS specialized service disposable supplies",
	"A0394": "ALS specialized service mileage",
	"A0396": "ALS specialized service; defibrillation",
	"A0398": "ALS routine disposable supplies",
	"A0420": "Ambulance waiting time (ALS or BLS)",
	"A0422": "Ambulance (ALS or BLS) oxygen and oxygen supplies, life sustaining situation",
	"A0424": "Extra ambulance attendant, ground (ALS or BLS) or air",
	"A0425": "Ground mileage, per statute mile",
	"A0426": "Ambulance service, advanced life support, non-emergency transport, level 1 (ALS 1)",
	"A0427": "Ambulance service, advanced life support, emergency transport, level 1 (ALS 1 - emergency)",
	"A0428": "Ambulance service, basic life support, non-emergency transport (BLS)",
	"A0429": "Ambulance service, basic life support, emergency transport (BLS - emergency)",
	"A0430": "Ambulance service, conventional air services, transport, one way (fixed wing)",
	"A0431": "Ambulance service, conventional air services, transport, one way (rotary wing)",
	"A0432": "Paramedic intercept (PI), rural area, transport furnished by a volunteer ambulance company",
	"A0433": "Advanced life support, level 2 (ALS 2)",
	"A0434": "Specialty care transport (SCT)",
	"A0435": "Fixed wing air mileage, per statute mile",
	"A0436": "Rotary wing air mileage, per statute mile",
	"T2001": "Non-emergency transportation; patient attendant/escort",
	"T2002": "Non-emergency transportation; per diem",
	"T2003": "Non-emergency transportation; encounter/trip",
	"T2004": "Non-emergency transport; commercial carrier, multi-pass",
	"T2005": "Non-emergency transportation; stretcher van",
	"T2007": "Transportation waiting time, air ambulance and non-emergency vehicle, one-half hour increments",
	"T2049": "Non-emergency transportation; stretcher van, mileage; per mile",
}

// Mileage is the HCPCS subset that the adjacency rule treats as mileage
// lines rather than transports.
// Every mileage line must immediately follow a transport line.
var Mileage = map[string]bool{
	"A0380": true,
	"A0382": true,
	"A0390": true,
	"A0425": true,
	"A0435": true,
	"A0436": true,
	"T2049": true,
}

// SupervisingRequired lists the HCPCS codes the payer requires a supervising
// or attendant provider for.
var SupervisingRequired = map[string]bool{
	"A0090": true, "A0100": true, "A0110": true, "A0120": true,
	"A0140": true, "A0160": true, "A0170": true, "A0180": true,
	"A0190": true, "A0200": true, "A0210": true, "T2001": true,
}

// originDestLetters are the valid origin and destination letters for
// two-character ambulance modifiers.
var originDestLetters = []string{"D", "E", "G", "H", "I", "J", "N", "P", "R", "S", "X"}

// functionalModifiers qualify how the service was furnished rather than
// where the trip ran.
var functionalModifiers = map[string]string{
	"GA": "Waiver of liability statement issued as required by payer policy",
	"GY": "Item or service statutorily excluded",
	"GZ": "Item or service expected to be denied",
	"QM": "Ambulance service provided under arrangement by a provider of services",
	"QN": "Ambulance service furnished directly by a provider of services",
	"GM": "Multiple patients on one ambulance trip",
	"QL": "Patient pronounced dead after ambulance called",
	"TQ": "Basic life support transport by a volunteer ambulance provider",
}

var originDestDescriptions = map[string]string{
	"D": "diagnostic or therapeutic site",
	"E": "residential, domiciliary, custodial facility",
	"G": "hospital-based dialysis facility",
	"H": "hospital",
	"I": "transfer point between modes of transport",
	"J": "non-hospital-based dialysis facility",
	"N": "skilled nursing facility",
	"P": "physician's office",
	"R": "residence",
	"S": "scene of accident or acute event",
	"X": "intermediate stop at physician's office",
}

// Modifiers is the full two-character modifier table: the 110 distinct
// origin/destination pairs plus the functional modifiers.
var Modifiers = buildModifiers()

func buildModifiers() map[string]string {
	m := make(map[string]string, 120)
	for _, from := range originDestLetters {
		for _, to := range originDestLetters {
			if from == to {
				continue
			}
			m[from+to] = "from " + originDestDescriptions[from] + " to " + originDestDescriptions[to]
		}
	}
	for code, desc := range functionalModifiers {
		m[code] = desc
	}
	return m
}

// FrequencyCodes are the CLM05-3 claim frequency values.
var FrequencyCodes = map[string]string{
	"1": "Original claim",
	"6": "Corrected claim",
	"7": "Replacement of prior claim",
	"8": "Void/cancel of prior claim",
}

// AdjustmentFrequencies are the frequency codes that reference a prior claim
// and therefore require an original claim number.
var AdjustmentFrequencies = map[string]bool{"6": true, "7": true, "8": true}

// TransportCodes are the CR1 ambulance transport codes.
var TransportCodes = map[string]string{
	"A": "Patient was transported to nearest facility",
	"B": "Patient was transported for the benefit of a preferred physician",
	"C": "Patient was transported for the nearness of family members",
	"D": "Patient was transported for the care of a specialist or availability of specialized equipment",
	"E": "Patient was transported for the care of a preferred facility",
}

// TransportReasons are the CR1 ambulance transport reason codes.
var TransportReasons = map[string]string{
	"A":  "Patient was transported for the purposes of ambulance transport",
	"B":  "Patient was transported for the purposes of medical treatment",
	"C":  "Patient was transported for the purposes of diagnostic procedures",
	"D":  "Patient was transported for the purposes of a medical emergency",
	"DH": "Dialysis patient transported to/from dialysis facility",
	"E":  "Patient was transported for the purposes of surgery",
}

// WeightUnits are the CR1 patient weight units.
var WeightUnits = map[string]string{
	"LB": "Pounds",
	"KG": "Kilograms",
}

// SexCodes are the DMG03 values.
var SexCodes = map[string]string{
	"F": "Female",
	"M": "Male",
	"U": "Unknown",
}

// NetworkIndicators flag the rendering provider's network standing.
var NetworkIndicators = map[string]string{
	"I": "In-network",
	"O": "Out-of-network",
}

// SubmissionChannels flag how the trip reached the submitter.
var SubmissionChannels = map[string]string{
	"ELECTRONIC": "Electronic submission",
	"PAPER":      "Paper submission",
}

// PaymentStatuses are the adjudication outcomes carried in PYMS K3 segments.
var PaymentStatuses = map[string]string{
	"P": "Paid",
	"D": "Denied",
}

// States holds the recognized US postal codes, including DC and territories.
var States = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "FL": true, "GA": true, "HI": true, "ID": true,
	"IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true,
	"ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true,
	"OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "DC": true, "PR": true, "VI": true, "GU": true,
	"AS": true, "MP": true,
}

var tables = map[Kind]map[string]string{
	KindPlaceOfService:    PlacesOfService,
	KindHCPCS:             HCPCS,
	KindModifier:          Modifiers,
	KindFrequency:         FrequencyCodes,
	KindTransportCode:     TransportCodes,
	KindTransportReason:   TransportReasons,
	KindWeightUnit:        WeightUnits,
	KindSex:               SexCodes,
	KindNetworkIndicator:  NetworkIndicators,
	KindSubmissionChannel: SubmissionChannels,
	KindPaymentStatus:     PaymentStatuses,
}

// Lookup returns the description for a code in the named table. The second
// return is false when either the table or the code is unknown.
func Lookup(kind Kind, code string) (string, bool) {
	table, ok := tables[kind]
	if !ok {
		return "", false
	}
	desc, ok := table[code]
	return desc, ok
}

// Known reports whether the code exists in the named table.
func Known(kind Kind, code string) bool {
	_, ok := Lookup(kind, code)
	return ok
}

// Values returns the sorted code values of a table, for error messages.
func Values(kind Kind) []string {
	table := tables[kind]
	out := make([]string, 0, len(table))
	for code := range table {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
