package codes

import "sort"

// PayerPreset binds a symbolic payer key to the identifiers the interchange
// and payer loops need.
type PayerPreset struct {
	PayerID              string
	PayerName            string
	InterchangeQualifier string
	InterchangeReceiver  string
}

// payerPresets are the payers this submitter is credentialed with.
var payerPresets = map[string]PayerPreset{
	"UHC_CS": {
		PayerID:              "87726",
		PayerName:            "UNITED HEALTHCARE COMMUNITY & STATE",
		InterchangeQualifier: "ZZ",
		InterchangeReceiver:  "87726",
	},
	"UHC_KY": {
		PayerID:              "87726",
		PayerName:            "UNITED HEALTHCARE KENTUCKY",
		InterchangeQualifier: "ZZ",
		InterchangeReceiver:  "87726",
	},
	"AVAILITY": {
		PayerID:              "030240928",
		PayerName:            "AVAILITY",
		InterchangeQualifier: "01",
		InterchangeReceiver:  "030240928",
	},
}

// Payer returns the preset for a symbolic key.
func Payer(key string) (PayerPreset, bool) {
	p, ok := payerPresets[key]
	return p, ok
}

// PayerKeys returns the known preset keys in sorted order.
func PayerKeys() []string {
	keys := make([]string, 0, len(payerPresets))
	for k := range payerPresets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
