package nemt837

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Softsensor-org/Kaizen/internal/codes"
)

// Submission file naming per the vendor companion guide:
//
//	production: INB_<StateCode>PROFKZN_MMDDYYYY_<seq>.dat
//	test:       TEST_INB_<StateCode>PROFKZN_MMDDYYYY_<seq>.dat
var filenameRe = regexp.MustCompile(`^(TEST_)?INB_([A-Z]{2})PROFKZN_(\d{8})_(\d{3,})\.dat$`)

// Filename returns the canonical submission file name for a state, date,
// and sequence number.
func Filename(stateCode string, date time.Time, sequence int, test bool) string {
	prefix := "INB_"
	if test {
		prefix = "TEST_INB_"
	}
	return fmt.Sprintf("%s%sPROFKZN_%s_%03d.dat",
		prefix, strings.ToUpper(stateCode), date.Format("01022006"), sequence)
}

// ValidateFilename checks a submission file name against the vendor
// convention, including the state whitelist and date plausibility.
func ValidateFilename(name string, test bool) error {
	m := filenameRe.FindStringSubmatch(name)
	if m == nil {
		example := Filename("KY", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), 1, test)
		return fmt.Errorf("nemt837: invalid file name %q, expected form %s", name, example)
	}
	hasTest := m[1] != ""
	if test && !hasTest {
		return fmt.Errorf("nemt837: test files must carry the TEST_INB_ prefix")
	}
	if !test && hasTest {
		return fmt.Errorf("nemt837: production files must not carry the TEST_ prefix")
	}
	if !codes.States[m[2]] {
		return fmt.Errorf("nemt837: %q is not a recognized state code", m[2])
	}
	if _, err := time.Parse("01022006", m[3]); err != nil {
		return fmt.Errorf("nemt837: invalid date %q in file name, expected MMDDYYYY", m[3])
	}
	return nil
}
