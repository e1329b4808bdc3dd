package nemt837

import (
	"testing"
	"time"
)

var namingDate = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

func TestFilename(t *testing.T) {
	tests := []struct {
		state string
		seq   int
		test  bool
		want  string
	}{
		{"KY", 1, false, "INB_KYPROFKZN_01152026_001.dat"},
		{"il", 2, true, "TEST_INB_ILPROFKZN_01152026_002.dat"},
		{"NY", 123, false, "INB_NYPROFKZN_01152026_123.dat"},
	}
	for _, tt := range tests {
		if got := Filename(tt.state, namingDate, tt.seq, tt.test); got != tt.want {
			t.Errorf("Filename(%s, %d, %v) = %q, want %q", tt.state, tt.seq, tt.test, got, tt.want)
		}
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		test    bool
		wantErr bool
	}{
		{"valid production", "INB_KYPROFKZN_01152026_001.dat", false, false},
		{"valid test", "TEST_INB_ILPROFKZN_01152026_002.dat", true, false},
		{"test prefix on production", "TEST_INB_KYPROFKZN_01152026_001.dat", false, true},
		{"missing test prefix", "INB_KYPROFKZN_01152026_001.dat", true, true},
		{"bad state", "INB_XYPROFKZN_01152026_001.dat", false, true},
		{"bad date", "INB_KYPROFKZN_13152026_001.dat", false, true},
		{"short sequence", "INB_KYPROFKZN_01152026_01.dat", false, true},
		{"wrong extension", "INB_KYPROFKZN_01152026_001.txt", false, true},
		{"garbage", "claims.dat", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.file, tt.test)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilename(%q, %v) error = %v, wantErr %v", tt.file, tt.test, err, tt.wantErr)
			}
		})
	}
}

func TestFilename_RoundTrips(t *testing.T) {
	for _, test := range []bool{false, true} {
		name := Filename("KY", namingDate, 7, test)
		if err := ValidateFilename(name, test); err != nil {
			t.Errorf("generated name %q failed validation: %v", name, err)
		}
	}
}
