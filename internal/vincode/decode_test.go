package vincode

import "testing"

func TestDecodeAt(t *testing.T) {
	tests := []struct {
		name         string
		vin          string
		year         int
		country      string
		manufacturer string
	}{
		{"honda usa 2003", "1HGCM82633A004352", 2003, "United States", "Honda"},
		{"voyah china 2023", "LVGBE5AM1PY123456", 2023, "China", "Voyah"},
		{"tesla usa", "5YJ3E1EA8KF000316", 2019, "United States", "Tesla"},
		{"unknown wmi", "ZZZCM82633A004352", 2003, "Italy", "Unknown"},
		{"unmapped region", "8ABCM82633A004352", 2003, "Unknown", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeAt(tt.vin, 2026)
			if got.Year != tt.year {
				t.Errorf("Year = %d, want %d", got.Year, tt.year)
			}
			if got.Country != tt.country {
				t.Errorf("Country = %q, want %q", got.Country, tt.country)
			}
			if got.Manufacturer != tt.manufacturer {
				t.Errorf("Manufacturer = %q, want %q", got.Manufacturer, tt.manufacturer)
			}
		})
	}
}

func TestDecodeIsPure(t *testing.T) {
	const vin = "1HGCM82633A004352"
	first := Decode(vin)
	for i := 0; i < 5; i++ {
		if got := Decode(vin); got != first {
			t.Fatalf("Decode(%q) returned %+v, previously %+v", vin, got, first)
		}
	}
}

func TestDecodeYearCycles(t *testing.T) {
	// 'W' codes 2028; seen from 2026 it must fall back one full cycle.
	if got := decodeYearAt('W', 2026); got != 1998 {
		t.Errorf("decodeYearAt('W', 2026) = %d, want 1998", got)
	}
	// Next model year is allowed to run one ahead of the calendar.
	if got := decodeYearAt('V', 2026); got != 2027 {
		t.Errorf("decodeYearAt('V', 2026) = %d, want 2027", got)
	}
	// Codes outside the table resolve to no year.
	if got := decodeYearAt('I', 2026); got != 0 {
		t.Errorf("decodeYearAt('I', 2026) = %d, want 0", got)
	}
	if got := decodeYearAt('0', 2026); got != 0 {
		t.Errorf("decodeYearAt('0', 2026) = %d, want 0", got)
	}
}

func TestDecodeWrongLength(t *testing.T) {
	got := decodeAt("1HGCM", 2026)
	if got.Year != 0 || got.Country != "Unknown" || got.Manufacturer != "Unknown" {
		t.Errorf("decodeAt on short input = %+v, want zero-value metadata", got)
	}
}

func TestSplit(t *testing.T) {
	wmi, vds, vis := Split("1HGCM82633A004352")
	if wmi != "1HG" || vds != "CM8263" || vis != "3A004352" {
		t.Errorf("Split = %q %q %q", wmi, vds, vis)
	}
	wmi, vds, vis = Split("short")
	if wmi != "" || vds != "" || vis != "" {
		t.Error("Split on short input should yield empty sections")
	}
}
