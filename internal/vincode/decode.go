package vincode

import "time"

// Decoded holds the positional metadata derivable from a 17-character VIN.
// Year is 0 when the year code has no mapping.
type Decoded struct {
	Year         int
	Country      string
	Manufacturer string
}

const yearCycle = 30

// Decode maps a 17-character normalized VIN to its embedded metadata. It is a
// pure function of the input and the current year; callers must treat the
// result as lower-confidence when the checksum did not verify, since the
// positional fields are independent of check-digit correctness.
func Decode(vin string) Decoded {
	return decodeAt(vin, time.Now().Year())
}

func decodeAt(vin string, currentYear int) Decoded {
	if len(vin) != vinLength {
		return Decoded{Country: "Unknown", Manufacturer: "Unknown"}
	}

	country, ok := countryCodes[vin[0]]
	if !ok {
		country = "Unknown"
	}

	manufacturer, ok := manufacturerCodes[vin[:3]]
	if !ok {
		manufacturer = "Unknown"
	}

	return Decoded{
		Year:         decodeYearAt(vin[9], currentYear),
		Country:      country,
		Manufacturer: manufacturer,
	}
}

// decodeYearAt resolves the 30-year cyclic year code to the most recent cycle
// that does not exceed next model year. The ambiguity is inherent to the
// standard: a 2001 code is indistinguishable from a 1971 or 2031 code, and no
// disambiguating signal exists in the VIN itself.
func decodeYearAt(code byte, currentYear int) int {
	year, ok := yearCodes[code]
	if !ok {
		return 0
	}
	// Model years run ahead of calendar years by up to one year.
	for year > currentYear+1 {
		year -= yearCycle
	}
	return year
}

// Split breaks a normalized VIN into its WMI, VDS and VIS sections. Inputs
// that are not 17 characters yield empty sections.
func Split(vin string) (wmi, vds, vis string) {
	if len(vin) != vinLength {
		return "", "", ""
	}
	return vin[0:3], vin[3:9], vin[9:17]
}
