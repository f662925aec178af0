package vincode

// VIN check-digit transliteration per ISO 3779: letters map to digit values,
// digits map to themselves. I, O and Q have no value and are absent.
var transliteration = map[byte]int{
	'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'F': 6, 'G': 7, 'H': 8,
	'J': 1, 'K': 2, 'L': 3, 'M': 4, 'N': 5,
	'P': 7, 'R': 9,
	'S': 2, 'T': 3, 'U': 4, 'V': 5, 'W': 6, 'X': 7, 'Y': 8, 'Z': 9,
	'0': 0, '1': 1, '2': 2, '3': 3, '4': 4,
	'5': 5, '6': 6, '7': 7, '8': 8, '9': 9,
}

// Position weights for the weighted sum. Position 8 is the check digit itself
// and carries weight 0.
var positionWeights = [17]int{8, 7, 6, 5, 4, 3, 2, 10, 0, 9, 8, 7, 6, 5, 4, 3, 2}

// Model-year codes for VIN position 10. The code cycles every 30 years; the
// decoder resolves to the most recent plausible cycle (see DecodeYear).
var yearCodes = map[byte]int{
	'1': 2001, '2': 2002, '3': 2003, '4': 2004, '5': 2005,
	'6': 2006, '7': 2007, '8': 2008, '9': 2009,
	'A': 2010, 'B': 2011, 'C': 2012, 'D': 2013, 'E': 2014,
	'F': 2015, 'G': 2016, 'H': 2017, 'J': 2018, 'K': 2019,
	'L': 2020, 'M': 2021, 'N': 2022, 'P': 2023, 'R': 2024,
	'S': 2025, 'T': 2026, 'V': 2027, 'W': 2028, 'X': 2029,
	'Y': 2030,
}

// WMI first-character region codes.
var countryCodes = map[byte]string{
	'1': "United States",
	'2': "Canada",
	'3': "Mexico",
	'4': "United States",
	'5': "United States",
	'6': "Australia",
	'9': "Brazil",
	'J': "Japan",
	'K': "South Korea",
	'L': "China",
	'M': "India",
	'S': "United Kingdom",
	'T': "Switzerland",
	'V': "France",
	'W': "Germany",
	'Y': "Sweden",
	'Z': "Italy",
}

// Known WMI prefixes. The table is necessarily partial; unmapped WMIs decode
// to "Unknown".
var manufacturerCodes = map[string]string{
	"1FA": "Ford",
	"1FT": "Ford",
	"1G1": "Chevrolet",
	"1GC": "Chevrolet",
	"1HG": "Honda",
	"1N4": "Nissan",
	"2HG": "Honda",
	"2T1": "Toyota",
	"3VW": "Volkswagen",
	"5YJ": "Tesla",
	"7SA": "Tesla",
	"JHM": "Honda",
	"JN1": "Nissan",
	"JTD": "Toyota",
	"JTE": "Toyota",
	"KMH": "Hyundai",
	"KNA": "Kia",
	"LFV": "FAW-Volkswagen",
	"LGX": "BYD",
	"LRW": "Tesla",
	"LSV": "SAIC Volkswagen",
	"LVG": "Voyah",
	"L6T": "Geely",
	"SAL": "Land Rover",
	"SAJ": "Jaguar",
	"VF1": "Renault",
	"VF3": "Peugeot",
	"WAU": "Audi",
	"WBA": "BMW",
	"WDB": "Mercedes-Benz",
	"WDD": "Mercedes-Benz",
	"WP0": "Porsche",
	"WVW": "Volkswagen",
	"YV1": "Volvo",
	"ZFA": "Fiat",
}
