package confidence

// Brand keywords matched case-insensitively against the recognized text.
var brandKeywords = []string{
	"voyah",
	"tesla",
	"byd",
	"nio",
	"xpeng",
	"zeekr",
	"geely",
	"toyota",
	"honda",
	"nissan",
	"ford",
	"chevrolet",
	"volkswagen",
	"audi",
	"bmw",
	"mercedes",
	"porsche",
	"hyundai",
	"kia",
	"volvo",
}

// Model keywords. Short tokens ("free", "dream") are matched as whole words
// to avoid firing inside longer runs of OCR noise.
var modelKeywords = []string{
	"free",
	"dream",
	"dreamer",
	"courage",
	"passion",
	"model 3",
	"model s",
	"model x",
	"model y",
	"leaf",
	"ioniq",
	"camry",
	"corolla",
	"accord",
	"mustang",
	"golf",
}

// Category keyword sets. Precedence is fixed: EV wins over REV, REV over
// ICEV. Some terms plausibly belong to more than one set; ties go to the
// earlier set.
var (
	evKeywords = []string{
		"ev", "bev", "electric", "pure electric",
		"tesla", "voyah", "nio", "xpeng", "zeekr", "leaf", "ioniq",
	}
	revKeywords = []string{
		"rev", "erev", "range extender", "range-extended", "phev",
		"hybrid", "dreamer",
	}
	icevKeywords = []string{
		"icev", "gasoline", "petrol", "diesel", "turbo",
		"tsi", "tdi", "tfsi", "v6", "v8",
	}
)
