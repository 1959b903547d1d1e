package language

import (
	"strings"

	"golang.org/x/text/cases"
	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Matroska still writes ISO 639-2/B codes that BCP 47 parsing does not know.
var bibliographic = map[string]string{
	"fre": "fra",
	"ger": "deu",
	"chi": "zho",
	"dut": "nld",
	"cze": "ces",
	"gre": "ell",
	"per": "fas",
	"rum": "ron",
	"slo": "slk",
	"wel": "cym",
	"baq": "eus",
	"arm": "hye",
	"geo": "kat",
	"ice": "isl",
	"mac": "mkd",
	"may": "msa",
	"bur": "mya",
	"alb": "sqi",
	"tib": "bod",
}

var titler = cases.Title(xlang.English)

// DisplayName returns an English name for a language code such as "eng",
// "fre" or "pt-BR". Empty input is "Unknown", "und" is "Undetermined", and
// unrecognized codes are returned upper-cased.
func DisplayName(code string) string {
	trimmed := strings.ToLower(strings.TrimSpace(code))
	switch trimmed {
	case "":
		return "Unknown"
	case "und":
		return "Undetermined"
	case "zxx":
		return "No linguistic content"
	case "mul":
		return "Multiple"
	}
	if terminology, ok := bibliographic[trimmed]; ok {
		trimmed = terminology
	}
	tag, err := xlang.Parse(trimmed)
	if err != nil {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	return name
}

// TrackType returns a title-cased label for a track type ("audio" -> "Audio").
func TrackType(kind string) string {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return "Unknown"
	}
	return titler.String(kind)
}
