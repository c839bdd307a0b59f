package language

import (
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ISO 639-2/B codes that x/text does not resolve on its own. Matroska muxers
// and older rips still write these.
var bibliographic = map[string]string{
	"alb": "sq", "arm": "hy", "baq": "eu", "bur": "my", "chi": "zh",
	"cze": "cs", "dut": "nl", "fre": "fr", "geo": "ka", "ger": "de",
	"gre": "el", "ice": "is", "mac": "mk", "mao": "mi", "may": "ms",
	"per": "fa", "rum": "ro", "slo": "sk", "tib": "bo", "wel": "cy",
}

// Languages the Whisper model family can detect; used to resolve English
// word forms such as "german" back to codes.
var recognizerLanguages = []string{
	"en", "zh", "de", "es", "ru", "ko", "fr", "ja", "pt", "tr", "pl", "ca", "nl", "ar", "sv",
	"it", "id", "hi", "fi", "vi", "he", "uk", "el", "ms", "cs", "ro", "da", "hu", "ta", "no",
	"th", "ur", "hr", "bg", "lt", "la", "mi", "ml", "cy", "sk", "te", "fa", "lv", "bn", "sr",
	"az", "sl", "kn", "et", "mk", "br", "eu", "is", "hy", "ne", "mn", "bs", "kk", "sq", "sw",
	"gl", "mr", "pa", "si", "km", "sn", "yo", "so", "af", "oc", "ka", "be", "tg", "sd", "gu",
	"am", "yi", "lo", "uz", "fo", "ht", "ps", "tk", "nn", "mt", "sa", "lb", "my", "bo", "tl",
	"mg", "as", "tt", "haw", "ln", "ha", "ba", "jw", "su", "yue",
}

var (
	namer  = display.English.Languages()
	byWord = make(map[string]xlang.Base, len(recognizerLanguages))
)

func init() {
	for _, code := range recognizerLanguages {
		base, err := xlang.ParseBase(code)
		if err != nil {
			continue
		}
		if name := strings.ToLower(namer.Name(base)); name != "" {
			byWord[name] = base
		}
	}
}

func lookup(code string) (xlang.Base, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == "und" || code == "auto" {
		return xlang.Base{}, false
	}
	if mapped, ok := bibliographic[code]; ok {
		code = mapped
	}
	if base, ok := byWord[code]; ok {
		return base, true
	}
	// Accept BCP 47 tags like "en-US" and Whisper's "jw".
	if tag, err := xlang.Parse(code); err == nil {
		base, conf := tag.Base()
		if conf != xlang.No && base.String() != "und" {
			return base, true
		}
	}
	return xlang.Base{}, false
}

// ToISO2 converts any recognized language code or word to ISO 639-1 (2-letter).
// Returns empty string for unrecognized input. Languages without a 2-letter
// code come back in their shortest form.
func ToISO2(code string) string {
	if base, ok := lookup(code); ok {
		return base.String()
	}
	return ""
}

// ToISO3 converts any recognized language code to ISO 639-2 (3-letter) as
// written into Matroska language tags. Returns "und" for unrecognized input.
func ToISO3(code string) string {
	if base, ok := lookup(code); ok {
		return base.ISO3()
	}
	return "und"
}

// DisplayName returns a human-readable English language name for a code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if base, ok := lookup(code); ok {
		if name := namer.Name(base); name != "" {
			return name
		}
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// ExtractFromTags extracts and normalizes the language from stream metadata tags.
func ExtractFromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	for _, key := range []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"} {
		if value, ok := tags[key]; ok {
			value = strings.TrimSpace(strings.ReplaceAll(value, "\u0000", ""))
			if value != "" {
				return strings.ToLower(value)
			}
		}
	}
	return ""
}
