package generator

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/temirov/canonsync/internal/inventory"
)

const (
	// HeaderScanLengthConstant bounds how many leading characters are searched for header fields.
	HeaderScanLengthConstant = 2000
	// DescriptionLimitConstant caps extracted descriptions, ellipsis included.
	DescriptionLimitConstant = 200

	unknownHeaderValueConstant      = "unknown"
	descriptionEllipsisConstant     = "..."
	effectiveDateParseLayoutConst   = "2006-1-2"
	effectiveDateOutputLayoutConst  = "2006-01-02"
	fallbackDescriptionTemplateBase = "Canonical governance document: "
	markdownExtensionConstant       = ".md"
)

var (
	boldVersionPattern     = regexp.MustCompile(`(?i)\*\*Version\*\*:\s*([^\n]+)`)
	plainVersionPattern    = regexp.MustCompile(`(?i)Version:\s*v?([^\n]+)`)
	effectiveDatePattern   = regexp.MustCompile(`(?i)\*\*Effective Date\*\*:\s*([^\n]+)`)
	layeringStatusPattern  = regexp.MustCompile(`(?i)\*\*Layer-Down Status\*\*:\s*([^\n]+)`)
	purposeSectionPattern  = regexp.MustCompile(`(?s)##\s*1\.\s*Purpose\s*\n+(.*?)(?:\n\n|\n#)`)
	sentenceBoundaryRegexp = regexp.MustCompile(`[.!?]\s+`)
)

// HeaderMetadata holds the fields read from the header block of a governance document.
type HeaderMetadata struct {
	Version                string
	EffectiveDate          string
	Description            string
	LayeringClassification inventory.LayeringClassification
}

// DefaultHeaderMetadata returns the values used when a header omits a field.
func DefaultHeaderMetadata() HeaderMetadata {
	return HeaderMetadata{
		Version:                unknownHeaderValueConstant,
		EffectiveDate:          unknownHeaderValueConstant,
		LayeringClassification: inventory.LayeringInternal,
	}
}

// ExtractHeaderMetadata reads version, effective date, layering and description from the first
// HeaderScanLengthConstant characters of content.
func ExtractHeaderMetadata(content string) HeaderMetadata {
	metadata := DefaultHeaderMetadata()
	header := leadingCharacters(content, HeaderScanLengthConstant)

	if match := boldVersionPattern.FindStringSubmatch(header); match != nil {
		metadata.Version = strings.TrimSpace(match[1])
	} else if match := plainVersionPattern.FindStringSubmatch(header); match != nil {
		metadata.Version = strings.TrimSpace(match[1])
	}

	if match := effectiveDatePattern.FindStringSubmatch(header); match != nil {
		metadata.EffectiveDate = normalizeEffectiveDate(strings.TrimSpace(match[1]))
	}

	if match := layeringStatusPattern.FindStringSubmatch(header); match != nil {
		if classification, valid := inventory.ParseLayeringClassification(match[1]); valid {
			metadata.LayeringClassification = classification
		}
	}

	if match := purposeSectionPattern.FindStringSubmatch(header); match != nil {
		metadata.Description = firstSentence(strings.TrimSpace(match[1]))
	}

	return metadata
}

// FallbackDescription names a document whose header carries no purpose section.
func FallbackDescription(filename string) string {
	return fallbackDescriptionTemplateBase + strings.ReplaceAll(filename, markdownExtensionConstant, "")
}

func normalizeEffectiveDate(rawDate string) string {
	parsedDate, parseError := time.Parse(effectiveDateParseLayoutConst, rawDate)
	if parseError != nil {
		return rawDate
	}
	return parsedDate.Format(effectiveDateOutputLayoutConst)
}

func firstSentence(text string) string {
	sentence := sentenceBoundaryRegexp.Split(text, 2)[0]
	if utf8.RuneCountInString(sentence) > DescriptionLimitConstant {
		runes := []rune(sentence)
		return string(runes[:DescriptionLimitConstant-len(descriptionEllipsisConstant)]) + descriptionEllipsisConstant
	}
	return sentence
}

func leadingCharacters(content string, limit int) string {
	characterCount := 0
	for byteOffset := range content {
		if characterCount == limit {
			return content[:byteOffset]
		}
		characterCount++
	}
	return content
}
