// Package flags formats usage text for enumerated command flags.
package flags

import (
	"fmt"
	"strings"
)

const (
	choiceListTemplate       = "`<%s>`"
	choiceSeparatorLiteral   = "|"
	choiceUsageJoinSeparator = " "
)

// FormatChoiceUsage renders the accepted values as `<a|B|c>` with the default upper-cased,
// followed by description when one is given. Blank and repeated choices are dropped.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	choiceList := fmt.Sprintf(choiceListTemplate, strings.Join(displayChoices(defaultChoice, choices), choiceSeparatorLiteral))
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return choiceList
	}
	return choiceList + choiceUsageJoinSeparator + trimmedDescription
}

func displayChoices(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	displayed := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := strings.ToLower(trimmedChoice)
		if len(normalizedChoice) == 0 {
			continue
		}
		if _, duplicate := seen[normalizedChoice]; duplicate {
			continue
		}
		seen[normalizedChoice] = struct{}{}
		if normalizedChoice == normalizedDefault {
			trimmedChoice = strings.ToUpper(trimmedChoice)
		}
		displayed = append(displayed, trimmedChoice)
	}
	return displayed
}
