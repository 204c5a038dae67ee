package report

import (
	"fmt"
	"io"
	"strings"
)

const (
	reportRuleWidthConstant = 60
	heavyRuleCharacter      = "="
	lightRuleCharacter      = "-"

	reportTitleConstant               = "GOVERNANCE ALIGNMENT INVENTORY - COMPLIANCE REPORT"
	repositoryLineTemplateConstant    = "Repository:        %s\n"
	lastSyncLineTemplateConstant      = "Last Sync:         %s\n"
	governanceSourceTemplateConstant  = "Governance Source: %s\n"
	centralVersionTemplateConstant    = "Central Version:   %s\n"
	totalRequiredTemplateConstant     = "Total Required:    %d\n"
	canonsPresentTemplateConstant     = "Canons Present:    %d\n"
	coverageTemplateConstant          = "Coverage:          %s%%\n"
	layeredDownCountTemplateConstant  = "Layered Down:      %d canons\n"
	missingCountTemplateConstant      = "Missing:           %d canons\n"
	missingHeaderConstant             = "\nMISSING CANONS:\n"
	missingLineTemplateConstant       = "  - %s (%s, mandatory=%t)\n"
	statusHeaderConstant              = "\nSTATUS BREAKDOWN:\n"
	upToDateLineTemplateConstant      = "  - UP_TO_DATE: %d\n"
	modifiedLineTemplateConstant      = "  - MODIFIED:   %d\n"
	savedLineTemplateConstant         = "✓ Inventory saved to %s\n"
	incompleteMessageConstant         = "⚠ WARNING: Governance alignment is incomplete\n"
	strictFailureMessageConstant      = "ERROR: --strict mode enabled, failing due to incomplete coverage\n"
	completeMessageConstant           = "✓ SUCCESS: Full governance alignment achieved\n"
	runHeaderRepoRootTemplateConstant = "Repo Root:         %s\n"
	runHeaderSourceTemplateConstant   = "Governance Source: %s\n"
	runHeaderOutputTemplateConstant   = "Output File:       %s\n"
)

// RunHeader lists the locations a sync run operates on.
type RunHeader struct {
	RepositoryRoot   string
	GovernanceSource string
	OutputPath       string
}

// Outcome summarizes how a sync run ended.
type Outcome struct {
	Complete bool
	Strict   bool
}

// TextReporter renders human-readable compliance summaries.
type TextReporter struct {
	writer io.Writer
}

// NewTextReporter constructs a TextReporter writing to writer.
func NewTextReporter(writer io.Writer) *TextReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &TextReporter{writer: writer}
}

// RenderRunHeader prints the locations of a run.
func (reporter *TextReporter) RenderRunHeader(header RunHeader) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, runHeaderRepoRootTemplateConstant, header.RepositoryRoot)
	fmt.Fprintf(&builder, runHeaderSourceTemplateConstant, header.GovernanceSource)
	fmt.Fprintf(&builder, runHeaderOutputTemplateConstant, header.OutputPath)
	builder.WriteString("\n")
	return reporter.flush(builder.String())
}

// RenderSaved confirms the snapshot location.
func (reporter *TextReporter) RenderSaved(outputPath string) error {
	return reporter.flush(fmt.Sprintf(savedLineTemplateConstant, outputPath))
}

// RenderCompliance prints totals, coverage, missing canons and the status tally of a document.
func (reporter *TextReporter) RenderCompliance(document Document) error {
	heavyRule := strings.Repeat(heavyRuleCharacter, reportRuleWidthConstant)
	lightRule := strings.Repeat(lightRuleCharacter, reportRuleWidthConstant)

	var builder strings.Builder
	builder.WriteString("\n" + heavyRule + "\n")
	builder.WriteString(reportTitleConstant + "\n")
	builder.WriteString(heavyRule + "\n")
	fmt.Fprintf(&builder, repositoryLineTemplateConstant, document.Repository)
	fmt.Fprintf(&builder, lastSyncLineTemplateConstant, document.LastSync)
	fmt.Fprintf(&builder, governanceSourceTemplateConstant, document.GovernanceSource)
	fmt.Fprintf(&builder, centralVersionTemplateConstant, document.CanonicalInventoryVersion)
	builder.WriteString(lightRule + "\n")
	fmt.Fprintf(&builder, totalRequiredTemplateConstant, document.TotalCanonsRequired)
	fmt.Fprintf(&builder, canonsPresentTemplateConstant, document.CanonsPresent)
	fmt.Fprintf(&builder, coverageTemplateConstant, document.CoveragePercentage.String())
	builder.WriteString(lightRule + "\n")
	fmt.Fprintf(&builder, layeredDownCountTemplateConstant, len(document.LayeredDown))
	fmt.Fprintf(&builder, missingCountTemplateConstant, len(document.Missing))

	if len(document.Missing) > 0 {
		builder.WriteString(missingHeaderConstant)
		for _, missingEntry := range document.Missing {
			fmt.Fprintf(&builder, missingLineTemplateConstant, missingEntry.ID, missingEntry.Priority, missingEntry.Mandatory)
		}
	}

	if len(document.LayeredDown) > 0 {
		upToDate, modified := document.StatusTally()
		builder.WriteString(statusHeaderConstant)
		fmt.Fprintf(&builder, upToDateLineTemplateConstant, upToDate)
		fmt.Fprintf(&builder, modifiedLineTemplateConstant, modified)
	}

	builder.WriteString(heavyRule + "\n\n")
	return reporter.flush(builder.String())
}

// RenderOutcome prints the closing verdict of a run.
func (reporter *TextReporter) RenderOutcome(outcome Outcome) error {
	if outcome.Complete {
		return reporter.flush(completeMessageConstant)
	}
	message := incompleteMessageConstant
	if outcome.Strict {
		message += strictFailureMessageConstant
	}
	return reporter.flush(message)
}

func (reporter *TextReporter) flush(content string) error {
	_, writeError := io.WriteString(reporter.writer, content)
	return writeError
}
