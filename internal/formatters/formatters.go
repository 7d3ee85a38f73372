package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"cvtailor/internal/tailoring"
	"cvtailor/internal/types"
)

const (
	typeGeneratedContent = "GeneratedContent"
	typeSummaryResult    = "SummaryResult"
	typeKeywordReport    = "KeywordReport"
	typeAny              = "any"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", typeAny, &JSONFormatter{})
	registry.RegisterFormatter("text", typeGeneratedContent, &ContentTextFormatter{})
	registry.RegisterFormatter("markdown", typeGeneratedContent, &ContentMarkdownFormatter{})
	registry.RegisterFormatter("text", typeSummaryResult, &SummaryTextFormatter{})
	registry.RegisterFormatter("markdown", typeSummaryResult, &SummaryMarkdownFormatter{})
	registry.RegisterFormatter("text", typeKeywordReport, &KeywordTextFormatter{})
	registry.RegisterFormatter("markdown", typeKeywordReport, &KeywordMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters[typeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats in sorted order
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case *types.GeneratedContent:
		return typeGeneratedContent
	case *types.SummaryResult:
		return typeSummaryResult
	case types.KeywordReport, *types.KeywordReport:
		return typeKeywordReport
	default:
		return typeAny
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return typeAny
}

// ContentTextFormatter renders generated document content as plain text
type ContentTextFormatter struct{}

func (ctf *ContentTextFormatter) Format(data any) (string, error) {
	content, ok := data.(*types.GeneratedContent)
	if !ok || content == nil {
		return "", fmt.Errorf("expected *GeneratedContent, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== PROFESSIONAL SUMMARY ===\n")
	output.WriteString(content.Summary)
	output.WriteString("\n")
	if content.SummaryResult != nil {
		output.WriteString(summarySourceLine(content.SummaryResult))
	}
	output.WriteString("\n")

	output.WriteString("=== SKILLS ===\n")
	if len(content.Skills.Technical) > 0 {
		fmt.Fprintf(&output, "Technical: %s\n", strings.Join(content.Skills.Technical, ", "))
	}
	if len(content.Skills.Soft) > 0 {
		fmt.Fprintf(&output, "Soft: %s\n", strings.Join(content.Skills.Soft, ", "))
	}
	output.WriteString("\n")

	if len(content.WorkExperience) > 0 {
		output.WriteString("=== EXPERIENCE ===\n")
		for _, entry := range content.WorkExperience {
			fmt.Fprintf(&output, "%s\n", experienceHeading(entry))
			for _, achievement := range entry.Achievements {
				fmt.Fprintf(&output, "  - %s\n", achievement)
			}
		}
		output.WriteString("\n")
	}

	if len(content.Projects) > 0 {
		output.WriteString("=== PROJECTS ===\n")
		for _, project := range content.Projects {
			output.WriteString(project.Title)
			if project.Technologies != "" {
				fmt.Fprintf(&output, " (%s)", project.Technologies)
			}
			output.WriteString("\n")
			if project.Description != "" {
				fmt.Fprintf(&output, "  %s\n", project.Description)
			}
		}
		output.WriteString("\n")
	}

	writeTextList(&output, "CERTIFICATIONS", content.Certifications)
	writeTextList(&output, "LANGUAGES", content.Languages)
	writeTextList(&output, "HOBBIES", content.Hobbies)

	if len(content.References) > 0 {
		output.WriteString("=== REFERENCES ===\n")
		for _, ref := range content.References {
			fmt.Fprintf(&output, "- %s\n", referenceLine(ref))
		}
		output.WriteString("\n")
	}

	fmt.Fprintf(&output, "Suggested file name: %s\n", content.FileName)
	return output.String(), nil
}

func (ctf *ContentTextFormatter) SupportedType() string {
	return typeGeneratedContent
}

// ContentMarkdownFormatter renders generated document content as markdown
type ContentMarkdownFormatter struct{}

func (cmf *ContentMarkdownFormatter) Format(data any) (string, error) {
	content, ok := data.(*types.GeneratedContent)
	if !ok || content == nil {
		return "", fmt.Errorf("expected *GeneratedContent, got %T", data)
	}

	var output strings.Builder

	fmt.Fprintf(&output, "# %s\n\n", content.DocumentType)
	output.WriteString("## Professional Summary\n\n")
	output.WriteString(content.Summary)
	output.WriteString("\n\n")

	output.WriteString("## Skills\n\n")
	if len(content.Skills.Technical) > 0 {
		fmt.Fprintf(&output, "**Technical:** %s\n\n", strings.Join(content.Skills.Technical, ", "))
	}
	if len(content.Skills.Soft) > 0 {
		fmt.Fprintf(&output, "**Soft:** %s\n\n", strings.Join(content.Skills.Soft, ", "))
	}

	if len(content.WorkExperience) > 0 {
		output.WriteString("## Experience\n\n")
		for _, entry := range content.WorkExperience {
			fmt.Fprintf(&output, "### %s\n\n", experienceHeading(entry))
			for _, achievement := range entry.Achievements {
				fmt.Fprintf(&output, "- %s\n", achievement)
			}
			output.WriteString("\n")
		}
	}

	if len(content.Projects) > 0 {
		output.WriteString("## Projects\n\n")
		for _, project := range content.Projects {
			fmt.Fprintf(&output, "### %s\n\n", project.Title)
			if project.Description != "" {
				fmt.Fprintf(&output, "%s\n\n", project.Description)
			}
			if project.Technologies != "" {
				fmt.Fprintf(&output, "*Technologies:* %s\n\n", project.Technologies)
			}
		}
	}

	writeMarkdownList(&output, "Certifications", content.Certifications)
	writeMarkdownList(&output, "Languages", content.Languages)
	writeMarkdownList(&output, "Hobbies", content.Hobbies)

	if len(content.References) > 0 {
		output.WriteString("## References\n\n")
		for _, ref := range content.References {
			fmt.Fprintf(&output, "- %s\n", referenceLine(ref))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (cmf *ContentMarkdownFormatter) SupportedType() string {
	return typeGeneratedContent
}

// SummaryTextFormatter renders a summary result as plain text
type SummaryTextFormatter struct{}

func (stf *SummaryTextFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.SummaryResult)
	if !ok || result == nil {
		return "", fmt.Errorf("expected *SummaryResult, got %T", data)
	}
	return result.Summary + "\n" + summarySourceLine(result), nil
}

func (stf *SummaryTextFormatter) SupportedType() string {
	return typeSummaryResult
}

// SummaryMarkdownFormatter renders a summary result as markdown
type SummaryMarkdownFormatter struct{}

func (smf *SummaryMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.SummaryResult)
	if !ok || result == nil {
		return "", fmt.Errorf("expected *SummaryResult, got %T", data)
	}

	var output strings.Builder
	output.WriteString("## Professional Summary\n\n")
	output.WriteString(result.Summary)
	output.WriteString("\n\n")
	fmt.Fprintf(&output, "*Source:* %s\n", result.Source)
	if result.Model != "" {
		fmt.Fprintf(&output, "*Model:* %s\n", result.Model)
	}
	if result.Fallback {
		fmt.Fprintf(&output, "*Fallback reason:* %s\n", result.FallbackReason)
	}
	return output.String(), nil
}

func (smf *SummaryMarkdownFormatter) SupportedType() string {
	return typeSummaryResult
}

// KeywordTextFormatter renders a keyword report as plain text
type KeywordTextFormatter struct{}

func (ktf *KeywordTextFormatter) Format(data any) (string, error) {
	report, err := keywordReport(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString("=== KEYWORDS ===\n")
	if len(report.Keywords) == 0 {
		output.WriteString("(none found)\n")
	} else {
		output.WriteString(strings.Join(report.Keywords, ", "))
		output.WriteString("\n")
	}
	output.WriteString("\n=== REQUIREMENTS ===\n")
	if len(report.Requirements) == 0 {
		output.WriteString("(none found)\n")
	}
	for i, requirement := range report.Requirements {
		fmt.Fprintf(&output, "%d. %s\n", i+1, requirement)
	}
	return output.String(), nil
}

func (ktf *KeywordTextFormatter) SupportedType() string {
	return typeKeywordReport
}

// KeywordMarkdownFormatter renders a keyword report as markdown
type KeywordMarkdownFormatter struct{}

func (kmf *KeywordMarkdownFormatter) Format(data any) (string, error) {
	report, err := keywordReport(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString("# Job Description Keywords\n\n")
	output.WriteString("## Keywords\n\n")
	for _, keyword := range report.Keywords {
		fmt.Fprintf(&output, "- `%s`\n", keyword)
	}
	output.WriteString("\n## Requirements\n\n")
	for _, requirement := range report.Requirements {
		fmt.Fprintf(&output, "- %s\n", requirement)
	}
	return output.String(), nil
}

func (kmf *KeywordMarkdownFormatter) SupportedType() string {
	return typeKeywordReport
}

func keywordReport(data any) (types.KeywordReport, error) {
	switch report := data.(type) {
	case types.KeywordReport:
		return report, nil
	case *types.KeywordReport:
		if report != nil {
			return *report, nil
		}
	}
	return types.KeywordReport{}, fmt.Errorf("expected KeywordReport, got %T", data)
}

func summarySourceLine(result *types.SummaryResult) string {
	line := fmt.Sprintf("(source: %s", result.Source)
	if result.Model != "" {
		line += ", model: " + result.Model
	}
	if result.Fallback {
		line += ", fallback: " + result.FallbackReason
	}
	return line + ")\n"
}

func experienceHeading(entry types.ExperienceEntry) string {
	heading := entry.JobTitle
	if entry.Company != "" {
		heading += " | " + entry.Company
	}
	if entry.StartDate != "" {
		heading += fmt.Sprintf(" (%s - %s)", tailoring.FormatDate(entry.StartDate), tailoring.FormatDate(entry.EndDate))
	}
	return heading
}

func referenceLine(ref types.ReferenceEntry) string {
	parts := []string{ref.Name}
	for _, part := range []string{ref.Title, ref.Company, ref.Email, ref.Phone} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

func writeTextList(output *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(output, "=== %s ===\n", title)
	for _, item := range items {
		fmt.Fprintf(output, "- %s\n", item)
	}
	output.WriteString("\n")
}

func writeMarkdownList(output *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(output, "## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(output, "- %s\n", item)
	}
	output.WriteString("\n")
}

// GlobalRegistry is the registry shared by the CLI and the HTTP server
var GlobalRegistry = NewFormatterRegistry()
