package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ReportBuilder provides a fluent interface for building plain reports
type ReportBuilder struct {
	lines     []string
	separator string
	width     int
}

// NewReportBuilder creates a new report builder
func NewReportBuilder() *ReportBuilder {
	return &ReportBuilder{separator: "=", width: 40}
}

// Header adds a header underlined to its own length
func (rb *ReportBuilder) Header(text string) *ReportBuilder {
	width := utf8.RuneCountInString(text)
	if width < rb.width {
		width = rb.width
	}
	rb.lines = append(rb.lines, text, strings.Repeat(rb.separator, width))
	return rb
}

// Section starts a titled section preceded by a blank line
func (rb *ReportBuilder) Section(title string) *ReportBuilder {
	rb.lines = append(rb.lines, "", title+":")
	return rb
}

// AddLine adds a plain line
func (rb *ReportBuilder) AddLine(text string) *ReportBuilder {
	rb.lines = append(rb.lines, text)
	return rb
}

// AddKeyValue adds an aligned key/value line
func (rb *ReportBuilder) AddKeyValue(key string, value interface{}) *ReportBuilder {
	rb.lines = append(rb.lines, fmt.Sprintf("  %-12s %v", key+":", value))
	return rb
}

// AddIndented adds every line of text indented by level steps
func (rb *ReportBuilder) AddIndented(text string, level int) *ReportBuilder {
	indent := strings.Repeat("  ", level)
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		rb.lines = append(rb.lines, indent+line)
	}
	return rb
}

// Build returns the report terminated by a newline
func (rb *ReportBuilder) Build() string {
	return strings.Join(rb.lines, "\n") + "\n"
}
