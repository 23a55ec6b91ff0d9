// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package ibkrsection groups the rows of a multi-section broker statement into
// named sections.
//
// Every statement row starts with a section name and a row type (Header, Data,
// SubTotal, Total, Notes). A non-Data row opens the section it names, and a
// Header row additionally becomes the active header that subsequent Data rows
// are mapped against. Data rows are collected into the open section until a row
// naming a different section closes it. Sections that occur more than once are
// concatenated in encounter order.
//
// Segmentation is a single forward pass over the lines.
package ibkrsection

import (
	"github.com/bufdev/ibrecon/internal/pkg/csvline"
)

const (
	// RowTypeHeader is the row type of a column header row.
	RowTypeHeader = "Header"
	// RowTypeData is the row type of a data row.
	RowTypeData = "Data"
)

// Policy controls how a single section is collected.
type Policy struct {
	// IncludeHeaderRows keeps Header rows in the section's rows, in addition to
	// recording them as the active header. Used by sections whose schema is read
	// inline by the extractor.
	IncludeHeaderRows bool
}

// defaultPolicies holds the section policies for IBKR activity statements.
var defaultPolicies = map[string]Policy{
	"Open Positions": {IncludeHeaderRows: true},
}

// DefaultPolicies returns a copy of the section policies for IBKR activity statements.
func DefaultPolicies() map[string]Policy {
	policies := make(map[string]Policy, len(defaultPolicies))
	for name, policy := range defaultPolicies {
		policies[name] = policy
	}
	return policies
}

// Row is a tokenized statement row.
type Row struct {
	// Line is the 1-based line number of the row within the document.
	Line int
	// Cells are the trimmed fields of the row.
	Cells []string
	// Header is the Header row that was active when this row was read, or nil
	// if the section had no header yet. For a Header row it is the row itself.
	Header []string
}

// SectionName returns the first cell of the row.
func (r Row) SectionName() string {
	return r.Cell(0)
}

// RowType returns the second cell of the row.
func (r Row) RowType() string {
	return r.Cell(1)
}

// Cell returns the cell at index i, or the empty string if the row is shorter.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

// IsHeader reports whether the row is a Header row.
func (r Row) IsHeader() bool {
	return r.RowType() == RowTypeHeader
}

// Section is a named block of statement rows.
type Section struct {
	// Name is the section name.
	Name string
	// Rows are the collected rows in document order.
	Rows []Row
}

// Document is a segmented statement.
type Document struct {
	sections map[string]*Section
	names    []string
	// OrphanLines are the line numbers of Data rows that appeared outside of
	// any open section and were dropped.
	OrphanLines []int
}

// Section returns the named section and whether it was present in the document.
func (d *Document) Section(name string) (*Section, bool) {
	section, ok := d.sections[name]
	return section, ok
}

// Rows returns the rows of the named section, or nil if it is absent.
func (d *Document) Rows(name string) []Row {
	if section, ok := d.sections[name]; ok {
		return section.Rows
	}
	return nil
}

// Names returns the section names in order of first appearance.
func (d *Document) Names() []string {
	return append([]string(nil), d.names...)
}

// Segmenter splits statement text into sections.
type Segmenter struct {
	policies map[string]Policy
}

// NewSegmenter returns a new Segmenter using the given per-section policies.
// Sections without a policy use the zero Policy.
func NewSegmenter(policies map[string]Policy) *Segmenter {
	copied := make(map[string]Policy, len(policies))
	for name, policy := range policies {
		copied[name] = policy
	}
	return &Segmenter{policies: copied}
}

// Segment tokenizes and segments the statement text.
func (s *Segmenter) Segment(text string) *Document {
	document := &Document{sections: make(map[string]*Section)}
	var current *Section
	var activeHeader []string
	for i, line := range csvline.Lines(text) {
		if csvline.IsBlank(line) {
			continue
		}
		row := Row{Line: i + 1, Cells: csvline.Split(line)}
		if len(row.Cells) < 2 {
			// Title lines close whatever section was open.
			current = nil
			activeHeader = nil
			continue
		}
		if current != nil && row.SectionName() != current.Name {
			current = nil
			activeHeader = nil
		}
		if row.RowType() != RowTypeData {
			current = document.open(row.SectionName())
			if row.IsHeader() {
				activeHeader = row.Cells
				if s.policies[current.Name].IncludeHeaderRows {
					row.Header = activeHeader
					current.Rows = append(current.Rows, row)
				}
			}
			continue
		}
		if current == nil {
			document.OrphanLines = append(document.OrphanLines, row.Line)
			continue
		}
		row.Header = activeHeader
		current.Rows = append(current.Rows, row)
	}
	return document
}

// Segment segments text with the default IBKR policies.
func Segment(text string) *Document {
	return NewSegmenter(defaultPolicies).Segment(text)
}

func (d *Document) open(name string) *Section {
	if section, ok := d.sections[name]; ok {
		return section
	}
	section := &Section{Name: name, Rows: []Row{}}
	d.sections[name] = section
	d.names = append(d.names, name)
	return section
}
