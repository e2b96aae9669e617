package report

import (
	"fmt"

	"github.com/bobmcallan/stockdash/internal/format"
	"github.com/bobmcallan/stockdash/internal/models"
)

// CellPolicy selects how statement cells are rendered.
type CellPolicy string

const (
	PolicyCurrency CellPolicy = "currency"
	PolicyNumber   CellPolicy = "number"
)

// ParseCellPolicy validates a policy name. Empty means currency.
func ParseCellPolicy(s string) (CellPolicy, error) {
	switch CellPolicy(s) {
	case "", PolicyCurrency:
		return PolicyCurrency, nil
	case PolicyNumber:
		return PolicyNumber, nil
	}
	return "", fmt.Errorf("unknown cell policy %q", s)
}

// Row is one rendered statement line.
type Row struct {
	Label    string   `json:"label"`
	Category Category `json:"category"`
	Cells    []string `json:"cells"`
}

// Table is a rendered statement.
type Table struct {
	Statement models.Statement `json:"statement"`
	Periods   []string         `json:"periods"`
	Rows      []Row            `json:"rows"`
}

// Builder renders statement tables with a fixed formatter and cell policy.
type Builder struct {
	formatter *format.Formatter
	policy    CellPolicy
}

// NewBuilder returns a Builder.
func NewBuilder(f *format.Formatter, policy CellPolicy) *Builder {
	if policy == "" {
		policy = PolicyCurrency
	}
	return &Builder{formatter: f, policy: policy}
}

// Formatter returns the formatter used for cells.
func (b *Builder) Formatter() *format.Formatter { return b.formatter }

// BalanceSheet formats every cell and classifies each row.
func (b *Builder) BalanceSheet(raw models.RawTable) (Table, error) {
	return b.Statement(models.BalanceSheet, raw)
}

// Statement formats every cell independently. Only balance sheet rows are classified;
// other statements are all Neutral.
func (b *Builder) Statement(kind models.Statement, raw models.RawTable) (Table, error) {
	t := Table{
		Statement: kind,
		Periods:   append([]string(nil), raw.Periods...),
		Rows:      make([]Row, 0, len(raw.Rows)),
	}

	for _, r := range raw.Rows {
		row := Row{Label: r.Label, Category: Neutral, Cells: make([]string, len(raw.Periods))}
		if kind == models.BalanceSheet {
			row.Category = Classify(r.Label)
		}
		for i := range row.Cells {
			v := format.Missing()
			if i < len(r.Values) {
				v = r.Values[i]
			}
			cell, err := b.cell(v)
			if err != nil {
				return Table{}, fmt.Errorf("row %q period %d: %w", r.Label, i, err)
			}
			row.Cells[i] = cell
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

func (b *Builder) cell(v format.Value) (string, error) {
	if b.policy == PolicyNumber {
		return b.formatter.Number(v)
	}
	return b.formatter.Currency(v)
}
