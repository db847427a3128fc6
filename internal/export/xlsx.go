package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/broady/typroxy"
)

const (
	contractsSheet  = "Contracts"
	operationsSheet = "Operations"
)

var (
	contractHeaders  = []string{"Contract", "Qualified Name", "Region", "Route", "Operations"}
	operationHeaders = []string{"Contract", "Operation", "Declarer", "Verb", "Content Type", "Template", "Timeout", "Headers", "Parameters"}
)

// XLSXExporter writes the snapshot as a workbook with a contract overview
// sheet and one row per operation.
type XLSXExporter struct{}

// NewXLSXExporter creates a new XLSXExporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Export implements Exporter.
func (e *XLSXExporter) Export(w io.Writer, info typroxy.SetInfo) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := e.writeContracts(f, header, info); err != nil {
		return err
	}
	if err := e.writeOperations(f, header, info); err != nil {
		return err
	}

	// Remove default "Sheet1"
	if idx, err := f.GetSheetIndex("Sheet1"); err == nil && idx != -1 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}
	if idx, err := f.GetSheetIndex(contractsSheet); err == nil {
		f.SetActiveSheet(idx)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (e *XLSXExporter) writeContracts(f *excelize.File, header int, info typroxy.SetInfo) error {
	if _, err := f.NewSheet(contractsSheet); err != nil {
		return err
	}
	if err := writeRow(f, contractsSheet, 1, header, toAny(contractHeaders)...); err != nil {
		return err
	}
	for i, c := range info.Contracts {
		if err := writeRow(f, contractsSheet, i+2, 0,
			c.Name, c.QualifiedName, c.RegionKey, c.Route, len(c.Operations)); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(contractsSheet, "A", "A", 30); err != nil {
		return err
	}
	return f.SetColWidth(contractsSheet, "B", "B", 50)
}

func (e *XLSXExporter) writeOperations(f *excelize.File, header int, info typroxy.SetInfo) error {
	if _, err := f.NewSheet(operationsSheet); err != nil {
		return err
	}
	if err := writeRow(f, operationsSheet, 1, header, toAny(operationHeaders)...); err != nil {
		return err
	}

	row := 2
	for _, c := range info.Contracts {
		for _, op := range c.Operations {
			if err := writeRow(f, operationsSheet, row, 0,
				c.Name, op.Name, op.Declarer, op.Verb, op.ContentType, op.Template,
				op.Timeout, formatHeaders(op.Headers), formatParameters(op.Parameters)); err != nil {
				return err
			}
			row++
		}
	}

	if err := f.SetPanes(operationsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if err := f.SetColWidth(operationsSheet, "A", "C", 30); err != nil {
		return err
	}
	return f.SetColWidth(operationsSheet, "H", "I", 40)
}

// writeRow writes values starting at column A. A zero style leaves the
// cells unstyled.
func writeRow(f *excelize.File, sheet string, row, style int, values ...any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		if style != 0 {
			if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
		}
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func formatHeaders(headers map[string]string) string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = name + ": " + headers[name]
	}
	return strings.Join(lines, "\n")
}

func formatParameters(params []typroxy.ParameterInfo) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + " " + p.Type
	}
	return strings.Join(parts, ", ")
}
