package excel

import (
	"github.com/xuri/excelize/v2"

	"powersim/domain/result"
	"powersim/internal/errors"
)

// ReportExporter writes a finished run to an xlsx workbook with two
// sheets: the scalar report and the per-replication results.
type ReportExporter struct{}

// NewReportExporter creates an exporter
func NewReportExporter() *ReportExporter {
	return &ReportExporter{}
}

// Export writes the workbook to path
func (e *ReportExporter) Export(record *result.RunRecord, path string) error {
	f := excelize.NewFile()

	if err := e.writeReportSheet(f, record); err != nil {
		return errors.Wrap(err, "failed to write report sheet")
	}
	if err := e.writeResultsSheet(f, record); err != nil {
		return errors.Wrap(err, "failed to write results sheet")
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save workbook %s", path)
	}
	return nil
}

func (e *ReportExporter) writeReportSheet(f *excelize.File, record *result.RunRecord) error {
	sheet := "Report"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	report := record.Report
	rows := [][]interface{}{
		{"run_id", record.ID.String()},
		{"created_at", record.CreatedAt.String()},
		{"power", report.Power},
		{"mean_width", report.MeanWidth},
		{"median_width", report.MedianWidth},
		{"width_q90", report.WidthQ90},
		{"failure_rate", report.FailureRate},
		{"replications", report.Replications},
		{"completed", report.Completed},
		{"succeeded", report.Succeeded},
		{"excluded", report.Excluded},
	}
	if report.ProportionBelow != nil {
		rows = append(rows, []interface{}{"proportion_below", *report.ProportionBelow})
	}

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *ReportExporter) writeResultsSheet(f *excelize.File, record *result.RunRecord) error {
	sheet := "Results"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"index", "seed", "point", "lower", "upper", "prob_mass", "width", "failed", "failure_reason"}
	for c, h := range headers {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for r, res := range record.Results {
		row := []interface{}{res.Index, res.Seed, res.Point, res.Lower, res.Upper, res.ProbMass, res.Width, res.Failed, res.FailureReason}
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
