package export

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/evalboard/core/dashboard"
	"github.com/trezcool/evalboard/core/ranking"
)

const (
	studentsSheet = "Students"
	groupsSheet   = "Groups"
)

// WriteXLSX writes a workbook holding the student and group rankings.
func (e *Exporter) WriteXLSX(w io.Writer, in ranking.Input) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", studentsSheet); err != nil {
		return errors.Wrap(err, "naming students sheet")
	}
	if _, err := f.NewSheet(groupsSheet); err != nil {
		return errors.Wrap(err, "creating groups sheet")
	}

	idx := ranking.NewIndex(in)
	studentRows := [][]interface{}{toRow(studentRankingHeader)}
	for _, sr := range ranking.Students(in, e.opts) {
		grp := ""
		if gid := idx.GroupOf(sr.Student.ID); gid != ranking.NoGroupID {
			grp = idx.Group(gid).Name
		}
		studentRows = append(studentRows, []interface{}{
			sr.Rank, sr.Student.Name, sr.Student.Roll, grp, sr.EvalCount, sr.TotalScore, sr.MaxScoreSum,
			round2(sr.Efficiency), string(dashboard.GradeFor(sr.Efficiency)), formatMillis(sr.LatestEvaluationMs, e.loc),
		})
	}
	if err := writeRows(f, studentsSheet, studentRows); err != nil {
		return err
	}

	groupRows := [][]interface{}{toRow(groupRankingHeader)}
	for _, gr := range ranking.Groups(in, e.opts) {
		groupRows = append(groupRows, []interface{}{
			gr.Rank, gr.Group.Name, gr.EvalCount, gr.TotalScore, gr.MaxScoreSum, round2(gr.Efficiency),
			gr.GroupSize, gr.ParticipantsCount, gr.RemainingCount, round2(gr.ParticipationRate),
			formatMillis(gr.LatestEvaluationMs, e.loc),
		})
	}
	if err := writeRows(f, groupsSheet, groupRows); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return errors.Wrap(err, "writing xlsx")
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "locating cell")
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing %s row %d", sheet, i+1)
		}
	}
	return nil
}

func toRow(header []string) []interface{} {
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	return row
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
