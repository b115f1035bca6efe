package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core/dashboard"
	"github.com/trezcool/evalboard/core/ranking"
)

// utf8BOM lets spreadsheet apps detect the encoding of the Bengali headers.
const utf8BOM = "\ufeff"

const dateTimeLayout = "2006-01-02 15:04"

var (
	studentRankingHeader = []string{
		"ক্রম", "নাম", "রোল", "গ্রুপ", "মূল্যায়ন সংখ্যা", "মোট নম্বর", "সর্বোচ্চ নম্বর", "দক্ষতা (%)", "গ্রেড", "সর্বশেষ মূল্যায়ন",
	}
	groupRankingHeader = []string{
		"ক্রম", "গ্রুপ", "মূল্যায়ন সংখ্যা", "মোট নম্বর", "সর্বোচ্চ নম্বর", "দক্ষতা (%)",
		"সদস্য সংখ্যা", "অংশগ্রহণকারী", "বাকি", "অংশগ্রহণের হার (%)", "সর্বশেষ মূল্যায়ন",
	}
	rosterHeader = []string{
		"রোল", "নাম", "লিঙ্গ", "গ্রুপ", "একাডেমিক গ্রুপ", "সেশন", "দায়িত্ব", "যোগাযোগ",
	}
	evaluationsHeader = []string{
		"টাস্ক", "গ্রুপ", "রোল", "নাম", "টাস্ক নম্বর", "টিম নম্বর", "এমসিকিউ নম্বর", "অতিরিক্ত নম্বর",
		"মোট নম্বর", "সর্বোচ্চ নম্বর", "মন্তব্য", "মূল্যায়নের তারিখ",
	}
)

type csvWriter struct {
	w   *csv.Writer
	err error
}

func newCSVWriter(w io.Writer, header []string) *csvWriter {
	cw := &csvWriter{w: csv.NewWriter(w)}
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		cw.err = err
		return cw
	}
	cw.write(header)
	return cw
}

func (cw *csvWriter) write(record []string) {
	if cw.err == nil {
		cw.err = cw.w.Write(record)
	}
}

func (cw *csvWriter) flush(what string) error {
	if cw.err == nil {
		cw.w.Flush()
		cw.err = cw.w.Error()
	}
	return errors.Wrap(cw.err, "writing "+what+" csv")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatPercent(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatMillis(ms int64, loc *time.Location) string {
	if ms == 0 {
		return ""
	}
	return time.Unix(0, ms*int64(time.Millisecond)).In(loc).Format(dateTimeLayout)
}

// WriteStudentRankingCSV writes the student ranking of `in`.
func (e *Exporter) WriteStudentRankingCSV(w io.Writer, in ranking.Input) error {
	idx := ranking.NewIndex(in)
	cw := newCSVWriter(w, studentRankingHeader)
	for _, sr := range ranking.Students(in, e.opts) {
		grp := ""
		if gid := idx.GroupOf(sr.Student.ID); gid != ranking.NoGroupID {
			grp = idx.Group(gid).Name
		}
		cw.write([]string{
			strconv.Itoa(sr.Rank),
			sr.Student.Name,
			sr.Student.Roll,
			grp,
			strconv.Itoa(sr.EvalCount),
			formatFloat(sr.TotalScore),
			formatFloat(sr.MaxScoreSum),
			formatPercent(sr.Efficiency),
			string(dashboard.GradeFor(sr.Efficiency)),
			formatMillis(sr.LatestEvaluationMs, e.loc),
		})
	}
	return cw.flush("student ranking")
}

// WriteGroupRankingCSV writes the group ranking of `in`.
func (e *Exporter) WriteGroupRankingCSV(w io.Writer, in ranking.Input) error {
	cw := newCSVWriter(w, groupRankingHeader)
	for _, gr := range ranking.Groups(in, e.opts) {
		cw.write([]string{
			strconv.Itoa(gr.Rank),
			gr.Group.Name,
			strconv.Itoa(gr.EvalCount),
			formatFloat(gr.TotalScore),
			formatFloat(gr.MaxScoreSum),
			formatPercent(gr.Efficiency),
			strconv.Itoa(gr.GroupSize),
			strconv.Itoa(gr.ParticipantsCount),
			strconv.Itoa(gr.RemainingCount),
			formatPercent(gr.ParticipationRate),
			formatMillis(gr.LatestEvaluationMs, e.loc),
		})
	}
	return cw.flush("group ranking")
}

// WriteRosterCSV writes every student of `in`.
func (e *Exporter) WriteRosterCSV(w io.Writer, in ranking.Input) error {
	idx := ranking.NewIndex(in)
	cw := newCSVWriter(w, rosterHeader)
	for _, s := range in.Students {
		grp := ""
		if s.HasGroup() {
			grp = idx.Group(s.GroupID).Name
		}
		cw.write([]string{s.Roll, s.Name, s.Gender, grp, s.AcademicGroup, s.Session, s.Role, s.Contact})
	}
	return cw.flush("roster")
}

// WriteEvaluationsCSV writes one line per scored student of every evaluation.
func (e *Exporter) WriteEvaluationsCSV(w io.Writer, in ranking.Input) error {
	idx := ranking.NewIndex(in)
	fallback := e.opts.FallbackMax()

	cw := newCSVWriter(w, evaluationsHeader)
	for _, ev := range in.Evaluations {
		evalDate := ev.EvaluationDate
		if !evalDate.IsSet() {
			evalDate = ev.CreatedAt
		}
		for _, sid := range ev.StudentIDs() {
			sc := ev.Scores[sid]
			std := idx.Student(sid)
			cw.write([]string{
				idx.TaskName(ev.TaskID),
				idx.Group(ev.GroupID).Name,
				std.Roll,
				std.Name,
				formatFloat(sc.TaskScore.Float64()),
				formatFloat(sc.TeamScore.Float64()),
				formatFloat(sc.MCQScore.Float64()),
				formatFloat(sc.AdditionalScore.Float64()),
				formatFloat(sc.Total()),
				formatFloat(ev.MaxScore(fallback)),
				sc.Comments,
				formatMillis(evalDate.Millis(), e.loc),
			})
		}
	}
	return cw.flush("evaluations")
}
