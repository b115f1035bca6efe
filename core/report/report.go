// Package report builds the ranking report e-mail.
package report

import (
	"bytes"
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/dashboard"
	"github.com/trezcool/evalboard/core/export"
	"github.com/trezcool/evalboard/core/ranking"
	"github.com/trezcool/evalboard/core/state"
)

const templateName = "ranking_report"

var (
	ErrNoRecipients = errors.New("no report recipients configured")

	nowFunc = time.Now // mockable
)

// Data is rendered by the ranking_report templates.
type Data struct {
	GeneratedAt       time.Time
	StudentCount      int
	GroupCount        int
	AverageEfficiency float64
	TopStudents       []ranking.StudentRank
	TopGroups         []ranking.GroupRank
}

type Options struct {
	AppName    string
	Recipients []string
	Ranking    ranking.Options
	TopN       int
	Location   *time.Location
}

func OptionsFromConfig(conf *core.Config) Options {
	return Options{
		AppName:    conf.AppName,
		Recipients: conf.Email.ReportRecipients,
		Ranking:    ranking.OptionsFromConfig(conf),
		TopN:       conf.Ranking.TopN,
		Location:   conf.Task.Location(),
	}
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) recipients() ([]mail.Address, error) {
	addrs := make([]mail.Address, 0, len(o.Recipients))
	for _, r := range o.Recipients {
		if r = core.CleanString(r); r == "" {
			continue
		}
		addr, err := mail.ParseAddress(r)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing recipient %q", r)
		}
		addrs = append(addrs, *addr)
	}
	if len(addrs) == 0 {
		return nil, ErrNoRecipients
	}
	return addrs, nil
}

// NewRankingReport builds the report of `snap`, with the full student ranking attached as CSV.
func NewRankingReport(snap state.Snapshot, opts Options) (*core.EmailMessage, error) {
	to, err := opts.recipients()
	if err != nil {
		return nil, err
	}

	now := nowFunc().In(opts.location())
	in := snap.Input()
	studentRanks := ranking.Students(in, opts.Ranking)
	groupRanks := ranking.Groups(in, opts.Ranking)

	topN := opts.TopN
	if topN <= 0 {
		topN = dashboard.DefaultTopN
	}
	effs := 0.0
	for _, sr := range studentRanks {
		effs += sr.Efficiency
	}
	avg := 0.0
	if len(studentRanks) > 0 {
		avg = effs / float64(len(studentRanks))
	}

	msg := &core.EmailMessage{
		To:           to,
		Subject:      "Ranking report " + now.Format("02 Jan 2006"),
		AppName:      opts.AppName,
		TemplateName: templateName,
		TemplateData: Data{
			GeneratedAt:       now,
			StudentCount:      len(studentRanks),
			GroupCount:        len(groupRanks),
			AverageEfficiency: avg,
			TopStudents:       ranking.TopStudents(studentRanks, topN),
			TopGroups:         ranking.TopGroups(groupRanks, topN),
		},
	}

	exp := export.NewExporter(export.Options{AppName: opts.AppName, Ranking: opts.Ranking, Location: opts.location()})
	var buf bytes.Buffer
	if err := exp.WriteStudentRankingCSV(&buf, in); err != nil {
		return nil, err
	}
	name := export.FileName("student ranking", "csv", now)
	if err := msg.Attach(&buf, name, export.ContentTypeCSV); err != nil {
		return nil, err
	}
	return msg, nil
}

// Sender refreshes the state and mails the ranking report.
type Sender struct {
	store  state.Refresher
	mailer core.EmailService
	opts   Options
	logger core.Logger
}

func NewSender(store state.Refresher, mailer core.EmailService, opts Options, logger core.Logger) *Sender {
	return &Sender{store: store, mailer: mailer, opts: opts, logger: logger}
}

func (s *Sender) Send(ctx context.Context) error {
	snap, err := s.store.Refresh(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing state")
	}
	msg, err := NewRankingReport(snap, s.opts)
	if err != nil {
		return errors.Wrap(err, "building ranking report")
	}
	if err := s.mailer.Send(msg); err != nil {
		return errors.Wrap(err, "sending ranking report")
	}
	if s.logger != nil {
		s.logger.Info("ranking report sent", map[string]interface{}{"recipients": len(msg.To)})
	}
	return nil
}
