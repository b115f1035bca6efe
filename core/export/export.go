// Package export renders the state as downloadable files: CSV reports, a JSON dump,
// a ZIP bundle and an XLSX workbook.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"time"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/backup"
	"github.com/trezcool/evalboard/core/ranking"
	"github.com/trezcool/evalboard/core/state"
)

var nowFunc = time.Now // mockable

const fileTimeLayout = "20060102-150405"

type Kind string

const (
	KindStudentRanking Kind = "students"
	KindGroupRanking   Kind = "groups"
	KindRoster         Kind = "roster"
	KindEvaluations    Kind = "evaluations"
	KindState          Kind = "state"
	KindZip            Kind = "zip"
	KindXLSX           Kind = "xlsx"
)

var Kinds = []Kind{KindStudentRanking, KindGroupRanking, KindRoster, KindEvaluations, KindState, KindZip, KindXLSX}

// ErrUnknownKind is returned for unsupported export kinds.
var ErrUnknownKind = errors.New("unknown export kind")

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeJSON = "application/json; charset=utf-8"
	ContentTypeZip  = "application/zip"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var kindFiles = map[Kind]struct {
	prefix      string
	ext         string
	contentType string
}{
	KindStudentRanking: {"student ranking", "csv", ContentTypeCSV},
	KindGroupRanking:   {"group ranking", "csv", ContentTypeCSV},
	KindRoster:         {"students", "csv", ContentTypeCSV},
	KindEvaluations:    {"evaluations", "csv", ContentTypeCSV},
	KindState:          {"evalboard data", "json", ContentTypeJSON},
	KindZip:            {"rankings", "zip", ContentTypeZip},
	KindXLSX:           {"rankings", "xlsx", ContentTypeXLSX},
}

// File is a rendered export.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// FileName returns `<slug(prefix)>-<YYYYMMDD-HHMMSS>.<ext>`.
func FileName(prefix, ext string, at time.Time) string {
	return slug.Make(prefix) + "-" + at.Format(fileTimeLayout) + "." + ext
}

type Options struct {
	AppName  string
	Ranking  ranking.Options
	Location *time.Location // dates in reports and file names
	Cooldown time.Duration
}

func OptionsFromConfig(conf *core.Config) Options {
	return Options{
		AppName:  conf.AppName,
		Ranking:  ranking.OptionsFromConfig(conf),
		Location: conf.Task.Location(),
		Cooldown: conf.Export.BusyCooldown,
	}
}

type Exporter struct {
	appName string
	opts    ranking.Options
	loc     *time.Location
	guard   *Guard
}

func NewExporter(opts Options) *Exporter {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{
		appName: opts.AppName,
		opts:    opts.Ranking,
		loc:     loc,
		guard:   NewGuard(opts.Cooldown),
	}
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := kindFiles[k]; !ok {
		return "", errors.Wrap(ErrUnknownKind, s)
	}
	return k, nil
}

// Export renders `kind` from `snap`. Returns ErrBusy when the same kind was just requested.
func (e *Exporter) Export(ctx context.Context, kind Kind, snap state.Snapshot) (File, error) {
	kf, ok := kindFiles[kind]
	if !ok {
		return File{}, errors.Wrap(ErrUnknownKind, string(kind))
	}
	release, err := e.guard.Acquire(kind)
	if err != nil {
		return File{}, err
	}
	defer release()

	if err := ctx.Err(); err != nil {
		return File{}, err
	}

	now := nowFunc()
	var buf bytes.Buffer
	if err := e.write(&buf, kind, snap, now); err != nil {
		return File{}, err
	}
	return File{
		Name:        FileName(kf.prefix, kf.ext, now.In(e.loc)),
		ContentType: kf.contentType,
		Data:        buf.Bytes(),
	}, nil
}

func (e *Exporter) write(w io.Writer, kind Kind, snap state.Snapshot, now time.Time) error {
	in := snap.Input()
	switch kind {
	case KindStudentRanking:
		return e.WriteStudentRankingCSV(w, in)
	case KindGroupRanking:
		return e.WriteGroupRankingCSV(w, in)
	case KindRoster:
		return e.WriteRosterCSV(w, in)
	case KindEvaluations:
		return e.WriteEvaluationsCSV(w, in)
	case KindState:
		return backup.NewDocument(snap, e.appName, now).Encode(w)
	case KindZip:
		return e.WriteZip(w, snap, now)
	case KindXLSX:
		return e.WriteXLSX(w, in)
	}
	return errors.Wrap(ErrUnknownKind, string(kind))
}

// WriteZip bundles every CSV report and the JSON dump.
func (e *Exporter) WriteZip(w io.Writer, snap state.Snapshot, now time.Time) error {
	zw := zip.NewWriter(w)
	stamp := now.In(e.loc)
	for _, kind := range []Kind{KindStudentRanking, KindGroupRanking, KindRoster, KindEvaluations, KindState} {
		kf := kindFiles[kind]
		header := &zip.FileHeader{
			Name:     FileName(kf.prefix, kf.ext, stamp),
			Method:   zip.Deflate,
			Modified: stamp,
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return errors.Wrap(err, "creating zip entry")
		}
		if err := e.write(fw, kind, snap, now); err != nil {
			return err
		}
	}
	return errors.Wrap(zw.Close(), "closing zip")
}
