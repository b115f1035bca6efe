package backup

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/group"
	"github.com/trezcool/evalboard/core/state"
	"github.com/trezcool/evalboard/core/student"
	"github.com/trezcool/evalboard/core/task"
)

const (
	DocumentVersion = 1
	fileTimeLayout  = "20060102-150405"
)

// ErrInvalidDocument is returned when a backup cannot be restored.
var ErrInvalidDocument = errors.New("invalid backup document")

// Document is the full-state dump written by backups and the JSON export.
type Document struct {
	Version     int                     `json:"version"`
	App         string                  `json:"app"`
	ExportedAt  time.Time               `json:"exportedAt"`
	Students    []student.Student       `json:"students"`
	Groups      []group.Group           `json:"groups"`
	Tasks       []task.Task             `json:"tasks"`
	Evaluations []evaluation.Evaluation `json:"evaluations"`
}

func NewDocument(snap state.Snapshot, app string, now time.Time) Document {
	doc := Document{
		Version:     DocumentVersion,
		App:         app,
		ExportedAt:  now.UTC(),
		Students:    snap.Students,
		Groups:      snap.Groups,
		Tasks:       snap.Tasks,
		Evaluations: snap.Evaluations,
	}
	// dumps always hold arrays
	if doc.Students == nil {
		doc.Students = []student.Student{}
	}
	if doc.Groups == nil {
		doc.Groups = []group.Group{}
	}
	if doc.Tasks == nil {
		doc.Tasks = []task.Task{}
	}
	if doc.Evaluations == nil {
		doc.Evaluations = []evaluation.Evaluation{}
	}
	return doc
}

// Validate checks the document can be restored: a known version and unique ids on every record.
// Dumps without a version are read as version 1.
func (doc Document) Validate() error {
	if doc.Version < 0 || doc.Version > DocumentVersion {
		return errors.Wrapf(ErrInvalidDocument, "unsupported version %d", doc.Version)
	}

	ids := make([]string, len(doc.Students))
	for i, s := range doc.Students {
		ids[i] = s.ID
	}
	if err := checkIDs("students", ids); err != nil {
		return err
	}

	ids = make([]string, len(doc.Groups))
	for i, g := range doc.Groups {
		ids[i] = g.ID
	}
	if err := checkIDs("groups", ids); err != nil {
		return err
	}

	ids = make([]string, len(doc.Tasks))
	for i, t := range doc.Tasks {
		ids[i] = t.ID
	}
	if err := checkIDs("tasks", ids); err != nil {
		return err
	}

	ids = make([]string, len(doc.Evaluations))
	for i, e := range doc.Evaluations {
		ids[i] = e.ID
	}
	return checkIDs("evaluations", ids)
}

// checkIDs rejects blank and duplicate ids. Repositories key records by id,
// so a duplicate would be dropped in memory and violate the primary key on Postgres.
func checkIDs(collection string, ids []string) error {
	seen := make(map[string]int, len(ids))
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return errors.Wrapf(ErrInvalidDocument, "%s[%d]: missing id", collection, i)
		}
		if j, ok := seen[id]; ok {
			return errors.Wrapf(ErrInvalidDocument, "%s[%d]: id %q already used by %s[%d]", collection, i, id, collection, j)
		}
		seen[id] = i
	}
	return nil
}

func (doc Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(doc), "encoding backup document")
}

// Decode reads and validates a Document. Malformed field values are absorbed,
// only undecodable JSON and unrestorable documents fail.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, errors.Wrap(ErrInvalidDocument, err.Error())
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// FileName returns the name backups of `app` taken at `now` are stored under.
func FileName(app string, now time.Time) string {
	return slug.Make(app+" backup") + "-" + now.UTC().Format(fileTimeLayout) + ".json"
}
