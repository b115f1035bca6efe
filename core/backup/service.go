// Package backup dumps the whole state to a remote storage and restores it.
package backup

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/state"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNoBackups       = errors.New("no backup found")
	ErrStorageDisabled = errors.New("backup storage is not configured")
)

// FileInfo describes a stored backup.
type FileInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// Storage is any remote place backups can be kept in (eg. a Google Drive folder).
type Storage interface {
	Upload(ctx context.Context, name string, data []byte) (FileInfo, error)
	// List returns the stored backups, newest first.
	List(ctx context.Context) ([]FileInfo, error)
	Download(ctx context.Context, id string) ([]byte, error)
}

type Service struct {
	storage Storage
	repos   state.Repositories
	appName string
	logger  core.Logger
}

// NewService returns a backup Service. `storage` may be nil when backups are disabled;
// documents can still be restored with RestoreDocument.
func NewService(storage Storage, repos state.Repositories, appName string, logger core.Logger) *Service {
	return &Service{storage: storage, repos: repos, appName: appName, logger: logger}
}

func (svc *Service) Enabled() bool {
	return svc.storage != nil
}

// Backup uploads a dump of `snap`.
func (svc *Service) Backup(ctx context.Context, snap state.Snapshot) (FileInfo, error) {
	if !svc.Enabled() {
		return FileInfo{}, ErrStorageDisabled
	}
	now := nowFunc()
	var buf bytes.Buffer
	if err := NewDocument(snap, svc.appName, now).Encode(&buf); err != nil {
		return FileInfo{}, err
	}
	info, err := svc.storage.Upload(ctx, FileName(svc.appName, now), buf.Bytes())
	if err != nil {
		return FileInfo{}, errors.Wrap(err, "uploading backup")
	}
	svc.log("backup uploaded", info)
	return info, nil
}

func (svc *Service) List(ctx context.Context) ([]FileInfo, error) {
	if !svc.Enabled() {
		return nil, ErrStorageDisabled
	}
	files, err := svc.storage.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing backups")
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].CreatedAt.After(files[j].CreatedAt) })
	return files, nil
}

// Restore downloads the backup `fileID` (the latest when empty) and restores it.
func (svc *Service) Restore(ctx context.Context, fileID string) (Document, error) {
	if !svc.Enabled() {
		return Document{}, ErrStorageDisabled
	}
	if fileID == "" {
		files, err := svc.List(ctx)
		if err != nil {
			return Document{}, err
		}
		if len(files) == 0 {
			return Document{}, ErrNoBackups
		}
		fileID = files[0].ID
	}

	data, err := svc.storage.Download(ctx, fileID)
	if err != nil {
		return Document{}, errors.Wrap(err, "downloading backup")
	}
	doc, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Document{}, err
	}
	if err := svc.RestoreDocument(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// RestoreDocument replaces every collection with the content of `doc`.
// The state must be refreshed afterwards.
func (svc *Service) RestoreDocument(ctx context.Context, doc Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := svc.repos.Groups.ReplaceGroups(ctx, doc.Groups); err != nil {
		return errors.Wrap(err, "restoring groups")
	}
	if err := svc.repos.Students.ReplaceStudents(ctx, doc.Students); err != nil {
		return errors.Wrap(err, "restoring students")
	}
	if err := svc.repos.Tasks.ReplaceTasks(ctx, doc.Tasks); err != nil {
		return errors.Wrap(err, "restoring tasks")
	}
	if err := svc.repos.Evaluations.ReplaceEvaluations(ctx, doc.Evaluations); err != nil {
		return errors.Wrap(err, "restoring evaluations")
	}
	svc.log("backup restored", map[string]interface{}{
		"students":    len(doc.Students),
		"groups":      len(doc.Groups),
		"tasks":       len(doc.Tasks),
		"evaluations": len(doc.Evaluations),
		"exportedAt":  doc.ExportedAt,
	})
	return nil
}

func (svc *Service) log(msg string, extra interface{}) {
	if svc.logger == nil {
		return
	}
	if info, ok := extra.(FileInfo); ok {
		extra = map[string]interface{}{"id": info.ID, "name": info.Name, "size": info.Size}
	}
	svc.logger.Info(msg, extra)
}
