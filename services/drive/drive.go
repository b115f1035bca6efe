// Package drivesvc keeps backups in a Google Drive folder.
package drivesvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/backup"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	backupMimeType = "application/json"
	fileFields     = "id, name, size, createdTime"
)

var ErrNoCredentials = errors.New("no google drive credentials configured")

// Storage implements backup.Storage over the Drive v3 API.
// It connects lazily and reconnects once when a call is rejected as unauthorized.
type Storage struct {
	folderName string
	connect    func(ctx context.Context) (*drive.Service, error)
	logger     core.Logger

	mu       sync.Mutex
	srv      *drive.Service
	folderID string
}

var _ backup.Storage = (*Storage)(nil)

// NewStorage returns a Storage authenticated with the credentials of `conf`:
// a service account key file, or an OAuth2 client secret along with a saved token.
func NewStorage(conf *core.Config, logger core.Logger) (*Storage, error) {
	if conf.Drive.CredentialsFile == "" && (conf.Drive.ClientSecret == "" || conf.Drive.TokenFile == "") {
		return nil, ErrNoCredentials
	}
	connect := func(ctx context.Context) (*drive.Service, error) {
		opt, err := credentials(conf)
		if err != nil {
			return nil, err
		}
		return drive.NewService(ctx, opt)
	}
	return newStorage(conf.Drive.FolderName, connect, logger), nil
}

// NewStorageWithOptions returns a Storage built from explicit client options.
func NewStorageWithOptions(folderName string, logger core.Logger, opts ...option.ClientOption) *Storage {
	connect := func(ctx context.Context) (*drive.Service, error) {
		return drive.NewService(ctx, opts...)
	}
	return newStorage(folderName, connect, logger)
}

func newStorage(folderName string, connect func(ctx context.Context) (*drive.Service, error), logger core.Logger) *Storage {
	if folderName == "" {
		folderName = "EvalBoard Backups"
	}
	return &Storage{folderName: folderName, connect: connect, logger: logger}
}

func credentials(conf *core.Config) (option.ClientOption, error) {
	if conf.Drive.CredentialsFile != "" {
		return option.WithCredentialsFile(conf.Drive.CredentialsFile), nil
	}

	secret, err := os.ReadFile(conf.Drive.ClientSecret)
	if err != nil {
		return nil, errors.Wrap(err, "reading client secret")
	}
	oauthConf, err := google.ConfigFromJSON(secret, drive.DriveFileScope)
	if err != nil {
		return nil, errors.Wrap(err, "parsing client secret")
	}
	f, err := os.Open(conf.Drive.TokenFile)
	if err != nil {
		return nil, errors.Wrap(err, "opening token file")
	}
	defer func() { _ = f.Close() }()
	tok := new(oauth2.Token)
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, errors.Wrap(err, "decoding token file")
	}
	// the token source outlives any request: refresh with a background context
	return option.WithTokenSource(oauthConf.TokenSource(context.Background(), tok)), nil
}

func (s *Storage) service(ctx context.Context) (*drive.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return s.srv, nil
	}
	srv, err := s.connect(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to google drive")
	}
	s.srv = srv
	return srv, nil
}

func (s *Storage) disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.srv = nil
	s.folderID = ""
}

func isUnauthorized(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusUnauthorized
}

// do runs `fn`, reconnecting and retrying once if Drive answers 401.
func (s *Storage) do(ctx context.Context, fn func(srv *drive.Service, folderID string) error) error {
	for attempt := 1; ; attempt++ {
		srv, err := s.service(ctx)
		if err != nil {
			return err
		}
		folderID, err := s.folder(ctx, srv)
		if err == nil {
			err = fn(srv, folderID)
		}
		if err == nil || attempt > 1 || !isUnauthorized(err) {
			return err
		}
		if s.logger != nil {
			s.logger.Warn("google drive session expired, reconnecting", err)
		}
		s.disconnect()
	}
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// folder returns the id of the backup folder, creating it on first use.
func (s *Storage) folder(ctx context.Context, srv *drive.Service) (string, error) {
	s.mu.Lock()
	id := s.folderID
	s.mu.Unlock()
	if id != "" {
		return id, nil
	}

	q := "name = '" + escapeQuery(s.folderName) + "' and mimeType = '" + folderMimeType + "' and trashed = false"
	list, err := srv.Files.List().Q(q).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", errors.Wrap(err, "finding backup folder")
	}
	if len(list.Files) > 0 {
		id = list.Files[0].Id
	} else {
		f, err := srv.Files.Create(&drive.File{Name: s.folderName, MimeType: folderMimeType}).Fields("id").Context(ctx).Do()
		if err != nil {
			return "", errors.Wrap(err, "creating backup folder")
		}
		id = f.Id
	}

	s.mu.Lock()
	s.folderID = id
	s.mu.Unlock()
	return id, nil
}

func toFileInfo(f *drive.File) backup.FileInfo {
	created, _ := time.Parse(time.RFC3339, f.CreatedTime)
	return backup.FileInfo{ID: f.Id, Name: f.Name, Size: f.Size, CreatedAt: created}
}

func (s *Storage) Upload(ctx context.Context, name string, data []byte) (backup.FileInfo, error) {
	var info backup.FileInfo
	err := s.do(ctx, func(srv *drive.Service, folderID string) error {
		meta := &drive.File{Name: name, MimeType: backupMimeType, Parents: []string{folderID}}
		f, err := srv.Files.Create(meta).
			Media(bytes.NewReader(data), googleapi.ContentType(backupMimeType)).
			Fields(fileFields).
			Context(ctx).
			Do()
		if err != nil {
			return errors.Wrap(err, "uploading "+name)
		}
		info = toFileInfo(f)
		return nil
	})
	return info, err
}

func (s *Storage) List(ctx context.Context) ([]backup.FileInfo, error) {
	var files []backup.FileInfo
	err := s.do(ctx, func(srv *drive.Service, folderID string) error {
		files = files[:0]
		q := "'" + escapeQuery(folderID) + "' in parents and trashed = false and mimeType != '" + folderMimeType + "'"
		call := srv.Files.List().Q(q).OrderBy("createdTime desc").Fields("nextPageToken, files(" + fileFields + ")").PageSize(100)
		return call.Pages(ctx, func(list *drive.FileList) error {
			for _, f := range list.Files {
				files = append(files, toFileInfo(f))
			}
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing backups")
	}
	return files, nil
}

func (s *Storage) Download(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.do(ctx, func(srv *drive.Service, _ string) error {
		resp, err := srv.Files.Get(id).Context(ctx).Download()
		if err != nil {
			return errors.Wrap(err, "downloading "+id)
		}
		defer func() { _ = resp.Body.Close() }()
		data, err = io.ReadAll(resp.Body)
		return errors.Wrap(err, "reading "+id)
	})
	return data, err
}
