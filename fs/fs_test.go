package appfs

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFS(t *testing.T) {
	files := []string{
		"migrations/00001_create_groups.sql",
		"migrations/00004_create_evaluations.sql",
		"templates/email/_base.gohtml",
		"templates/email/_base.txt",
		"templates/email/ranking_report.gohtml",
		"templates/email/ranking_report.txt",
	}
	for _, name := range files {
		t.Run(name, func(t *testing.T) {
			_, err := fs.Stat(FS, name)
			assert.NoError(t, err)
		})
	}
}
