package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/evalboard/core"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Env: "TEST", Debug: true})

	logger.Info("state refreshed", map[string]interface{}{"students": 3}, core.Actor{ID: "admin", Name: "CLI"})
	logger.Error("export failed", errors.New("boom"))

	assert.Equal(t, "INFO: state refreshed\nmap[students:3]\nERROR: export failed\nboom\n", buf.String())
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := RollbarLogger{}
	err := errors.New("boom")
	got := logger.prepare("msg", []interface{}{core.Actor{ID: "1"}, err, core.Actor{ID: "2"}})
	assert.Equal(t, []interface{}{"msg", err}, got)
}
