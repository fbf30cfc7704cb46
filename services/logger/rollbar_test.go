package logsvc

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bbbviewer/core"
)

func newTestLogger(buf *bytes.Buffer) *RollbarLogger {
	logger := NewRollbarLogger(log.New(buf, "", 0), &core.Config{Env: "TEST", Build: "test"})
	logger.Enable(false)
	return logger
}

func TestRollbarLogger_print(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := newTestLogger(buf)

	req := core.RequestInfo{ID: "abc", Method: "GET", Path: "/"}
	logger.Error("BBBManager Error", errors.New("boom"), req)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "BBBManager Error\nboom\n"), out)
	assert.True(t, strings.HasSuffix(out, "request abc GET /\n"), out)
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := newTestLogger(new(bytes.Buffer))
	err := errors.New("boom")

	args := logger.prepare("msg", []interface{}{err, core.RequestInfo{ID: "abc", Method: "GET", Path: "/health"}})
	assert.Equal(t, []interface{}{
		"msg",
		err,
		map[string]interface{}{"request_id": "abc", "method": "GET", "path": "/health"},
	}, args)
}
