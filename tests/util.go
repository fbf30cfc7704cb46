package testutil

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/bbbviewer/core"
	logsvc "github.com/trezcool/bbbviewer/services/logger"
)

const Token = "test-token"

type handlerFunc func(q url.Values) (int, string)

// FakeMoodle is a Moodle REST web service answering canned responses by wsfunction.
// Functions without a response answer with a Moodle exception.
type FakeMoodle struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]handlerFunc
	calls    []url.Values
}

func NewFakeMoodle(t *testing.T) *FakeMoodle {
	f := &FakeMoodle{handlers: make(map[string]handlerFunc)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeMoodle) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/webservice/rest/server.php" {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()

	f.mu.Lock()
	f.calls = append(f.calls, q)
	handler, ok := f.handlers[q.Get("wsfunction")]
	f.mu.Unlock()

	if q.Get("wstoken") != Token {
		writeBody(w, http.StatusOK, `{"exception":"moodle_exception","errorcode":"invalidtoken","message":"Invalid token - token not found"}`)
		return
	}
	if !ok {
		writeBody(w, http.StatusOK, fmt.Sprintf(
			`{"exception":"dml_missing_record_exception","errorcode":"invalidrecord","message":"Can't find data record in database table external_functions. (%s)"}`,
			q.Get("wsfunction"),
		))
		return
	}
	code, body := handler(q)
	writeBody(w, code, body)
}

func writeBody(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

// Handle answers function with body and status 200.
func (f *FakeMoodle) Handle(function, body string) {
	f.HandleFunc(function, func(url.Values) (int, string) { return http.StatusOK, body })
}

func (f *FakeMoodle) HandleFunc(function string, fn func(q url.Values) (int, string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[function] = fn
}

// CallsTo returns the query of every call made to function, in order.
func (f *FakeMoodle) CallsTo(function string) []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	var calls []url.Values
	for _, q := range f.calls {
		if q.Get("wsfunction") == function {
			calls = append(calls, q)
		}
	}
	return calls
}

// Config returns a TEST config pointing at moodleURL.
func Config(moodleURL string) *core.Config {
	return &core.Config{
		Env:        "TEST",
		TestMode:   true,
		AppName:    "BBB Moodle Manager",
		AppVersion: "1.0.0",
		Build:      "test",
		Timezone:   "UTC",
		Server: core.ServerConfig{
			Host:            ":0",
			ShutdownTimeout: time.Second,
			DisableReqLogs:  true,
		},
		Moodle: core.MoodleConfig{
			URL:          moodleURL,
			Token:        Token,
			RestFormat:   "json",
			Timeout:      2 * time.Second,
			MaxRedirects: 10,
		},
		Restrictions: core.RestrictionsConfig{ShowUnknown: true},
	}
}

// NewLogger returns a logger writing to w (io.Discard if nil) with Rollbar reporting off.
func NewLogger(conf *core.Config, w io.Writer) core.Logger {
	if w == nil {
		w = io.Discard
	}
	logger := logsvc.NewRollbarLogger(log.New(w, "TEST : ", 0), conf)
	logger.Enable(false)
	return logger
}
