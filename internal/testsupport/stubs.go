package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// OracleStub is an httptest server that answers chat-completion requests
// with canned JSON payloads, in request order. After the scripted responses
// run out, the last one repeats.
type OracleStub struct {
	Server *httptest.Server
	calls  atomic.Int32
}

// NewOracleStub scripts one JSON payload per expected oracle call. A payload
// beginning with "!" makes the stub answer that call with HTTP 500 instead.
func NewOracleStub(t testing.TB, payloads ...string) *OracleStub {
	t.Helper()
	stub := &OracleStub{}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := int(stub.calls.Add(1)) - 1
		if len(payloads) == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if idx >= len(payloads) {
			idx = len(payloads) - 1
		}
		payload := payloads[idx]
		if len(payload) > 0 && payload[0] == '!' {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, payload[1:])
			return
		}
		body, err := json.Marshal(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": payload}},
			},
		})
		if err != nil {
			t.Errorf("marshal oracle stub response: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(stub.Server.Close)
	return stub
}

// URL returns the stub server's base URL.
func (s *OracleStub) URL() string {
	return s.Server.URL
}

// Calls reports how many completion requests the stub has served.
func (s *OracleStub) Calls() int {
	return int(s.calls.Load())
}

// NewFeedServer serves fixed bodies keyed by request path, with any unknown
// path answered 404. Bodies are typically RSS or Atom documents.
func NewFeedServer(t testing.TB, bodies map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

// RSSFeed builds a minimal RSS 2.0 document from title/link pairs.
func RSSFeed(title string, entries ...[2]string) string {
	items := ""
	for _, entry := range entries {
		items += fmt.Sprintf("<item><title>%s</title><link>%s</link><description>%s</description></item>", entry[0], entry[1], entry[0])
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>%s</title>%s</channel></rss>`, title, items)
}
