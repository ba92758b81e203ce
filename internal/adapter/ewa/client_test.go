package ewa

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ewaStub mimics the session choreography: the main page issues a cookie,
// the wellbore form requires it, and searches fail without both bootstrap
// visits having happened.
type ewaStub struct {
	mainHits      int
	bootstrapHits int
	searches      []map[string]string
	respond       func(form map[string]string) string
}

func (s *ewaStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ewaMain.do", func(w http.ResponseWriter, _ *http.Request) {
		s.mainHits++
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "test-session", Path: "/"})
		fmt.Fprint(w, "<html>main</html>")
	})
	mux.HandleFunc("/wellboreQueryAction.do", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("JSESSIONID"); err != nil || c.Value != "test-session" {
			http.Error(w, "no session", http.StatusForbidden)
			return
		}
		if r.Method == http.MethodGet {
			s.bootstrapHits++
			fmt.Fprint(w, "<html>form</html>")
			return
		}
		if s.bootstrapHits == 0 {
			http.Error(w, "query before bootstrap", http.StatusForbidden)
			return
		}
		_ = r.ParseForm()
		form := make(map[string]string)
		for k := range r.PostForm {
			form[k] = r.PostFormValue(k)
		}
		s.searches = append(s.searches, form)
		fmt.Fprint(w, s.respond(form))
	})
	return mux
}

func newTestClient(t *testing.T, stub *ewaStub) *Client {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, 5*time.Second, 5*time.Second, discardLogger())
	require.NoError(t, err)
	return client
}

func TestSearchByAPIFound(t *testing.T) {
	stub := &ewaStub{respond: func(form map[string]string) string {
		return `<html><body>
			<a href="?apiNo=32912345">32912345</a>
			<a title="Operator # 659525" href="#">PIONEER NATURAL RESOURCES USA, INC.</a>
		</body></html>`
	}}
	client := newTestClient(t, stub)

	op, ok, err := client.SearchByAPI(context.Background(), "329", "12345")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "PIONEER NATURAL RESOURCES USA, INC.", op.Name)
	assert.Equal(t, "659525", op.Number)

	require.Len(t, stub.searches, 1)
	form := stub.searches[0]
	assert.Equal(t, "search", form["methodToCall"])
	assert.Equal(t, "329", form["searchArgs.apiNoPrefixArg"])
	assert.Equal(t, "12345", form["searchArgs.apiNoSuffixArg"])
	assert.Equal(t, "", form["searchArgs.countyCodeArg"])
}

func TestSearchByAPINotFound(t *testing.T) {
	stub := &ewaStub{respond: func(map[string]string) string {
		return "<html><body>No records found.</body></html>"
	}}
	client := newTestClient(t, stub)

	_, ok, err := client.SearchByAPI(context.Background(), "329", "99999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSearchByCounty(t *testing.T) {
	stub := &ewaStub{respond: func(form map[string]string) string {
		return `<html><body>
			<a href="?apiNo=32911111">32911111</a>
			<a href="?apiNo=32922222">32922222</a>
			<a title="Operator # 1" href="#">EOG RESOURCES, INC.</a>
			<a title="Operator # 2" href="#">OXY USA INC.</a>
		</body></html>`
	}}
	client := newTestClient(t, stub)

	result, err := client.SearchByCounty(context.Background(), "329", 2, 50)
	require.NoError(t, err)
	require.Len(t, result.Pairs, 2)
	assert.Equal(t, "32911111", result.Pairs[0].API)
	assert.Equal(t, "EOG RESOURCES, INC.", result.Pairs[0].Name)

	require.Len(t, stub.searches, 1)
	form := stub.searches[0]
	assert.Equal(t, "329", form["searchArgs.apiNoPrefixArg"])
	assert.Equal(t, "", form["searchArgs.apiNoSuffixArg"])
	assert.Equal(t, "2", form["page"])
	assert.Equal(t, "50", form["pagesize"])
}

// TestSearchErrorStatusIsAnError verifies an error page from the query
// endpoint surfaces as an error. An expired session's 403 page parses as zero
// matches, which must never be mistaken for a legitimately empty result.
func TestSearchErrorStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, "<html>ok</html>")
			return
		}
		http.Error(w, "session expired", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, 5*time.Second, 5*time.Second, discardLogger())
	require.NoError(t, err)

	result, err := client.SearchByCounty(context.Background(), "329", 1, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.True(t, result.Empty())

	_, ok, err := client.SearchByAPI(context.Background(), "329", "12345")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.False(t, ok)
}

// TestBootstrapErrorStatusIsAnError covers the session bootstrap pages.
func TestBootstrapErrorStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, 5*time.Second, 5*time.Second, discardLogger())
	require.NoError(t, err)

	_, err = client.SearchByCounty(context.Background(), "329", 1, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

// TestSessionBootstrapOnce verifies the two bootstrap visits happen before
// the first query and are not repeated on subsequent queries.
func TestSessionBootstrapOnce(t *testing.T) {
	stub := &ewaStub{respond: func(map[string]string) string {
		return "<html><body>No records found.</body></html>"
	}}
	client := newTestClient(t, stub)

	_, _, err := client.SearchByAPI(context.Background(), "329", "00001")
	require.NoError(t, err)
	_, err = client.SearchByCounty(context.Background(), "475", 1, 50)
	require.NoError(t, err)

	assert.Equal(t, 1, stub.mainHits)
	assert.Equal(t, 1, stub.bootstrapHits)
	assert.Len(t, stub.searches, 2)
}
