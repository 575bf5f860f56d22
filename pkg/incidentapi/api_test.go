package incidentapi

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clcollins/incmgr/pkg/controller"
	"github.com/clcollins/incmgr/pkg/incident"
	"github.com/clcollins/incmgr/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	created = time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)
	later   = created.Add(time.Hour)
)

type testServer struct {
	*httptest.Server
	store   *MemStore
	metrics *Metrics
}

func newTestServer(t *testing.T, now time.Time) *testServer {
	t.Helper()

	ts := &testServer{store: NewMemStore()}

	reg := prometheus.NewRegistry()
	ts.metrics = NewMetrics(reg)
	api := New(ts.store, WithMetrics(ts.metrics), WithClock(func() time.Time { return now }))
	ts.Server = httptest.NewServer(NewHandler(api, reg))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestNewPanicsWithoutStore(t *testing.T) {
	assert.Panics(t, func() { New(nil) })
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name             string
		body             string
		expectedStatus   int
		expectedMessages []string
	}{
		{
			name:           "valid incident is created",
			body:           `{"id":null,"name":"Fire","description":"Kitchen","dateTime":"2024-01-02T03:04:05"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:             "blank name",
			body:             `{"name":"   ","description":"Kitchen"}`,
			expectedStatus:   http.StatusBadRequest,
			expectedMessages: []string{msgNameRequired},
		},
		{
			name:             "both fields invalid",
			body:             `{"name":"` + strings.Repeat("n", 51) + `","description":""}`,
			expectedStatus:   http.StatusBadRequest,
			expectedMessages: []string{msgNameLength, msgDescriptionRequired},
		},
		{
			name:             "description too long",
			body:             `{"name":"Fire","description":"` + strings.Repeat("d", 201) + `"}`,
			expectedStatus:   http.StatusBadRequest,
			expectedMessages: []string{msgDescriptionLength},
		},
		{
			name:             "body is not JSON",
			body:             `not json`,
			expectedStatus:   http.StatusBadRequest,
			expectedMessages: []string{msgInvalidBody},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ts := newTestServer(t, created)

			resp, body := ts.do(t, http.MethodPost, "/incident", test.body)
			assert.Equal(t, test.expectedStatus, resp.StatusCode)

			if test.expectedStatus != http.StatusCreated {
				var messages []string
				require.NoError(t, json.Unmarshal([]byte(body), &messages))
				assert.Equal(t, test.expectedMessages, messages)
				assert.Equal(t, 0, ts.store.Len(), "nothing is stored on a rejected create")
				return
			}

			var r Record
			require.NoError(t, json.Unmarshal([]byte(body), &r))
			require.NotNil(t, r.ID)
			assert.Equal(t, int64(1), *r.ID)
			assert.Equal(t, "Fire", r.Name)
			assert.Equal(t, created, r.CreatedDate)
			assert.Equal(t, created, r.UpdatedDate)
		})
	}
}

func TestCreateIgnoresClientID(t *testing.T) {
	ts := newTestServer(t, created)

	ts.do(t, http.MethodPost, "/incident", `{"id":99,"name":"a","description":"b"}`)
	ts.do(t, http.MethodPost, "/incident", `{"name":"c","description":"d"}`)

	records := ts.store.List()
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), *records[0].ID)
	assert.Equal(t, int64(2), *records[1].ID)
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{
			name:           "known incident",
			body:           `{"id":1,"name":"Fire","description":"Out"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown incident",
			body:           `{"id":42,"name":"Fire","description":"Out"}`,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "missing id",
			body:           `{"id":null,"name":"Fire","description":"Out"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid fields",
			body:           `{"id":1,"name":"","description":"Out"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ts := newTestServer(t, later)
			ts.store.Create(incident.Incident{Name: "Fire", Description: "Kitchen"}, created)

			resp, _ := ts.do(t, http.MethodPut, "/incident", test.body)
			assert.Equal(t, test.expectedStatus, resp.StatusCode)

			r := ts.store.List()[0]
			if test.expectedStatus == http.StatusOK {
				assert.Equal(t, "Out", r.Description)
				assert.Equal(t, created, r.CreatedDate, "creation date is preserved")
				assert.Equal(t, later, r.UpdatedDate)
			} else {
				assert.Equal(t, "Kitchen", r.Description)
				assert.Equal(t, created, r.UpdatedDate)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedLen    int
	}{
		{name: "known incident", path: "/incident/1", expectedStatus: http.StatusOK, expectedLen: 0},
		{name: "unknown incident", path: "/incident/2", expectedStatus: http.StatusNotFound, expectedLen: 1},
		{name: "malformed id", path: "/incident/abc", expectedStatus: http.StatusBadRequest, expectedLen: 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ts := newTestServer(t, created)
			ts.store.Create(incident.Incident{Name: "Fire", Description: "Kitchen"}, created)

			resp, _ := ts.do(t, http.MethodDelete, test.path, "")
			assert.Equal(t, test.expectedStatus, resp.StatusCode)
			assert.Equal(t, test.expectedLen, ts.store.Len())
		})
	}
}

func TestListIsInIDOrder(t *testing.T) {
	ts := newTestServer(t, created)
	for _, name := range []string{"a", "b", "c", "d"} {
		ts.store.Create(incident.Incident{Name: name, Description: name}, created)
	}
	require.NoError(t, ts.store.Delete(2))

	resp, body := ts.do(t, http.MethodGet, "/incident", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var records []Record
	require.NoError(t, json.Unmarshal([]byte(body), &records))
	var names []string
	for _, r := range records {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"a", "c", "d"}, names)
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t, created)

	ts.do(t, http.MethodPost, "/incident", `{"name":"a","description":"b"}`)
	ts.do(t, http.MethodPost, "/incident", `{"name":"","description":"b"}`)
	ts.do(t, http.MethodGet, "/incident", "")

	assert.Equal(t, float64(1), testutil.ToFloat64(ts.metrics.RequestsTotal.WithLabelValues("create", "201")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ts.metrics.RequestsTotal.WithLabelValues("create", "400")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ts.metrics.RequestsTotal.WithLabelValues("list", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ts.metrics.Incidents))

	resp, body := ts.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "incmgr_api_requests_total")
}

// The client store and controller against the real server
func TestControllerRoundTrip(t *testing.T) {
	ts := newTestServer(t, created)

	client, err := store.NewClient(store.Config{Endpoint: ts.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	c := controller.New(client)
	ctx := context.Background()

	require.NoError(t, c.MountSync(ctx))
	assert.Empty(t, c.State().Incidents)

	c.SetField(controller.FieldName, " Fire ")
	c.SetField(controller.FieldDescription, "Kitchen")
	require.NoError(t, c.SubmitSync(ctx))
	require.Len(t, c.State().Incidents, 1)
	assert.Equal(t, "Fire", c.State().Incidents[0].Name, "trimmed value was sent")

	id := *c.State().Incidents[0].ID
	require.True(t, c.BeginEditID(id))
	c.SetField(controller.FieldDescription, "Living room")
	require.NoError(t, c.SubmitSync(ctx))
	assert.Equal(t, "Living room", c.State().Incidents[0].Description)

	require.NoError(t, c.DeleteSync(ctx, id))
	assert.Empty(t, c.State().Incidents)
	assert.Equal(t, 0, ts.store.Len())

	err = c.DeleteSync(ctx, id)
	var statusErr *store.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, controller.MsgDeleteFailed, c.State().ErrMessage)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, ln, NewHandler(New(NewMemStore()), nil))
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/incident")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
