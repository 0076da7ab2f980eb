package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

// recordedRequest: запрос, который получил тестовый сервер.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

type fakeAPI struct {
	t        *testing.T
	requests []recordedRequest
	status   int
	response string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
	data, _ := io.ReadAll(r.Body)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rec.Body); err != nil {
			f.t.Errorf("request body is not JSON: %s", data)
		}
	}
	f.requests = append(f.requests, rec)

	w.Header().Set("Content-Type", "application/json")
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	io.WriteString(w, f.response)
}

func newFakeAPI(t *testing.T, response string) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{t: t, response: response}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, NewClient(srv.URL + "/")
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.Execute()
}

const datasetJSON = `{"data":{"namespace":"analytics","name":"orders","type":"DB_TABLE",
"physical_name":"public.orders","source_name":"warehouse","current_version":"v1",
"created_at":"2024-03-01T12:00:00Z","updated_at":"2024-03-01T12:00:00Z"}}`

func TestClient_PutDataset(t *testing.T) {
	api, client := newFakeAPI(t, datasetJSON)

	runID := "8d3e5f4a-1b2c-4d5e-8f90-123456789abc"
	ds, err := client.PutDataset("analytics", "orders", DatasetRequest{
		Type:         "DB_TABLE",
		PhysicalName: "public.orders",
		SourceName:   "warehouse",
		RunID:        &runID,
	}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Name != "orders" || ds.CurrentVersion != "v1" {
		t.Errorf("unexpected dataset: %+v", ds)
	}

	want := []recordedRequest{{
		Method: http.MethodPut,
		Path:   "/api/v1/namespaces/analytics/datasets/orders",
		Body: map[string]any{
			"type":          "DB_TABLE",
			"physical_name": "public.orders",
			"source_name":   "warehouse",
			"run_id":        runID,
		},
	}}
	if diff := cmp.Diff(want, api.requests); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_PutDatasetLegacyUsesPost(t *testing.T) {
	api, client := newFakeAPI(t, datasetJSON)

	if _, err := client.PutDataset("analytics", "orders", DatasetRequest{Type: "DB_TABLE"}, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.requests[0].Method != http.MethodPost {
		t.Errorf("expected POST, got %s", api.requests[0].Method)
	}
	if api.requests[0].Body["run_id"] != nil {
		t.Errorf("run_id should be null, got %v", api.requests[0].Body["run_id"])
	}
}

func TestClient_APIError(t *testing.T) {
	api, client := newFakeAPI(t, `{"error":{"code":"LEGACY_WRITES_DISABLED","message":"legacy dataset writes are disabled"}}`)
	api.status = http.StatusGone

	_, err := client.PutDataset("ns", "ds", DatasetRequest{}, true)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusGone || apiErr.Code != "LEGACY_WRITES_DISABLED" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if apiErr.Error() != "LEGACY_WRITES_DISABLED: legacy dataset writes are disabled" {
		t.Errorf("unexpected message: %s", apiErr.Error())
	}
}

func TestClient_APIErrorWithoutBody(t *testing.T) {
	api, client := newFakeAPI(t, "")
	api.status = http.StatusBadGateway

	_, err := client.GetRun("x")
	if err == nil || err.Error() != "API error: HTTP 502" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClient_ListQueryAndEscaping(t *testing.T) {
	api, client := newFakeAPI(t, `{"data":[]}`)

	if _, err := client.ListDatasets("my ns", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.ListRuns("ns", "job", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := api.requests[0]; got.Path != "/api/v1/namespaces/my ns/datasets" || got.Query != "limit=5" {
		t.Errorf("unexpected request: %+v", got)
	}
	if got := api.requests[1]; got.Path != "/api/v1/namespaces/ns/jobs/job/runs" || got.Query != "" {
		t.Errorf("unexpected request: %+v", got)
	}
}

func TestDatasetPutCmd(t *testing.T) {
	api, client := newFakeAPI(t, datasetJSON)
	var stdout, stderr bytes.Buffer

	cmd := NewDatasetCmd(
		func() *Client { return client },
		func() *Output { return NewOutputTo(&stdout, &stderr, false) },
	)
	err := execute(t, cmd, "put", "analytics", "orders",
		"--physical-name", "public.orders", "--source-name", "warehouse", "--description", "all orders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := api.requests[0].Body
	if body["type"] != "DB_TABLE" || body["description"] != "all orders" {
		t.Errorf("unexpected body: %v", body)
	}
	if !strings.Contains(stderr.String(), "Dataset saved: analytics/orders") {
		t.Errorf("expected success message, got %q", stderr.String())
	}
	if !strings.Contains(stdout.String(), "public.orders") {
		t.Errorf("expected table row, got %q", stdout.String())
	}
}

func TestDatasetPutCmd_RequiredFlags(t *testing.T) {
	api, client := newFakeAPI(t, datasetJSON)

	cmd := NewDatasetCmd(
		func() *Client { return client },
		func() *Output { return NewOutputTo(io.Discard, io.Discard, false) },
	)
	if err := execute(t, cmd, "put", "analytics", "orders"); err == nil {
		t.Fatal("expected error for missing required flags")
	}
	if len(api.requests) != 0 {
		t.Errorf("no request should be sent")
	}
}

func TestDatasetVersionsCmd_JSON(t *testing.T) {
	_, client := newFakeAPI(t, `{"data":[
{"namespace":"ns","dataset":"ds","version":"v2","run_id":"r1","created_at":"t2"},
{"namespace":"ns","dataset":"ds","version":"v1","run_id":null,"created_at":"t1"}]}`)
	var stdout bytes.Buffer

	cmd := NewDatasetCmd(
		func() *Client { return client },
		func() *Output { return NewOutputTo(&stdout, io.Discard, true) },
	)
	if err := execute(t, cmd, "versions", "ns", "ds"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []VersionResponse
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
	}
	if len(got) != 2 || got[0].Version != "v2" || got[1].RunID != nil {
		t.Errorf("unexpected versions: %+v", got)
	}
}

func TestRunCreateCmd(t *testing.T) {
	api, client := newFakeAPI(t, `{"data":{"id":"r1","namespace":"ns","job":"etl","state":"NEW","created_at":"t"}}`)
	var stdout bytes.Buffer

	cmd := NewRunCmd(
		func() *Client { return client },
		func() *Output { return NewOutputTo(&stdout, io.Discard, false) },
	)
	err := execute(t, cmd, "create", "ns", "etl", "--arg", "date=2024-03-01", "--arg", "mode=full")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := recordedRequest{
		Method: http.MethodPost,
		Path:   "/api/v1/namespaces/ns/jobs/etl/runs",
		Body: map[string]any{
			"args": map[string]any{"date": "2024-03-01", "mode": "full"},
		},
	}
	if diff := cmp.Diff(want, api.requests[0]); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(stdout.String(), "NEW") {
		t.Errorf("expected state in table, got %q", stdout.String())
	}
}

func TestRunCreateCmd_BadArg(t *testing.T) {
	api, client := newFakeAPI(t, `{"data":{}}`)

	cmd := NewRunCmd(
		func() *Client { return client },
		func() *Output { return NewOutputTo(io.Discard, io.Discard, false) },
	)
	err := execute(t, cmd, "create", "ns", "etl", "--arg", "novalue")
	if err == nil || !strings.Contains(err.Error(), "expected KEY=VALUE") {
		t.Errorf("expected format error, got %v", err)
	}
	if len(api.requests) != 0 {
		t.Errorf("no request should be sent")
	}
}

func TestRunMarkCmds(t *testing.T) {
	for _, action := range []string{"start", "complete", "fail", "abort"} {
		t.Run(action, func(t *testing.T) {
			api, client := newFakeAPI(t, `{"data":{"id":"r1","state":"RUNNING"}}`)
			var stderr bytes.Buffer

			cmd := NewRunCmd(
				func() *Client { return client },
				func() *Output { return NewOutputTo(io.Discard, &stderr, false) },
			)
			if err := execute(t, cmd, action, "r1"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := api.requests[0]
			if got.Method != http.MethodPost || got.Path != "/api/v1/runs/r1/"+action {
				t.Errorf("unexpected request: %+v", got)
			}
			if !strings.Contains(stderr.String(), "Run r1 is RUNNING") {
				t.Errorf("unexpected message: %q", stderr.String())
			}
		})
	}
}

func TestRunShowCmd_Table(t *testing.T) {
	_, client := newFakeAPI(t, `{"data":{"id":"r1","namespace":"ns","job":"etl","state":"COMPLETED",
"args":{"b":"2","a":"1"},"duration_ms":1500,"created_at":"t"}}`)
	var stdout bytes.Buffer

	cmd := NewRunCmd(
		func() *Client { return client },
		func() *Output { return NewOutputTo(&stdout, io.Discard, false) },
	)
	if err := execute(t, cmd, "show", "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "Duration: 1500ms") {
		t.Errorf("expected duration, got %q", out)
	}
	if strings.Index(out, "a=1") > strings.Index(out, "b=2") {
		t.Errorf("args should be sorted, got %q", out)
	}
}

func TestParseKeyValues(t *testing.T) {
	got, err := parseKeyValues([]string{"a=1", "b=x=y", "c="})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"a": "1", "b": "x=y", "c": ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if _, err := parseKeyValues([]string{"=v"}); err == nil {
		t.Error("expected error for empty key")
	}
	if got, _ := parseKeyValues(nil); got != nil {
		t.Errorf("expected nil map, got %v", got)
	}
}
