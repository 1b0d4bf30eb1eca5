package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lucasnoah/stagetrack/internal/metrics"
	"github.com/lucasnoah/stagetrack/internal/pipeline"
	"github.com/lucasnoah/stagetrack/internal/registry"
)

func newTestServer(t *testing.T, reg *registry.Registry) *httptest.Server {
	t.Helper()
	promReg := prometheus.NewRegistry()
	rec, err := metrics.New(metrics.Config{Enabled: true, Registry: promReg, Namespace: "test"})
	if err != nil {
		t.Fatalf("metrics.New: %v", err)
	}
	srv := httptest.NewServer(NewServer(reg, Options{Metrics: rec, Gatherer: promReg}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func seeded() (*registry.Registry, pipeline.Stage, pipeline.Stage) {
	reg := registry.New()
	tr := pipeline.NewTracker("p1")
	build := pipeline.NewStage("build", pipeline.StatusPending)
	test := pipeline.NewStage("test", pipeline.StatusInProgress)
	tr.AddStage(build)
	tr.AddStage(test)
	reg.AddTracker(tr)
	return reg, build, test
}

func TestListAndGetTracker(t *testing.T) {
	reg, _, _ := seeded()
	srv := newTestServer(t, reg)

	resp := do(t, "GET", srv.URL+"/trackers", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	list := decode[[]pipeline.TrackerSnapshot](t, resp)
	if len(list) != 1 || list[0].PipelineID != "p1" || len(list[0].Stages) != 2 {
		t.Errorf("list = %+v", list)
	}

	resp = do(t, "GET", srv.URL+"/trackers/p1", "")
	snap := decode[pipeline.TrackerSnapshot](t, resp)
	if snap.Stages[1].Status != pipeline.StatusInProgress {
		t.Errorf("test status = %s, want in_progress", snap.Stages[1].Status)
	}

	resp = do(t, "GET", srv.URL+"/trackers/nope", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing tracker status = %d, want 404", resp.StatusCode)
	}
}

func TestCurrentStage(t *testing.T) {
	reg, build, test := seeded()
	srv := newTestServer(t, reg)

	resp := do(t, "GET", srv.URL+"/trackers/p1/current", "")
	cur := decode[pipeline.Stage](t, resp)
	if cur.ID != test.ID {
		t.Errorf("current = %q, want test", cur.Name)
	}

	resp = do(t, "PUT", srv.URL+"/trackers/p1/stages/"+build.ID.String(), `{"status":"completed"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	resp = do(t, "GET", srv.URL+"/trackers/p1/current", "")
	if cur := decode[pipeline.Stage](t, resp); cur.ID != test.ID {
		t.Errorf("current after update = %q, want test", cur.Name)
	}

	do(t, "PUT", srv.URL+"/trackers/p1/stages/"+test.ID.String(), `{"status":"completed"}`)
	resp = do(t, "GET", srv.URL+"/trackers/p1/current", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204 when no stage in progress", resp.StatusCode)
	}
}

func TestAddTrackerAndStage(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := do(t, "POST", srv.URL+"/trackers", `{"pipeline_id":"p2"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	resp = do(t, "GET", srv.URL+"/trackers/p2/current", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("empty tracker current status = %d, want 204", resp.StatusCode)
	}

	resp = do(t, "POST", srv.URL+"/trackers/p2/stages", `{"name":"lint","status":"in_progress"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add stage status = %d, want 201", resp.StatusCode)
	}
	stage := decode[pipeline.Stage](t, resp)
	if stage.ID == uuid.Nil || stage.Name != "lint" {
		t.Errorf("stage = %+v", stage)
	}

	resp = do(t, "GET", srv.URL+"/trackers/p2/current", "")
	if cur := decode[pipeline.Stage](t, resp); cur.ID != stage.ID {
		t.Errorf("current = %+v, want %+v", cur, stage)
	}

	resp = do(t, "POST", srv.URL+"/trackers/missing/stages", `{"name":"x"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("add stage to missing tracker status = %d, want 404", resp.StatusCode)
	}
}

func TestUpdateUnknownStageLeavesTracker(t *testing.T) {
	reg, _, _ := seeded()
	srv := newTestServer(t, reg)
	before := reg.Snapshot()[0]

	resp := do(t, "PUT", srv.URL+"/trackers/p1/stages/"+uuid.NewString(), `{"status":"failed"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	after := decode[pipeline.TrackerSnapshot](t, resp)
	if len(after.Stages) != len(before.Stages) {
		t.Fatalf("stages = %d, want %d", len(after.Stages), len(before.Stages))
	}
	for i := range before.Stages {
		if after.Stages[i] != before.Stages[i] {
			t.Errorf("stage[%d] = %+v, want %+v", i, after.Stages[i], before.Stages[i])
		}
	}
}

func TestUpdateTracker(t *testing.T) {
	reg, _, _ := seeded()
	srv := newTestServer(t, reg)

	resp := do(t, "PUT", srv.URL+"/trackers/p1", `{"stages":[]}`)
	got := decode[updateTrackerResponse](t, resp)
	if !got.Replaced || got.Tracker == nil || len(got.Tracker.Stages) != 0 {
		t.Errorf("response = %+v, want replaced with zero stages", got)
	}
	resp = do(t, "GET", srv.URL+"/trackers/p1", "")
	if p1 := decode[pipeline.TrackerSnapshot](t, resp); len(p1.Stages) != 0 {
		t.Errorf("registry tracker has %d stages, want 0", len(p1.Stages))
	}

	resp = do(t, "PUT", srv.URL+"/trackers/p9", `{"stages":[{"name":"x"}]}`)
	got = decode[updateTrackerResponse](t, resp)
	if got.Replaced {
		t.Error("unknown tracker should not be replaced")
	}
	resp = do(t, "GET", srv.URL+"/trackers", "")
	if list := decode[[]pipeline.TrackerSnapshot](t, resp); len(list) != 1 {
		t.Errorf("trackers = %d, want 1", len(list))
	}

	resp = do(t, "PUT", srv.URL+"/trackers/p1", `{"pipeline_id":"other"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("mismatched id status = %d, want 400", resp.StatusCode)
	}
}

func TestBadRequests(t *testing.T) {
	reg, build, _ := seeded()
	srv := newTestServer(t, reg)

	cases := []struct {
		method, path, body string
	}{
		{"POST", "/trackers", `{`},
		{"POST", "/trackers", `{"stages":[]}`},
		{"POST", "/trackers", `{"pipeline_id":"p","stages":[{"name":"a","status":"done"}]}`},
		{"POST", "/trackers/p1/stages", `{"name":"a","colour":"red"}`},
		{"PUT", "/trackers/p1/stages/not-a-uuid", `{"status":"failed"}`},
		{"PUT", "/trackers/p1/stages/" + build.ID.String(), `{"status":"blocked"}`},
	}
	for _, tc := range cases {
		resp := do(t, tc.method, srv.URL+tc.path, tc.body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s %s %s: status = %d, want 400", tc.method, tc.path, tc.body, resp.StatusCode)
		}
	}
}

func TestMetricsAndHealth(t *testing.T) {
	reg, _, _ := seeded()
	srv := newTestServer(t, reg)

	do(t, "POST", srv.URL+"/trackers", `{"pipeline_id":"p2"}`)

	resp := do(t, "GET", srv.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	resp = do(t, "GET", srv.URL+"/metrics", "")
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"test_trackers_added_total 1", "test_trackers 2"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

// send issues a request from a worker goroutine and reports failures with
// t.Errorf, since t.Fatal must not be called off the test goroutine.
func send(t *testing.T, method, url, body string) int {
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Errorf("%s %s: %v", method, url, err)
		return 0
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Errorf("%s %s: %v", method, url, err)
		return 0
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode
}

// Run with -race: handlers share one registry and must only touch trackers under the server lock.
func TestConcurrentHandlers(t *testing.T) {
	reg, build, _ := seeded()
	srv := newTestServer(t, reg)

	const (
		trackers         = 20
		stagesPerTracker = 10
	)

	var wg sync.WaitGroup
	for i := 0; i < trackers; i++ {
		id := "c" + strconv.Itoa(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			body := `{"pipeline_id":"` + id + `","stages":[{"name":"a"},{"name":"b"},{"name":"c"}]}`
			if code := send(t, "POST", srv.URL+"/trackers", body); code != http.StatusCreated {
				t.Errorf("POST /trackers %s: status %d", id, code)
			}
		}()
		for j := 0; j < stagesPerTracker; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				// The tracker may not be registered yet; 404 is acceptable.
				code := send(t, "POST", srv.URL+"/trackers/"+id+"/stages", `{"name":"s","status":"in_progress"}`)
				if code != http.StatusCreated && code != http.StatusNotFound {
					t.Errorf("POST stages %s: status %d", id, code)
				}
				send(t, "GET", srv.URL+"/trackers/"+id+"/current", "")
				send(t, "GET", srv.URL+"/trackers", "")
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			send(t, "PUT", srv.URL+"/trackers/p1/stages/"+build.ID.String(), `{"status":"in_progress"}`)
			send(t, "PUT", srv.URL+"/trackers/"+id, `{"stages":[{"name":"r"}]}`)
		}()
	}
	wg.Wait()

	resp := do(t, "GET", srv.URL+"/trackers", "")
	list := decode[[]pipeline.TrackerSnapshot](t, resp)
	if len(list) != trackers+1 {
		t.Errorf("trackers = %d, want %d", len(list), trackers+1)
	}
	if list[0].PipelineID != "p1" || list[0].Stages[0].Status != pipeline.StatusInProgress {
		t.Errorf("p1 = %+v, want build in_progress", list[0])
	}
}
