package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"portfolio-lab/internal/runner"
	"portfolio-lab/internal/storage/memory"
)

const exportCSV = "Trade #,Type (Long/Short),Date/Time,Signal,Price,Position size,Net P&L,Run-up,Drawdown,Cumulative P&L\n" +
	"1,Long,2024-01-01 10:00:00,Entry long,100,1000,0,0,0,0\n" +
	"1,Long,2024-01-02 15:00:00,Exit long,110,1000,100,120,-30,100\n"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	batches := memory.NewBatchStore()
	files := memory.NewFileRecordStore()
	runs := memory.NewRunStore()
	curves := memory.NewCurvePointStore()
	objects := memory.NewObjectStore()

	eng := runner.New(runner.Options{
		BatchStore:      batches,
		FileRecordStore: files,
		RunStore:        runs,
		CurvePointStore: curves,
		ObjectStore:     objects,
	})

	srv := New(Options{
		Config:          Config{Host: "127.0.0.1", Port: 0},
		BatchStore:      batches,
		FileRecordStore: files,
		RunStore:        runs,
		CurvePointStore: curves,
		ObjectStore:     objects,
		Runner:          eng,
		Logger:          log.New(io.Discard, "", 0),
	})

	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func uploadFiles(t *testing.T, ts *httptest.Server, files map[string]string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	resp, err := http.Post(ts.URL+"/api/uploads", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /api/uploads: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestUploadAndRun(t *testing.T) {
	ts := newTestServer(t)

	resp := uploadFiles(t, ts, map[string]string{"Momentum_AAA_2024-01-05.csv": exportCSV})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d, want 201", resp.StatusCode)
	}

	var upload struct {
		BatchID  string `json:"batchId"`
		Strategy string `json:"strategy"`
		Files    []struct {
			Ticker     string `json:"ticker"`
			RowsParsed int    `json:"rowsParsed"`
		} `json:"files"`
	}
	decodeJSON(t, resp, &upload)

	if upload.Strategy != "Momentum" {
		t.Errorf("strategy = %q, want Momentum", upload.Strategy)
	}
	if len(upload.Files) != 1 || upload.Files[0].Ticker != "AAA" || upload.Files[0].RowsParsed != 2 {
		t.Fatalf("unexpected files payload: %+v", upload.Files)
	}

	runBody := strings.NewReader(`{"batchId":"` + upload.BatchID + `","totalCapital":1000}`)
	resp, err := http.Post(ts.URL+"/api/portfolio/run", "application/json", runBody)
	if err != nil {
		t.Fatalf("POST /api/portfolio/run: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("run status = %d, want 200", resp.StatusCode)
	}

	var run struct {
		RunID  string `json:"runId"`
		Report struct {
			EquityCurve []struct {
				Value float64 `json:"value"`
			} `json:"equityCurve"`
		} `json:"report"`
	}
	decodeJSON(t, resp, &run)
	if run.RunID == "" {
		t.Fatal("run id missing")
	}
	if n := len(run.Report.EquityCurve); n == 0 {
		t.Fatal("equity curve empty")
	}
	last := run.Report.EquityCurve[len(run.Report.EquityCurve)-1].Value
	if last != 1100 {
		t.Errorf("final equity = %v, want 1100", last)
	}

	resp, err = http.Get(ts.URL + "/api/portfolio/runs/" + run.RunID)
	if err != nil {
		t.Fatalf("GET run: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get run status = %d, want 200", resp.StatusCode)
	}
	var stored struct {
		BatchID string `json:"batchId"`
	}
	decodeJSON(t, resp, &stored)
	if stored.BatchID != upload.BatchID {
		t.Errorf("stored batch id = %q, want %q", stored.BatchID, upload.BatchID)
	}

	resp, err = http.Get(ts.URL + "/api/portfolio/runs/" + run.RunID + "/curves/drawdown")
	if err != nil {
		t.Fatalf("GET curve: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get curve status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUploadRejectsBadFilename(t *testing.T) {
	ts := newTestServer(t)

	resp := uploadFiles(t, ts, map[string]string{"trades.csv": exportCSV})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("upload status = %d, want 400", resp.StatusCode)
	}
}

func TestUploadRejectsMixedStrategies(t *testing.T) {
	ts := newTestServer(t)

	resp := uploadFiles(t, ts, map[string]string{
		"Momentum_AAA_2024-01-05.csv": exportCSV,
		"Reversal_BBB_2024-01-05.csv": exportCSV,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("upload status = %d, want 400", resp.StatusCode)
	}
}

func TestUploadRejectsDuplicateContent(t *testing.T) {
	ts := newTestServer(t)

	// Same bytes under two tickers within one batch share a fingerprint.
	resp := uploadFiles(t, ts, map[string]string{
		"Momentum_AAA_2024-01-05.csv": exportCSV,
		"Momentum_BBB_2024-01-05.csv": exportCSV,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("upload status = %d, want 409", resp.StatusCode)
	}
}

func TestRunUnknownBatch(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/portfolio/run", "application/json",
		strings.NewReader(`{"batchId":"missing"}`))
	if err != nil {
		t.Fatalf("POST /api/portfolio/run: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("run status = %d, want 404", resp.StatusCode)
	}
}

func TestGetCurveRejectsUnknownName(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/portfolio/runs/some-run/curves/volatility")
	if err != nil {
		t.Fatalf("GET curve: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("curve status = %d, want 400", resp.StatusCode)
	}
}
