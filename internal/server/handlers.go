package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	"portfolio-lab/internal/domain"
	"portfolio-lab/internal/idhash"
	"portfolio-lab/internal/ingest"
	"portfolio-lab/internal/observability"
	"portfolio-lab/internal/runner"
	"portfolio-lab/internal/server/ws"
	"portfolio-lab/internal/storage"
)

// maxUploadBytes caps one multipart upload request.
const maxUploadBytes = 64 << 20

// writeJSON marshals v and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// storageStatus maps storage sentinel errors onto HTTP status codes.
func storageStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, storage.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleHealth responds with a liveness status.
// GET /health
func (d *handlerDeps) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// uploadedFile is one validated export within an upload request.
type uploadedFile struct {
	header      *multipart.FileHeader
	content     []byte
	strategy    string
	ticker      string
	exportDate  time.Time
	fingerprint string
	rows        int
}

// uploadFileResponse describes one accepted file in the upload reply.
type uploadFileResponse struct {
	FileID     string `json:"fileId"`
	Ticker     string `json:"ticker"`
	Filename   string `json:"filename"`
	RowsParsed int    `json:"rowsParsed"`
}

// handleUpload ingests a multipart batch of trade-log CSV exports. Every
// file must follow the Strategy_Ticker_YYYY-MM-DD.csv convention and all
// files must share one strategy. The whole batch is rejected when any file
// fails validation.
// POST /api/uploads
func (d *handlerDeps) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		observability.RecordUploadError("bad_multipart")
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		observability.RecordUploadError("no_files")
		writeError(w, http.StatusBadRequest, "no files in upload")
		return
	}

	files := make([]uploadedFile, 0, len(headers))
	strategy := ""
	for _, header := range headers {
		uf, err := d.validateUpload(header)
		if err != nil {
			observability.RecordUploadError("invalid_file")
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", header.Filename, err))
			return
		}
		if strategy == "" {
			strategy = uf.strategy
		} else if uf.strategy != strategy {
			observability.RecordUploadError("mixed_strategies")
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("all files must share one strategy, got %q and %q", strategy, uf.strategy))
			return
		}
		files = append(files, uf)
	}

	ctx := r.Context()
	batch := &domain.Batch{
		BatchID:      uuid.NewString(),
		StrategyName: strategy,
		CreatedAt:    time.Now().UTC(),
	}
	if err := d.batchStore.Insert(ctx, batch); err != nil {
		writeError(w, storageStatus(err), "create batch failed")
		return
	}

	accepted := make([]uploadFileResponse, 0, len(files))
	for _, uf := range files {
		fileID := uuid.NewString()
		objectKey := fmt.Sprintf("%s/%s-%s", batch.BatchID, fileID, uf.header.Filename)

		if err := d.objects.Put(ctx, objectKey, uf.content); err != nil {
			writeError(w, http.StatusInternalServerError, "store upload failed")
			return
		}

		record := &domain.FileRecord{
			FileID:      fileID,
			BatchID:     batch.BatchID,
			Ticker:      uf.ticker,
			Strategy:    uf.strategy,
			ExportDate:  uf.exportDate,
			Filename:    uf.header.Filename,
			ObjectKey:   objectKey,
			Fingerprint: uf.fingerprint,
			RowsParsed:  uf.rows,
		}
		if err := d.fileStore.Insert(ctx, record); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				observability.RecordDuplicateUpload()
				writeError(w, http.StatusConflict,
					fmt.Sprintf("%s duplicates content already in this batch", uf.header.Filename))
				return
			}
			writeError(w, storageStatus(err), "record upload failed")
			return
		}

		observability.RecordUpload(uf.rows)
		accepted = append(accepted, uploadFileResponse{
			FileID:     fileID,
			Ticker:     uf.ticker,
			Filename:   uf.header.Filename,
			RowsParsed: uf.rows,
		})
	}

	if d.hub != nil {
		d.hub.Publish(ws.EventUploadAccepted, map[string]any{
			"batchId":  batch.BatchID,
			"strategy": strategy,
			"files":    len(accepted),
		})
	}
	d.logger.Printf("Accepted batch %s (%s, %d files)", batch.BatchID, strategy, len(accepted))

	writeJSON(w, http.StatusCreated, map[string]any{
		"batchId":  batch.BatchID,
		"strategy": strategy,
		"files":    accepted,
	})
}

// validateUpload reads and fully parses one multipart file before anything
// is persisted.
func (d *handlerDeps) validateUpload(header *multipart.FileHeader) (uploadedFile, error) {
	strategy, ticker, exportDate, err := ingest.ParseFilename(header.Filename)
	if err != nil {
		return uploadedFile{}, err
	}

	f, err := header.Open()
	if err != nil {
		return uploadedFile{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return uploadedFile{}, fmt.Errorf("read upload: %w", err)
	}

	table, err := ingest.ParseTable(bytes.NewReader(content), ticker, strategy)
	if err != nil {
		return uploadedFile{}, err
	}
	if len(table.Rows) == 0 {
		return uploadedFile{}, ingest.ErrEmptyFile
	}

	return uploadedFile{
		header:      header,
		content:     content,
		strategy:    strategy,
		ticker:      ticker,
		exportDate:  exportDate,
		fingerprint: idhash.ComputeFileFingerprint(content),
		rows:        len(table.Rows),
	}, nil
}

// batchResponse is the batch detail reply including its files.
type batchResponse struct {
	BatchID   string               `json:"batchId"`
	Strategy  string               `json:"strategy"`
	CreatedAt time.Time            `json:"createdAt"`
	Files     []uploadFileResponse `json:"files,omitempty"`
}

// handleListBatches returns all upload batches.
// GET /api/batches
func (d *handlerDeps) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := d.batchStore.GetAll(r.Context())
	if err != nil {
		writeError(w, storageStatus(err), "list batches failed")
		return
	}

	out := make([]batchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, batchResponse{
			BatchID:   b.BatchID,
			Strategy:  b.StrategyName,
			CreatedAt: b.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetBatch returns one batch with its file records.
// GET /api/batches/{id}
func (d *handlerDeps) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")

	batch, err := d.batchStore.GetByID(r.Context(), batchID)
	if err != nil {
		writeError(w, storageStatus(err), "batch not found")
		return
	}
	files, err := d.fileStore.GetByBatchID(r.Context(), batchID)
	if err != nil {
		writeError(w, storageStatus(err), "list batch files failed")
		return
	}

	resp := batchResponse{
		BatchID:   batch.BatchID,
		Strategy:  batch.StrategyName,
		CreatedAt: batch.CreatedAt,
	}
	for _, f := range files {
		resp.Files = append(resp.Files, uploadFileResponse{
			FileID:     f.FileID,
			Ticker:     f.Ticker,
			Filename:   f.Filename,
			RowsParsed: f.RowsParsed,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// runRequest is the JSON body of POST /api/portfolio/run.
type runRequest struct {
	BatchID      string  `json:"batchId"`
	TotalCapital float64 `json:"totalCapital"`
	Currency     string  `json:"currency"`
	DateStart    string  `json:"dateStart"`
	DateEnd      string  `json:"dateEnd"`
}

// handleRun executes a portfolio run for a batch and returns the report.
// POST /api/portfolio/run
func (d *handlerDeps) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.BatchID == "" {
		writeError(w, http.StatusBadRequest, "batchId is required")
		return
	}

	dates, err := parseDateRange(req.DateStart, req.DateEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if d.hub != nil {
		d.hub.Publish(ws.EventRunStarted, map[string]any{"batchId": req.BatchID})
	}

	res, err := d.runner.Run(r.Context(), runner.Request{
		BatchID:      req.BatchID,
		TotalCapital: req.TotalCapital,
		Currency:     req.Currency,
		DateRange:    dates,
	})
	if err != nil {
		if d.hub != nil {
			d.hub.Publish(ws.EventRunFailed, map[string]any{
				"batchId": req.BatchID,
				"error":   err.Error(),
			})
		}
		switch {
		case errors.Is(err, runner.ErrEmptyBatch):
			writeError(w, http.StatusUnprocessableEntity, "batch has no files")
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "batch not found")
		default:
			d.logger.Printf("Run failed for batch %s: %v", req.BatchID, err)
			writeError(w, http.StatusInternalServerError, "portfolio run failed")
		}
		return
	}

	if d.hub != nil {
		d.hub.Publish(ws.EventRunCompleted, map[string]any{
			"runId":   res.RunID,
			"batchId": req.BatchID,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runId":  res.RunID,
		"report": res.Report,
	})
}

// runResponse is a stored run snapshot reply.
type runResponse struct {
	RunID        string              `json:"runId"`
	BatchID      string              `json:"batchId"`
	Currency     string              `json:"currency"`
	TotalCapital float64             `json:"totalCapital"`
	DateStart    *time.Time          `json:"dateStart,omitempty"`
	DateEnd      *time.Time          `json:"dateEnd,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	KPIs         domain.KPIMap       `json:"kpis"`
	Sections     []domain.Section    `json:"sections"`
	EquityCurve  []domain.CurvePoint `json:"equityCurve"`
	TradesTable  []domain.ListingRow `json:"tradesTable"`
}

func toRunResponse(run *domain.PortfolioRun) runResponse {
	return runResponse{
		RunID:        run.RunID,
		BatchID:      run.BatchID,
		Currency:     run.Currency,
		TotalCapital: run.TotalCapital,
		DateStart:    run.DateStart,
		DateEnd:      run.DateEnd,
		CreatedAt:    run.CreatedAt,
		KPIs:         run.KPIs,
		Sections:     run.Sections,
		EquityCurve:  run.EquityCurve,
		TradesTable:  run.TradesTable,
	}
}

// handleListRuns returns stored runs of a batch.
// GET /api/portfolio/runs?batchId=...
func (d *handlerDeps) handleListRuns(w http.ResponseWriter, r *http.Request) {
	batchID := r.URL.Query().Get("batchId")
	if batchID == "" {
		writeError(w, http.StatusBadRequest, "batchId query parameter is required")
		return
	}

	runs, err := d.runStore.GetByBatchID(r.Context(), batchID)
	if err != nil {
		writeError(w, storageStatus(err), "list runs failed")
		return
	}

	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunResponse(run))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetRun returns one stored run snapshot.
// GET /api/portfolio/runs/{id}
func (d *handlerDeps) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := d.runStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, storageStatus(err), "run not found")
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

// handleGetCurve returns one persisted curve of a run.
// GET /api/portfolio/runs/{id}/curves/{curve}
func (d *handlerDeps) handleGetCurve(w http.ResponseWriter, r *http.Request) {
	curve := r.PathValue("curve")
	switch curve {
	case storage.CurveEquity, storage.CurveBuyHold, storage.CurveDrawdown:
	default:
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown curve %q, want equity, buy_hold or drawdown", curve))
		return
	}

	points, err := d.curveStore.GetByRunID(r.Context(), r.PathValue("id"), curve)
	if err != nil {
		writeError(w, storageStatus(err), "load curve failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runId":  r.PathValue("id"),
		"curve":  curve,
		"points": points,
	})
}

// parseDateRange parses optional YYYY-MM-DD bounds. The end bound is
// extended to the end of its day so same-day trades are included.
func parseDateRange(start, end string) (domain.DateRange, error) {
	var dates domain.DateRange
	if start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return dates, fmt.Errorf("invalid dateStart %q, want YYYY-MM-DD", start)
		}
		dates.Start = &t
	}
	if end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return dates, fmt.Errorf("invalid dateEnd %q, want YYYY-MM-DD", end)
		}
		eod := t.Add(24*time.Hour - time.Nanosecond)
		dates.End = &eod
	}
	if dates.Start != nil && dates.End != nil && dates.End.Before(*dates.Start) {
		return dates, fmt.Errorf("dateEnd precedes dateStart")
	}
	return dates, nil
}
