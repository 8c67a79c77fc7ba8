package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finsight/internal/analyze"
	"finsight/internal/log"
	"finsight/internal/services"
	"finsight/internal/store"
)

func newTestServer() *Server {
	svc := services.NewIngestService(store.NewMemory(""), analyze.NewDefault())
	return NewServer(":0", svc, log.New(log.DefaultConfig()))
}

func multipartUpload(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func doUpload(t *testing.T, s *Server, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, files)
	req := httptest.NewRequest(http.MethodPost, "/api/transactions/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestUploadAndAnalyzeFlow(t *testing.T) {
	s := newTestServer()

	rec := doUpload(t, s, map[string]string{
		"january.csv": "Date,Description,Debit,Credit\n2024-01-05,SAFEWAY MARKET,50.00,\n2024-01-10,PAYROLL,,2000.00\n",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status %d: %s", rec.Code, rec.Body.String())
	}

	var uploadResp uploadResponseJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &uploadResp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if uploadResp.Analysis.TotalIncome != 2000 || uploadResp.Analysis.TotalExpenses != 50 {
		t.Fatalf("unexpected totals: %+v", uploadResp.Analysis)
	}
	if uploadResp.Analysis.TotalBalance != 1950 {
		t.Fatalf("expected balance 1950, got %v", uploadResp.Analysis.TotalBalance)
	}
	if uploadResp.Analysis.CategoryBreakdown["Groceries"] != 50 {
		t.Fatalf("unexpected breakdown: %+v", uploadResp.Analysis.CategoryBreakdown)
	}
	if p, ok := uploadResp.Analysis.MonthlyPatterns["2024-01"]; !ok || p.Credits != 2000 || p.Debits != 50 {
		t.Fatalf("unexpected patterns: %+v", uploadResp.Analysis.MonthlyPatterns)
	}

	// Transaction sides are numbers or null on the wire.
	var raw struct {
		Analysis struct {
			AllTransactions []map[string]any `json:"all_transactions"`
		} `json:"analysis"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode raw response: %v", err)
	}
	first := raw.Analysis.AllTransactions[0]
	if first["credit_amount"] != nil {
		t.Fatalf("debit-only transaction must carry a null credit_amount: %v", first)
	}
	if _, ok := first["debit_amount"].(float64); !ok {
		t.Fatalf("debit_amount must be a number: %v", first)
	}
}

func TestListAndDeleteFiles(t *testing.T) {
	s := newTestServer()
	doUpload(t, s, map[string]string{
		"january.csv": "Date,Description,Debit,Credit\n2024-01-05,SAFEWAY MARKET,50.00,\n",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/files", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status %d", rec.Code)
	}
	var files []fileJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &files); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(files) != 1 || files[0].Filename != "january.csv" || files[0].Path == "" {
		t.Fatalf("unexpected file list: %+v", files)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/transactions/files/january.csv", nil)
	rec = httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/transactions/files/january.csv", nil)
	rec = httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing file, got %d", rec.Code)
	}
}

func TestUploadRejectsUnparseableFile(t *testing.T) {
	s := newTestServer()

	rec := doUpload(t, s, map[string]string{
		"good.csv":    "Date,Description,Debit,Credit\n2024-01-05,SAFEWAY MARKET,50.00,\n",
		"garbage.bin": "\x00\x01\x02",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	var e errorJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !strings.Contains(e.Error, "garbage.bin") {
		t.Fatalf("error must name the offending file: %q", e.Error)
	}
}

func analyzeRequest(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/transactions/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeSelectedAndWindowed(t *testing.T) {
	s := newTestServer()
	doUpload(t, s, map[string]string{
		"january.csv": "Date,Description,Debit,Credit\n2024-01-05,SAFEWAY MARKET,50.00,\n",
	})
	doUpload(t, s, map[string]string{
		"february.csv": "Date,Description,Debit,Credit\n2024-02-10,PAYROLL,,2000.00\n",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/files", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	var files []fileJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &files); err != nil {
		t.Fatalf("decode list: %v", err)
	}

	rec = analyzeRequest(t, s, fmt.Sprintf(`{"paths":[%q]}`, files[0].Path))
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze status %d: %s", rec.Code, rec.Body.String())
	}
	var result analysisJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if result.TotalExpenses != 50 || result.TotalIncome != 0 {
		t.Fatalf("selection must cover only january.csv: %+v", result)
	}

	// Windowed to a month with no activity in the selection.
	rec = analyzeRequest(t, s, fmt.Sprintf(`{"paths":[%q],"year":2024,"month":2}`, files[0].Path))
	result = analysisJSON{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if result.TotalExpenses != 0 || len(result.CategoryBreakdown) != 0 {
		t.Fatalf("windowed totals must be empty: %+v", result)
	}
	if _, ok := result.MonthlyPatterns["2024-01"]; !ok {
		t.Fatalf("patterns must ignore the window: %+v", result.MonthlyPatterns)
	}

	// No paths field: analyze the whole store.
	rec = analyzeRequest(t, s, `{"year":2024}`)
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if result.TotalIncome != 2000 || result.TotalExpenses != 50 {
		t.Fatalf("expected totals over the whole store: %+v", result)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	s := newTestServer()

	rec := analyzeRequest(t, s, `{"paths":["upload-999999"]}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown path, got %d", rec.Code)
	}

	rec = analyzeRequest(t, s, `{"month":5}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a month without a year, got %d", rec.Code)
	}

	rec = analyzeRequest(t, s, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", rec.Code)
	}
}

func TestMethodRouting(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/upload", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET upload, got %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer()

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status %d", path, rec.Code)
		}
	}
}
