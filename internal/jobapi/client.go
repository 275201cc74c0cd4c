// Package jobapi is the client for the external import job service.
package jobapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Job states reported by the service.
const (
	StatusWaiting    = "waiting"
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Client talks to the job service over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client. rps <= 0 disables client-side rate limiting.
func NewClient(baseURL, token string, timeout time.Duration, rps float64) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("job api returned status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether a retry could succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// MatchOptions is the wire form of the match configuration.
type MatchOptions struct {
	UseEAN   bool     `json:"useEan"`
	UseMPN   bool     `json:"useMpn"`
	UseName  bool     `json:"useName"`
	Priority []string `json:"priority"`
}

// SubmitRequest describes a supplier file upload.
type SubmitRequest struct {
	FileName     string
	File         io.Reader
	BatchSize    int
	FieldMapping map[string]string
	MatchOptions MatchOptions
}

type submitResponse struct {
	JobID string          `json:"job_id"`
	ID    json.RawMessage `json:"id"`
}

// MatchStats as reported in job results.
type MatchStats struct {
	TotalMatched int            `json:"total_matched"`
	ByMethod     map[string]int `json:"by_method"`
}

// JobResults is the results object of a finished job.
type JobResults struct {
	Total          int         `json:"total"`
	Successful     int         `json:"successful"`
	Failed         int         `json:"failed"`
	Skipped        int         `json:"skipped"`
	SuppliersAdded int         `json:"suppliers_added"`
	MatchStats     *MatchStats `json:"match_stats,omitempty"`
}

// JobStatus is one status poll response.
type JobStatus struct {
	ID            string      `json:"job_id"`
	Status        string      `json:"status"`
	Progress      float64     `json:"progress"`
	Message       string      `json:"message"`
	StatusMessage string      `json:"status_message"`
	Results       *JobResults `json:"results"`
}

// Text returns whichever message field the service filled in.
func (s JobStatus) Text() string {
	if s.Message != "" {
		return s.Message
	}
	return s.StatusMessage
}

// Terminal reports whether polling can stop.
func (s JobStatus) Terminal() bool {
	switch s.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// ImportRecord is one row of the service's import history.
type ImportRecord struct {
	ID                string     `json:"id"`
	Type              string     `json:"type"`
	FileName          string     `json:"file_name"`
	Status            string     `json:"status"`
	TotalRecords      int        `json:"total_records"`
	SuccessfulRecords int        `json:"successful_records"`
	FailedRecords     int        `json:"failed_records"`
	ErrorMessage      string     `json:"error_message"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at"`
}

type historyPage struct {
	Count   int            `json:"count"`
	Results []ImportRecord `json:"results"`
}

// SubmitSupplierFile uploads a supplier file and returns the job id. The
// service answers with either "job_id" or "id".
func (c *Client) SubmitSupplierFile(ctx context.Context, req SubmitRequest) (string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	part, err := w.CreateFormFile("file", req.FileName)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, req.File); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}

	mappingJSON, err := json.Marshal(req.FieldMapping)
	if err != nil {
		return "", fmt.Errorf("failed to marshal field mapping: %w", err)
	}
	optionsJSON, err := json.Marshal(req.MatchOptions)
	if err != nil {
		return "", fmt.Errorf("failed to marshal match options: %w", err)
	}
	fields := map[string]string{
		"batch_size":    strconv.Itoa(req.BatchSize),
		"field_mapping": string(mappingJSON),
		"match_options": string(optionsJSON),
	}
	for _, k := range []string{"batch_size", "field_mapping", "match_options"} {
		if err := w.WriteField(k, fields[k]); err != nil {
			return "", fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	var resp submitResponse
	if err := c.do(ctx, http.MethodPost, "/upload/supplier/", w.FormDataContentType(), body, &resp); err != nil {
		return "", err
	}

	if resp.JobID != "" {
		return resp.JobID, nil
	}
	if id := rawID(resp.ID); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("job api response carried no job id")
}

// Status fetches the current state of a job.
func (c *Client) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	var st JobStatus
	if err := c.do(ctx, http.MethodGet, "/upload/status/"+url.PathEscape(jobID)+"/", "", nil, &st); err != nil {
		return nil, err
	}
	if st.ID == "" {
		st.ID = jobID
	}
	return &st, nil
}

// Cancel asks the service to stop a job. The service may ignore it.
func (c *Client) Cancel(ctx context.Context, jobID string) error {
	return c.do(ctx, http.MethodPost, "/upload/cancel/"+url.PathEscape(jobID)+"/", "", nil, nil)
}

// RecentImports lists the newest import history rows of importType.
func (c *Client) RecentImports(ctx context.Context, importType string, limit int) ([]ImportRecord, error) {
	q := url.Values{}
	if importType != "" {
		q.Set("type", importType)
	}
	if limit > 0 {
		q.Set("page_size", strconv.Itoa(limit))
	}
	var page historyPage
	if err := c.do(ctx, http.MethodGet, "/import-history/?"+q.Encode(), "", nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
