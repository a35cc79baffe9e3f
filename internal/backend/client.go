package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"substudio/internal/api"
)

// ErrUnavailable marks a backend that could not be reached.
var ErrUnavailable = errors.New("backend unavailable")

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
}

// Options configures a Client.
type Options struct {
	BaseURL        string
	Token          string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	// HTTPClient overrides the transport used for every call. Timeouts are
	// then applied through request contexts.
	HTTPClient *http.Client
}

// Client talks to one backend instance.
type Client struct {
	base           *url.URL
	token          string
	http           *http.Client
	requestTimeout time.Duration
	uploadTimeout  time.Duration
}

// New validates opts and returns a client.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("backend base url is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	base.Path = strings.TrimRight(base.Path, "/")
	base.RawQuery = ""
	base.Fragment = ""

	httpClient := opts.HTTPClient
	if httpClient == nil {
		// No client-wide timeout: event streams stay open until cancelled.
		httpClient = &http.Client{}
	}
	requestTimeout := opts.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	uploadTimeout := opts.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 2 * time.Minute
	}
	return &Client{
		base:           base,
		token:          strings.TrimSpace(opts.Token),
		http:           httpClient,
		requestTimeout: requestTimeout,
		uploadTimeout:  uploadTimeout,
	}, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Scan asks the backend for a snapshot of path.
func (c *Client) Scan(ctx context.Context, path string, recursive bool) (api.ScanResponse, error) {
	var resp api.ScanResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/scan", api.ScanRequest{Path: path, Recursive: recursive}, &resp)
	if err != nil {
		return api.ScanResponse{}, err
	}
	return resp, nil
}

// StartJobs submits a batch of jobs in one call.
func (c *Client) StartJobs(ctx context.Context, req api.ProcessRequest) (api.Ack, error) {
	var ack api.Ack
	if err := c.doJSON(ctx, http.MethodPost, "/api/process", req, &ack); err != nil {
		return api.Ack{}, err
	}
	return ack, nil
}

// Cancel asks the backend to stop one job.
func (c *Client) Cancel(ctx context.Context, jobID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/cancel/"+url.PathEscape(jobID), nil, nil)
}

// Abort asks the backend to stop every queued and running job.
func (c *Client) Abort(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/abort", nil, nil)
}

// Upload describes a subtitle file to store next to a video.
type Upload struct {
	FileName        string
	TargetName      string
	DestinationPath string
	Body            io.Reader
}

// UploadSubtitle stores a subtitle file and returns its path on the backend.
func (c *Client) UploadSubtitle(ctx context.Context, upload Upload) (string, error) {
	if upload.Body == nil {
		return "", errors.New("upload body is required")
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", upload.FileName)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, upload.Body); err != nil {
		return "", fmt.Errorf("copy upload: %w", err)
	}
	if err := writer.WriteField("targetName", upload.TargetName); err != nil {
		return "", err
	}
	if err := writer.WriteField("destinationPath", upload.DestinationPath); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finish multipart body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()
	req, err := c.newRequest(ctx, http.MethodPost, "/api/subtitles", nil, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp api.UploadResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Path) == "" {
		return "", errors.New("POST /api/subtitles: response missing path")
	}
	return resp.Path, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	endpoint := *c.base
	endpoint.Path = c.base.Path + path
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if isNetworkError(err) {
			return fmt.Errorf("%s %s: %w: %w", req.Method, req.URL.Path, ErrUnavailable, err)
		}
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(req, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func statusError(req *http.Request, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	detail := strings.TrimSpace(string(data))
	var payload api.ErrorResponse
	if json.Unmarshal(data, &payload) == nil {
		switch {
		case payload.Detail != "":
			detail = payload.Detail
		case payload.Error != "":
			detail = payload.Error
		}
	}
	return &StatusError{Method: req.Method, Path: req.URL.Path, Code: resp.StatusCode, Detail: detail}
}

func isNetworkError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsUnavailable reports whether err means the backend could not be reached.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrUnavailable) || isNetworkError(err)
}
