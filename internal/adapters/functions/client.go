// Package functions is the HTTP JSON client for the backend functions API
// (listSites, logs, clearLogs, importUsers). The console talks to the
// backend only through this client, whether the functions are served by
// this binary or by a remote host.
package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	logDomain "importdesk/internal/domain/logentry"
	siteDomain "importdesk/internal/domain/site"
)

// DefaultImportFailureMessage is shown when the backend returns an error
// response without a usable message.
const DefaultImportFailureMessage = "Import failed. Check the backend logs for details."

// Client calls the backend functions endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a functions client for the given base URL
// (e.g. "http://127.0.0.1:8080/_functions").
// PRE: baseURL is non-empty; httpClient may be nil for http.DefaultClient
// POST: Returns a ready-to-use client
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// ImportRequest is the body of a single importUsers call.
type ImportRequest struct {
	TargetSiteID  string `json:"targetSiteId"`
	Email         string `json:"email"`
	CustomSubject string `json:"customSubject"`
}

// ImportOutcome is the decoded success response of an importUsers call.
type ImportOutcome struct {
	Message string // Backend-provided success message
	Raw     string // Raw response body
}

// ImportError is returned when importUsers responds with a non-2xx status.
// Message is already mapped to an operator-facing string.
type ImportError struct {
	StatusCode int
	Message    string
	Raw        string
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	return e.Message
}

// errorBody is the error envelope the functions endpoints return on non-2xx.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details struct {
		Details struct {
			ApplicationError struct {
				Code string `json:"code"`
			} `json:"applicationError"`
		} `json:"details"`
	} `json:"details"`
}

// successBody is the success envelope of an importUsers call.
type successBody struct {
	Message string `json:"message"`
}

// ListSites fetches the registered sites.
// PRE: ctx is valid
// POST: Returns all sites or an error; never partial results
func (c *Client) ListSites(ctx context.Context) ([]siteDomain.Site, error) {
	body, err := c.get(ctx, "/listSites")
	if err != nil {
		return nil, err
	}
	var sites []siteDomain.Site
	if err := json.Unmarshal(body, &sites); err != nil {
		return nil, fmt.Errorf("decode listSites response: %w", err)
	}
	return sites, nil
}

// FetchLogs fetches the backend activity log, newest first.
// PRE: ctx is valid
// POST: Returns all entries or an error; never partial results
func (c *Client) FetchLogs(ctx context.Context) ([]logDomain.Entry, error) {
	body, err := c.get(ctx, "/logs")
	if err != nil {
		return nil, err
	}
	var entries []logDomain.Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode logs response: %w", err)
	}
	return entries, nil
}

// ClearLogs deletes all backend activity log entries.
// PRE: ctx is valid
// POST: The backend log is empty, or an error is returned
func (c *Client) ClearLogs(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/clearLogs", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("clearLogs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("clearLogs failed: %s", readErrorMessage(resp))
	}
	return nil
}

// ImportUser submits one email address for import.
// PRE: req.TargetSiteID and req.Email are non-empty
// POST: On 2xx returns the decoded outcome; on non-2xx returns an
// *ImportError with the friendly operator-facing message
func (c *Client) ImportUser(ctx context.Context, importReq ImportRequest) (ImportOutcome, error) {
	payload, err := json.Marshal(importReq)
	if err != nil {
		return ImportOutcome{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/importUsers", bytes.NewReader(payload))
	if err != nil {
		return ImportOutcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ImportOutcome{}, fmt.Errorf("importUsers request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ImportOutcome{}, fmt.Errorf("read importUsers response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		// A non-JSON error body still maps to the default message.
		_ = json.Unmarshal(raw, &eb)
		return ImportOutcome{}, &ImportError{
			StatusCode: resp.StatusCode,
			Message:    friendlyImportMessage(eb),
			Raw:        string(raw),
		}
	}

	var sb successBody
	if err := json.Unmarshal(raw, &sb); err != nil {
		return ImportOutcome{}, fmt.Errorf("decode importUsers response: %w", err)
	}
	return ImportOutcome{Message: sb.Message, Raw: string(raw)}, nil
}

// friendlyImportMessage maps an importUsers error body to an
// operator-facing message. The ALREADY_EXISTS application error gets a
// fixed message; otherwise the backend message is used verbatim.
func friendlyImportMessage(eb errorBody) string {
	if eb.Details.Details.ApplicationError.Code == "ALREADY_EXISTS" {
		return "Member already exists on this site."
	}
	if eb.Message != "" {
		return eb.Message
	}
	return DefaultImportFailureMessage
}

// get issues a GET request and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s failed: %s", strings.TrimPrefix(path, "/"), readErrorMessage(resp))
	}
	return io.ReadAll(resp.Body)
}

// readErrorMessage extracts the error field from a non-2xx response body,
// falling back to the HTTP status.
func readErrorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(resp.Body)
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil {
		if eb.Error != "" {
			return eb.Error
		}
		if eb.Message != "" {
			return eb.Message
		}
	}
	return resp.Status
}
