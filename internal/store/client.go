package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/imroc/req/v3"
	"github.com/vaultsync/vaultsync/internal/version"
)

const defaultTimeout = 30 * time.Second

// Options configures a store client.
type Options struct {
	// BaseURL of the document store, e.g. "http://localhost:5984".
	BaseURL string

	// Database holding the mirrored documents.
	Database string

	Username string
	Password string

	// Timeout per store call. Zero means defaultTimeout.
	Timeout time.Duration
}

// Client is a minimal HTTP client for the remote document store. It keeps
// no local state between calls; every side effect is a network call.
type Client struct {
	http *req.Client
	db   string
}

func NewClient(opts *Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("store: base url missing")
	}
	if opts.Database == "" {
		return nil, errors.New("store: database missing")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := req.C().
		SetBaseURL(opts.BaseURL).
		SetTimeout(timeout).
		SetUserAgent("VaultSync/" + version.Version).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal).
		SetCommonRetryCount(1).
		SetCommonRetryFixedInterval(500 * time.Millisecond).
		SetCommonRetryCondition(func(resp *req.Response, err error) bool {
			// retry transport failures only, never semantic statuses
			return err != nil
		})

	if opts.Username != "" {
		client.SetCommonBasicAuth(opts.Username, opts.Password)
	}

	return &Client{
		http: client,
		db:   opts.Database,
	}, nil
}

// Ping probes store reachability. An HTTP error status is a normal "not ok"
// outcome, not an error.
func (c *Client) Ping(ctx context.Context) bool {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/")
	return err == nil && resp.IsSuccessState()
}

// Provision creates the database if it does not yet exist. Safe to call
// repeatedly; "already exists" is success.
func (c *Client) Provision(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Put("/" + url.PathEscape(c.db))
	if err != nil {
		return fmt.Errorf("%w: provision: %v", ErrNetworkUnavailable, err)
	}
	if resp.IsSuccessState() || resp.StatusCode == 412 {
		return nil
	}
	return fmt.Errorf("provision %q: %s", c.db, responseError(resp))
}

// List enumerates all document ids and their current revisions.
func (c *Client) List(ctx context.Context) (*ListResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/" + url.PathEscape(c.db) + "/_all_docs")
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrNetworkUnavailable, err)
	}
	if !resp.IsSuccessState() {
		return nil, fmt.Errorf("list: %s", responseError(resp))
	}

	var body struct {
		TotalRows int `json:"total_rows"`
		Rows      []struct {
			ID    string `json:"id"`
			Value struct {
				Rev string `json:"rev"`
			} `json:"value"`
		} `json:"rows"`
	}
	if err := jsonUnmarshal(resp.Bytes(), &body); err != nil {
		return nil, fmt.Errorf("list: parse: %w", err)
	}

	result := &ListResult{
		Total:   body.TotalRows,
		Entries: make([]ListEntry, 0, len(body.Rows)),
	}
	for _, row := range body.Rows {
		result.Entries = append(result.Entries, ListEntry{
			ID:       row.ID,
			Revision: row.Value.Rev,
		})
	}
	return result, nil
}

// Get fetches a document by id. Absence is a normal outcome, surfaced as a
// nil document with a nil error.
func (c *Client) Get(ctx context.Context, id string) (Document, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.docPath(id))
	if err != nil {
		return nil, fmt.Errorf("%w: get %q: %v", ErrNetworkUnavailable, id, err)
	}
	if resp.StatusCode == 404 {
		return nil, nil
	}
	if !resp.IsSuccessState() {
		return nil, fmt.Errorf("get %q: %s", id, responseError(resp))
	}

	doc, err := ParseDocument(resp.Bytes())
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", id, err)
	}
	return doc, nil
}

// GetFileRecord fetches and type-checks the metadata record for a path.
func (c *Client) GetFileRecord(ctx context.Context, path string) (*FileRecord, error) {
	doc, err := c.Get(ctx, path)
	if err != nil || doc == nil {
		return nil, err
	}
	rec, ok := doc.(*FileRecord)
	if !ok {
		return nil, fmt.Errorf("get %q: expected metadata document, got %q", path, doc.Kind())
	}
	return rec, nil
}

// GetChunk fetches and type-checks a chunk document.
func (c *Client) GetChunk(ctx context.Context, id string) (*ChunkRecord, error) {
	doc, err := c.Get(ctx, id)
	if err != nil || doc == nil {
		return nil, err
	}
	chunk, ok := doc.(*ChunkRecord)
	if !ok {
		return nil, fmt.Errorf("get %q: expected chunk document, got %q", id, doc.Kind())
	}
	return chunk, nil
}

// Put creates or updates a document. The submitted revision must match the
// store's current one for an existing id, otherwise the store rejects the
// write with a conflict.
func (c *Client) Put(ctx context.Context, doc Document) (*PutResult, error) {
	body, err := jsonMarshal(doc)
	if err != nil {
		return nil, fmt.Errorf("put %q: marshal: %w", doc.DocID(), err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBodyJsonBytes(body).
		Put(c.docPath(doc.DocID()))
	if err != nil {
		return nil, fmt.Errorf("%w: put %q: %v", ErrNetworkUnavailable, doc.DocID(), err)
	}
	if resp.StatusCode == 409 {
		return nil, fmt.Errorf("put %q: %w", doc.DocID(), ErrConflict)
	}
	if !resp.IsSuccessState() {
		return nil, fmt.Errorf("put %q: %s", doc.DocID(), responseError(resp))
	}

	var putBody struct {
		ID  string `json:"id"`
		Rev string `json:"rev"`
	}
	if err := jsonUnmarshal(resp.Bytes(), &putBody); err != nil {
		return nil, fmt.Errorf("put %q: parse: %w", doc.DocID(), err)
	}

	return &PutResult{
		ID:       putBody.ID,
		Revision: putBody.Rev,
	}, nil
}

// Delete removes a document. Fails with ErrConflict on a stale revision and
// ErrNotFound if the id does not exist.
func (c *Client) Delete(ctx context.Context, id string, revision string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("rev", revision).
		Delete(c.docPath(id))
	if err != nil {
		return fmt.Errorf("%w: delete %q: %v", ErrNetworkUnavailable, id, err)
	}
	switch {
	case resp.StatusCode == 404:
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	case resp.StatusCode == 409:
		return fmt.Errorf("delete %q: %w", id, ErrConflict)
	case !resp.IsSuccessState():
		return fmt.Errorf("delete %q: %s", id, responseError(resp))
	}
	return nil
}

func (c *Client) docPath(id string) string {
	return "/" + url.PathEscape(c.db) + "/" + url.PathEscape(id)
}

func responseError(resp *req.Response) string {
	var apiErr apiError
	if err := jsonUnmarshal(resp.Bytes(), &apiErr); err == nil && apiErr.Code != "" {
		return fmt.Sprintf("http %d: %s", resp.StatusCode, apiErr.Error())
	}
	return fmt.Sprintf("http %d", resp.StatusCode)
}
