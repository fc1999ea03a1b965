package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	pkgerrors "github.com/parsifal-shop/storefront-client/pkg/errors"
	"github.com/parsifal-shop/storefront-client/pkg/logger"
)

const defaultTimeout = 15 * time.Second

// Client is a thin JSON client for the storefront REST API. Error responses
// may carry an optional human-readable "message" field, which is surfaced
// verbatim when present.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logg       *logger.Logger
}

// Options configures the REST client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logger.Logger
}

func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base url required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		logg:       opts.Logger,
	}, nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPatch, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.send(req, out)
}

// FilePart is one binary part of a multipart submission. Parts are written in
// slice order; the server appends uploaded files after the metadata's ordered
// existing-key list.
type FilePart struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// MultipartForm is one JSON metadata part plus zero or more file parts.
type MultipartForm struct {
	MetaField string
	Meta      any
	Files     []FilePart
}

// SubmitMultipart sends the form to the given path. Metadata travels as a
// JSON-encoded form field, file bytes as separate parts.
func (c *Client) SubmitMultipart(ctx context.Context, method, path string, form MultipartForm, out any) error {
	if form.MetaField == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "multipart metadata field name required")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	meta, err := json.Marshal(form.Meta)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode metadata part")
	}
	if err := writer.WriteField(form.MetaField, string(meta)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write metadata part")
	}

	for _, file := range form.Files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Name))
		if file.ContentType != "" {
			header.Set("Content-Type", file.ContentType)
		}
		part, err := writer.CreatePart(header)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create file part")
		}
		if _, err := part.Write(file.Data); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write file part")
		}
	}

	if err := writer.Close(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "")
	}
	defer c.closeBody(req.Context(), resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "decode response")
	}
	return nil
}

type errorEnvelope struct {
	Message string `json:"message"`
}

func (c *Client) errorFromResponse(resp *http.Response) error {
	var envelope errorEnvelope
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(raw) > 0 {
		_ = json.Unmarshal(raw, &envelope)
	}

	if resp.StatusCode == http.StatusNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, strings.TrimSpace(envelope.Message))
	}
	return pkgerrors.New(pkgerrors.CodeTransport, strings.TrimSpace(envelope.Message))
}

func (c *Client) closeBody(ctx context.Context, body io.Closer) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil && c.logg != nil {
		c.logg.Warn(ctx, "failed to close response body")
	}
}
