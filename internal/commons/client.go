// Package commons is the client for the MediaWiki action API of the target
// media repository. Both mutating calls are OAuth-signed; the multipart
// signing boundary (query string covered, body fields not) is mandated by the
// protocol and must not be "simplified".
package commons

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/nemoralis/wlmaz/internal/adapter"
	"github.com/nemoralis/wlmaz/internal/domain"
	"github.com/nemoralis/wlmaz/internal/logger"
	"github.com/nemoralis/wlmaz/internal/oauth"
)

// anonymousToken is the sentinel the API hands back when the signed session
// did not authenticate anyone. Receiving it is an authorization failure even
// though the HTTP call succeeded.
const anonymousToken = `+\`

// UpstreamError carries a remote API failure verbatim for diagnosis
type UpstreamError struct {
	StatusCode int
	Code       string
	Info       string
}

func (e *UpstreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("commons API error: %s - %s", e.Code, e.Info)
	}
	return fmt.Sprintf("commons API HTTP error: status %d", e.StatusCode)
}

// Submission is one file plus its description, ready for the upload call
type Submission struct {
	// Filename is the target filename, extension already reconciled with the
	// actual encoding of Data
	Filename string

	// Text is the structured description markup
	Text string

	// Comment is the free-text edit comment
	Comment string

	// Data is the (normalized) binary payload
	Data []byte

	// MIMEType declares the encoding of Data
	MIMEType string
}

// apiResponse covers the fields we read from both API calls
type apiResponse struct {
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Query *struct {
		Tokens struct {
			CSRFToken string `json:"csrftoken"`
		} `json:"tokens"`
	} `json:"query"`
	Upload *struct {
		Result    string `json:"result"`
		Filename  string `json:"filename"`
		ImageInfo struct {
			URL            string `json:"url"`
			DescriptionURL string `json:"descriptionurl"`
		} `json:"imageinfo"`
	} `json:"upload"`
}

// Client defines the operations against the remote repository
//
//go:generate mockgen -source=client.go -destination=../mocks/commons_client.go -package=mocks -mock_names=Client=MockCommonsClient
type Client interface {
	// FetchCSRFToken obtains the anti-forgery token required on every mutating
	// call. Fetched fresh per upload attempt; never cached here.
	FetchCSRFToken(ctx context.Context, creds domain.Credentials) (string, error)

	// Upload commits one file. The csrf token is consumed exactly once.
	Upload(ctx context.Context, creds domain.Credentials, csrfToken string, sub *Submission) (*domain.UploadResult, error)

	// Ping checks endpoint reachability with an unsigned read-only call.
	// Not part of the upload path.
	Ping(ctx context.Context) error
}

type client struct {
	apiURL     string
	userAgent  string
	signer     *oauth.Signer
	httpClient adapter.HTTPClient
	json       adapter.JSON
}

// NewClient creates a new repository client against the given API endpoint
func NewClient(apiURL, userAgent string, signer *oauth.Signer, httpClient adapter.HTTPClient, json adapter.JSON) Client {
	return &client{
		apiURL:     apiURL,
		userAgent:  userAgent,
		signer:     signer,
		httpClient: httpClient,
		json:       json,
	}
}

// FetchCSRFToken issues a signed form-encoded POST. The form body and the
// signed parameter set are identical for this call type, which avoids any
// ambiguity between signed and transport parameters.
func (c *client) FetchCSRFToken(ctx context.Context, creds domain.Credentials) (string, error) {
	params := map[string]string{
		"action": "query",
		"meta":   "tokens",
		"type":   "csrf",
		"format": "json",
	}

	auth := c.signer.Sign(oauth.SigningRequest{
		Method: http.MethodPost,
		URL:    c.apiURL,
		Params: params,
	}, oauth.TokenPair{Key: creds.Key, Secret: creds.Secret})

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Authorization", auth.Header())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var parsed apiResponse
	if err := c.json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if parsed.Error != nil {
		return "", &UpstreamError{Code: parsed.Error.Code, Info: parsed.Error.Info}
	}
	if parsed.Query == nil || parsed.Query.Tokens.CSRFToken == "" {
		return "", &UpstreamError{Info: "missing csrftoken in response"}
	}

	token := parsed.Query.Tokens.CSRFToken
	if token == anonymousToken {
		// The call went through but nobody was authenticated behind it
		return "", domain.ErrAnonymousToken
	}

	logger.Debug("fetched csrf token", zap.String("credential_kind", string(creds.Kind)))
	return token, nil
}

// Upload performs the signed multipart submission. Only the URL-level
// parameters are covered by the signature; filename, text, comment, token and
// the binary payload travel unsigned in the multipart body.
func (c *client) Upload(ctx context.Context, creds domain.Credentials, csrfToken string, sub *Submission) (*domain.UploadResult, error) {
	queryParams := map[string]string{
		"action":         "upload",
		"format":         "json",
		"ignorewarnings": "1",
	}

	auth := c.signer.Sign(oauth.SigningRequest{
		Method: http.MethodPost,
		URL:    c.apiURL,
		Params: queryParams,
	}, oauth.TokenPair{Key: creds.Key, Secret: creds.Secret})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fields := map[string]string{
		"filename": sub.Filename,
		"text":     sub.Text,
		"comment":  sub.Comment,
		"token":    csrfToken,
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write multipart field %s: %w", k, err)
		}
	}
	part, err := createFilePart(writer, sub.Filename, sub.MIMEType)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart file part: %w", err)
	}
	if _, err := part.Write(sub.Data); err != nil {
		return nil, fmt.Errorf("failed to write file payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	query := url.Values{}
	for k, v := range queryParams {
		query.Set(k, v)
	}
	uploadURL := c.apiURL + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", auth.Header())
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("User-Agent", c.userAgent)

	logger.InfoCtx(ctx, "submitting file to commons",
		zap.String("filename", sub.Filename),
		zap.Int("bytes", len(sub.Data)),
		zap.String("credential_kind", string(creds.Kind)),
	)

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var parsed apiResponse
	if err := c.json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	// An error object is a failure even under HTTP 200
	if parsed.Error != nil {
		return nil, &UpstreamError{Code: parsed.Error.Code, Info: parsed.Error.Info}
	}
	if parsed.Upload == nil {
		return nil, &UpstreamError{Info: "missing upload result in response"}
	}

	filename := parsed.Upload.Filename
	if filename == "" {
		filename = sub.Filename
	}

	resultURL := parsed.Upload.ImageInfo.DescriptionURL
	if resultURL == "" {
		resultURL = c.filePageURL(filename)
	}

	logger.InfoCtx(ctx, "commons upload succeeded", zap.String("filename", filename))
	return &domain.UploadResult{Filename: filename, URL: resultURL}, nil
}

// Ping issues an unsigned siteinfo query through the retrying GET path
func (c *client) Ping(ctx context.Context) error {
	pingURL := c.apiURL + "?action=query&meta=siteinfo&format=json"
	_, err := c.httpClient.Get(ctx, pingURL, map[string]string{"User-Agent": c.userAgent})
	if err != nil {
		return fmt.Errorf("commons endpoint unreachable: %w", err)
	}
	return nil
}

// do executes a single-attempt request and surfaces non-2xx as UpstreamError
func (c *client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("commons request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("failed to close response body", zap.Error(err), zap.String("url", req.URL.String()))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read commons response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Info: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// filePageURL derives the public file page from the API endpoint when the
// response carries no description URL
func (c *client) filePageURL(filename string) string {
	base := strings.TrimSuffix(c.apiURL, "/w/api.php")
	return base + "/wiki/File:" + url.PathEscape(strings.ReplaceAll(filename, " ", "_"))
}

// createFilePart adds the file part with its real content type; the stock
// CreateFormFile helper hardcodes application/octet-stream
func createFilePart(w *multipart.Writer, filename, mimeType string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h.Set("Content-Type", mimeType)
	return w.CreatePart(h)
}
