package commons_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nemoralis/wlmaz/internal/adapter"
	"github.com/nemoralis/wlmaz/internal/commons"
	"github.com/nemoralis/wlmaz/internal/domain"
	"github.com/nemoralis/wlmaz/internal/logger"
	"github.com/nemoralis/wlmaz/internal/oauth"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func newTestClient(apiURL string) commons.Client {
	signer := oauth.NewSigner(
		oauth.TokenPair{Key: "consumer-key", Secret: "consumer-secret"},
		adapter.NewClock(),
		oauth.NewNonceSource(),
	)
	return commons.NewClient(
		apiURL,
		"WLMAZ-Tool/1.0 (test)",
		signer,
		adapter.NewHTTPClient(5*time.Second),
		adapter.NewJSON(),
	)
}

func testCredentials() domain.Credentials {
	return domain.PerUserCredentials("user-token", "user-secret")
}

func TestFetchCSRFToken(t *testing.T) {
	t.Run("signs the request and returns the token", func(t *testing.T) {
		var gotAuth, gotContentType, gotBody string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotContentType = r.Header.Get("Content-Type")
			body, _ := io.ReadAll(r.Body)
			gotBody = string(body)
			_, _ = w.Write([]byte(`{"query":{"tokens":{"csrftoken":"abc123+\\"}}}`))
		}))
		defer srv.Close()

		token, err := newTestClient(srv.URL).FetchCSRFToken(context.Background(), testCredentials())
		require.NoError(t, err)
		assert.Equal(t, `abc123+\`, token)

		assert.True(t, strings.HasPrefix(gotAuth, "OAuth "))
		assert.Contains(t, gotAuth, `oauth_consumer_key="consumer-key"`)
		assert.Contains(t, gotAuth, `oauth_token="user-token"`)
		assert.Contains(t, gotAuth, `oauth_signature_method="HMAC-SHA1"`)
		assert.Contains(t, gotAuth, "oauth_signature=")

		assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
		for _, kv := range []string{"action=query", "meta=tokens", "type=csrf", "format=json"} {
			assert.Contains(t, gotBody, kv)
		}
	})

	t.Run("anonymous sentinel is an authentication failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"query":{"tokens":{"csrftoken":"+\\"}}}`))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).FetchCSRFToken(context.Background(), testCredentials())
		assert.ErrorIs(t, err, domain.ErrAnonymousToken)
	})

	t.Run("api error payload surfaces code and info", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"error":{"code":"mwoauth-invalid-authorization","info":"The authorization headers in your request are not valid"}}`))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).FetchCSRFToken(context.Background(), testCredentials())
		var upstream *commons.UpstreamError
		require.True(t, errors.As(err, &upstream))
		assert.Equal(t, "mwoauth-invalid-authorization", upstream.Code)
		assert.Contains(t, upstream.Info, "not valid")
	})

	t.Run("missing token in an otherwise valid response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"query":{"tokens":{}}}`))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).FetchCSRFToken(context.Background(), testCredentials())
		var upstream *commons.UpstreamError
		require.True(t, errors.As(err, &upstream))
	})

	t.Run("non-2xx status becomes an upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("upstream maintenance"))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).FetchCSRFToken(context.Background(), testCredentials())
		var upstream *commons.UpstreamError
		require.True(t, errors.As(err, &upstream))
		assert.Equal(t, http.StatusServiceUnavailable, upstream.StatusCode)
		assert.Equal(t, "upstream maintenance", upstream.Info)
	})
}

func TestUpload(t *testing.T) {
	submission := func() *commons.Submission {
		return &commons.Submission{
			Filename: "Maiden Tower.jpg",
			Text:     "== {{int:filedesc}} ==",
			Comment:  "Uploaded via wikilovesmonuments.az",
			Data:     []byte{0xFF, 0xD8, 0xFF, 0xD9},
			MIMEType: "image/jpeg",
		}
	}

	t.Run("signs the query and carries the payload in multipart", func(t *testing.T) {
		var gotQuery map[string][]string
		var gotFields map[string]string
		var gotFile []byte
		var gotFileContentType string

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query()

			reader, err := r.MultipartReader()
			require.NoError(t, err)
			gotFields = make(map[string]string)
			for {
				part, err := reader.NextPart()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				data, _ := io.ReadAll(part)
				if part.FormName() == "file" {
					gotFile = data
					gotFileContentType = part.Header.Get("Content-Type")
					continue
				}
				gotFields[part.FormName()] = string(data)
			}

			_, _ = w.Write([]byte(`{"upload":{"result":"Success","filename":"Maiden_Tower.jpg","imageinfo":{"descriptionurl":"https://commons.wikimedia.org/wiki/File:Maiden_Tower.jpg"}}}`))
		}))
		defer srv.Close()

		result, err := newTestClient(srv.URL).Upload(context.Background(), testCredentials(), "csrf-token", submission())
		require.NoError(t, err)
		assert.Equal(t, "Maiden_Tower.jpg", result.Filename)
		assert.Equal(t, "https://commons.wikimedia.org/wiki/File:Maiden_Tower.jpg", result.URL)

		// Signed surface is exactly the three query parameters
		assert.Equal(t, []string{"upload"}, gotQuery["action"])
		assert.Equal(t, []string{"json"}, gotQuery["format"])
		assert.Equal(t, []string{"1"}, gotQuery["ignorewarnings"])
		assert.Len(t, gotQuery, 3)

		// Description fields and token travel only in the body
		assert.Equal(t, "Maiden Tower.jpg", gotFields["filename"])
		assert.Equal(t, "== {{int:filedesc}} ==", gotFields["text"])
		assert.Equal(t, "Uploaded via wikilovesmonuments.az", gotFields["comment"])
		assert.Equal(t, "csrf-token", gotFields["token"])
		assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0xD9}, gotFile)
		assert.Equal(t, "image/jpeg", gotFileContentType)
	})

	t.Run("error object under HTTP 200 is a failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"error":{"code":"fileexists-no-change","info":"The upload is an exact duplicate"}}`))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).Upload(context.Background(), testCredentials(), "csrf-token", submission())
		var upstream *commons.UpstreamError
		require.True(t, errors.As(err, &upstream))
		assert.Equal(t, "fileexists-no-change", upstream.Code)
	})

	t.Run("derives the file page URL when the response omits it", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"upload":{"result":"Success","filename":"Maiden Tower.jpg"}}`))
		}))
		defer srv.Close()

		result, err := newTestClient(srv.URL).Upload(context.Background(), testCredentials(), "csrf-token", submission())
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/wiki/File:Maiden_Tower.jpg", result.URL)
	})

	t.Run("missing upload result is a failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).Upload(context.Background(), testCredentials(), "csrf-token", submission())
		var upstream *commons.UpstreamError
		require.True(t, errors.As(err, &upstream))
	})
}

func TestPing(t *testing.T) {
	t.Run("succeeds against a reachable endpoint", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "query", r.URL.Query().Get("action"))
			_, _ = w.Write([]byte(`{"query":{"general":{}}}`))
		}))
		defer srv.Close()

		assert.NoError(t, newTestClient(srv.URL).Ping(context.Background()))
	})
}
