package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nemoralis/wlmaz/internal/api/middleware"
	"github.com/nemoralis/wlmaz/internal/commons"
	"github.com/nemoralis/wlmaz/internal/domain"
	"github.com/nemoralis/wlmaz/internal/upload"
)

// Handler defines the REST API handlers
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)

	// UploadStatus reports whether uploads are currently accepted
	// GET /api/v1/upload/status
	UploadStatus(c *gin.Context)

	// Upload accepts a multipart photo submission and commits it to the
	// remote repository under the caller's identity
	// POST /api/v1/upload
	Upload(c *gin.Context)
}

// Config holds the handler configuration
type Config struct {
	// UploadsEnabled is the feature flag gating submissions
	UploadsEnabled bool

	// MaxFileSize bounds the accepted file size in bytes
	MaxFileSize int64

	// TempDir is where inbound files are staged
	TempDir string

	// OwnerFallbackAvailable permits anonymous submissions signed with the
	// service-owner pair (test environment only)
	OwnerFallbackAvailable bool
}

// handler implements the Handler interface
type handler struct {
	cfg       Config
	submitter upload.Submitter
}

// NewHandler creates a new REST API handler
func NewHandler(cfg Config, submitter upload.Submitter) Handler {
	return &handler{
		cfg:       cfg,
		submitter: submitter,
	}
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

// UploadStatus reports whether uploads are currently accepted
func (h *handler) UploadStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{Enabled: h.cfg.UploadsEnabled})
}

// Upload accepts a multipart submission. Ordering matters: the feature flag
// and the session are checked before the multipart body is touched, so a
// rejected request never stages a file.
func (h *handler) Upload(c *gin.Context) {
	if !h.cfg.UploadsEnabled {
		respondForbidden(c, "Uploads are currently disabled.")
		return
	}

	identity := middleware.IdentityFrom(c)
	if identity == nil && !h.cfg.OwnerFallbackAvailable {
		respondUnauthorized(c, "Unauthorized")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "No file uploaded")
		return
	}
	if h.cfg.MaxFileSize > 0 && fileHeader.Size > h.cfg.MaxFileSize {
		respondBadRequest(c, fmt.Sprintf("File exceeds the %d byte limit", h.cfg.MaxFileSize))
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	description := strings.TrimSpace(c.PostForm("description"))
	if title == "" || description == "" {
		respondBadRequest(c, "Missing title or description")
		return
	}

	stagePath := upload.StagePath(h.cfg.TempDir, fileHeader.Filename)
	if err := c.SaveUploadedFile(fileHeader, stagePath); err != nil {
		respondInternalError(c, err, "Failed to stage uploaded file")
		return
	}

	result, err := h.submitter.Submit(c.Request.Context(), identity, &upload.Request{
		Path:        stagePath,
		Title:       title,
		Description: description,
		License:     c.PostForm("license"),
		Lat:         strings.TrimSpace(c.PostForm("lat")),
		Lon:         strings.TrimSpace(c.PostForm("lon")),
		Category:    strings.TrimSpace(c.PostForm("categories")),
	})
	if err != nil {
		h.respondSubmitError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondSubmitError maps pipeline failures onto the inbound error contract
func (h *handler) respondSubmitError(c *gin.Context, err error) {
	var upstream *commons.UpstreamError
	switch {
	case errors.Is(err, domain.ErrMissingCredentials):
		respondUnauthorized(c, "Unauthorized")
	case errors.Is(err, domain.ErrAnonymousToken):
		respondUnauthorized(c, "Session invalid or expired. Please log in again.")
	case errors.As(err, &upstream):
		respondInternalError(c, err, "Upload failed")
	default:
		respondInternalError(c, err, "Upload failed")
	}
}
