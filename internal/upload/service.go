// Package upload orchestrates the signed upload pipeline: staged file in,
// committed repository asset out, temp file gone on every exit path.
package upload

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/nemoralis/wlmaz/internal/adapter"
	"github.com/nemoralis/wlmaz/internal/commons"
	"github.com/nemoralis/wlmaz/internal/domain"
	"github.com/nemoralis/wlmaz/internal/logger"
	"github.com/nemoralis/wlmaz/internal/media/normalizer"
	"github.com/nemoralis/wlmaz/internal/wikitext"
)

// Request is one user submission, already staged to disk by the transport
// layer. Title and Description are validated by the handler before Submit.
type Request struct {
	// Path is the staged temp file; removed when Submit returns
	Path string

	Title       string
	Description string
	License     string
	Lat         string
	Lon         string
	Category    string
}

// Options configures the credential fallback behavior
type Options struct {
	// OwnerToken and OwnerSecret form the service-owner pair
	OwnerToken  string
	OwnerSecret string

	// AllowOwnerFallback permits signing with the owner pair when no per-user
	// identity is available. Config restricts this to the test environment.
	AllowOwnerFallback bool
}

// Submitter performs one complete submission
//
//go:generate mockgen -source=service.go -destination=../mocks/submitter.go -package=mocks -mock_names=Submitter=MockSubmitter
type Submitter interface {
	Submit(ctx context.Context, identity *domain.WikiIdentity, req *Request) (*domain.UploadResult, error)
}

type service struct {
	commons    commons.Client
	normalizer *normalizer.Normalizer
	composer   *wikitext.Composer
	fs         adapter.FileSystem
	opts       Options
}

// NewService creates the upload submitter
func NewService(client commons.Client, n *normalizer.Normalizer, c *wikitext.Composer, fs adapter.FileSystem, opts Options) Submitter {
	return &service{
		commons:    client,
		normalizer: n,
		composer:   c,
		fs:         fs,
		opts:       opts,
	}
}

// Submit runs the pipeline: read staged bytes, normalize (degrading to the
// original bytes on transform failure), reconcile the filename extension,
// compose the description, select credentials, fetch the anti-forgery token,
// and perform the signed multipart submission. The staged file is removed on
// every exit path; removal failure is logged, never escalated.
func (s *service) Submit(ctx context.Context, identity *domain.WikiIdentity, req *Request) (*domain.UploadResult, error) {
	defer func() {
		if err := s.fs.Remove(req.Path); err != nil {
			logger.WarnCtx(ctx, "failed to clean up staged upload",
				zap.Error(err),
				zap.String("path", req.Path),
			)
		}
	}()

	creds, err := s.selectCredentials(identity)
	if err != nil {
		return nil, err
	}

	data, err := s.fs.ReadFile(req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged upload: %w", err)
	}

	norm := s.normalize(ctx, data)

	filename := strings.TrimSpace(req.Title)
	if norm.Extension != "" && !strings.HasSuffix(strings.ToLower(filename), norm.Extension) {
		filename += norm.Extension
	}

	author := ""
	if identity != nil {
		author = identity.Username
	}
	markup, comment := s.composer.Compose(wikitext.Fields{
		Description: req.Description,
		License:     req.License,
		Lat:         req.Lat,
		Lon:         req.Lon,
		Category:    req.Category,
		Author:      author,
	})

	token, err := s.commons.FetchCSRFToken(ctx, creds)
	if err != nil {
		return nil, err
	}

	result, err := s.commons.Upload(ctx, creds, token, &commons.Submission{
		Filename: filename,
		Text:     markup,
		Comment:  comment,
		Data:     norm.Data,
		MIMEType: norm.MIMEType,
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "upload committed",
		zap.String("filename", result.Filename),
		zap.String("url", result.URL),
		zap.Bool("resized", norm.Resized),
	)
	return result, nil
}

// normalize coerces a transform failure into a degraded success: the original
// bytes pass through unchanged with their sniffed MIME type and extension.
func (s *service) normalize(ctx context.Context, data []byte) *normalizer.NormalizedImage {
	norm, err := s.normalizer.Normalize(data)
	if err == nil {
		return norm
	}

	logger.WarnCtx(ctx, "image normalization failed, uploading original bytes", zap.Error(err))
	mtype := mimetype.Detect(data)
	return &normalizer.NormalizedImage{
		Data:      data,
		MIMEType:  mtype.String(),
		Extension: strings.ToLower(mtype.Extension()),
	}
}

// selectCredentials prefers the caller's delegated pair; the shared owner pair
// is only a fallback and only when explicitly allowed.
func (s *service) selectCredentials(identity *domain.WikiIdentity) (domain.Credentials, error) {
	if identity.HasCredentials() {
		return domain.PerUserCredentials(identity.Token, identity.TokenSecret), nil
	}
	if s.opts.AllowOwnerFallback && s.opts.OwnerToken != "" && s.opts.OwnerSecret != "" {
		return domain.ServiceOwnerCredentials(s.opts.OwnerToken, s.opts.OwnerSecret), nil
	}
	return domain.Credentials{}, domain.ErrMissingCredentials
}
