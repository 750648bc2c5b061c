package avatars

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/atriumhq/atrium-backend/pkg/errors"
	"github.com/atriumhq/atrium-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// probeExtensions lists the extensions a stored avatar may carry. Deletion
// probes every one because the stored URL may be gone by teardown time.
var probeExtensions = []string{"jpg", "jpeg", "png", "gif", "webp"}

var contentTypeExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ObjectStore is the blob surface the avatar service needs.
type ObjectStore interface {
	Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error)
	DeleteObject(ctx context.Context, objectName string) error
}

// Service manages avatar blobs under avatars/{user_id}.{ext}.
type Service struct {
	store ObjectStore
	logg  *logger.Logger
}

// ServiceParams bundles the dependencies required to build an avatar service.
type ServiceParams struct {
	Store  ObjectStore
	Logger *logger.Logger
}

// NewService constructs an avatar service. Store may be nil when blob
// storage is not configured; every operation then degrades gracefully.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{store: params.Store, logg: params.Logger}, nil
}

// Configured reports whether blob storage is available.
func (s *Service) Configured() bool {
	return s != nil && s.store != nil
}

// ProvisionInitial generates and uploads a deterministic identicon for a new
// user, returning the public URL.
func (s *Service) ProvisionInitial(ctx context.Context, userID uuid.UUID) (*string, error) {
	if !s.Configured() {
		return nil, nil
	}

	data, err := GenerateIdenticon(userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate identicon")
	}

	url, err := s.store.Upload(ctx, objectName(userID, "png"), "image/png", data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload avatar")
	}
	return &url, nil
}

// Store uploads user-provided avatar bytes, keyed by content type.
func (s *Service) Store(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error) {
	if !s.Configured() {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "avatar storage is not configured")
	}

	ext, ok := contentTypeExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unsupported avatar content type")
	}
	if len(data) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "avatar payload is empty")
	}

	url, err := s.store.Upload(ctx, objectName(userID, ext), contentType, data)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload avatar")
	}
	return url, nil
}

// DeleteAllForUser removes every stored avatar variant for the user. The
// original extension is unknown, so all known ones are probed; missing
// objects are not an error.
func (s *Service) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	if !s.Configured() {
		return nil
	}

	var errs error
	for _, ext := range probeExtensions {
		if err := s.store.DeleteObject(ctx, objectName(userID, ext)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", ext, err))
		}
	}
	if errs != nil {
		s.logg.Warn(s.logg.WithField(ctx, "user_id", userID), "avatar cleanup incomplete")
	}
	return errs
}

func objectName(userID uuid.UUID, ext string) string {
	return fmt.Sprintf("avatars/%s.%s", userID, ext)
}
