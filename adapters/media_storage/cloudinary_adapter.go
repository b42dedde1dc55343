package media_storage

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-editor/internal/application/service"
	"github.com/khoahotran/portfolio-editor/internal/config"
	"github.com/khoahotran/portfolio-editor/pkg/logger"
)

type cloudinaryAdapter struct {
	cld    *cloudinary.Cloudinary
	logger logger.Logger
}

func NewCloudinaryAdapter(cfg config.Config, log logger.Logger) (service.Uploader, error) {
	if cfg.Cloudinary.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name has not config")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}

	log.Info("Cloudinary client initialized", zap.String("cloud_name", cfg.Cloudinary.CloudName))
	return &cloudinaryAdapter{cld: cld, logger: log}, nil
}

func (a *cloudinaryAdapter) Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error) {
	return a.upload(ctx, file, uploader.UploadParams{
		PublicID:  publicID,
		Folder:    folder,
		Overwrite: api.Bool(true),
	})
}

func (a *cloudinaryAdapter) UploadRaw(ctx context.Context, file io.Reader, folder string, publicID string) (string, error) {
	return a.upload(ctx, file, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       folder,
		ResourceType: "raw",
		Overwrite:    api.Bool(true),
	})
}

func (a *cloudinaryAdapter) upload(ctx context.Context, file io.Reader, params uploader.UploadParams) (string, error) {
	result, err := a.cld.Upload.Upload(ctx, file, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload cloudinary: %s", result.Error.Message)
	}
	a.logger.Debug("Uploaded to Cloudinary", zap.String("public_id", result.PublicID), zap.Int("bytes", result.Bytes))
	return result.SecureURL, nil
}
