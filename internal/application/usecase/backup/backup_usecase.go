package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-editor/adapters/event"
	"github.com/khoahotran/portfolio-editor/adapters/imaging"
	"github.com/khoahotran/portfolio-editor/internal/application/service"
	"github.com/khoahotran/portfolio-editor/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-editor/pkg/logger"
)

const backupRoot = "portfolio/backups"

// BackupUseCase archives the saved portfolio record and its images to remote media storage.
type BackupUseCase struct {
	repo     portfolio.Repository
	uploader service.Uploader
	logger   logger.Logger
	now      func() time.Time
}

func NewBackupUseCase(repo portfolio.Repository, uploader service.Uploader, log logger.Logger) *BackupUseCase {
	return &BackupUseCase{
		repo:     repo,
		uploader: uploader,
		logger:   log,
		now:      time.Now,
	}
}

type Output struct {
	Folder string
	URLs   map[string]string
}

// Execute uploads a JSON snapshot of the current record plus one file per stored image. Events
// other than portfolio.saved are ignored.
func (uc *BackupUseCase) Execute(ctx context.Context, payload event.PortfolioEventPayload) (*Output, error) {
	if payload.EventType != event.PortfolioEventTypeSaved {
		uc.logger.Debug("Ignoring portfolio event", zap.String("event_type", string(payload.EventType)))
		return nil, nil
	}

	rec, err := uc.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load portfolio for backup: %w", err)
	}

	timestamp := uc.now().UTC().Format("2006-01-02_15-04-05")
	folder := fmt.Sprintf("%s/%s", backupRoot, timestamp)
	out := &Output{Folder: folder, URLs: make(map[string]string)}

	snapshot, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal portfolio snapshot: %w", err)
	}
	url, err := uc.uploader.UploadRaw(ctx, bytes.NewReader(snapshot), folder, "record.json")
	if err != nil {
		return nil, fmt.Errorf("upload portfolio snapshot: %w", err)
	}
	out.URLs["record"] = url

	var errs []error
	for _, slot := range portfolio.Slots() {
		value := rec.Images.Get(slot)
		if value == nil {
			continue
		}
		_, data, err := imaging.DecodeDataURL(*value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s image: %w", slot, err))
			continue
		}
		url, err := uc.uploader.Upload(ctx, bytes.NewReader(data), folder, string(slot))
		if err != nil {
			errs = append(errs, fmt.Errorf("upload %s image: %w", slot, err))
			continue
		}
		out.URLs[string(slot)] = url
	}

	if err := errors.Join(errs...); err != nil {
		return out, err
	}

	uc.logger.Info("Portfolio backup completed",
		zap.String("folder", folder),
		zap.Int("files", len(out.URLs)),
	)
	return out, nil
}
