package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/NourhenHamza/TalentGo-sub001/internal/auth"
	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/NourhenHamza/TalentGo-sub001/internal/service/integration"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var allowedReportExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".odt":  true,
	".md":   true,
	".txt":  true,
	".zip":  true,
}

// ReportFileLinkPrefix is the stable API path a stored report is served
// from. Upload returns it as the report's fileUrl; presigned storage URLs are
// only issued on read because they expire.
const ReportFileLinkPrefix = "/api/v1/files/"

const reportKeyPrefix = "reports/"

// ReportFileService stores report documents and resolves their stable links
// to short-lived download URLs.
type ReportFileService interface {
	Upload(ctx context.Context, ac auth.AuthContext, req *models.UploadReportFileRequest, content io.Reader) (*models.UploadReportFileResponse, error)
	DownloadURL(ctx context.Context, ac auth.AuthContext, key string) (string, error)
}

type reportFileService struct {
	storage   integration.ObjectStorage
	urlExpiry time.Duration
	maxSize   int64
	logger    zerolog.Logger
}

func NewReportFileService(storage integration.ObjectStorage, urlExpiry time.Duration, maxSize int64, logger zerolog.Logger) ReportFileService {
	if urlExpiry <= 0 {
		urlExpiry = 15 * time.Minute
	}
	return &reportFileService{
		storage:   storage,
		urlExpiry: urlExpiry,
		maxSize:   maxSize,
		logger:    logger,
	}
}

func (s *reportFileService) Upload(ctx context.Context, ac auth.AuthContext, req *models.UploadReportFileRequest, content io.Reader) (*models.UploadReportFileResponse, error) {
	family := workflow.FamilyReport
	ok, err := auth.HasAnyRole(ctx, ac, family.SubmitterRoles(), family.String())
	if err != nil {
		return nil, fmt.Errorf("failed to check roles: %w", err)
	}
	if !ok {
		return nil, workflow.AuthorizationError("only report submitters can upload report files")
	}

	ext := strings.ToLower(path.Ext(req.FileName))
	switch {
	case req.FileName == "":
		return nil, workflow.ValidationError("file is required", map[string]string{"file": "required"})
	case !allowedReportExtensions[ext]:
		return nil, workflow.ValidationError("unsupported file type", map[string]string{"file": "unsupported extension " + ext})
	case req.Size <= 0:
		return nil, workflow.ValidationError("file is empty", map[string]string{"file": "empty"})
	case s.maxSize > 0 && req.Size > s.maxSize:
		return nil, workflow.ValidationError("file too large", map[string]string{"file": fmt.Sprintf("exceeds %d bytes", s.maxSize)})
	}

	ownerID := ac.CurrentActor().ID
	key := fmt.Sprintf("%s%s/%s%s", reportKeyPrefix, ownerID, uuid.New().String(), ext)

	if err := s.storage.Put(ctx, key, content, req.Size, req.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store report file: %w", err)
	}

	s.logger.Info().
		Str("owner_id", ownerID).
		Str("key", key).
		Int64("size", req.Size).
		Msg("Report file uploaded")

	return &models.UploadReportFileResponse{
		Key:        key,
		FileURL:    ReportFileLinkPrefix + key,
		Size:       req.Size,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// DownloadURL presigns key for the uploader or a report reviewer.
func (s *reportFileService) DownloadURL(ctx context.Context, ac auth.AuthContext, key string) (string, error) {
	ownerID, ok := reportKeyOwner(key)
	if !ok {
		return "", workflow.NotFoundError("report file not found")
	}

	if ownerID != ac.CurrentActor().ID {
		family := workflow.FamilyReport
		allowed, err := auth.HasAnyRole(ctx, ac, family.ReviewerRoles(), family.String())
		if err != nil {
			return "", fmt.Errorf("failed to check roles: %w", err)
		}
		if !allowed {
			return "", workflow.AuthorizationError("not allowed to read this report file")
		}
	}

	url, err := s.storage.PresignedURL(ctx, key, s.urlExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to build report file url: %w", err)
	}
	return url, nil
}

// reportKeyOwner extracts the uploader from reports/<owner>/<file>.
func reportKeyOwner(key string) (string, bool) {
	if !strings.HasPrefix(key, reportKeyPrefix) || path.Clean(key) != key {
		return "", false
	}
	rest := strings.TrimPrefix(key, reportKeyPrefix)
	owner, file := path.Split(rest)
	owner = strings.TrimSuffix(owner, "/")
	if owner == "" || file == "" || !allowedReportExtensions[strings.ToLower(path.Ext(file))] {
		return "", false
	}
	return owner, true
}
