package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"edustack/lms-backend/internal/domain"
	"edustack/lms-backend/internal/repository"
	"edustack/lms-backend/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrResourceNotFound       = errors.New("resource not found")
	ErrSubjectCourseMismatch  = errors.New("subject does not belong to the given course")
	ErrSessionSubjectMismatch = errors.New("session does not belong to the given subject")
	ErrStorageWrite           = errors.New("failed to store file in bucket")
)

// CreateFileResourceInput carries an uploaded file and its target position in
// the hierarchy.
type CreateFileResourceInput struct {
	Data         []byte
	OriginalName string
	MimeType     string
	SessionID    primitive.ObjectID
	SubjectID    primitive.ObjectID
	CourseCode   string
	Title        string
	Description  string
}

// ResourceWithURLs is a resource hydrated with short-lived signed URLs.
// The URLs are empty for youtube resources and for file resources whose
// signing failed.
type ResourceWithURLs struct {
	domain.Resource
	PreviewURL  string `json:"previewUrl,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// ResourceService orchestrates classifier, object storage and the resource
// collection for the full file lifecycle.
type ResourceService interface {
	CreateFileResource(ctx context.Context, in CreateFileResourceInput) (*domain.Resource, error)
	CreateYoutubeResource(ctx context.Context, sessionID primitive.ObjectID, title, youtubeURL, description string) (*domain.Resource, error)
	ListResources(ctx context.Context, sessionID primitive.ObjectID, withSignedURLs bool) ([]ResourceWithURLs, error)
	UpdateResource(ctx context.Context, id primitive.ObjectID, title, description string) (*domain.Resource, error)
	DeleteResource(ctx context.Context, id primitive.ObjectID) error
	ReconcileOrphans(ctx context.Context, grace time.Duration) (int, error)
}

type resourceService struct {
	resourceRepo repository.ResourceRepository
	sessionRepo  repository.SessionRepository
	subjectRepo  repository.SubjectRepository
	courseRepo   repository.CourseRepository
	fileStorage  storage.FileStorage
	baseFolder   string
	signedURLTTL time.Duration
	logger       *zap.Logger
}

// NewResourceService creates a new instance of resourceService.
func NewResourceService(
	resourceRepo repository.ResourceRepository,
	sessionRepo repository.SessionRepository,
	subjectRepo repository.SubjectRepository,
	courseRepo repository.CourseRepository,
	fileStorage storage.FileStorage,
	baseFolder string,
	signedURLTTL time.Duration,
	logger *zap.Logger,
) ResourceService {
	if baseFolder == "" {
		baseFolder = "lms"
	}
	if signedURLTTL <= 0 {
		signedURLTTL = storage.DefaultPresignedURLExpiry
	}
	return &resourceService{
		resourceRepo: resourceRepo,
		sessionRepo:  sessionRepo,
		subjectRepo:  subjectRepo,
		courseRepo:   courseRepo,
		fileStorage:  fileStorage,
		baseFolder:   baseFolder,
		signedURLTTL: signedURLTTL,
		logger:       logger,
	}
}

// CreateFileResource classifies the upload, writes the object, then persists
// the resource row. Classification failures reject the upload before any
// storage write; storage failures abort with no database record.
func (s *resourceService) CreateFileResource(ctx context.Context, in CreateFileResourceInput) (*domain.Resource, error) {
	if len(in.Data) == 0 || in.OriginalName == "" || in.Title == "" {
		return nil, errors.New("file data, original name and title are required")
	}

	if err := s.checkUploadTarget(ctx, in.SessionID, in.SubjectID, in.CourseCode); err != nil {
		return nil, err
	}

	category, err := storage.CategoryFor(in.OriginalName, in.MimeType)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sanitized := storage.SanitizeFilename(in.OriginalName)
	objectKey := storage.ObjectKey(
		s.baseFolder, in.CourseCode, in.SubjectID.Hex(), in.SessionID.Hex(),
		category, now, sanitized)

	metadata := map[string]string{
		"original-name": in.OriginalName,
		"category":      string(category),
		"uploaded-at":   now.Format(time.RFC3339),
	}
	if err := s.fileStorage.Upload(ctx, objectKey, in.Data, in.MimeType, metadata); err != nil {
		return nil, errors.Join(ErrStorageWrite, err)
	}

	resource := &domain.Resource{
		SessionID:   in.SessionID,
		Title:       in.Title,
		Description: in.Description,
		Type:        domain.ResourceTypeFile,
		File: &domain.FileDetails{
			StorageProvider:  domain.StorageProviderS3,
			Bucket:           s.fileStorage.Bucket(),
			ObjectKey:        objectKey,
			URI:              "s3://" + s.fileStorage.Bucket() + "/" + objectKey,
			OriginalFileName: in.OriginalName,
			MimeType:         in.MimeType,
			SizeBytes:        int64(len(in.Data)),
			FileExt:          storage.FileExt(in.OriginalName),
			Category:         category,
		},
	}

	id, err := s.resourceRepo.Create(ctx, resource)
	if err != nil {
		// The object stays behind as an orphan; the reaper reclaims it.
		s.logger.Error("resource insert failed after upload",
			zap.String("objectKey", objectKey), zap.Error(err))
		return nil, err
	}
	resource.ID = id
	return resource, nil
}

// CreateYoutubeResource persists a link-only resource. No storage interaction.
func (s *resourceService) CreateYoutubeResource(ctx context.Context, sessionID primitive.ObjectID, title, youtubeURL, description string) (*domain.Resource, error) {
	if title == "" || youtubeURL == "" {
		return nil, errors.New("title and youtubeUrl are required")
	}
	if _, err := s.activeSession(ctx, sessionID); err != nil {
		return nil, err
	}

	resource := &domain.Resource{
		SessionID:   sessionID,
		Title:       title,
		Description: description,
		Type:        domain.ResourceTypeYoutube,
		YoutubeURL:  youtubeURL,
	}
	id, err := s.resourceRepo.Create(ctx, resource)
	if err != nil {
		return nil, err
	}
	resource.ID = id
	return resource, nil
}

// ListResources returns the active resources of a session. With
// withSignedURLs, file resources get preview and download URLs; a signing
// failure for one resource logs and leaves that resource bare rather than
// failing the listing.
func (s *resourceService) ListResources(ctx context.Context, sessionID primitive.ObjectID, withSignedURLs bool) ([]ResourceWithURLs, error) {
	resources, err := s.resourceRepo.ListActiveBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	hydrated := make([]ResourceWithURLs, 0, len(resources))
	for i := range resources {
		item := ResourceWithURLs{Resource: resources[i]}
		if withSignedURLs && resources[i].IsFile() {
			item.PreviewURL, item.DownloadURL = s.signResource(ctx, &resources[i])
		}
		hydrated = append(hydrated, item)
	}
	return hydrated, nil
}

func (s *resourceService) signResource(ctx context.Context, resource *domain.Resource) (previewURL, downloadURL string) {
	previewURL, err := s.fileStorage.GeneratePresignedGetURL(ctx, resource.File.ObjectKey, s.signedURLTTL)
	if err != nil {
		s.logger.Warn("signed preview URL generation failed",
			zap.String("resourceId", resource.ID.Hex()), zap.Error(err))
		return "", ""
	}
	downloadURL, err = s.fileStorage.GeneratePresignedDownloadURL(ctx, resource.File.ObjectKey, resource.File.OriginalFileName, s.signedURLTTL)
	if err != nil {
		s.logger.Warn("signed download URL generation failed",
			zap.String("resourceId", resource.ID.Hex()), zap.Error(err))
		return "", ""
	}
	return previewURL, downloadURL
}

// UpdateResource mutates metadata only; the backing object never changes.
func (s *resourceService) UpdateResource(ctx context.Context, id primitive.ObjectID, title, description string) (*domain.Resource, error) {
	if title == "" {
		return nil, errors.New("resource title cannot be empty")
	}
	resource, err := s.resourceRepo.UpdateMeta(ctx, id, title, description)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrResourceNotFound
	}
	return resource, err
}

// DeleteResource best-effort deletes the bucket object of a file resource,
// then always soft-deletes the row. A storage delete failure is logged, never
// surfaced: hierarchy consistency outranks storage cleanup.
func (s *resourceService) DeleteResource(ctx context.Context, id primitive.ObjectID) error {
	resource, err := s.resourceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResourceNotFound
		}
		return err
	}

	if resource.IsFile() {
		if err := s.fileStorage.DeleteObject(ctx, resource.File.ObjectKey); err != nil {
			s.logger.Warn("bucket delete failed, proceeding with soft delete",
				zap.String("resourceId", id.Hex()),
				zap.String("objectKey", resource.File.ObjectKey),
				zap.Error(err))
		}
	}

	err = s.resourceRepo.SoftDelete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrResourceNotFound
	}
	return err
}

// ReconcileOrphans deletes bucket objects no resource row references. Keys
// younger than grace are skipped so an upload racing the database insert is
// never reaped. Returns the number of objects deleted.
func (s *resourceService) ReconcileOrphans(ctx context.Context, grace time.Duration) (int, error) {
	storedKeys, err := s.fileStorage.ListObjects(ctx, s.baseFolder+"/")
	if err != nil {
		return 0, err
	}
	dbKeys, err := s.resourceRepo.ListObjectKeys(ctx)
	if err != nil {
		return 0, err
	}

	referenced := make(map[string]struct{}, len(dbKeys))
	for _, key := range dbKeys {
		referenced[key] = struct{}{}
	}

	cutoff := time.Now().UTC().Add(-grace)
	deleted := 0
	for _, key := range storedKeys {
		if _, ok := referenced[key]; ok {
			continue
		}
		uploadedAt, ok := objectKeyTime(key)
		if !ok || uploadedAt.After(cutoff) {
			continue
		}
		if err := s.fileStorage.DeleteObject(ctx, key); err != nil {
			s.logger.Warn("orphan delete failed", zap.String("objectKey", key), zap.Error(err))
			continue
		}
		s.logger.Info("orphaned object reclaimed", zap.String("objectKey", key))
		deleted++
	}
	return deleted, nil
}

// objectKeyTime recovers the upload instant from the millisecond prefix of
// the key's final segment.
func objectKeyTime(key string) (time.Time, bool) {
	segment := key
	if idx := strings.LastIndexByte(key, '/'); idx >= 0 {
		segment = key[idx+1:]
	}
	millis, _, found := strings.Cut(segment, "_")
	if !found {
		return time.Time{}, false
	}
	ts, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ts).UTC(), true
}

// checkUploadTarget enforces the referential-integrity chain for uploads:
// the session is active, its subject matches, and the subject belongs to the
// course named by courseCode.
func (s *resourceService) checkUploadTarget(ctx context.Context, sessionID, subjectID primitive.ObjectID, courseCode string) error {
	session, err := s.activeSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.SubjectID != subjectID {
		return ErrSessionSubjectMismatch
	}

	subject, err := s.subjectRepo.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}
	if !subject.IsActive {
		return ErrSubjectNotFound
	}

	course, err := s.courseRepo.GetActiveByCode(ctx, courseCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCourseNotFound
		}
		return err
	}
	if subject.CourseID != course.ID {
		return ErrSubjectCourseMismatch
	}
	return nil
}

func (s *resourceService) activeSession(ctx context.Context, sessionID primitive.ObjectID) (*domain.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !session.IsActive {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
