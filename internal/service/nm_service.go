package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"edustack/lms-backend/internal/domain"
	"edustack/lms-backend/internal/nm"
	"edustack/lms-backend/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrLaunchTokenInvalid = errors.New("launch token is invalid")
	ErrLaunchTokenExpired = errors.New("launch token has expired")
	ErrLaunchTokenUsed    = errors.New("launch token was already used")
)

// StudentMeta is the optional partner-supplied student profile on subscribe
// and access calls.
type StudentMeta struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// PartnerRequest is the common body shape of inbound partner calls.
type PartnerRequest struct {
	NmUserID    string       `json:"nmUserId"`
	CourseCode  string       `json:"courseCode"`
	StudentMeta *StudentMeta `json:"studentMeta,omitempty"`
}

// SessionClaims is the JWT payload of the nm_session cookie set at launch.
type SessionClaims struct {
	NmUserID   string `json:"nmUserId"`
	CourseCode string `json:"courseCode"`
	jwt.RegisteredClaims
}

// NmService bridges this LMS and the external NM partner platform.
type NmService interface {
	PublishCourse(ctx context.Context, courseCode string) (json.RawMessage, error)
	Subscribe(ctx context.Context, req PartnerRequest) error
	Access(ctx context.Context, req PartnerRequest, baseURL string) (accessURL string, err error)
	RedeemLaunchToken(ctx context.Context, token string) (nmUserID, courseCode string, err error)
	NewSessionToken(nmUserID, courseCode string) (string, error)
	GetProgress(ctx context.Context, nmUserID, courseCode string) (map[string]interface{}, error)
	UpdateProgress(ctx context.Context, nmUserID, courseCode string, patch map[string]interface{}) error
	PushProgress(ctx context.Context, nmUserID, courseCode string, patch map[string]interface{}) error
}

type nmService struct {
	courseRepo        repository.CourseRepository
	subjectRepo       repository.SubjectRepository
	studentRepo       repository.NmStudentRepository
	subscriptionRepo  repository.NmSubscriptionRepository
	progressRepo      repository.NmProgressRepository
	launchTokenRepo   repository.NmLaunchTokenRepository
	partner           nm.API
	tokens            TokenSource
	jwtSecret         string
	sessionExpiration time.Duration
	launchTokenTTL    time.Duration
	logger            *zap.Logger
}

// NewNmService creates a new instance of nmService.
func NewNmService(
	courseRepo repository.CourseRepository,
	subjectRepo repository.SubjectRepository,
	studentRepo repository.NmStudentRepository,
	subscriptionRepo repository.NmSubscriptionRepository,
	progressRepo repository.NmProgressRepository,
	launchTokenRepo repository.NmLaunchTokenRepository,
	partner nm.API,
	tokens TokenSource,
	jwtSecret string,
	sessionExpiration time.Duration,
	launchTokenTTL time.Duration,
	logger *zap.Logger,
) NmService {
	if sessionExpiration <= 0 {
		sessionExpiration = time.Hour
	}
	if launchTokenTTL <= 0 {
		launchTokenTTL = 10 * time.Minute
	}
	return &nmService{
		courseRepo:        courseRepo,
		subjectRepo:       subjectRepo,
		studentRepo:       studentRepo,
		subscriptionRepo:  subscriptionRepo,
		progressRepo:      progressRepo,
		launchTokenRepo:   launchTokenRepo,
		partner:           partner,
		tokens:            tokens,
		jwtSecret:         jwtSecret,
		sessionExpiration: sessionExpiration,
		launchTokenTTL:    launchTokenTTL,
		logger:            logger,
	}
}

// PublishCourse assembles the partner payload from a course and its subjects,
// POSTs it bearer-authenticated, and marks the course published on success.
// Upstream failures propagate unmodified and leave the flag untouched.
func (s *nmService) PublishCourse(ctx context.Context, courseCode string) (json.RawMessage, error) {
	course, err := s.courseRepo.GetActiveByCode(ctx, courseCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	subjects, err := s.subjectRepo.ListActiveByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	payload := &nm.CoursePayload{
		CourseCode:  course.CourseCode,
		Title:       course.Title,
		Description: course.Description,
		Objectives:  course.Objectives,
		Subjects:    make([]nm.SubjectPayload, 0, len(subjects)),
	}
	for _, subject := range subjects {
		payload.Subjects = append(payload.Subjects, nm.SubjectPayload{
			Title:   subject.Title,
			Content: subject.Content,
		})
	}

	accessToken, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	response, err := s.partner.PublishCourse(ctx, accessToken, payload)
	if err != nil {
		return nil, err
	}

	if err := s.courseRepo.SetNmPublished(ctx, courseCode, true); err != nil {
		s.logger.Warn("course published upstream but local flag update failed",
			zap.String("courseCode", courseCode), zap.Error(err))
	}
	return response, nil
}

// Subscribe upserts the student mirror and the subscription. Safe to repeat.
func (s *nmService) Subscribe(ctx context.Context, req PartnerRequest) error {
	if req.StudentMeta != nil {
		student := &domain.NmStudent{
			NmUserID: req.NmUserID,
			Email:    req.StudentMeta.Email,
			Name:     req.StudentMeta.Name,
			Phone:    req.StudentMeta.Phone,
		}
		if err := s.studentRepo.Upsert(ctx, student); err != nil {
			return err
		}
	}
	return s.subscriptionRepo.Upsert(ctx, req.NmUserID, req.CourseCode)
}

// Access performs the subscribe side effects and mints a single-use launch
// token, returning the launch URL that embeds it.
func (s *nmService) Access(ctx context.Context, req PartnerRequest, baseURL string) (string, error) {
	if err := s.Subscribe(ctx, req); err != nil {
		return "", err
	}

	token := &domain.NmLaunchToken{
		Token:      uuid.NewString(),
		NmUserID:   req.NmUserID,
		CourseCode: req.CourseCode,
		ExpiresAt:  time.Now().UTC().Add(s.launchTokenTTL),
	}
	if err := s.launchTokenRepo.Create(ctx, token); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/api/nm/launch?token=%s", baseURL, token.Token), nil
}

// RedeemLaunchToken validates and consumes a launch token. Expiry is checked
// before the used marker, and the marker update is conditional, so a token is
// redeemable exactly once.
func (s *nmService) RedeemLaunchToken(ctx context.Context, token string) (string, string, error) {
	if token == "" {
		return "", "", ErrLaunchTokenInvalid
	}

	record, err := s.launchTokenRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", ErrLaunchTokenInvalid
		}
		return "", "", err
	}

	if time.Now().UTC().After(record.ExpiresAt) {
		return "", "", ErrLaunchTokenExpired
	}
	if record.UsedAt != nil {
		return "", "", ErrLaunchTokenUsed
	}

	if err := s.launchTokenRepo.MarkUsed(ctx, record.ID, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Lost the race against another redemption.
			return "", "", ErrLaunchTokenUsed
		}
		return "", "", err
	}

	return record.NmUserID, record.CourseCode, nil
}

// NewSessionToken signs the student/course pair into the nm_session cookie JWT.
func (s *nmService) NewSessionToken(nmUserID, courseCode string) (string, error) {
	claims := &SessionClaims{
		NmUserID:   nmUserID,
		CourseCode: courseCode,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.sessionExpiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "lms-backend",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// GetProgress returns the stored progress blob for a pair, empty when none.
func (s *nmService) GetProgress(ctx context.Context, nmUserID, courseCode string) (map[string]interface{}, error) {
	progress, err := s.progressRepo.GetByPair(ctx, nmUserID, courseCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return map[string]interface{}{}, nil
		}
		return nil, err
	}
	if progress.Progress == nil {
		return map[string]interface{}{}, nil
	}
	return progress.Progress, nil
}

// UpdateProgress strips empty values from the patch and upserts it,
// last write wins.
func (s *nmService) UpdateProgress(ctx context.Context, nmUserID, courseCode string, patch map[string]interface{}) error {
	cleaned := make(map[string]interface{}, len(patch))
	for key, value := range patch {
		if value == nil || value == "" {
			continue
		}
		cleaned[key] = value
	}
	return s.progressRepo.Upsert(ctx, nmUserID, courseCode, cleaned)
}

// PushProgress forwards a progress patch to the partner using the cached
// bearer token.
func (s *nmService) PushProgress(ctx context.Context, nmUserID, courseCode string, patch map[string]interface{}) error {
	accessToken, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}
	return s.partner.PushProgress(ctx, accessToken, &nm.ProgressPayload{
		NmUserID:   nmUserID,
		CourseCode: courseCode,
		Progress:   patch,
	})
}
