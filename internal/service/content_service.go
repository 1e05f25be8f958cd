package service

import (
	"context"
	"errors"

	"edustack/lms-backend/internal/domain"
	"edustack/lms-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrCenterNotFound         = errors.New("center not found")
	ErrCourseNotFound         = errors.New("course not found")
	ErrSubjectNotFound        = errors.New("subject not found")
	ErrSessionNotFound        = errors.New("session not found")
	ErrDuplicateCourseCode    = errors.New("course code is already in use")
	ErrDuplicateSessionNumber = errors.New("session number already exists in this subject")
)

// ContentService manages the Center -> Course -> Subject -> Session hierarchy.
// Every create verifies its immediate parent exists and is active; deletes
// are always soft.
type ContentService interface {
	CreateCenter(ctx context.Context, center *domain.Center) (*domain.Center, error)
	ListCenters(ctx context.Context) ([]domain.Center, error)
	UpdateCenter(ctx context.Context, center *domain.Center) (*domain.Center, error)
	DeleteCenter(ctx context.Context, id primitive.ObjectID) error

	CreateCourse(ctx context.Context, course *domain.Course) (*domain.Course, error)
	ListCourses(ctx context.Context) ([]domain.Course, error)
	ListCoursesByCenter(ctx context.Context, centerID primitive.ObjectID) ([]domain.Course, error)
	GetCourseByCode(ctx context.Context, courseCode string) (*domain.Course, error)
	UpdateCourse(ctx context.Context, course *domain.Course) (*domain.Course, error)
	DeleteCourse(ctx context.Context, id primitive.ObjectID) error

	CreateSubject(ctx context.Context, subject *domain.Subject) (*domain.Subject, error)
	ListSubjectsByCourseCode(ctx context.Context, courseCode string) ([]domain.Subject, error)
	UpdateSubject(ctx context.Context, subject *domain.Subject) (*domain.Subject, error)
	DeleteSubject(ctx context.Context, id primitive.ObjectID) error

	CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error)
	ListSessionsBySubject(ctx context.Context, subjectID primitive.ObjectID) ([]domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) (*domain.Session, error)
	DeleteSession(ctx context.Context, id primitive.ObjectID) error
}

type contentService struct {
	centerRepo  repository.CenterRepository
	courseRepo  repository.CourseRepository
	subjectRepo repository.SubjectRepository
	sessionRepo repository.SessionRepository
	logger      *zap.Logger
}

// NewContentService creates a new instance of contentService.
func NewContentService(
	centerRepo repository.CenterRepository,
	courseRepo repository.CourseRepository,
	subjectRepo repository.SubjectRepository,
	sessionRepo repository.SessionRepository,
	logger *zap.Logger,
) ContentService {
	return &contentService{
		centerRepo:  centerRepo,
		courseRepo:  courseRepo,
		subjectRepo: subjectRepo,
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// === Centers ===

func (s *contentService) CreateCenter(ctx context.Context, center *domain.Center) (*domain.Center, error) {
	id, err := s.centerRepo.Create(ctx, center)
	if err != nil {
		return nil, err
	}
	center.ID = id
	return center, nil
}

func (s *contentService) ListCenters(ctx context.Context) ([]domain.Center, error) {
	return s.centerRepo.ListActive(ctx)
}

func (s *contentService) UpdateCenter(ctx context.Context, center *domain.Center) (*domain.Center, error) {
	if err := s.centerRepo.Update(ctx, center); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCenterNotFound
		}
		return nil, err
	}
	return s.centerRepo.GetByID(ctx, center.ID)
}

func (s *contentService) DeleteCenter(ctx context.Context, id primitive.ObjectID) error {
	err := s.centerRepo.SoftDelete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCenterNotFound
	}
	return err
}

// === Courses ===

func (s *contentService) CreateCourse(ctx context.Context, course *domain.Course) (*domain.Course, error) {
	center, err := s.centerRepo.GetByID(ctx, course.CenterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCenterNotFound
		}
		return nil, err
	}
	if !center.IsActive {
		return nil, ErrCenterNotFound
	}

	id, err := s.courseRepo.Create(ctx, course)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateCourseCode
		}
		return nil, err
	}
	course.ID = id
	return course, nil
}

func (s *contentService) ListCourses(ctx context.Context) ([]domain.Course, error) {
	return s.courseRepo.ListActive(ctx)
}

func (s *contentService) ListCoursesByCenter(ctx context.Context, centerID primitive.ObjectID) ([]domain.Course, error) {
	return s.courseRepo.ListActiveByCenter(ctx, centerID)
}

func (s *contentService) GetCourseByCode(ctx context.Context, courseCode string) (*domain.Course, error) {
	course, err := s.courseRepo.GetActiveByCode(ctx, courseCode)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCourseNotFound
	}
	return course, err
}

func (s *contentService) UpdateCourse(ctx context.Context, course *domain.Course) (*domain.Course, error) {
	if err := s.courseRepo.Update(ctx, course); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrCourseNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicateCourseCode
		}
		return nil, err
	}
	return s.courseRepo.GetByID(ctx, course.ID)
}

func (s *contentService) DeleteCourse(ctx context.Context, id primitive.ObjectID) error {
	err := s.courseRepo.SoftDelete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCourseNotFound
	}
	return err
}

// === Subjects ===

func (s *contentService) CreateSubject(ctx context.Context, subject *domain.Subject) (*domain.Subject, error) {
	course, err := s.courseRepo.GetByID(ctx, subject.CourseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if !course.IsActive {
		return nil, ErrCourseNotFound
	}

	id, err := s.subjectRepo.Create(ctx, subject)
	if err != nil {
		return nil, err
	}
	subject.ID = id

	if err := s.courseRepo.IncTotalSubjects(ctx, course.ID, 1); err != nil {
		// Counter drift is tolerable; the subject itself is persisted.
		s.logger.Warn("failed to bump course subject counter",
			zap.String("courseId", course.ID.Hex()), zap.Error(err))
	}
	return subject, nil
}

func (s *contentService) ListSubjectsByCourseCode(ctx context.Context, courseCode string) ([]domain.Subject, error) {
	course, err := s.courseRepo.GetActiveByCode(ctx, courseCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []domain.Subject{}, nil
		}
		return nil, err
	}
	return s.subjectRepo.ListActiveByCourse(ctx, course.ID)
}

func (s *contentService) UpdateSubject(ctx context.Context, subject *domain.Subject) (*domain.Subject, error) {
	if err := s.subjectRepo.Update(ctx, subject); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}
	return s.subjectRepo.GetByID(ctx, subject.ID)
}

func (s *contentService) DeleteSubject(ctx context.Context, id primitive.ObjectID) error {
	subject, err := s.subjectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}

	if err := s.subjectRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}

	if subject.IsActive {
		if err := s.courseRepo.IncTotalSubjects(ctx, subject.CourseID, -1); err != nil {
			s.logger.Warn("failed to drop course subject counter",
				zap.String("courseId", subject.CourseID.Hex()), zap.Error(err))
		}
	}
	return nil
}

// === Sessions ===

func (s *contentService) CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	subject, err := s.subjectRepo.GetByID(ctx, session.SubjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}
	if !subject.IsActive {
		return nil, ErrSubjectNotFound
	}

	id, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateSessionNumber
		}
		return nil, err
	}
	session.ID = id

	if err := s.subjectRepo.IncTotalSessions(ctx, subject.ID, 1); err != nil {
		s.logger.Warn("failed to bump subject session counter",
			zap.String("subjectId", subject.ID.Hex()), zap.Error(err))
	}
	return session, nil
}

func (s *contentService) ListSessionsBySubject(ctx context.Context, subjectID primitive.ObjectID) ([]domain.Session, error) {
	return s.sessionRepo.ListActiveBySubject(ctx, subjectID)
}

func (s *contentService) UpdateSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrSessionNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicateSessionNumber
		}
		return nil, err
	}
	return s.sessionRepo.GetByID(ctx, session.ID)
}

func (s *contentService) DeleteSession(ctx context.Context, id primitive.ObjectID) error {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	if err := s.sessionRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	if session.IsActive {
		if err := s.subjectRepo.IncTotalSessions(ctx, session.SubjectID, -1); err != nil {
			s.logger.Warn("failed to drop subject session counter",
				zap.String("subjectId", session.SubjectID.Hex()), zap.Error(err))
		}
	}
	return nil
}
