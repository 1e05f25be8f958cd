package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"edustack/lms-backend/internal/domain"
	"edustack/lms-backend/internal/nm"
	"edustack/lms-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory doubles for the repository and storage interfaces. Methods a test
// never reaches are inherited from the embedded interface and panic on use.

type stubSessionRepo struct {
	repository.SessionRepository
	sessions map[primitive.ObjectID]*domain.Session
}

func (s *stubSessionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Session, error) {
	if session, ok := s.sessions[id]; ok {
		copied := *session
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

type stubSubjectRepo struct {
	repository.SubjectRepository
	subjects     map[primitive.ObjectID]*domain.Subject
	listByCourse map[primitive.ObjectID][]domain.Subject
}

func (s *stubSubjectRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Subject, error) {
	if subject, ok := s.subjects[id]; ok {
		copied := *subject
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubSubjectRepo) ListActiveByCourse(_ context.Context, courseID primitive.ObjectID) ([]domain.Subject, error) {
	return s.listByCourse[courseID], nil
}

type stubCourseRepo struct {
	repository.CourseRepository
	byCode          map[string]*domain.Course
	published       map[string]bool
	setPublishedErr error
}

func (s *stubCourseRepo) GetActiveByCode(_ context.Context, courseCode string) (*domain.Course, error) {
	if course, ok := s.byCode[strings.ToLower(courseCode)]; ok && course.IsActive {
		copied := *course
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubCourseRepo) SetNmPublished(_ context.Context, courseCode string, published bool) error {
	if s.setPublishedErr != nil {
		return s.setPublishedErr
	}
	if s.published == nil {
		s.published = map[string]bool{}
	}
	s.published[strings.ToLower(courseCode)] = published
	return nil
}

type memResourceRepo struct {
	mu        sync.Mutex
	rows      map[primitive.ObjectID]*domain.Resource
	createErr error
}

func newMemResourceRepo() *memResourceRepo {
	return &memResourceRepo{rows: map[primitive.ObjectID]*domain.Resource{}}
}

func (r *memResourceRepo) Create(_ context.Context, resource *domain.Resource) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	id := primitive.NewObjectID()
	copied := *resource
	copied.ID = id
	copied.IsActive = true
	r.rows[id] = &copied
	return id, nil
}

func (r *memResourceRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memResourceRepo) ListActiveBySession(_ context.Context, sessionID primitive.ObjectID) ([]domain.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Resource
	for _, row := range r.rows {
		if row.SessionID == sessionID && row.IsActive {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *memResourceRepo) ListObjectKeys(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []string
	for _, row := range r.rows {
		if row.File != nil && row.File.ObjectKey != "" {
			keys = append(keys, row.File.ObjectKey)
		}
	}
	return keys, nil
}

func (r *memResourceRepo) UpdateMeta(_ context.Context, id primitive.ObjectID, title, description string) (*domain.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || !row.IsActive {
		return nil, repository.ErrNotFound
	}
	row.Title = title
	row.Description = description
	copied := *row
	return &copied, nil
}

func (r *memResourceRepo) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || !row.IsActive {
		return repository.ErrNotFound
	}
	row.IsActive = false
	return nil
}

// fakeStorage is an in-memory FileStorage.
type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	metadata  map[string]map[string]string
	deleted   []string
	uploadErr error
	deleteErr error
	signErr   error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects:  map[string][]byte{},
		metadata: map[string]map[string]string{},
	}
}

func (f *fakeStorage) Upload(_ context.Context, objectKey string, data []byte, _ string, metadata map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.objects[objectKey] = data
	f.metadata[objectKey] = metadata
	return nil
}

func (f *fakeStorage) GeneratePresignedGetURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://signed.example/" + objectKey, nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey, filename string, _ time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://signed.example/" + objectKey + "?dl=" + filename, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, objectKey)
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func (f *fakeStorage) ListObjects(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (f *fakeStorage) Bucket() string { return "test-bucket" }

// stubPartner records partner API traffic.
type stubPartner struct {
	mu          sync.Mutex
	grantResp   *nm.TokenResponse
	grantErr    error
	grants      int
	publishResp json.RawMessage
	publishErr  error
	published   []*nm.CoursePayload
	pushErr     error
	pushed      []*nm.ProgressPayload
}

func (p *stubPartner) ClientCredentialsGrant(_ context.Context) (*nm.TokenResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.grants++
	if p.grantErr != nil {
		return nil, p.grantErr
	}
	return p.grantResp, nil
}

func (p *stubPartner) PublishCourse(_ context.Context, _ string, payload *nm.CoursePayload) (json.RawMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.publishErr != nil {
		return nil, p.publishErr
	}
	p.published = append(p.published, payload)
	return p.publishResp, nil
}

func (p *stubPartner) PushProgress(_ context.Context, _ string, payload *nm.ProgressPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pushErr != nil {
		return p.pushErr
	}
	p.pushed = append(p.pushed, payload)
	return nil
}

type staticTokenSource struct {
	token string
	err   error
}

func (s *staticTokenSource) AccessToken(context.Context) (string, error) {
	return s.token, s.err
}

type memLaunchTokenRepo struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]*domain.NmLaunchToken
}

func newMemLaunchTokenRepo() *memLaunchTokenRepo {
	return &memLaunchTokenRepo{rows: map[primitive.ObjectID]*domain.NmLaunchToken{}}
}

func (r *memLaunchTokenRepo) Create(_ context.Context, token *domain.NmLaunchToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = primitive.NewObjectID()
	token.CreatedAt = time.Now().UTC()
	copied := *token
	r.rows[token.ID] = &copied
	return nil
}

func (r *memLaunchTokenRepo) GetByToken(_ context.Context, token string) (*domain.NmLaunchToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Token == token {
			copied := *row
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memLaunchTokenRepo) MarkUsed(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.UsedAt != nil {
		return repository.ErrNotFound
	}
	row.UsedAt = &at
	return nil
}

type memStudentRepo struct {
	mu       sync.Mutex
	students map[string]*domain.NmStudent
}

func newMemStudentRepo() *memStudentRepo {
	return &memStudentRepo{students: map[string]*domain.NmStudent{}}
}

func (r *memStudentRepo) Upsert(_ context.Context, student *domain.NmStudent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *student
	r.students[student.NmUserID] = &copied
	return nil
}

type memSubscriptionRepo struct {
	mu      sync.Mutex
	pairs   map[string]int
	upserts int
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{pairs: map[string]int{}}
}

func (r *memSubscriptionRepo) Upsert(_ context.Context, nmUserID, courseCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs[nmUserID+"/"+courseCode]++
	r.upserts++
	return nil
}

func (r *memSubscriptionRepo) GetByPair(_ context.Context, nmUserID, courseCode string) (*domain.NmSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pairs[nmUserID+"/"+courseCode]; !ok {
		return nil, repository.ErrNotFound
	}
	return &domain.NmSubscription{NmUserID: nmUserID, CourseCode: courseCode}, nil
}

type memProgressRepo struct {
	mu    sync.Mutex
	state map[string]map[string]interface{}
}

func newMemProgressRepo() *memProgressRepo {
	return &memProgressRepo{state: map[string]map[string]interface{}{}}
}

func (r *memProgressRepo) Upsert(_ context.Context, nmUserID, courseCode string, progress map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[nmUserID+"/"+courseCode] = progress
	return nil
}

func (r *memProgressRepo) GetByPair(_ context.Context, nmUserID, courseCode string) (*domain.NmProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	progress, ok := r.state[nmUserID+"/"+courseCode]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &domain.NmProgress{NmUserID: nmUserID, CourseCode: courseCode, Progress: progress}, nil
}

type memClientTokenRepo struct {
	mu        sync.Mutex
	tokens    []*domain.NmClientToken
	insertErr error
}

func (r *memClientTokenRepo) Latest(_ context.Context) (*domain.NmClientToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.tokens) == 0 {
		return nil, repository.ErrNotFound
	}
	copied := *r.tokens[len(r.tokens)-1]
	return &copied, nil
}

func (r *memClientTokenRepo) Insert(_ context.Context, token *domain.NmClientToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	copied := *token
	r.tokens = append(r.tokens, &copied)
	return nil
}

// Full in-memory hierarchy repositories for the content service tests.

type memCenterRepo struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]*domain.Center
}

func newMemCenterRepo() *memCenterRepo {
	return &memCenterRepo{rows: map[primitive.ObjectID]*domain.Center{}}
}

func (r *memCenterRepo) Create(_ context.Context, center *domain.Center) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := primitive.NewObjectID()
	copied := *center
	copied.ID = id
	copied.IsActive = true
	r.rows[id] = &copied
	return id, nil
}

func (r *memCenterRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Center, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memCenterRepo) ListActive(_ context.Context) ([]domain.Center, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Center
	for _, row := range r.rows {
		if row.IsActive {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *memCenterRepo) Update(_ context.Context, center *domain.Center) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[center.ID]
	if !ok || !row.IsActive {
		return repository.ErrNotFound
	}
	row.Name = center.Name
	row.Description = center.Description
	return nil
}

func (r *memCenterRepo) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || !row.IsActive {
		return repository.ErrNotFound
	}
	row.IsActive = false
	return nil
}

type memCourseRepo struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]*domain.Course
}

func newMemCourseRepo() *memCourseRepo {
	return &memCourseRepo{rows: map[primitive.ObjectID]*domain.Course{}}
}

func (r *memCourseRepo) Create(_ context.Context, course *domain.Course) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lower := strings.ToLower(course.CourseCode)
	for _, row := range r.rows {
		if row.CourseCodeLower == lower {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	id := primitive.NewObjectID()
	copied := *course
	copied.ID = id
	copied.CourseCodeLower = lower
	copied.IsActive = true
	r.rows[id] = &copied
	return id, nil
}

func (r *memCourseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memCourseRepo) GetActiveByCode(_ context.Context, courseCode string) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lower := strings.ToLower(courseCode)
	for _, row := range r.rows {
		if row.CourseCodeLower == lower && row.IsActive {
			copied := *row
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memCourseRepo) ListActive(_ context.Context) ([]domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Course
	for _, row := range r.rows {
		if row.IsActive {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *memCourseRepo) ListActiveByCenter(_ context.Context, centerID primitive.ObjectID) ([]domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Course
	for _, row := range r.rows {
		if row.IsActive && row.CenterID == centerID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *memCourseRepo) Update(_ context.Context, course *domain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[course.ID]
	if !ok || !row.IsActive {
		return repository.ErrNotFound
	}
	lower := strings.ToLower(course.CourseCode)
	for id, other := range r.rows {
		if id != course.ID && other.CourseCodeLower == lower {
			return repository.ErrDuplicate
		}
	}
	row.Title = course.Title
	row.Description = course.Description
	row.CourseCode = course.CourseCode
	row.CourseCodeLower = lower
	row.Objectives = course.Objectives
	return nil
}

func (r *memCourseRepo) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || !row.IsActive {
		return repository.ErrNotFound
	}
	row.IsActive = false
	return nil
}

func (r *memCourseRepo) SetNmPublished(_ context.Context, courseCode string, published bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lower := strings.ToLower(courseCode)
	for _, row := range r.rows {
		if row.CourseCodeLower == lower {
			row.NmPublished = published
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memCourseRepo) IncTotalSubjects(_ context.Context, id primitive.ObjectID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.TotalSubjects += delta
	return nil
}

type memSubjectRepo struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]*domain.Subject
}

func newMemSubjectRepo() *memSubjectRepo {
	return &memSubjectRepo{rows: map[primitive.ObjectID]*domain.Subject{}}
}

func (r *memSubjectRepo) Create(_ context.Context, subject *domain.Subject) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := primitive.NewObjectID()
	copied := *subject
	copied.ID = id
	copied.IsActive = true
	r.rows[id] = &copied
	return id, nil
}

func (r *memSubjectRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memSubjectRepo) ListActiveByCourse(_ context.Context, courseID primitive.ObjectID) ([]domain.Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Subject
	for _, row := range r.rows {
		if row.IsActive && row.CourseID == courseID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *memSubjectRepo) Update(_ context.Context, subject *domain.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[subject.ID]
	if !ok || !row.IsActive {
		return repository.ErrNotFound
	}
	row.Title = subject.Title
	row.Content = subject.Content
	return nil
}

func (r *memSubjectRepo) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || !row.IsActive {
		return repository.ErrNotFound
	}
	row.IsActive = false
	return nil
}

func (r *memSubjectRepo) IncTotalSessions(_ context.Context, id primitive.ObjectID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.TotalSessions += delta
	return nil
}

type memSessionRepo struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]*domain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{rows: map[primitive.ObjectID]*domain.Session{}}
}

func (r *memSessionRepo) Create(_ context.Context, session *domain.Session) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.SubjectID == session.SubjectID && row.SessionNumber == session.SessionNumber {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	id := primitive.NewObjectID()
	copied := *session
	copied.ID = id
	copied.IsActive = true
	r.rows[id] = &copied
	return id, nil
}

func (r *memSessionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memSessionRepo) ListActiveBySubject(_ context.Context, subjectID primitive.ObjectID) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Session
	for _, row := range r.rows {
		if row.IsActive && row.SubjectID == subjectID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *memSessionRepo) Update(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[session.ID]
	if !ok || !row.IsActive {
		return repository.ErrNotFound
	}
	for id, other := range r.rows {
		if id != session.ID && other.SubjectID == row.SubjectID && other.SessionNumber == session.SessionNumber {
			return repository.ErrDuplicate
		}
	}
	row.Title = session.Title
	row.Description = session.Description
	row.SessionNumber = session.SessionNumber
	return nil
}

func (r *memSessionRepo) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || !row.IsActive {
		return repository.ErrNotFound
	}
	row.IsActive = false
	return nil
}

type memAdminRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.AdminUser
}

func newMemAdminRepo() *memAdminRepo {
	return &memAdminRepo{rows: map[string]*domain.AdminUser{}}
}

func (r *memAdminRepo) Create(_ context.Context, admin *domain.AdminUser) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(admin.Email)
	if _, ok := r.rows[key]; ok {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	id := primitive.NewObjectID()
	copied := *admin
	copied.ID = id
	r.rows[key] = &copied
	return id, nil
}

func (r *memAdminRepo) GetByEmail(_ context.Context, email string) (*domain.AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[strings.ToLower(email)]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memAdminRepo) SetLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			row.LastLoginAt = &at
			return nil
		}
	}
	return repository.ErrNotFound
}

type memAuditRepo struct {
	mu        sync.Mutex
	entries   []*domain.AuditLog
	createErr error
}

func (r *memAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memAuditRepo) List(_ context.Context, limit, offset int64) ([]domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AuditLog
	for i := len(r.entries) - 1; i >= 0; i-- {
		out = append(out, *r.entries[i])
	}
	if offset < int64(len(out)) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
