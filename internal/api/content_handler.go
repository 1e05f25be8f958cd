package api

import (
	"errors"
	"fmt"
	"net/http"

	"edustack/lms-backend/internal/domain"
	"edustack/lms-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContentHandler serves the admin CRUD surface for the content hierarchy.
type ContentHandler struct {
	content service.ContentService
	audit   service.AuditService
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(content service.ContentService, audit service.AuditService) *ContentHandler {
	return &ContentHandler{content: content, audit: audit}
}

// --- Request Structs ---

type CenterRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CourseRequest struct {
	CenterID    string            `json:"centerId" binding:"required"`
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	CourseCode  string            `json:"courseCode" binding:"required"`
	Language    string            `json:"language"`
	ImageURL    string            `json:"imageUrl"`
	CourseType  domain.CourseType `json:"courseType" binding:"required,oneof=online offline"`
	Objectives  []string          `json:"objectives"`
}

type SubjectRequest struct {
	CourseID string `json:"courseId" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content"`
}

type SessionRequest struct {
	SubjectID     string `json:"subjectId" binding:"required"`
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	SessionNumber int    `json:"sessionNumber" binding:"required,min=1"`
}

// record writes one admin audit entry; fire-and-forget.
func (h *ContentHandler) record(c *gin.Context, action, entityType, entityID string, reqBody, respBody interface{}, status int, errMsg string) {
	h.audit.Record(c.Request.Context(), service.AuditEntry{
		ActorType:    "admin",
		ActorID:      adminID(c),
		Action:       action,
		EntityType:   entityType,
		EntityID:     entityID,
		RequestID:    requestID(c),
		RequestBody:  reqBody,
		ResponseBody: respBody,
		StatusCode:   status,
		Success:      status < http.StatusBadRequest,
		ErrorMessage: errMsg,
	})
}

func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format", name))
		return primitive.NilObjectID, false
	}
	return id, true
}

func contentStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrCenterNotFound),
		errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrSubjectNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateCourseCode),
		errors.Is(err, service.ErrDuplicateSessionNumber):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// === Centers ===

func (h *ContentHandler) CreateCenter(c *gin.Context) {
	var req CenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	center, err := h.content.CreateCenter(c.Request.Context(), &domain.Center{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		status := contentStatus(err)
		h.record(c, "center.create", "center", "", req, nil, status, err.Error())
		abortWithError(c, status, err.Error())
		return
	}

	h.record(c, "center.create", "center", center.ID.Hex(), req, center, http.StatusCreated, "")
	c.JSON(http.StatusCreated, center)
}

func (h *ContentHandler) ListCenters(c *gin.Context) {
	centers, err := h.content.ListCenters(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list centers")
		return
	}
	c.JSON(http.StatusOK, centers)
}

func (h *ContentHandler) UpdateCenter(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req CenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	center, err := h.content.UpdateCenter(c.Request.Context(), &domain.Center{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		status := contentStatus(err)
		h.record(c, "center.update", "center", id.Hex(), req, nil, status, err.Error())
		abortWithError(c, status, err.Error())
		return
	}

	h.record(c, "center.update", "center", id.Hex(), req, center, http.StatusOK, "")
	c.JSON(http.StatusOK, center)
}

func (h *ContentHandler) DeleteCenter(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteCenter(c.Request.Context(), id); err != nil {
		status := contentStatus(err)
		h.record(c, "center.delete", "center", id.Hex(), nil, nil, status, err.Error())
		abortWithError(c, status, err.Error())
		return
	}
	h.record(c, "center.delete", "center", id.Hex(), nil, nil, http.StatusOK, "")
	c.JSON(http.StatusOK, gin.H{"message": "Center deleted"})
}

// === Courses ===

func (h *ContentHandler) CreateCourse(c *gin.Context) {
	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	centerID, err := primitive.ObjectIDFromHex(req.CenterID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid centerId format")
		return
	}

	course, err := h.content.CreateCourse(c.Request.Context(), &domain.Course{
		CenterID:    centerID,
		Title:       req.Title,
		Description: req.Description,
		CourseCode:  req.CourseCode,
		Language:    req.Language,
		ImageURL:    req.ImageURL,
		CourseType:  req.CourseType,
		Objectives:  req.Objectives,
	})
	if err != nil {
		status := contentStatus(err)
		h.record(c, "course.create", "course", "", req, nil, status, err.Error())
		abortWithError(c, status, err.Error())
		return
	}

	h.record(c, "course.create", "course", course.ID.Hex(), req, course, http.StatusCreated, "")
	c.JSON(http.StatusCreated, course)
}

func (h *ContentHandler) ListCourses(c *gin.Context) {
	courses, err := h.content.ListCourses(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list courses")
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *ContentHandler) UpdateCourse(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	centerID, err := primitive.ObjectIDFromHex(req.CenterID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid centerId format")
		return
	}

	course, err := h.content.UpdateCourse(c.Request.Context(), &domain.Course{
		ID:          id,
		CenterID:    centerID,
		Title:       req.Title,
		Description: req.Description,
		CourseCode:  req.CourseCode,
		Language:    req.Language,
		ImageURL:    req.ImageURL,
		CourseType:  req.CourseType,
		Objectives:  req.Objectives,
	})
	if err != nil {
		status := contentStatus(err)
		h.record(c, "course.update", "course", id.Hex(), req, nil, status, err.Error())
		abortWithError(c, status, err.Error())
		return
	}

	h.record(c, "course.update", "course", id.Hex(), req, course, http.StatusOK, "")
	c.JSON(http.StatusOK, course)
}

func (h *ContentHandler) DeleteCourse(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteCourse(c.Request.Context(), id); err != nil {
		status := contentStatus(err)
		h.record(c, "course.delete", "course", id.Hex(), nil, nil, status, err.Error())
		abortWithError(c, status, err.Error())
		return
	}
	h.record(c, "course.delete", "course", id.Hex(), nil, nil, http.StatusOK, "")
	c.JSON(http.StatusOK, gin.H{"message": "Course deleted"})
}

// === Subjects ===

func (h *ContentHandler) CreateSubject(c *gin.Context) {
	var req SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	courseID, err := primitive.ObjectIDFromHex(req.CourseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid courseId format")
		return
	}

	subject, err := h.content.CreateSubject(c.Request.Context(), &domain.Subject{
		CourseID: courseID,
		Title:    req.Title,
		Content:  req.Content,
	})
	if err != nil {
		status := contentStatus(err)
		h.record(c, "subject.create", "subject", "", req, nil, status, err.Error())
		abortWithError(c, status, err.Error())
		return
	}

	h.record(c, "subject.create", "subject", subject.ID.Hex(), req, subject, http.StatusCreated, "")
	c.JSON(http.StatusCreated, subject)
}

// ListSubjects lists the active subjects of the course named by the
// courseCode query parameter.
func (h *ContentHandler) ListSubjects(c *gin.Context) {
	courseCode := c.Query("courseCode")
	if courseCode == "" {
		abortWithError(c, http.StatusBadRequest, "courseCode query parameter is required")
		return
	}
	subjects, err := h.content.ListSubjectsByCourseCode(c.Request.Context(), courseCode)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list subjects")
		return
	}
	c.JSON(http.StatusOK, subjects)
}

func (h *ContentHandler) UpdateSubject(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	courseID, err := primitive.ObjectIDFromHex(req.CourseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid courseId format")
		return
	}

	subject, err := h.content.UpdateSubject(c.Request.Context(), &domain.Subject{
		ID:       id,
		CourseID: courseID,
		Title:    req.Title,
		Content:  req.Content,
	})
	if err != nil {
		status := contentStatus(err)
		h.record(c, "subject.update", "subject", id.Hex(), req, nil, status, err.Error())
		abortWithError(c, status, err.Error())
		return
	}

	h.record(c, "subject.update", "subject", id.Hex(), req, subject, http.StatusOK, "")
	c.JSON(http.StatusOK, subject)
}

func (h *ContentHandler) DeleteSubject(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteSubject(c.Request.Context(), id); err != nil {
		status := contentStatus(err)
		h.record(c, "subject.delete", "subject", id.Hex(), nil, nil, status, err.Error())
		abortWithError(c, status, err.Error())
		return
	}
	h.record(c, "subject.delete", "subject", id.Hex(), nil, nil, http.StatusOK, "")
	c.JSON(http.StatusOK, gin.H{"message": "Subject deleted"})
}

// === Sessions ===

func (h *ContentHandler) CreateSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	subjectID, err := primitive.ObjectIDFromHex(req.SubjectID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid subjectId format")
		return
	}

	session, err := h.content.CreateSession(c.Request.Context(), &domain.Session{
		SubjectID:     subjectID,
		Title:         req.Title,
		Description:   req.Description,
		SessionNumber: req.SessionNumber,
	})
	if err != nil {
		status := contentStatus(err)
		h.record(c, "session.create", "session", "", req, nil, status, err.Error())
		abortWithError(c, status, err.Error())
		return
	}

	h.record(c, "session.create", "session", session.ID.Hex(), req, session, http.StatusCreated, "")
	c.JSON(http.StatusCreated, session)
}

// ListSessions lists the active sessions of the subject named by the
// subjectId query parameter.
func (h *ContentHandler) ListSessions(c *gin.Context) {
	subjectID, err := primitive.ObjectIDFromHex(c.Query("subjectId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid subjectId format")
		return
	}
	sessions, err := h.content.ListSessionsBySubject(c.Request.Context(), subjectID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *ContentHandler) UpdateSession(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	subjectID, err := primitive.ObjectIDFromHex(req.SubjectID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid subjectId format")
		return
	}

	session, err := h.content.UpdateSession(c.Request.Context(), &domain.Session{
		ID:            id,
		SubjectID:     subjectID,
		Title:         req.Title,
		Description:   req.Description,
		SessionNumber: req.SessionNumber,
	})
	if err != nil {
		status := contentStatus(err)
		h.record(c, "session.update", "session", id.Hex(), req, nil, status, err.Error())
		abortWithError(c, status, err.Error())
		return
	}

	h.record(c, "session.update", "session", id.Hex(), req, session, http.StatusOK, "")
	c.JSON(http.StatusOK, session)
}

func (h *ContentHandler) DeleteSession(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteSession(c.Request.Context(), id); err != nil {
		status := contentStatus(err)
		h.record(c, "session.delete", "session", id.Hex(), nil, nil, status, err.Error())
		abortWithError(c, status, err.Error())
		return
	}
	h.record(c, "session.delete", "session", id.Hex(), nil, nil, http.StatusOK, "")
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}
