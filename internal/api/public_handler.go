package api

import (
	"errors"
	"net/http"

	"edustack/lms-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves the unauthenticated catalog endpoints consumed by the
// course pages. Only active content is ever returned.
type PublicHandler struct {
	content   service.ContentService
	resources service.ResourceService
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(content service.ContentService, resources service.ResourceService) *PublicHandler {
	return &PublicHandler{content: content, resources: resources}
}

func (h *PublicHandler) ListCenters(c *gin.Context) {
	centers, err := h.content.ListCenters(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list centers")
		return
	}
	c.JSON(http.StatusOK, centers)
}

func (h *PublicHandler) ListCoursesByCenter(c *gin.Context) {
	centerID, ok := pathObjectID(c, "centerId")
	if !ok {
		return
	}
	courses, err := h.content.ListCoursesByCenter(c.Request.Context(), centerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list courses")
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *PublicHandler) GetCourse(c *gin.Context) {
	course, err := h.content.GetCourseByCode(c.Request.Context(), c.Param("courseCode"))
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to load course")
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *PublicHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.content.ListSubjectsByCourseCode(c.Request.Context(), c.Param("courseCode"))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list subjects")
		return
	}
	c.JSON(http.StatusOK, subjects)
}

func (h *PublicHandler) ListSessions(c *gin.Context) {
	subjectID, ok := pathObjectID(c, "subjectId")
	if !ok {
		return
	}
	sessions, err := h.content.ListSessionsBySubject(c.Request.Context(), subjectID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// ListResources returns a session's resources with signed URLs attached.
func (h *PublicHandler) ListResources(c *gin.Context) {
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}
	resources, err := h.resources.ListResources(c.Request.Context(), sessionID, true)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list resources")
		return
	}
	c.JSON(http.StatusOK, resources)
}
