package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"edustack/lms-backend/internal/service"
	"edustack/lms-backend/internal/storage"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxUploadBytes bounds a single resource upload.
const maxUploadBytes = 200 << 20 // 200 MiB

// ResourceHandler serves the admin resource lifecycle endpoints.
type ResourceHandler struct {
	resources service.ResourceService
	audit     service.AuditService
}

// NewResourceHandler creates a new ResourceHandler.
func NewResourceHandler(resources service.ResourceService, audit service.AuditService) *ResourceHandler {
	return &ResourceHandler{resources: resources, audit: audit}
}

type YoutubeResourceRequest struct {
	SessionID   string `json:"sessionId" binding:"required"`
	Title       string `json:"title" binding:"required"`
	YoutubeURL  string `json:"youtubeUrl" binding:"required,url"`
	Description string `json:"description"`
}

type UpdateResourceRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (h *ResourceHandler) record(c *gin.Context, action, entityID string, reqBody, respBody interface{}, status int, errMsg string) {
	h.audit.Record(c.Request.Context(), service.AuditEntry{
		ActorType:    "admin",
		ActorID:      adminID(c),
		Action:       action,
		EntityType:   "resource",
		EntityID:     entityID,
		RequestID:    requestID(c),
		RequestBody:  reqBody,
		ResponseBody: respBody,
		StatusCode:   status,
		Success:      status < http.StatusBadRequest,
		ErrorMessage: errMsg,
	})
}

func resourceStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrResourceNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSubjectNotFound),
		errors.Is(err, service.ErrCourseNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSubjectCourseMismatch),
		errors.Is(err, service.ErrSessionSubjectMismatch),
		errors.Is(err, storage.ErrUnsupportedFileType):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrStorageWrite):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UploadFile accepts a multipart upload and creates a file resource.
// Form fields: file, sessionId, subjectId, courseCode, title, description.
func (h *ResourceHandler) UploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Missing file upload field")
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(c.PostForm("sessionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid sessionId format")
		return
	}
	subjectID, err := primitive.ObjectIDFromHex(c.PostForm("subjectId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid subjectId format")
		return
	}
	courseCode := c.PostForm("courseCode")
	title := c.PostForm("title")
	if courseCode == "" || title == "" {
		abortWithError(c, http.StatusBadRequest, "courseCode and title are required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Failed to open uploaded file")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	in := service.CreateFileResourceInput{
		Data:         data,
		OriginalName: fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		SessionID:    sessionID,
		SubjectID:    subjectID,
		CourseCode:   courseCode,
		Title:        title,
		Description:  c.PostForm("description"),
	}
	meta := gin.H{
		"fileName":   fileHeader.Filename,
		"sizeBytes":  fileHeader.Size,
		"sessionId":  sessionID.Hex(),
		"courseCode": courseCode,
		"title":      title,
	}

	resource, err := h.resources.CreateFileResource(c.Request.Context(), in)
	if err != nil {
		status := resourceStatus(err)
		h.record(c, "resource.upload", "", meta, nil, status, err.Error())
		abortWithError(c, status, err.Error())
		return
	}

	h.record(c, "resource.upload", resource.ID.Hex(), meta, resource, http.StatusCreated, "")
	c.JSON(http.StatusCreated, resource)
}

// CreateYoutube creates a youtube-link resource.
func (h *ResourceHandler) CreateYoutube(c *gin.Context) {
	var req YoutubeResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(req.SessionID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid sessionId format")
		return
	}

	resource, err := h.resources.CreateYoutubeResource(c.Request.Context(), sessionID, req.Title, req.YoutubeURL, req.Description)
	if err != nil {
		status := resourceStatus(err)
		h.record(c, "resource.youtube", "", req, nil, status, err.Error())
		abortWithError(c, status, err.Error())
		return
	}

	h.record(c, "resource.youtube", resource.ID.Hex(), req, resource, http.StatusCreated, "")
	c.JSON(http.StatusCreated, resource)
}

// ListBySession lists a session's resources with signed URLs.
func (h *ResourceHandler) ListBySession(c *gin.Context) {
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}
	resources, err := h.resources.ListResources(c.Request.Context(), sessionID, true)
	if err != nil {
		abortWithError(c, resourceStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, resources)
}

// Update changes a resource's title and description only.
func (h *ResourceHandler) Update(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req UpdateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	resource, err := h.resources.UpdateResource(c.Request.Context(), id, req.Title, req.Description)
	if err != nil {
		status := resourceStatus(err)
		h.record(c, "resource.update", id.Hex(), req, nil, status, err.Error())
		abortWithError(c, status, err.Error())
		return
	}

	h.record(c, "resource.update", id.Hex(), req, resource, http.StatusOK, "")
	c.JSON(http.StatusOK, resource)
}

// Delete soft-deletes a resource; the stored object is removed best-effort.
func (h *ResourceHandler) Delete(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.resources.DeleteResource(c.Request.Context(), id); err != nil {
		status := resourceStatus(err)
		h.record(c, "resource.delete", id.Hex(), nil, nil, status, err.Error())
		abortWithError(c, status, err.Error())
		return
	}
	h.record(c, "resource.delete", id.Hex(), nil, nil, http.StatusOK, "")
	c.JSON(http.StatusOK, gin.H{"message": "Resource deleted"})
}
