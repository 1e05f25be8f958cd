package api

import (
	"errors"
	"fmt"
	"net/http"

	"edustack/lms-backend/internal/nm"
	"edustack/lms-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// NmHandler serves the partner-facing endpoints and the admin publish action.
type NmHandler struct {
	nmService     service.NmService
	audit         service.AuditService
	publicBaseURL string
	secureCookies bool
}

// NewNmHandler creates a new NmHandler. secureCookies should be true whenever
// the public base URL is served over HTTPS.
func NewNmHandler(nmService service.NmService, audit service.AuditService, publicBaseURL string, secureCookies bool) *NmHandler {
	return &NmHandler{
		nmService:     nmService,
		audit:         audit,
		publicBaseURL: publicBaseURL,
		secureCookies: secureCookies,
	}
}

type PartnerBody struct {
	NmUserID    string               `json:"nmUserId" binding:"required"`
	CourseCode  string               `json:"courseCode" binding:"required"`
	StudentMeta *service.StudentMeta `json:"studentMeta"`
}

type ProgressBody struct {
	NmUserID   string                 `json:"nmUserId" binding:"required"`
	CourseCode string                 `json:"courseCode" binding:"required"`
	Progress   map[string]interface{} `json:"progress" binding:"required"`
}

type PlayerProgressBody struct {
	Progress map[string]interface{} `json:"progress" binding:"required"`
	// Push forwards the patch to the partner platform after the local write.
	Push bool `json:"push"`
}

func (h *NmHandler) record(c *gin.Context, actorType, actorID, action, entityID string, reqBody interface{}, status int, errMsg string) {
	h.audit.Record(c.Request.Context(), service.AuditEntry{
		ActorType:    actorType,
		ActorID:      actorID,
		Action:       action,
		EntityType:   "nm",
		EntityID:     entityID,
		RequestID:    requestID(c),
		RequestBody:  reqBody,
		StatusCode:   status,
		Success:      status < http.StatusBadRequest,
		ErrorMessage: errMsg,
	})
}

// upstreamAware maps service errors, surfacing partner responses as 502
// with the upstream body carried verbatim in the message.
func upstreamAware(c *gin.Context, err error) {
	var upstream *nm.UpstreamError
	switch {
	case errors.As(err, &upstream):
		abortWithError(c, http.StatusBadGateway, upstream.Error())
	case errors.Is(err, service.ErrCourseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, err.Error())
	}
}

// PublishCourse pushes a course to the partner catalog. Admin only.
func (h *NmHandler) PublishCourse(c *gin.Context) {
	courseCode := c.Param("courseCode")

	response, err := h.nmService.PublishCourse(c.Request.Context(), courseCode)
	if err != nil {
		status := http.StatusInternalServerError
		var upstream *nm.UpstreamError
		if errors.As(err, &upstream) {
			status = http.StatusBadGateway
		} else if errors.Is(err, service.ErrCourseNotFound) {
			status = http.StatusNotFound
		}
		h.record(c, "admin", adminID(c), "nm.publish", courseCode, nil, status, err.Error())
		upstreamAware(c, err)
		return
	}

	h.record(c, "admin", adminID(c), "nm.publish", courseCode, nil, http.StatusOK, "")
	c.JSON(http.StatusOK, gin.H{"published": true, "partnerResponse": response})
}

// Subscribe registers a partner student on a course. Idempotent.
func (h *NmHandler) Subscribe(c *gin.Context) {
	var req PartnerBody
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	err := h.nmService.Subscribe(c.Request.Context(), service.PartnerRequest{
		NmUserID:    req.NmUserID,
		CourseCode:  req.CourseCode,
		StudentMeta: req.StudentMeta,
	})
	if err != nil {
		h.record(c, "partner", req.NmUserID, "nm.subscribe", req.CourseCode, req, http.StatusInternalServerError, err.Error())
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	h.record(c, "partner", req.NmUserID, "nm.subscribe", req.CourseCode, req, http.StatusOK, "")
	c.JSON(http.StatusOK, gin.H{"subscribed": true})
}

// Access subscribes and returns a single-use launch URL.
func (h *NmHandler) Access(c *gin.Context) {
	var req PartnerBody
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	accessURL, err := h.nmService.Access(c.Request.Context(), service.PartnerRequest{
		NmUserID:    req.NmUserID,
		CourseCode:  req.CourseCode,
		StudentMeta: req.StudentMeta,
	}, h.publicBaseURL)
	if err != nil {
		h.record(c, "partner", req.NmUserID, "nm.access", req.CourseCode, req, http.StatusInternalServerError, err.Error())
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	h.record(c, "partner", req.NmUserID, "nm.access", req.CourseCode, req, http.StatusOK, "")
	c.JSON(http.StatusOK, gin.H{"access_url": accessURL})
}

// UpdateProgress stores a progress patch sent by the partner platform.
func (h *NmHandler) UpdateProgress(c *gin.Context) {
	var req ProgressBody
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.nmService.UpdateProgress(c.Request.Context(), req.NmUserID, req.CourseCode, req.Progress); err != nil {
		h.record(c, "partner", req.NmUserID, "nm.progress", req.CourseCode, req, http.StatusInternalServerError, err.Error())
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	h.record(c, "partner", req.NmUserID, "nm.progress", req.CourseCode, req, http.StatusOK, "")
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// GetProgress returns the stored progress for a (student, course) pair.
func (h *NmHandler) GetProgress(c *gin.Context) {
	nmUserID := c.Query("nmUserId")
	courseCode := c.Query("courseCode")
	if nmUserID == "" || courseCode == "" {
		abortWithError(c, http.StatusBadRequest, "nmUserId and courseCode are required")
		return
	}

	progress, err := h.nmService.GetProgress(c.Request.Context(), nmUserID, courseCode)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"nmUserId": nmUserID, "courseCode": courseCode, "progress": progress})
}

// Launch redeems a single-use token, sets the player session cookie and
// redirects to the course page.
func (h *NmHandler) Launch(c *gin.Context) {
	token := c.Query("token")

	nmUserID, courseCode, err := h.nmService.RedeemLaunchToken(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLaunchTokenInvalid):
			abortWithError(c, http.StatusUnauthorized, "Launch token is invalid")
		case errors.Is(err, service.ErrLaunchTokenExpired):
			abortWithError(c, http.StatusUnauthorized, "Launch token has expired")
		case errors.Is(err, service.ErrLaunchTokenUsed):
			abortWithError(c, http.StatusUnauthorized, "Launch token was already used")
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to redeem launch token")
		}
		return
	}

	sessionToken, err := h.nmService.NewSessionToken(nmUserID, courseCode)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to create session")
		return
	}

	c.SetCookie(SessionCookieName, sessionToken, 3600, "/", "", h.secureCookies, true)
	h.record(c, "partner", nmUserID, "nm.launch", courseCode, nil, http.StatusFound, "")
	c.Redirect(http.StatusFound, fmt.Sprintf("/courses/%s", courseCode))
}

// PlayerGetProgress returns the logged-in student's own progress.
func (h *NmHandler) PlayerGetProgress(c *gin.Context) {
	nmUserID := c.GetString(ContextNmUserIDKey)
	courseCode := c.GetString(ContextCourseCodeKey)

	progress, err := h.nmService.GetProgress(c.Request.Context(), nmUserID, courseCode)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"courseCode": courseCode, "progress": progress})
}

// PlayerUpdateProgress stores the logged-in student's progress patch and
// optionally forwards it upstream.
func (h *NmHandler) PlayerUpdateProgress(c *gin.Context) {
	var req PlayerProgressBody
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	nmUserID := c.GetString(ContextNmUserIDKey)
	courseCode := c.GetString(ContextCourseCodeKey)

	if err := h.nmService.UpdateProgress(c.Request.Context(), nmUserID, courseCode, req.Progress); err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if req.Push {
		if err := h.nmService.PushProgress(c.Request.Context(), nmUserID, courseCode, req.Progress); err != nil {
			upstreamAware(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}
