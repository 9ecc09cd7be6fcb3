package http

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/derma-advisor/internal/domain/assessment"
	"github.com/yanqian/derma-advisor/internal/domain/imageupload"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	assessmentSvc assessment.Service
	uploadSvc     imageupload.Service
	logger        *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(assessmentSvc assessment.Service, uploadSvc imageupload.Service, logger *slog.Logger) *Handler {
	return &Handler{
		assessmentSvc: assessmentSvc,
		uploadSvc:     uploadSvc,
		logger:        logger.With("component", "http.handler"),
	}
}

// AnalyzeMole classifies a mole from its ABCD observations.
func (h *Handler) AnalyzeMole(c *gin.Context) {
	var req assessment.MoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	env, err := h.assessmentSvc.AnalyzeMole(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, asHTTPError(err))
		return
	}
	writeEnvelope(c, env)
}

// GenerateSkinCarePlan produces a skincare routine for the caller's profile.
func (h *Handler) GenerateSkinCarePlan(c *gin.Context) {
	var req assessment.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	env, err := h.assessmentSvc.GenerateSkinCarePlan(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, asHTTPError(err))
		return
	}
	writeEnvelope(c, env)
}

// UploadImage stores an image given as base64 JSON or as a multipart "file" field.
func (h *Handler) UploadImage(c *gin.Context) {
	var (
		resp imageupload.Response
		err  error
	)
	multipartUpload := strings.HasPrefix(c.ContentType(), "multipart/")
	if multipartUpload {
		resp, err = h.uploadMultipart(c)
	} else {
		var req imageupload.Request
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(bindErr), bindErr))
			return
		}
		resp, err = h.uploadSvc.Upload(c.Request.Context(), req)
	}
	if err != nil {
		abortWithError(c, asHTTPError(err))
		return
	}
	h.logger.Debug("image upload handled", "multipart", multipartUpload, "size", resp.Size)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) uploadMultipart(c *gin.Context) (imageupload.Response, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return imageupload.Response{}, NewHTTPError(http.StatusBadRequest, "invalid_request", "file is required", err)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return imageupload.Response{}, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to open file", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return imageupload.Response{}, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to read file", err)
	}
	return h.uploadSvc.UploadFile(c.Request.Context(), imageupload.FileRequest{
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  content,
	})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
