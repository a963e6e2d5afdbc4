package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"bezirk_scanner/internal/adapters/storage"
	"bezirk_scanner/internal/extraction"
	"bezirk_scanner/internal/scan/service"
	"bezirk_scanner/internal/scan/transport"
	"bezirk_scanner/platform/apperr"
	"bezirk_scanner/platform/httpkit"
	"bezirk_scanner/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgImageRequired    = "Bitte ein Bild mitsenden."
	msgFileRequired     = "Bitte eine Datei auswählen."

	// Slack for multipart framing and form fields on top of the payload limit.
	// Data URLs are base64 and a third larger than the image, hence the factor of two.
	jsonBodyOverhead = 1 << 20
)

// Handler exposes the scanner endpoints.
type Handler struct {
	svc          *service.Service
	val          *validator.Validator
	maxImageSize int64
	maxTableSize int64
}

// New creates a scan handler.
func New(svc *service.Service, val *validator.Validator, maxImageSize, maxTableSize int64) *Handler {
	return &Handler{svc: svc, val: val, maxImageSize: maxImageSize, maxTableSize: maxTableSize}
}

// Status handles GET /api/v1/status
func (h *Handler) Status(c *gin.Context) {
	st := h.svc.APIStatus()
	httpkit.OK(c, transport.APIStatusResponse{APIKeyConfigured: st.Configured, Provider: st.Provider})
}

// CreateSession handles POST /api/v1/sessions
func (h *Handler) CreateSession(c *gin.Context) {
	st := h.svc.CreateSession(c.Request.Context())
	httpkit.Created(c, transport.ToSession(st))
}

// GetSession handles GET /api/v1/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	st, err := h.svc.Status(c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSession(st))
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (h *Handler) DeleteSession(c *gin.Context) {
	if httpkit.HandleError(c, h.svc.EndSession(c.Param("id"))) {
		return
	}
	c.Status(http.StatusNoContent)
}

// OpenCamera handles POST /api/v1/sessions/:id/camera
func (h *Handler) OpenCamera(c *gin.Context) {
	st, err := h.svc.OpenCamera(c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSession(st))
}

// CloseCamera handles DELETE /api/v1/sessions/:id/camera
func (h *Handler) CloseCamera(c *gin.Context) {
	st, err := h.svc.CloseCamera(c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSession(st))
}

// Reset handles POST /api/v1/sessions/:id/reset
func (h *Handler) Reset(c *gin.Context) {
	st, err := h.svc.Reset(c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSession(st))
}

// Scan handles POST /api/v1/sessions/:id/scan with either a multipart
// "image" file or a JSON body {"image": "data:image/jpeg;base64,..."}.
func (h *Handler) Scan(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImageSize*2+jsonBodyOverhead)

	img, err := h.readImage(c)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	ctx := c.Request.Context()
	outcome, err := h.svc.Scan(ctx, c.Param("id"), img)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ScanResponse{
		Result:     transport.ToResult(outcome.Result),
		Speech:     transport.NewSpeech(outcome.Speech(), service.SpeechLang),
		ArchiveKey: outcome.ObjectKey,
	}
	if !outcome.Capture.Empty() {
		resp.Capture = &transport.CaptureResponse{
			TakenAt:   outcome.Capture.TakenAt,
			Latitude:  outcome.Capture.Latitude,
			Longitude: outcome.Capture.Longitude,
		}
	}
	if outcome.ObjectKey != "" {
		if u, err := h.svc.CaptureURL(ctx, outcome.ObjectKey); err == nil {
			resp.ArchiveURL = u.URL
		}
	}

	httpkit.OK(c, resp)
}

func (h *Handler) readImage(c *gin.Context) (extraction.Image, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return h.readImageFile(c)
	}

	var req transport.ScanImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return extraction.Image{}, apperr.BadRequest(msgImageRequired).WithCode(service.CodeInvalidImage)
	}
	if err := h.val.Struct(req); err != nil {
		return extraction.Image{}, apperr.BadRequest(msgImageRequired).WithCode(service.CodeInvalidImage).WithDetails(validator.FieldErrors(err))
	}
	img, err := extraction.DecodeDataURL(req.Image)
	if err != nil {
		return extraction.Image{}, apperr.Wrap(apperr.KindBadRequest, service.MsgInvalidImage, err).WithCode(service.CodeInvalidImage)
	}
	return img, nil
}

func (h *Handler) readImageFile(c *gin.Context) (extraction.Image, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return extraction.Image{}, apperr.BadRequest(msgImageRequired).WithCode(service.CodeInvalidImage)
	}
	f, err := fh.Open()
	if err != nil {
		return extraction.Image{}, apperr.Wrap(apperr.KindBadRequest, service.MsgInvalidImage, err).WithCode(service.CodeInvalidImage)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxImageSize+1))
	if err != nil {
		return extraction.Image{}, apperr.Wrap(apperr.KindBadRequest, service.MsgInvalidImage, err).WithCode(service.CodeInvalidImage)
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return extraction.Image{Data: data, MIMEType: mimeType}, nil
}

// ImportTable handles POST /api/v1/sessions/:id/lookup-table
func (h *Handler) ImportTable(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxTableSize+jsonBodyOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgFileRequired).WithCode(service.CodeImportFailed))
		return
	}
	if err := validateTableUpload(fh.Header.Get("Content-Type")); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindBadRequest, service.MsgImportFailed, err).WithCode(service.CodeImportFailed))
		return
	}
	defer f.Close()

	skipHeader, _ := strconv.ParseBool(c.PostForm("skipHeader"))
	res, err := h.svc.ImportTable(c.Request.Context(), c.Param("id"), fh.Filename, f, skipHeader)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ImportTableResponse{Entries: res.Entries, Message: res.Message})
}

// ClearTable handles DELETE /api/v1/sessions/:id/lookup-table
func (h *Handler) ClearTable(c *gin.Context) {
	st, err := h.svc.ClearTable(c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSession(st))
}

// Resolve handles POST /api/v1/resolve
func (h *Handler) Resolve(c *gin.Context) {
	var req transport.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Resolve(c.Request.Context(), req.SessionID, strings.TrimSpace(req.Street), strings.TrimSpace(req.Number))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToResult(result))
}

func validateTableUpload(contentType string) error {
	if err := storage.ValidateTableContentType(contentType); err != nil {
		return apperr.Wrap(apperr.KindBadRequest, service.MsgImportFailed, err).WithCode(service.CodeImportFailed)
	}
	return nil
}
