package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"reviewcms/filestore"
	"reviewcms/metrics"
	"reviewcms/response"

	"github.com/gin-gonic/gin"
)

// Room for multipart boundaries and headers on top of the file ceiling.
const multipartOverhead = 64 << 10

// Upload stores the single multipart "file" part under :folder.
func (h *Handler) Upload(c *gin.Context) {
	maxBytes := h.Uploader.MaxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	form, err := c.MultipartForm()
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.rejectUpload(c, fmt.Sprintf("File too large. Maximum size is %d bytes.", maxBytes))
			return
		}
		h.rejectUpload(c, "No file uploaded.")
		return
	}
	files := form.File["file"]
	switch {
	case len(files) == 0:
		h.rejectUpload(c, "No file uploaded.")
		return
	case len(files) > 1:
		h.rejectUpload(c, "Only one file may be uploaded at a time.")
		return
	}

	stored, err := h.Uploader.Upload(c.Request.Context(), c.Param("folder"), files[0])
	switch {
	case err == nil:
	case errors.Is(err, filestore.ErrBadFolder):
		h.rejectUpload(c, "Invalid folder name.")
		return
	case errors.Is(err, filestore.ErrTooLarge):
		h.rejectUpload(c, fmt.Sprintf("File too large. Maximum size is %d bytes.", maxBytes))
		return
	case errors.Is(err, filestore.ErrType):
		h.rejectUpload(c, "Invalid file type. Only JPEG, WEBP, PNG and GIF are allowed.")
		return
	default:
		metrics.RecordUpload("error")
		log.Printf("❌ [Upload] %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to store file")
		return
	}

	metrics.RecordUpload("success")
	log.Printf("📁 Stored %s", stored.FilePath)
	response.Success(c, http.StatusOK, "File uploaded successfully!", stored)
}

func (h *Handler) rejectUpload(c *gin.Context, message string) {
	metrics.RecordUpload("rejected")
	response.Error(c, http.StatusBadRequest, message)
}

// ServeUpload streams a stored file back unchanged.
func (h *Handler) ServeUpload(c *gin.Context) {
	obj, err := h.Uploader.Open(c.Request.Context(), c.Param("folder"), c.Param("fileName"))
	switch {
	case err == nil:
	case errors.Is(err, filestore.ErrNotFound), errors.Is(err, filestore.ErrBadFolder), errors.Is(err, filestore.ErrBadName):
		response.Error(c, http.StatusNotFound, "File not found.")
		return
	default:
		fail(c, "ServeUpload", err)
		return
	}
	defer obj.Body.Close()

	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, nil)
}
