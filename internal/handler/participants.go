package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mealtrack/internal/importer"
	"mealtrack/internal/meals"
)

func (h *Handler) handleAddParticipant(c *gin.Context) {
	var req meals.RawInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, report, err := h.svc.AddParticipant(c.Request.Context(), req)
	if err != nil {
		h.internalError(c, "handleAddParticipant", err)
		return
	}
	switch {
	case p != nil:
		c.JSON(http.StatusCreated, p)
	case len(report.Errors) > 0:
		c.JSON(http.StatusBadRequest, gin.H{"error": report.Errors[0], "report": report})
	default:
		c.JSON(http.StatusConflict, gin.H{"error": "participant with this mobile already exists", "report": report})
	}
}

func (h *Handler) handleListParticipants(c *gin.Context) {
	list, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		h.internalError(c, "handleListParticipants", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": list, "count": len(list)})
}

func (h *Handler) handleImport(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}
	rows, err := importer.Parse(filename, data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := h.svc.Import(c.Request.Context(), rows)
	if err != nil {
		h.internalError(c, "handleImport", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) handleExport(c *gin.Context) {
	format := c.DefaultQuery("format", importer.FormatXLSX)
	if format != importer.FormatXLSX && format != importer.FormatCSV {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be xlsx or csv"})
		return
	}
	list, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		h.internalError(c, "handleExport", err)
		return
	}

	filename := fmt.Sprintf("participants-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	c.Header("Content-Type", importer.ContentType(format))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := importer.Export(c.Writer, format, list); err != nil {
		h.log.Error("export failed", slog.String("handler", "handleExport"), slog.Any("err", err))
	}
}

func (h *Handler) handleSubmitImport(c *gin.Context) {
	if h.jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "import jobs are not enabled"})
		return
	}
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}
	rep, err := h.jobs.Submit(c.Request.Context(), filename, data)
	switch {
	case errors.Is(err, importer.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.internalError(c, "handleSubmitImport", err)
		return
	}
	c.JSON(http.StatusAccepted, rep)
}

func (h *Handler) handleImportStatus(c *gin.Context) {
	if h.jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "import jobs are not enabled"})
		return
	}
	rep, err := h.jobs.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.internalError(c, "handleImportStatus", err)
		return
	}
	if rep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "import job not found"})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// readUpload reads the multipart "file" field, answering 400 itself on failure.
func (h *Handler) readUpload(c *gin.Context) (string, []byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return "", nil, false
	}
	return header.Filename, data, true
}
