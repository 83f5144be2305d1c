package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"staffhub/internal/service"

	"github.com/labstack/echo/v4"
)

type ExportHandler struct {
	Exports *service.ExportService
	Backups *service.BackupService
}

func NewExportHandler(exports *service.ExportService, backups *service.BackupService) *ExportHandler {
	return &ExportHandler{Exports: exports, Backups: backups}
}

func (h *ExportHandler) Export(c echo.Context) error {
	format := c.Param("format")
	contentType, filename, err := h.Exports.ContentType(format)
	if err != nil {
		return writeServiceError(c, err)
	}

	var buffer bytes.Buffer
	if err := h.Exports.Export(c.Request().Context(), format, &buffer); err != nil {
		return writeServiceError(c, err)
	}

	setAttachment(c, filename)
	return c.Blob(http.StatusOK, contentType, buffer.Bytes())
}

func (h *ExportHandler) Backup(c echo.Context) error {
	dump, err := h.Backups.Dump(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	setAttachment(c, h.Backups.BackupFilename("json"))
	return c.Blob(http.StatusOK, "application/json", dump)
}

func (h *ExportHandler) FullBackup(c echo.Context) error {
	var buffer bytes.Buffer
	if err := h.Backups.FullBackup(c.Request().Context(), &buffer); err != nil {
		return writeServiceError(c, err)
	}
	setAttachment(c, h.Backups.BackupFilename("zip"))
	return c.Blob(http.StatusOK, "application/zip", buffer.Bytes())
}

func setAttachment(c echo.Context, filename string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
}
