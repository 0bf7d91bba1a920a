package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"butternut/internal/delivery/http/middleware"
	"butternut/internal/domain/upload"
	"butternut/internal/ingest"
	"butternut/internal/pkg/response"
	"butternut/internal/usecase"
)

type UploadHandler struct {
	uploads usecase.UploadUsecase
}

type uploadResponse struct {
	ID         string `json:"id"`
	FileName   string `json:"file_name"`
	RowCount   int    `json:"row_count"`
	UploadedAt string `json:"uploaded_at"`
}

func NewUploadHandler(uploads usecase.UploadUsecase) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

func (h *UploadHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/", h.List)
	r.Get("/:id/rows", h.Rows)
	r.Post("/:id/use", h.Reapply)
	r.Delete("/:id", h.Delete)
}

func (h *UploadHandler) List(c fiber.Ctx) error {
	clientID, ok := middleware.ClientIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	ups, err := h.uploads.List(c.Context(), clientID)
	if err != nil {
		return mapUploadError(err)
	}

	out := make([]uploadResponse, 0, len(ups))
	for _, u := range ups {
		out = append(out, toUploadResponse(u))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, map[string]any{
		"uploads": out,
	})
}

func (h *UploadHandler) Rows(c fiber.Ctx) error {
	clientID, ok := middleware.ClientIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	id, err := uploadID(c)
	if err != nil {
		return err
	}

	rows, err := h.uploads.Rows(c.Context(), id, clientID)
	if err != nil {
		return mapUploadError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, map[string]any{
		"rows": rows,
	})
}

// Reapply runs a stored upload through roster reconciliation again.
func (h *UploadHandler) Reapply(c fiber.Ctx) error {
	clientID, ok := middleware.ClientIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	id, err := uploadID(c)
	if err != nil {
		return err
	}

	outcome, err := h.uploads.Reapply(c.Context(), id, clientID)
	if err != nil {
		return mapUploadError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, map[string]any{
		"inserted":    outcome.Inserted,
		"updated":     outcome.Updated,
		"rejected":    outcome.Rejected,
		"roster_size": outcome.RosterSize,
	})
}

func (h *UploadHandler) Delete(c fiber.Ctx) error {
	clientID, ok := middleware.ClientIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	id, err := uploadID(c)
	if err != nil {
		return err
	}

	if err := h.uploads.Delete(c.Context(), id, clientID); err != nil {
		return mapUploadError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func uploadID(c fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, "Invalid upload id", nil, err)
	}
	return id, nil
}

func toUploadResponse(u upload.Upload) uploadResponse {
	return uploadResponse{
		ID:         u.ID.String(),
		FileName:   u.FileName,
		RowCount:   u.RowCount,
		UploadedAt: u.UploadedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func mapUploadError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrUploadNotFound), errors.Is(err, upload.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Upload not found", nil, err)
	default:
		return mapRosterError(err)
	}
}

func mapIngestError(err error) error {
	switch {
	case errors.Is(err, ingest.ErrEmptyFile),
		errors.Is(err, ingest.ErrNoEmailColumn),
		errors.Is(err, ingest.ErrMalformedInput):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	default:
		return mapRosterError(err)
	}
}
