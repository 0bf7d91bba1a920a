package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"butternut/internal/delivery/http/middleware"
	"butternut/internal/domain/client"
	"butternut/internal/pkg/response"
	"butternut/internal/usecase"
)

type RosterHandler struct {
	roster  usecase.RosterUsecase
	uploads usecase.UploadUsecase
}

type removeCustomersRequest struct {
	Emails []string `json:"emails"`
}

func NewRosterHandler(roster usecase.RosterUsecase, uploads usecase.UploadUsecase) *RosterHandler {
	return &RosterHandler{roster: roster, uploads: uploads}
}

func (h *RosterHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/", h.List)
	r.Post("/upload", h.Upload)
	r.Post("/delete", h.Remove)
}

func (h *RosterHandler) List(c fiber.Ctx) error {
	clientID, ok := middleware.ClientIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	roster, err := h.roster.List(c.Context(), clientID)
	if err != nil {
		return mapRosterError(err)
	}
	if roster == nil {
		roster = []client.CustomerRecord{}
	}

	data := map[string]any{
		"customers": roster,
		"count":     len(roster),
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, data)
}

// Upload ingests a multipart CSV file and reconciles its rows into the
// roster in one request.
func (h *RosterHandler) Upload(c fiber.Ctx) error {
	clientID, ok := middleware.ClientIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Missing file field", nil, err)
	}

	f, err := fh.Open()
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Unreadable file", nil, err)
	}
	defer f.Close()

	res, err := h.uploads.Ingest(c.Context(), clientID, fh.Filename, f)
	if err != nil {
		return mapIngestError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, map[string]any{
		"upload_id":   res.Upload.ID,
		"file_name":   res.Upload.FileName,
		"row_count":   res.Upload.RowCount,
		"inserted":    res.Outcome.Inserted,
		"updated":     res.Outcome.Updated,
		"rejected":    res.Outcome.Rejected,
		"roster_size": res.Outcome.RosterSize,
	})
}

func (h *RosterHandler) Remove(c fiber.Ctx) error {
	clientID, ok := middleware.ClientIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var req removeCustomersRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	if len(req.Emails) == 0 {
		return middleware.NewAppError(fiber.StatusBadRequest, "No emails given", nil, nil)
	}

	removed, err := h.roster.Remove(c.Context(), clientID, req.Emails)
	if err != nil {
		return mapRosterError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, map[string]any{
		"removed": removed,
	})
}

func mapRosterError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrRosterBusy):
		return middleware.NewAppError(fiber.StatusConflict, "Roster is being modified, retry", nil, err)
	case errors.Is(err, client.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Account not found", nil, err)
	case errors.Is(err, client.ErrUnavailable):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, "Service unavailable", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
