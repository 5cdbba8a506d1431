package backend

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jo-hoe/cartoonify/internal/common"
	"github.com/jo-hoe/cartoonify/internal/core"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	mimePNG        = "image/png"
	uploadField    = "image"
	avatarsRoute   = "/api/avatars"
	maxListEntries = 1000
)

type APIService struct {
	config      *core.ServiceConfig
	coreService core.AvatarService
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AvatarListResponse struct {
	Avatars []*core.Avatar `json:"avatars"`
	Total   int            `json:"total"`
}

type listQuery struct {
	Limit int `query:"limit" validate:"gte=0,lte=1000"`
}

func NewAPIService(config *core.ServiceConfig, coreService core.AvatarService) *APIService {
	return &APIService{
		config:      config,
		coreService: coreService,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	// Set probe route
	e.GET("/probe", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST(avatarsRoute, s.createAvatarHandler)
	e.GET(avatarsRoute, s.listAvatarsHandler)
	e.GET(avatarsRoute+"/:id", s.getAvatarHandler)
	e.GET(avatarsRoute+"/:id/download", s.downloadAvatarHandler)
	e.GET(avatarsRoute+"/:id/original", s.originalImageHandler)
	e.DELETE(avatarsRoute+"/:id", s.deleteAvatarHandler)
}

func (s *APIService) createAvatarHandler(ctx echo.Context) error {
	filename, data, err := common.ReadFormFile(ctx, uploadField)
	if err != nil {
		if errors.Is(err, common.ErrMissingFile) {
			return ctx.JSON(http.StatusBadRequest, MessageResponse{Message: "Please choose an image to upload."})
		}
		slog.Error("createAvatarHandler: failed to read upload", "error", err)
		return ctx.JSON(http.StatusInternalServerError, MessageResponse{Message: "Failed to read uploaded file."})
	}

	avatar, err := s.coreService.CreateAvatar(ctx.Request().Context(), filename, data)
	if err != nil {
		return s.writeError(ctx, "createAvatarHandler", err)
	}
	return ctx.JSON(http.StatusCreated, avatar)
}

func (s *APIService) listAvatarsHandler(ctx echo.Context) error {
	var query listQuery
	if err := ctx.Bind(&query); err != nil {
		return err
	}
	if err := ctx.Validate(&query); err != nil {
		return err
	}

	avatars, err := s.coreService.ListAvatars()
	if err != nil {
		return s.writeError(ctx, "listAvatarsHandler", err)
	}

	total := len(avatars)
	limit := query.Limit
	if limit == 0 {
		limit = maxListEntries
	}
	if len(avatars) > limit {
		avatars = avatars[:limit]
	}
	return ctx.JSON(http.StatusOK, AvatarListResponse{Avatars: avatars, Total: total})
}

func (s *APIService) getAvatarHandler(ctx echo.Context) error {
	avatar, err := s.coreService.GetAvatar(ctx.Param("id"))
	if err != nil {
		return s.writeError(ctx, "getAvatarHandler", err)
	}
	return ctx.JSON(http.StatusOK, avatar)
}

func (s *APIService) downloadAvatarHandler(ctx echo.Context) error {
	avatar, data, err := s.coreService.GetAvatarImage(ctx.Param("id"))
	if err != nil {
		return s.writeError(ctx, "downloadAvatarHandler", err)
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", avatar.AvatarFilename))
	return ctx.Blob(http.StatusOK, mimePNG, data)
}

func (s *APIService) originalImageHandler(ctx echo.Context) error {
	_, data, contentType, err := s.coreService.GetOriginalImage(ctx.Param("id"))
	if err != nil {
		return s.writeError(ctx, "originalImageHandler", err)
	}
	return ctx.Blob(http.StatusOK, contentType, data)
}

func (s *APIService) deleteAvatarHandler(ctx echo.Context) error {
	if err := s.coreService.DeleteAvatar(ctx.Param("id")); err != nil {
		return s.writeError(ctx, "deleteAvatarHandler", err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// writeError maps core errors to status codes; only validation messages reach the client
func (s *APIService) writeError(ctx echo.Context, handler string, err error) error {
	if message, ok := core.UserMessage(err); ok {
		status := http.StatusUnprocessableEntity
		switch {
		case errors.Is(err, core.ErrUnsupportedType):
			status = http.StatusUnsupportedMediaType
		case errors.Is(err, core.ErrUploadTooLarge):
			status = http.StatusRequestEntityTooLarge
		}
		return ctx.JSON(status, MessageResponse{Message: message})
	}
	if errors.Is(err, core.ErrAvatarNotFound) {
		return ctx.JSON(http.StatusNotFound, MessageResponse{Message: "Avatar not found."})
	}

	slog.Error(handler+": request failed", "status", http.StatusInternalServerError, "error", err)
	return ctx.JSON(http.StatusInternalServerError, MessageResponse{Message: "Internal server error."})
}
