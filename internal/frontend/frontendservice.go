package frontend

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/jo-hoe/cartoonify/internal/backend/commands"
	"github.com/jo-hoe/cartoonify/internal/backend/commandstructure"
	"github.com/jo-hoe/cartoonify/internal/common"
	"github.com/jo-hoe/cartoonify/internal/core"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName = "index.html"
	mimePNG      = "image/png"

	messageMissingFile = "Please choose an image to upload."
	messageFailed      = "Something went wrong while generating your avatar. Please try again."
)

type FrontendService struct {
	coreService core.AvatarService
	config      *core.ServiceConfig

	touchIconOnce sync.Once
	touchIcon     []byte
	touchIconErr  error
}

type indexData struct {
	Accept string
}

type galleryData struct {
	Avatars       []*core.Avatar
	Timestamp     string
	ThumbnailSize int
}

type resultData struct {
	Message string
	Avatar  *core.Avatar
	Gallery *galleryData
}

func NewFrontendService(config *core.ServiceConfig, coreService core.AvatarService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
	}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = newTemplate()

	e.GET("/", service.rootRedirectHandler) // Redirect root to index.html
	e.GET("/"+MainPageName, service.indexHandler)
	e.POST("/htmx/upload", service.htmxUploadHandler)

	e.GET("/htmx/avatars", service.htmxListAvatarsHandler)
	e.GET("/htmx/avatars/:id/thumb", service.htmxThumbnailHandler)
	e.DELETE("/htmx/avatars/:id", service.htmxDeleteAvatarHandler)

	e.GET("/icon.svg", service.iconHandler)
	e.GET("/apple-touch-icon.png", service.touchIconHandler)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	accept := make([]string, 0, len(service.config.Validation.AcceptedExtensions))
	for _, ext := range service.config.Validation.AcceptedExtensions {
		accept = append(accept, "."+ext)
	}
	return ctx.Render(http.StatusOK, MainPageName, indexData{Accept: strings.Join(accept, ",")})
}

// htmxUploadHandler always answers 200 so htmx swaps rejections into the page
func (service *FrontendService) htmxUploadHandler(ctx echo.Context) error {
	filename, data, err := common.ReadFormFile(ctx, "image")
	if err != nil {
		if !errors.Is(err, common.ErrMissingFile) {
			slog.Error("htmxUploadHandler: failed to read upload", "error", err)
		}
		return ctx.Render(http.StatusOK, "result", resultData{Message: messageMissingFile})
	}

	avatar, err := service.coreService.CreateAvatar(ctx.Request().Context(), filename, data)
	if err != nil {
		message, ok := core.UserMessage(err)
		if !ok {
			slog.Error("htmxUploadHandler: failed to create avatar", "error", err, "filename", filename)
			message = messageFailed
		}
		return ctx.Render(http.StatusOK, "result", resultData{Message: message})
	}

	result := resultData{Avatar: avatar}
	gallery, err := service.buildGallery()
	if err != nil {
		// The new avatar is still shown without refreshing the list
		slog.Error("htmxUploadHandler: failed to list avatars for OOB update", "error", err)
	} else {
		result.Gallery = gallery
	}
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "result", result)
}

func (service *FrontendService) htmxListAvatarsHandler(ctx echo.Context) error {
	gallery, err := service.buildGallery()
	if err != nil {
		slog.Error("htmxListAvatarsHandler: failed to list avatars",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to list avatars")
	}

	// Prevent caching so the latest avatars are always shown
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "gallery", gallery)
}

func (service *FrontendService) htmxThumbnailHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	_, data, err := service.coreService.GetAvatarImage(id)
	if err != nil {
		slog.Warn("htmxThumbnailHandler: avatar not available",
			"status", http.StatusNotFound, "avatar_id", id, "error", err)
		return ctx.String(http.StatusNotFound, "Avatar not available")
	}

	thumbnail, err := service.toThumbnail(data)
	if err != nil {
		slog.Warn("htmxThumbnailHandler: thumbnail not available",
			"status", http.StatusNotFound, "avatar_id", id, "error", err)
		return ctx.String(http.StatusNotFound, "Thumbnail not available")
	}

	service.setNoCache(ctx)
	return ctx.Blob(http.StatusOK, mimePNG, thumbnail)
}

func (service *FrontendService) htmxDeleteAvatarHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := service.coreService.DeleteAvatar(id); err != nil {
		if errors.Is(err, core.ErrAvatarNotFound) {
			slog.Warn("htmxDeleteAvatarHandler: avatar not found", "status", http.StatusNotFound, "avatar_id", id)
			return ctx.String(http.StatusNotFound, "Avatar not found")
		}
		slog.Error("htmxDeleteAvatarHandler: failed to delete avatar",
			"status", http.StatusInternalServerError, "avatar_id", id, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to delete avatar")
	}
	return service.htmxListAvatarsHandler(ctx)
}

func (service *FrontendService) buildGallery() (*galleryData, error) {
	avatars, err := service.coreService.ListAvatars()
	if err != nil {
		return nil, err
	}
	return &galleryData{
		Avatars:       avatars,
		Timestamp:     fmt.Sprintf("%d", time.Now().UnixNano()),
		ThumbnailSize: service.config.ThumbnailSize,
	}, nil
}

// toThumbnail scales an avatar PNG down with the pipeline's scale command, keeping transparency
func (service *FrontendService) toThumbnail(avatarPNG []byte) ([]byte, error) {
	size := service.config.ThumbnailSize
	command, err := commands.NewScaleCommandWithParams(size, size)
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail command: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(avatarPNG))
	if err != nil {
		return nil, fmt.Errorf("failed to decode avatar: %w", err)
	}
	frame, err := command.Execute(commandstructure.NewFrame(img))
	if err != nil {
		return nil, fmt.Errorf("failed to generate thumbnail: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame.Image, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}

func (service *FrontendService) touchIconHandler(ctx echo.Context) error {
	service.touchIconOnce.Do(func() {
		svg, err := assetsFS.ReadFile("views/icon.svg")
		if err != nil {
			service.touchIconErr = err
			return
		}
		service.touchIcon, service.touchIconErr = renderSVGToPNG(svg, touchIconSize, touchIconSize)
	})
	if service.touchIconErr != nil {
		slog.Error("touchIconHandler: failed to render icon", "status", http.StatusInternalServerError, "error", service.touchIconErr)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, mimePNG, service.touchIcon)
}
