package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "image/gif"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-json"
	"github.com/jo-hoe/cartoonify/internal/backend/cache"
	"github.com/jo-hoe/cartoonify/internal/backend/commandstructure"
	"github.com/jo-hoe/cartoonify/internal/backend/database"
	"github.com/jo-hoe/cartoonify/internal/backend/facedetect"
	"github.com/jo-hoe/cartoonify/internal/backend/segmentation"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Avatar is the public view of a stored avatar
type Avatar struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"originalFilename"`
	AvatarFilename   string    `json:"avatarFilename"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	FaceCount        int       `json:"faceCount"`
	CreatedAt        time.Time `json:"createdAt"`
	DownloadURL      string    `json:"downloadUrl"`
	OriginalURL      string    `json:"originalUrl"`
}

// Dependencies are the collaborators of the core service
type Dependencies struct {
	Database  database.DatabaseService
	Detector  facedetect.Detector
	Segmenter segmentation.Segmenter
	Cache     cache.AvatarCache
}

type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	detector        facedetect.Detector
	segmenter       segmentation.Segmenter
	cache           cache.AvatarCache
	invoker         *commandstructure.CommandInvoker
	fingerprint     string
}

// NewCoreService wires the configured database, detector, segmenter and cache
func NewCoreService(ctx context.Context, config *ServiceConfig) (*CoreService, error) {
	var deps Dependencies
	closeAll := func() {
		if deps.Database != nil {
			_ = deps.Database.Close()
		}
		if deps.Segmenter != nil {
			_ = deps.Segmenter.Close()
		}
	}

	var err error
	deps.Database, err = getDatabaseService(config)
	if err != nil {
		return nil, err
	}

	deps.Detector, err = facedetect.NewDetector(ctx, config.FaceDetectorConfig())
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to initialize face detector: %w", err)
	}

	segmenter, err := segmentation.NewOnnxSegmenter(config.SegmenterConfig())
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to initialize segmenter: %w", err)
	}
	deps.Segmenter = segmenter

	deps.Cache, err = cache.NewCache(ctx, config.CacheConfig())
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	service, err := NewCoreServiceWithDependencies(config, deps)
	if err != nil {
		closeAll()
		_ = deps.Cache.Close()
		return nil, err
	}
	return service, nil
}

// NewCoreServiceWithDependencies builds the service around existing collaborators.
// A nil cache disables caching.
func NewCoreServiceWithDependencies(config *ServiceConfig, deps Dependencies) (*CoreService, error) {
	if deps.Database == nil || deps.Detector == nil || deps.Segmenter == nil {
		return nil, fmt.Errorf("database, detector and segmenter are required")
	}
	if deps.Cache == nil {
		deps.Cache = cache.NoopCache{}
	}

	commandConfigs := config.CommandConfigs()
	commands, err := commandstructure.DefaultRegistry.BuildCommands(commandConfigs)
	if err != nil {
		return nil, fmt.Errorf("failed to build cartoon pipeline: %w", err)
	}

	fingerprint, err := pipelineFingerprint(commandConfigs, config.MaskThreshold())
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{config.Storage.UploadDir, config.Storage.AvatarDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	slog.Info("core service initialized",
		"commands", len(commands),
		"pipeline_fingerprint", fingerprint,
		"upload_dir", config.Storage.UploadDir,
		"avatar_dir", config.Storage.AvatarDir)

	return &CoreService{
		config:          config,
		databaseService: deps.Database,
		detector:        deps.Detector,
		segmenter:       deps.Segmenter,
		cache:           deps.Cache,
		invoker:         commandstructure.NewCommandInvoker(commands),
		fingerprint:     fingerprint,
	}, nil
}

func getDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}

func pipelineFingerprint(commands []commandstructure.CommandConfig, threshold float64) (string, error) {
	data, err := json.Marshal(struct {
		Commands  []commandstructure.CommandConfig `json:"commands"`
		Threshold float64                          `json:"threshold"`
	}{commands, threshold})
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint pipeline: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8]), nil
}

// Config returns the active configuration
func (service *CoreService) Config() *ServiceConfig {
	return service.config
}

// CreateAvatar validates an upload and turns it into a transparent cartoon avatar.
// Uploads rejected for user errors return a *ValidationError and leave no avatar file.
func (service *CoreService) CreateAvatar(ctx context.Context, filename string, data []byte) (*Avatar, error) {
	start := time.Now()
	uploadsTotal.Inc()

	avatar, err := service.createAvatar(ctx, filename, data)
	if err != nil {
		if _, ok := UserMessage(err); ok {
			rejectionsTotal.WithLabelValues(RejectionReason(err)).Inc()
			slog.Info("CoreService: upload rejected", "filename", filename, "reason", RejectionReason(err))
		}
		return nil, err
	}

	processingDuration.Observe(time.Since(start).Seconds())
	avatarsGeneratedTotal.Inc()
	slog.Info("CoreService: avatar created",
		"avatar_id", avatar.ID,
		"avatar_filename", avatar.AvatarFilename,
		"duration_ms", time.Since(start).Milliseconds())
	return avatar, nil
}

func (service *CoreService) createAvatar(ctx context.Context, filename string, data []byte) (*Avatar, error) {
	name, err := service.validateUpload(filename, data)
	if err != nil {
		return nil, err
	}

	uploadPath := filepath.Join(service.config.Storage.UploadDir, name)
	if err := os.WriteFile(uploadPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to store upload %s: %w", name, err)
	}

	img, err := DecodeImage(data)
	if err != nil {
		return nil, newValidationError(ErrUnsupportedType, "The uploaded file could not be read as an image.")
	}

	bounds := img.Bounds()
	minWidth, minHeight := service.config.Validation.MinWidth, service.config.Validation.MinHeight
	if bounds.Dx() < minWidth || bounds.Dy() < minHeight {
		return nil, newValidationError(ErrResolutionTooLow, MessageResolutionTooLow(minWidth, minHeight))
	}

	faces, err := service.detector.Detect(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}
	if len(faces) == 0 {
		return nil, newValidationError(ErrNoFaceDetected, MessageNoFaceDetected)
	}
	slog.Debug("CoreService: faces detected", "filename", name, "faces", len(faces))

	avatarPNG, width, height, err := service.renderCached(ctx, data, img)
	if err != nil {
		return nil, err
	}

	avatarFilename := AvatarFilename(name)
	avatarPath := filepath.Join(service.config.Storage.AvatarDir, avatarFilename)
	if err := os.WriteFile(avatarPath, avatarPNG, 0o644); err != nil {
		return nil, fmt.Errorf("failed to store avatar %s: %w", avatarFilename, err)
	}

	record, err := service.databaseService.CreateAvatar(&database.AvatarRecord{
		OriginalFilename: name,
		UploadPath:       uploadPath,
		AvatarFilename:   avatarFilename,
		AvatarPath:       avatarPath,
		Width:            width,
		Height:           height,
		FaceCount:        len(faces),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to index avatar: %w", err)
	}

	return toAvatar(record), nil
}

func (service *CoreService) validateUpload(filename string, data []byte) (string, error) {
	accepted := service.config.Validation.AcceptedExtensions
	unsupported := newValidationError(ErrUnsupportedType,
		fmt.Sprintf("Unsupported file type. Please upload a %s image.", strings.ToUpper(strings.Join(accepted, ", "))))

	name, ok := SanitizeFilename(filename)
	if !ok {
		return "", unsupported
	}
	if !slices.Contains(accepted, extensionOf(name)) {
		return "", unsupported
	}
	if int64(len(data)) > service.config.Validation.MaxUploadBytes {
		return "", newValidationError(ErrUploadTooLarge,
			fmt.Sprintf("The uploaded file is too large. The limit is %d MB.", service.config.Validation.MaxUploadBytes>>20))
	}

	detected := mimetype.Detect(data)
	for _, acceptedType := range service.config.Validation.AcceptedTypes {
		if detected.Is(acceptedType) {
			return name, nil
		}
	}
	slog.Debug("CoreService: rejected content type", "filename", name, "detected", detected.String())
	return "", unsupported
}

// DecodeImage decodes an upload and applies its EXIF orientation
func DecodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func (service *CoreService) renderCached(ctx context.Context, data []byte, img image.Image) ([]byte, int, int, error) {
	key := cache.Key(data, service.fingerprint)

	cached, ok, err := service.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("CoreService: cache lookup failed", "error", err)
	}
	if ok {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(cached)); err == nil {
			cacheHitsTotal.Inc()
			slog.Debug("CoreService: serving avatar from cache", "cache_key", key)
			return cached, cfg.Width, cfg.Height, nil
		}
		slog.Warn("CoreService: ignoring undecodable cache entry", "cache_key", key)
	}

	rendered, err := service.render(ctx, img)
	if err != nil {
		return nil, 0, 0, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, rendered, imaging.PNG); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode avatar: %w", err)
	}

	if err := service.cache.Set(ctx, key, buf.Bytes()); err != nil {
		slog.Warn("CoreService: cache store failed", "error", err)
	}

	bounds := rendered.Bounds()
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}

// render runs the cartoon pipeline, segments the pipeline's source and writes
// the mask into the cartoon's alpha channel. Geometry commands transform the
// source alongside the working image, so the mask always lines up.
func (service *CoreService) render(ctx context.Context, img image.Image) (*image.NRGBA, error) {
	frame, err := service.invoker.Execute(commandstructure.NewFrame(img))
	if err != nil {
		return nil, fmt.Errorf("cartoon pipeline failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mask, err := service.segmenter.Segment(ctx, frame.Source)
	if err != nil {
		return nil, fmt.Errorf("segmentation failed: %w", err)
	}

	avatar, err := segmentation.ApplyMask(frame.Image, mask, service.config.MaskThreshold())
	if err != nil {
		return nil, fmt.Errorf("failed to apply mask: %w", err)
	}
	return avatar, nil
}

// GetAvatar returns the avatar with the given id
func (service *CoreService) GetAvatar(id string) (*Avatar, error) {
	record, err := service.getRecord(id)
	if err != nil {
		return nil, err
	}
	return toAvatar(record), nil
}

// ListAvatars returns all avatars, newest first
func (service *CoreService) ListAvatars() ([]*Avatar, error) {
	records, err := service.databaseService.GetAvatars()
	if err != nil {
		return nil, fmt.Errorf("failed to list avatars: %w", err)
	}
	avatars := make([]*Avatar, 0, len(records))
	for _, record := range records {
		avatars = append(avatars, toAvatar(record))
	}
	return avatars, nil
}

// GetAvatarImage returns the PNG bytes of an avatar
func (service *CoreService) GetAvatarImage(id string) (*Avatar, []byte, error) {
	record, err := service.getRecord(id)
	if err != nil {
		return nil, nil, err
	}
	data, err := readStoredFile(record.AvatarPath)
	if err != nil {
		return nil, nil, err
	}
	return toAvatar(record), data, nil
}

// GetOriginalImage returns the stored upload and its detected MIME type
func (service *CoreService) GetOriginalImage(id string) (*Avatar, []byte, string, error) {
	record, err := service.getRecord(id)
	if err != nil {
		return nil, nil, "", err
	}
	data, err := readStoredFile(record.UploadPath)
	if err != nil {
		return nil, nil, "", err
	}
	return toAvatar(record), data, mimetype.Detect(data).String(), nil
}

// DeleteAvatar removes the index row and any files no other avatar still uses
func (service *CoreService) DeleteAvatar(id string) error {
	record, err := service.getRecord(id)
	if err != nil {
		return err
	}
	if err := service.databaseService.DeleteAvatar(record.ID); err != nil {
		return fmt.Errorf("failed to delete avatar %s: %w", id, err)
	}

	remaining, err := service.databaseService.GetAvatars()
	if err != nil {
		return fmt.Errorf("failed to list avatars after delete: %w", err)
	}
	inUse := make(map[string]bool, 2*len(remaining))
	for _, other := range remaining {
		inUse[other.UploadPath] = true
		inUse[other.AvatarPath] = true
	}

	for _, path := range []string{record.AvatarPath, record.UploadPath} {
		if inUse[path] {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	slog.Info("CoreService: avatar deleted", "avatar_id", id)
	return nil
}

func (service *CoreService) getRecord(id string) (*database.AvatarRecord, error) {
	if !database.IsValidID(id) {
		return nil, fmt.Errorf("%w: %s", ErrAvatarNotFound, id)
	}
	record, err := service.databaseService.GetAvatarByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load avatar %s: %w", id, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s", ErrAvatarNotFound, id)
	}
	return record, nil
}

func readStoredFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: file %s is missing", ErrAvatarNotFound, filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func toAvatar(record *database.AvatarRecord) *Avatar {
	return &Avatar{
		ID:               record.ID,
		OriginalFilename: record.OriginalFilename,
		AvatarFilename:   record.AvatarFilename,
		Width:            record.Width,
		Height:           record.Height,
		FaceCount:        record.FaceCount,
		CreatedAt:        record.CreatedAt,
		DownloadURL:      "/api/avatars/" + record.ID + "/download",
		OriginalURL:      "/api/avatars/" + record.ID + "/original",
	}
}

// Close releases the database, segmenter and cache
func (service *CoreService) Close() error {
	var errs []error
	if err := service.databaseService.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	if err := service.segmenter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("segmenter: %w", err))
	}
	if err := service.cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}
	return errors.Join(errs...)
}
