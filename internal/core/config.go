package core

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/go-playground/validator"
	"github.com/jo-hoe/cartoonify/internal/backend/cache"
	"github.com/jo-hoe/cartoonify/internal/backend/commands"
	"github.com/jo-hoe/cartoonify/internal/backend/commandstructure"
	"github.com/jo-hoe/cartoonify/internal/backend/facedetect"
	"github.com/jo-hoe/cartoonify/internal/backend/segmentation"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// CommandConfig represents a generic command configuration
type CommandConfig struct {
	Name   string         `yaml:"name" validate:"required"`
	Params map[string]any `yaml:",inline"`
}

type Database struct {
	Type             string `yaml:"type" validate:"required,oneof=sqlite"`
	ConnectionString string `yaml:"connectionString" validate:"required"`
}

type Storage struct {
	UploadDir string `yaml:"uploadDir" validate:"required"`
	AvatarDir string `yaml:"avatarDir" validate:"required"`
}

type Validation struct {
	MinWidth           int      `yaml:"minWidth" validate:"gte=1"`
	MinHeight          int      `yaml:"minHeight" validate:"gte=1"`
	MaxUploadBytes     int64    `yaml:"maxUploadBytes" validate:"gte=1"`
	AcceptedExtensions []string `yaml:"acceptedExtensions" validate:"required,min=1"`
	AcceptedTypes      []string `yaml:"acceptedTypes" validate:"required,min=1"`
}

type FaceDetection struct {
	Provider      string  `yaml:"provider" validate:"oneof=pigo rekognition"`
	CascadePath   string  `yaml:"cascadePath" validate:"required_if_pigo"`
	MinSize       int     `yaml:"minSize" validate:"gte=0"`
	MaxSize       int     `yaml:"maxSize" validate:"gte=0"`
	ShiftFactor   float64 `yaml:"shiftFactor" validate:"gte=0,lte=1"`
	ScaleFactor   float64 `yaml:"scaleFactor" validate:"gte=0"`
	IoUThreshold  float64 `yaml:"iouThreshold" validate:"gte=0,lte=1"`
	MinScore      float64 `yaml:"minScore" validate:"gte=0"`
	MaxDimension  int     `yaml:"maxDimension" validate:"gte=0"`
	Region        string  `yaml:"region"`
	MinConfidence float64 `yaml:"minConfidence" validate:"gte=0,lte=100"`
}

type Segmentation struct {
	ModelPath         string   `yaml:"modelPath" validate:"required"`
	SharedLibraryPath string   `yaml:"sharedLibraryPath"`
	InputName         string   `yaml:"inputName"`
	OutputName        string   `yaml:"outputName"`
	InputWidth        int      `yaml:"inputWidth" validate:"gte=0"`
	InputHeight       int      `yaml:"inputHeight" validate:"gte=0"`
	Threshold         *float64 `yaml:"threshold" validate:"omitempty,gte=0,lte=1"`
}

type Cache struct {
	Type     string `yaml:"type" validate:"oneof=none redis"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
	TTL      string `yaml:"ttl"`
	Prefix   string `yaml:"prefix"`
}

type ServiceConfig struct {
	Port          int             `yaml:"port" validate:"gte=0,lte=65535"`
	LogLevel      string          `yaml:"logLevel" validate:"oneof=debug info warn error"`
	ThumbnailSize int             `yaml:"thumbnailSize" validate:"gte=0"`
	Database      Database        `yaml:"database"`
	Storage       Storage         `yaml:"storage"`
	Validation    Validation      `yaml:"validation"`
	FaceDetection FaceDetection   `yaml:"faceDetection"`
	Segmentation  Segmentation    `yaml:"segmentation"`
	Cache         Cache           `yaml:"cache"`
	Commands      []CommandConfig `yaml:"commands" validate:"dive"`
}

// envOverrides lists the settings that can be replaced from the environment
type envOverrides struct {
	Port               int     `env:"CARTOONIFY_PORT"`
	LogLevel           string  `env:"CARTOONIFY_LOG_LEVEL"`
	DatabaseConnection string  `env:"CARTOONIFY_DATABASE_CONNECTION_STRING"`
	UploadDir          string  `env:"CARTOONIFY_UPLOAD_DIR"`
	AvatarDir          string  `env:"CARTOONIFY_AVATAR_DIR"`
	FaceProvider       string  `env:"CARTOONIFY_FACE_PROVIDER"`
	CascadePath        string  `env:"CARTOONIFY_CASCADE_PATH"`
	AWSRegion          string  `env:"AWS_REGION"`
	ModelPath          string  `env:"CARTOONIFY_SEGMENTATION_MODEL"`
	OnnxLibraryPath    string  `env:"CARTOONIFY_ONNX_LIBRARY"`
	MaskThreshold      float64 `env:"CARTOONIFY_MASK_THRESHOLD"`
	CacheType          string  `env:"CARTOONIFY_CACHE_TYPE"`
	RedisAddress       string  `env:"CARTOONIFY_REDIS_ADDRESS"`
	RedisPassword      string  `env:"CARTOONIFY_REDIS_PASSWORD"`
}

// LoadConfig loads configuration from the specified YAML file, applies
// environment overrides and defaults, and validates the result
func LoadConfig(configPath string) (*ServiceConfig, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Parse YAML
	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.applyEnvironment(); err != nil {
		return nil, err
	}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}

	return &config, nil
}

func (config *ServiceConfig) applyEnvironment() error {
	// A missing .env file is fine
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded environment from .env")
	}

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	setInt(&config.Port, overrides.Port)
	setString(&config.LogLevel, overrides.LogLevel)
	setString(&config.Database.ConnectionString, overrides.DatabaseConnection)
	setString(&config.Storage.UploadDir, overrides.UploadDir)
	setString(&config.Storage.AvatarDir, overrides.AvatarDir)
	setString(&config.FaceDetection.Provider, overrides.FaceProvider)
	setString(&config.FaceDetection.CascadePath, overrides.CascadePath)
	setString(&config.FaceDetection.Region, overrides.AWSRegion)
	setString(&config.Segmentation.ModelPath, overrides.ModelPath)
	setString(&config.Segmentation.SharedLibraryPath, overrides.OnnxLibraryPath)
	if _, ok := os.LookupEnv("CARTOONIFY_MASK_THRESHOLD"); ok {
		threshold := overrides.MaskThreshold
		config.Segmentation.Threshold = &threshold
	}
	setString(&config.Cache.Type, overrides.CacheType)
	setString(&config.Cache.Address, overrides.RedisAddress)
	setString(&config.Cache.Password, overrides.RedisPassword)
	return nil
}

func setString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func setInt(target *int, value int) {
	if value != 0 {
		*target = value
	}
}

// ApplyDefaults fills every unset field with its default
func (config *ServiceConfig) ApplyDefaults() {
	if config.Port == 0 {
		config.Port = 8080
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.ThumbnailSize == 0 {
		config.ThumbnailSize = 160
	}
	if config.Database.Type == "" {
		config.Database.Type = "sqlite"
	}
	if config.Database.ConnectionString == "" {
		config.Database.ConnectionString = "cartoonify.db"
	}
	if config.Storage.UploadDir == "" {
		config.Storage.UploadDir = "uploads"
	}
	if config.Storage.AvatarDir == "" {
		config.Storage.AvatarDir = "avatars"
	}
	if config.Validation.MinWidth == 0 {
		config.Validation.MinWidth = 512
	}
	if config.Validation.MinHeight == 0 {
		config.Validation.MinHeight = 512
	}
	if config.Validation.MaxUploadBytes == 0 {
		config.Validation.MaxUploadBytes = 20 << 20
	}
	if len(config.Validation.AcceptedExtensions) == 0 {
		config.Validation.AcceptedExtensions = []string{"jpg", "jpeg", "png"}
	}
	if len(config.Validation.AcceptedTypes) == 0 {
		config.Validation.AcceptedTypes = []string{"image/jpeg", "image/png"}
	}
	if config.FaceDetection.Provider == "" {
		config.FaceDetection.Provider = "pigo"
	}
	if config.FaceDetection.Provider == "pigo" && config.FaceDetection.CascadePath == "" {
		config.FaceDetection.CascadePath = "models/facefinder"
	}
	if config.FaceDetection.MinConfidence == 0 {
		config.FaceDetection.MinConfidence = 60
	}
	if config.Segmentation.ModelPath == "" {
		config.Segmentation.ModelPath = "models/selfie_segmentation_landscape.onnx"
	}
	if config.Segmentation.Threshold == nil {
		threshold := defaultMaskThreshold
		config.Segmentation.Threshold = &threshold
	}
	if config.Cache.Type == "" {
		config.Cache.Type = "none"
	}
	if len(config.Commands) == 0 {
		for _, cmd := range commands.DefaultCartoonCommands() {
			config.Commands = append(config.Commands, CommandConfig{Name: cmd.Name, Params: cmd.Params})
		}
	}
}

// Validate checks struct constraints and that every command is registered
func (config *ServiceConfig) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("required_if_pigo", requiredIfPigo); err != nil {
		return err
	}
	if err := validate.Struct(config); err != nil {
		return err
	}
	if config.Cache.Type == "redis" && config.Cache.Address == "" {
		return fmt.Errorf("cache.address is required for redis cache")
	}
	if _, err := config.CacheTTL(); err != nil {
		return err
	}
	return validateCommands(config.Commands)
}

func requiredIfPigo(fl validator.FieldLevel) bool {
	parent := fl.Parent()
	if parent.FieldByName("Provider").String() != "pigo" {
		return true
	}
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validateCommands ensures all command configurations name a registered command.
// Repeated names are allowed so a filter can run more than once.
func validateCommands(commands []CommandConfig) error {
	for i, cmd := range commands {
		// Validate name is not empty
		if cmd.Name == "" {
			return fmt.Errorf("command at index %d has empty name", i)
		}

		if !commandstructure.DefaultRegistry.IsRegistered(cmd.Name) {
			return fmt.Errorf("command at index %d: unknown command %s (available: %s)",
				i, cmd.Name, strings.Join(commandstructure.DefaultRegistry.GetRegisteredNames(), ", "))
		}
	}

	return nil
}

// SlogLevel maps the configured level name to a slog level
func (config *ServiceConfig) SlogLevel() slog.Level {
	switch config.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CommandConfigs converts the configured pipeline to registry configs
func (config *ServiceConfig) CommandConfigs() []commandstructure.CommandConfig {
	configs := make([]commandstructure.CommandConfig, 0, len(config.Commands))
	for _, cmd := range config.Commands {
		configs = append(configs, commandstructure.CommandConfig{Name: cmd.Name, Params: cmd.Params})
	}
	return configs
}

// CacheTTL parses the configured TTL, zero when unset
func (config *ServiceConfig) CacheTTL() (time.Duration, error) {
	if config.Cache.TTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(config.Cache.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid cache.ttl %q: %w", config.Cache.TTL, err)
	}
	return ttl, nil
}

func (config *ServiceConfig) FaceDetectorConfig() facedetect.Config {
	fd := config.FaceDetection
	return facedetect.Config{
		Provider:      fd.Provider,
		CascadePath:   fd.CascadePath,
		MinSize:       fd.MinSize,
		MaxSize:       fd.MaxSize,
		ShiftFactor:   fd.ShiftFactor,
		ScaleFactor:   fd.ScaleFactor,
		IoUThreshold:  fd.IoUThreshold,
		MinScore:      fd.MinScore,
		MaxDimension:  fd.MaxDimension,
		Region:        fd.Region,
		MinConfidence: fd.MinConfidence,
	}
}

func (config *ServiceConfig) SegmenterConfig() segmentation.Config {
	seg := config.Segmentation
	return segmentation.Config{
		ModelPath:         seg.ModelPath,
		SharedLibraryPath: seg.SharedLibraryPath,
		InputName:         seg.InputName,
		OutputName:        seg.OutputName,
		InputWidth:        seg.InputWidth,
		InputHeight:       seg.InputHeight,
	}
}

func (config *ServiceConfig) CacheConfig() cache.Config {
	// Validate has already rejected malformed TTLs
	ttl, _ := config.CacheTTL()
	return cache.Config{
		Type:     config.Cache.Type,
		Address:  config.Cache.Address,
		Password: config.Cache.Password,
		DB:       config.Cache.DB,
		TTL:      ttl,
		Prefix:   config.Cache.Prefix,
	}
}

const defaultMaskThreshold = 0.5

// MaskThreshold returns the segmentation probability above which a pixel is opaque.
// An explicit 0 is kept, so every non-zero probability counts as foreground.
func (config *ServiceConfig) MaskThreshold() float64 {
	if config.Segmentation.Threshold == nil {
		return defaultMaskThreshold
	}
	return *config.Segmentation.Threshold
}
