package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full run configuration. It is built once by Load and passed by value.
type Config struct {
	Storyblok StoryblokConfig
	Directus  DirectusConfig
	Migration MigrationConfig
	Images    ImageConfig
	HTTP      HTTPConfig
	Logger    LoggerConfig
	Metrics   MetricsConfig
	Journal   JournalConfig
}

type StoryblokConfig struct {
	Token             string `validate:"required"`
	APIURL            string `validate:"required,url"`
	ArtworksPrefix    string `validate:"required"`
	PhotoshootsPrefix string `validate:"required"`
	Version           string `validate:"required"`
	CacheVersion      string
}

type DirectusConfig struct {
	URL                   string `validate:"required,url"`
	Token                 string `validate:"required"`
	ArtworksCollection    string `validate:"required"`
	PhotoshootsCollection string `validate:"required"`
	PhotoshootFiles       string `validate:"required"`
	JunctionRecordField   string `validate:"required"`
	JunctionFileField     string `validate:"required"`
	ArtworkCoverField     string `validate:"required"`
}

// MigrationConfig holds the retry policy, limits, toggles and throttling delays
type MigrationConfig struct {
	MaxRetries             int           `validate:"min=0"`
	RetryDelay             time.Duration `validate:"min=0"`
	MaxImagesPerPhotoshoot int           `validate:"min=0"`
	ProcessArtworks        bool
	UpdateExisting         bool
	UploadDelay            time.Duration `validate:"min=0"`
	ArtworkDelay           time.Duration `validate:"min=0"`
	PhotoshootDelay        time.Duration `validate:"min=0"`
	LinkDelay              time.Duration `validate:"min=0"`
}

type ImageConfig struct {
	MaxWidth    int   `validate:"gt=0"`
	MaxHeight   int   `validate:"gt=0"`
	MaxFileSize int64 `validate:"gt=0"`
	Quality     int   `validate:"min=1,max=100"`
}

type HTTPConfig struct {
	Timeout time.Duration `validate:"gt=0"`
}

type LoggerConfig struct {
	Level  string `validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `validate:"oneof=text json"`
}

type MetricsConfig struct {
	PushgatewayURL string `validate:"omitempty,url"`
	JobName        string `validate:"required"`
}

type JournalConfig struct {
	DatabaseURL string
}

// Load reads the configuration from the environment, applying defaults, and validates it
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("STORYBLOK_API_URL", "https://api.storyblok.com/v2/cdn/stories/")
	v.SetDefault("STORYBLOK_ARTWORKS_PREFIX", "paintings/")
	v.SetDefault("STORYBLOK_PHOTOSHOOTS_PREFIX", "sesje/")
	v.SetDefault("STORYBLOK_VERSION", "published")
	v.SetDefault("STORYBLOK_CACHE_VERSION", "")
	v.SetDefault("DIRECTUS_ARTWORKS_COLLECTION", "kepka_artworks")
	v.SetDefault("DIRECTUS_PHOTOSHOOTS_COLLECTION", "kepka_shoots")
	v.SetDefault("DIRECTUS_PHOTOSHOOT_FILES_COLLECTION", "kepka_shoots_files")
	v.SetDefault("DIRECTUS_JUNCTION_RECORD_FIELD", "kepka_shoots_id")
	v.SetDefault("DIRECTUS_JUNCTION_FILE_FIELD", "directus_files_id")
	v.SetDefault("DIRECTUS_ARTWORK_COVER_FIELD", "cover")
	v.SetDefault("MAX_RETRIES", 3)
	v.SetDefault("RETRY_DELAY", "2s")
	v.SetDefault("MAX_IMAGE_WIDTH", 1200)
	v.SetDefault("MAX_IMAGE_HEIGHT", 1200)
	v.SetDefault("MAX_FILE_SIZE", 4*1024*1024)
	v.SetDefault("IMAGE_QUALITY", 80)
	v.SetDefault("MAX_IMAGES_PER_PHOTOSHOOT", 5)
	v.SetDefault("PROCESS_ARTWORKS", false)
	v.SetDefault("UPDATE_EXISTING", true)
	v.SetDefault("UPLOAD_DELAY", "500ms")
	v.SetDefault("ARTWORK_DELAY", "500ms")
	v.SetDefault("PHOTOSHOOT_DELAY", "1s")
	v.SetDefault("LINK_DELAY", "500ms")
	v.SetDefault("HTTP_TIMEOUT", "60s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("PUSHGATEWAY_URL", "")
	v.SetDefault("PUSHGATEWAY_JOB", "kepka_migration")
	v.SetDefault("JOURNAL_DATABASE_URL", "")

	// Env
	v.AutomaticEnv()

	cfg := &Config{
		Storyblok: StoryblokConfig{
			Token:             v.GetString("STORYBLOK_TOKEN"),
			APIURL:            v.GetString("STORYBLOK_API_URL"),
			ArtworksPrefix:    v.GetString("STORYBLOK_ARTWORKS_PREFIX"),
			PhotoshootsPrefix: v.GetString("STORYBLOK_PHOTOSHOOTS_PREFIX"),
			Version:           v.GetString("STORYBLOK_VERSION"),
			CacheVersion:      v.GetString("STORYBLOK_CACHE_VERSION"),
		},
		Directus: DirectusConfig{
			URL:                   v.GetString("DIRECTUS_URL"),
			Token:                 v.GetString("DIRECTUS_TOKEN"),
			ArtworksCollection:    v.GetString("DIRECTUS_ARTWORKS_COLLECTION"),
			PhotoshootsCollection: v.GetString("DIRECTUS_PHOTOSHOOTS_COLLECTION"),
			PhotoshootFiles:       v.GetString("DIRECTUS_PHOTOSHOOT_FILES_COLLECTION"),
			JunctionRecordField:   v.GetString("DIRECTUS_JUNCTION_RECORD_FIELD"),
			JunctionFileField:     v.GetString("DIRECTUS_JUNCTION_FILE_FIELD"),
			ArtworkCoverField:     v.GetString("DIRECTUS_ARTWORK_COVER_FIELD"),
		},
		Migration: MigrationConfig{
			MaxRetries:             v.GetInt("MAX_RETRIES"),
			RetryDelay:             v.GetDuration("RETRY_DELAY"),
			MaxImagesPerPhotoshoot: v.GetInt("MAX_IMAGES_PER_PHOTOSHOOT"),
			ProcessArtworks:        v.GetBool("PROCESS_ARTWORKS"),
			UpdateExisting:         v.GetBool("UPDATE_EXISTING"),
			UploadDelay:            v.GetDuration("UPLOAD_DELAY"),
			ArtworkDelay:           v.GetDuration("ARTWORK_DELAY"),
			PhotoshootDelay:        v.GetDuration("PHOTOSHOOT_DELAY"),
			LinkDelay:              v.GetDuration("LINK_DELAY"),
		},
		Images: ImageConfig{
			MaxWidth:    v.GetInt("MAX_IMAGE_WIDTH"),
			MaxHeight:   v.GetInt("MAX_IMAGE_HEIGHT"),
			MaxFileSize: v.GetInt64("MAX_FILE_SIZE"),
			Quality:     v.GetInt("IMAGE_QUALITY"),
		},
		HTTP: HTTPConfig{
			Timeout: v.GetDuration("HTTP_TIMEOUT"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Metrics: MetricsConfig{
			PushgatewayURL: v.GetString("PUSHGATEWAY_URL"),
			JobName:        v.GetString("PUSHGATEWAY_JOB"),
		},
		Journal: JournalConfig{
			DatabaseURL: v.GetString("JOURNAL_DATABASE_URL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required values and limits
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
