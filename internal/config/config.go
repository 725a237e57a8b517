package config

import (
	"os"
	"strconv"
	"strings"

	"arkiv/internal/model"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for the content blob store.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AuthConfig holds session token verification settings.
type AuthConfig struct {
	// SessionSecret is the HMAC key used to verify session tokens.
	SessionSecret string
}

// IngestionConfig is the read-only snapshot the upload pipeline works
// against for the duration of one request.
type IngestionConfig struct {
	// MaxFileSize is the per-file byte ceiling.
	MaxFileSize int64
	// MaxFiles is the maximum number of file parts accepted per request.
	MaxFiles int
	// MetadataOverhead is the slack added to the aggregate request cap to
	// account for multipart framing and metadata fields.
	MetadataOverhead int64
	// Types is the document category catalog uploads must resolve against.
	Types []model.DocumentType
}

// MaxRequestSize is the aggregate request byte cap:
// per-file ceiling times file count plus framing overhead.
func (c IngestionConfig) MaxRequestSize() int64 {
	return c.MaxFileSize*int64(c.MaxFiles) + c.MetadataOverhead
}

// TypeByID resolves a document type id against the catalog.
func (c IngestionConfig) TypeByID(id int) (model.DocumentType, bool) {
	for _, t := range c.Types {
		if t.ID == id {
			return t, true
		}
	}
	return model.DocumentType{}, false
}

// IngestionProvider yields the ingestion snapshot for a request. Handlers
// call it once per request so a future dynamic config source can swap in
// without touching the pipeline.
type IngestionProvider func() IngestionConfig

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	Database  DatabaseConfig
	MinIO     MinIOConfig
	Auth      AuthConfig
	Ingestion IngestionConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Auth: AuthConfig{
			SessionSecret: getEnv("SESSION_SECRET", ""),
		},
		Ingestion: IngestionConfig{
			MaxFileSize:      getEnvInt64("UPLOAD_MAX_FILE_SIZE", 10<<20),
			MaxFiles:         getEnvInt("UPLOAD_MAX_FILES", 10),
			MetadataOverhead: getEnvInt64("UPLOAD_METADATA_OVERHEAD", 64<<10),
			Types:            parseDocumentTypes(getEnv("DOC_TYPES", "1:Contrato:CTR,2:Nota Fiscal:NF,3:Recibo,4:Outros")),
		},
	}
}

// parseDocumentTypes parses the DOC_TYPES env format:
// a comma-separated list of "id:name" or "id:name:reducedName" entries.
// Malformed entries are skipped.
func parseDocumentTypes(raw string) []model.DocumentType {
	var types []model.DocumentType
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.SplitN(entry, ":", 3)
		if len(fields) < 2 {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			continue
		}
		t := model.DocumentType{ID: id, Name: strings.TrimSpace(fields[1])}
		if len(fields) == 3 {
			t.ReducedName = strings.TrimSpace(fields[2])
		}
		types = append(types, t)
	}
	return types
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}
