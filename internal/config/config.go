package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"onduty-admin/internal/model"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Backend  BackendConfig  `yaml:"backend"`
	Workers  WorkersConfig  `yaml:"workers"`
	Import   ImportConfig   `yaml:"import"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Env     string `yaml:"env"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowOrigins    []string      `yaml:"allow_origins"`
}

type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	Charset            string        `yaml:"charset"`
	ParseTime          bool          `yaml:"parse_time"`
	Loc                string        `yaml:"loc"`
	MaxConnections     int           `yaml:"max_connections"`
	MaxIdleConnections int           `yaml:"max_idle_connections"`
	ConnectionLifetime time.Duration `yaml:"connection_lifetime"`
}

type RedisConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	PoolSize        int    `yaml:"pool_size"`
	ImportQueue     string `yaml:"import_queue"`
	MutationChannel string `yaml:"mutation_channel"`
	DLQSuffix       string `yaml:"dlq_suffix"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
	KeyPrefix string `yaml:"key_prefix"`
}

// BackendConfig describes the tRPC API that owns the records.
type BackendConfig struct {
	BaseURL            string        `yaml:"base_url"`
	AuthURL            string        `yaml:"auth_url"`
	SignInEndpoint     string        `yaml:"sign_in_endpoint"`
	StudentEndpoint    string        `yaml:"student_endpoint"`
	SubjectEndpoint    string        `yaml:"subject_endpoint"`
	TeacherEndpoint    string        `yaml:"teacher_endpoint"`
	AssignRoleEndpoint string        `yaml:"assign_role_endpoint"`
	SessionCookieName  string        `yaml:"session_cookie_name"`
	SessionCookie      string        `yaml:"session_cookie"`
	Email              string        `yaml:"email"`
	Password           string        `yaml:"password"`
	SessionExpires     time.Duration `yaml:"session_expires"`
	Timeout            time.Duration `yaml:"timeout"`
}

type WorkersConfig struct {
	Ingestion IngestionWorkerConfig `yaml:"ingestion"`
}

type IngestionWorkerConfig struct {
	Count        int           `yaml:"count"`
	RequeueDelay time.Duration `yaml:"requeue_delay"`
}

type ImportConfig struct {
	MaxFileSize        int64 `yaml:"max_file_size"`
	MinBatchYear       int   `yaml:"min_batch_year"`
	BatchYearLookahead int   `yaml:"batch_year_lookahead"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"BACKEND_SESSION_COOKIE": &c.Backend.SessionCookie,
		"BACKEND_EMAIL":          &c.Backend.Email,
		"BACKEND_PASSWORD":       &c.Backend.Password,
		"DB_PASSWORD":            &c.Database.Password,
		"REDIS_PASSWORD":         &c.Redis.Password,
		"S3_SECRET_KEY":          &c.Storage.S3.SecretKey,
	}
	for env, target := range overrides {
		if v, ok := os.LookupEnv(env); ok {
			*target = v
		}
	}
}

// Validate fills defaults and rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Backend.AuthURL == "" {
		c.Backend.AuthURL = strings.TrimSuffix(strings.TrimSuffix(c.Backend.BaseURL, "/"), "/trpc") + "/api/auth"
	}
	if c.Backend.StudentEndpoint == "" {
		c.Backend.StudentEndpoint = "/user.student.createMany"
	}
	if c.Backend.SubjectEndpoint == "" {
		c.Backend.SubjectEndpoint = "/subject.createMany"
	}
	if c.Backend.TeacherEndpoint == "" {
		c.Backend.TeacherEndpoint = "/user.teacher.createMany"
	}
	if c.Backend.AssignRoleEndpoint == "" {
		c.Backend.AssignRoleEndpoint = "/user.teacher.assignRole"
	}
	if c.Backend.SignInEndpoint == "" {
		c.Backend.SignInEndpoint = "/sign-in/email"
	}
	if c.Backend.SessionCookieName == "" {
		c.Backend.SessionCookieName = "better-auth.session_token"
	}
	if c.Backend.SessionExpires == 0 {
		c.Backend.SessionExpires = 24 * time.Hour
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 60 * time.Second
	}
	if c.Import.MaxFileSize == 0 {
		c.Import.MaxFileSize = 10 << 20
	}
	if c.Import.MinBatchYear == 0 {
		c.Import.MinBatchYear = 2000
	}
	if c.Import.BatchYearLookahead == 0 {
		c.Import.BatchYearLookahead = 6
	}
	if c.Workers.Ingestion.Count <= 0 {
		c.Workers.Ingestion.Count = 1
	}
	if c.Workers.Ingestion.RequeueDelay == 0 {
		c.Workers.Ingestion.RequeueDelay = 2 * time.Second
	}
	if c.Redis.ImportQueue == "" {
		c.Redis.ImportQueue = "onduty:imports"
	}
	if c.Redis.MutationChannel == "" {
		c.Redis.MutationChannel = "onduty:mutations"
	}
	if c.Redis.DLQSuffix == "" {
		c.Redis.DLQSuffix = ":dlq"
	}
	return nil
}

// Endpoint returns the bulk-create path for kind.
func (c *BackendConfig) Endpoint(kind model.EntityKind) string {
	switch kind {
	case model.EntityStudent:
		return c.StudentEndpoint
	case model.EntitySubject:
		return c.SubjectEndpoint
	case model.EntityTeacher:
		return c.TeacherEndpoint
	}
	return ""
}

// MySQL DSN format: [username[:password]@][protocol[(address)]]/dbname[?param1=value1&...&paramN=valueN]
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port,
		c.Database.Name, c.Database.Charset, c.Database.ParseTime, c.Database.Loc)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
