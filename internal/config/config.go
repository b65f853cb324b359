package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ktakita1011/MiniKaggle/internal/metric"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	// Database
	DBDriver    string // "sqlite" or "postgres"
	DBPath      string // sqlite: main store file
	FinalDBPath string // sqlite: final-submission store file
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	FinalDBName string
	DBSSLMode   string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Admin
	AdminUsernames string
	AdminToken     string

	// Server
	Port        string
	CORSOrigins string

	// Uploads
	UploadDir   string
	DedupWindow time.Duration

	// Competition settings (from CompetitionConfigPath YAML)
	CompetitionConfigPath string
	Competition           Competition
}

// Competition is the per-competition settings surface, loaded from a YAML file.
type Competition struct {
	Name                      string `yaml:"name"`
	OptimizationDirection     string `yaml:"optimization_direction"`
	Metric                    string `yaml:"metric"`
	MaxSubmissions            int    `yaml:"max_submissions"`
	StopFinalSubmissionSelect bool   `yaml:"stop_final_submission_select"`
	AnswerColumnName          string `yaml:"answer_column_name"`
	AnswerFile                string `yaml:"answer_file"`

	// Parsed forms, filled by Validate.
	Direction  metric.Direction `yaml:"-"`
	MetricKind metric.Kind      `yaml:"-"`
}

func Load() *Config {
	return &Config{
		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		DBPath:      getEnv("DB_PATH", "./database/submissions.db"),
		FinalDBPath: getEnv("FINAL_DB_PATH", "./database/final_submissions.db"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "minikaggle"),
		FinalDBName: getEnv("FINAL_DB_NAME", "minikaggle_final"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		AdminUsernames: getEnv("ADMIN_USERNAMES", ""),
		AdminToken:     getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		UploadDir:   getEnv("UPLOAD_DIR", "./uploads/submissions"),
		DedupWindow: parseDuration(getEnv("DEDUP_WINDOW", "10m"), 10*time.Minute),

		CompetitionConfigPath: getEnv("COMPETITION_CONFIG_PATH", "competition.yaml"),
	}
}

// LoadCompetition reads and validates the competition settings file. A bad
// metric or direction is fatal at startup, not per request.
func (c *Config) LoadCompetition() error {
	data, err := os.ReadFile(c.CompetitionConfigPath)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrInvalid, c.CompetitionConfigPath, err)
	}

	var file struct {
		Competition Competition `yaml:"competition"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalid, c.CompetitionConfigPath, err)
	}

	c.Competition = file.Competition
	return c.Competition.Validate()
}

func (comp *Competition) Validate() error {
	d, err := metric.ParseDirection(comp.OptimizationDirection)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	comp.Direction = d

	k, err := metric.ParseKind(comp.Metric)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	comp.MetricKind = k

	if comp.MaxSubmissions <= 0 {
		return fmt.Errorf("%w: max_submissions must be positive, got %d", ErrInvalid, comp.MaxSubmissions)
	}
	if comp.AnswerColumnName == "" {
		return fmt.Errorf("%w: answer_column_name is required", ErrInvalid)
	}
	if comp.AnswerFile == "" {
		return fmt.Errorf("%w: answer_file is required", ErrInvalid)
	}
	return nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func (c *Config) FinalDSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.FinalDBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
