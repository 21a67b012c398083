package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Mail     MailConfig     `mapstructure:"mail"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Assessor AssessorConfig `mapstructure:"assessor"`
	Intake   IntakeConfig   `mapstructure:"intake"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// MailConfig holds IMAP inbox and Gmail sender configuration
type MailConfig struct {
	IMAPHost     string `mapstructure:"imap_host"`
	IMAPPort     int    `mapstructure:"imap_port"`
	IMAPUser     string `mapstructure:"imap_user"`
	IMAPPassword string `mapstructure:"imap_password"`
	Mailbox      string `mapstructure:"mailbox"`

	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	UserEmail    string `mapstructure:"user_email"`
}

// StorageConfig holds S3 archival configuration
type StorageConfig struct {
	Bucket    string        `mapstructure:"bucket"`
	Region    string        `mapstructure:"region"`
	Prefix    string        `mapstructure:"prefix"`
	URLExpiry time.Duration `mapstructure:"url_expiry"`
}

// AssessorConfig holds completeness-assessment configuration
type AssessorConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// IntakeConfig holds poller and worker configuration
type IntakeConfig struct {
	IntervalSeconds int    `mapstructure:"interval_seconds"`
	Workers         int    `mapstructure:"workers"`
	AttachmentsDir  string `mapstructure:"attachments_dir"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	viper.AutomaticEnv()
	bindEnvVars()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)

	viper.SetDefault("mail.imap_host", "imap.gmail.com")
	viper.SetDefault("mail.imap_port", 993)
	viper.SetDefault("mail.mailbox", "INBOX")

	viper.SetDefault("storage.region", "us-east-1")
	viper.SetDefault("storage.prefix", "ai_insurance_claim")
	viper.SetDefault("storage.url_expiry", "1h")

	viper.SetDefault("assessor.model", "gpt-4o-mini")
	viper.SetDefault("assessor.temperature", 0.3)
	viper.SetDefault("assessor.max_tokens", 1500)
	viper.SetDefault("assessor.timeout", "60s")

	viper.SetDefault("intake.interval_seconds", 30)
	viper.SetDefault("intake.workers", 2)
	viper.SetDefault("intake.attachments_dir", "attachments")
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	// Database
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")

	// Mail
	viper.BindEnv("mail.imap_host", "MAIL_IMAP_HOST")
	viper.BindEnv("mail.imap_port", "MAIL_IMAP_PORT")
	viper.BindEnv("mail.imap_user", "MAIL_IMAP_USER")
	viper.BindEnv("mail.imap_password", "MAIL_IMAP_PASSWORD")
	viper.BindEnv("mail.mailbox", "MAIL_MAILBOX")
	viper.BindEnv("mail.client_id", "MAIL_CLIENT_ID")
	viper.BindEnv("mail.client_secret", "MAIL_CLIENT_SECRET")
	viper.BindEnv("mail.refresh_token", "MAIL_REFRESH_TOKEN")
	viper.BindEnv("mail.user_email", "MAIL_USER_EMAIL")

	// Storage
	viper.BindEnv("storage.bucket", "S3_BUCKET_NAME")
	viper.BindEnv("storage.region", "AWS_REGION")
	viper.BindEnv("storage.prefix", "S3_PREFIX")
	viper.BindEnv("storage.url_expiry", "S3_URL_EXPIRY")

	// Assessor
	viper.BindEnv("assessor.api_key", "ASSESSOR_API_KEY")
	viper.BindEnv("assessor.model", "ASSESSOR_MODEL")
	viper.BindEnv("assessor.temperature", "ASSESSOR_TEMPERATURE")
	viper.BindEnv("assessor.max_tokens", "ASSESSOR_MAX_TOKENS")
	viper.BindEnv("assessor.timeout", "ASSESSOR_TIMEOUT")

	// Intake
	viper.BindEnv("intake.interval_seconds", "INTAKE_INTERVAL_SECONDS")
	viper.BindEnv("intake.workers", "INTAKE_WORKERS")
	viper.BindEnv("intake.attachments_dir", "INTAKE_ATTACHMENTS_DIR")
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host, user, and dbname are required")
	}

	if c.Mail.IMAPUser == "" || c.Mail.IMAPPassword == "" {
		return fmt.Errorf("IMAP credentials are required")
	}

	if c.Mail.ClientID == "" || c.Mail.ClientSecret == "" || c.Mail.RefreshToken == "" {
		return fmt.Errorf("Gmail OAuth2 credentials are required for outbound mail")
	}

	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}

	if c.Assessor.APIKey == "" {
		return fmt.Errorf("assessor API key is required")
	}

	if c.Intake.IntervalSeconds <= 0 {
		return fmt.Errorf("intake interval must be greater than 0")
	}
	if c.Intake.Workers <= 0 {
		return fmt.Errorf("intake worker count must be greater than 0")
	}

	return nil
}
