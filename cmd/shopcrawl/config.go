package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/hairizuanbinnoorazman/checkout-crawler/agent"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Log      LogConfig
	Browser  BrowserConfig
	Runtime  RuntimeConfig
	Models   agent.Models
	Agent    AgentConfig
	Storage  StorageConfig
	Database DatabaseConfig
	History  HistoryConfig
	Server   ServerConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// BrowserConfig holds Chrome and browser context settings.
type BrowserConfig struct {
	ExecPath          string
	Headless          bool
	DebugPort         int
	DisableSecurity   bool
	WindowWidth       int
	WindowHeight      int
	UserAgent         string
	MinPageLoadWait   time.Duration
	ViewportExpansion int
	HighlightElements bool
}

// RuntimeConfig holds the agent runtime process settings.
type RuntimeConfig struct {
	Interpreter string
	ScriptPath  string
	WorkDir     string
	KillDelay   time.Duration
}

// AgentConfig holds the role order and vision switches.
type AgentConfig struct {
	Roles               []string
	UseVision           bool
	UseVisionForPlanner bool
}

// StorageConfig holds artifact storage configuration.
type StorageConfig struct {
	Type            string // "local" or "s3"
	S3Bucket        string
	S3Region        string
	S3Prefix        string
	S3PresignExpiry time.Duration
}

// DatabaseConfig holds run history database configuration.
type DatabaseConfig struct {
	Driver       string
	Path         string
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
}

// HistoryConfig toggles the run journal.
type HistoryConfig struct {
	Enabled bool
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.6312.106 Safari/537.36"

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("shopcrawl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// SHOPCRAWL_MODELS_ACTING_MODEL overrides models.acting.model.
	v.SetEnvPrefix("shopcrawl")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)

	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.debug_port", 9222)
	v.SetDefault("browser.disable_security", true)
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 1100)
	v.SetDefault("browser.user_agent", defaultUserAgent)
	v.SetDefault("browser.min_page_load_wait", "3s")
	v.SetDefault("browser.viewport_expansion", -1)
	v.SetDefault("browser.highlight_elements", true)

	v.SetDefault("runtime.interpreter", "python3")
	v.SetDefault("runtime.script_path", "runtime/agent_runtime.py")
	v.SetDefault("runtime.work_dir", "")
	v.SetDefault("runtime.kill_delay", "5s")

	v.SetDefault("models.acting.provider", "google")
	v.SetDefault("models.acting.model", "gemini-2.5-flash-preview-04-17")
	v.SetDefault("models.acting.api_key_env", "GEMINI_API_KEY")
	v.SetDefault("models.acting.temperature", 0.0)
	v.SetDefault("models.planning.provider", "google")
	v.SetDefault("models.planning.model", "gemini-2.0-flash")
	v.SetDefault("models.planning.api_key_env", "GEMINI_API_KEY_PLANNER")
	v.SetDefault("models.planning.temperature", 0.0)

	v.SetDefault("agent.roles", []string{})
	v.SetDefault("agent.use_vision", true)
	v.SetDefault("agent.use_vision_for_planner", true)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_prefix", "")
	v.SetDefault("storage.s3_presign_expiry", "15m")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "shopcrawl.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "shopcrawl")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("history.enabled", false)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config

	config.Log.Level = v.GetString("log.level")
	config.Log.Format = v.GetString("log.format")
	config.Log.File = v.GetString("log.file")
	config.Log.MaxSizeMB = v.GetInt("log.max_size_mb")
	config.Log.MaxBackups = v.GetInt("log.max_backups")
	config.Log.MaxAgeDays = v.GetInt("log.max_age_days")

	config.Browser.ExecPath = v.GetString("browser.exec_path")
	config.Browser.Headless = v.GetBool("browser.headless")
	config.Browser.DebugPort = v.GetInt("browser.debug_port")
	config.Browser.DisableSecurity = v.GetBool("browser.disable_security")
	config.Browser.WindowWidth = v.GetInt("browser.window_width")
	config.Browser.WindowHeight = v.GetInt("browser.window_height")
	config.Browser.UserAgent = v.GetString("browser.user_agent")
	config.Browser.MinPageLoadWait = v.GetDuration("browser.min_page_load_wait")
	config.Browser.ViewportExpansion = v.GetInt("browser.viewport_expansion")
	config.Browser.HighlightElements = v.GetBool("browser.highlight_elements")

	config.Runtime.Interpreter = v.GetString("runtime.interpreter")
	config.Runtime.ScriptPath = v.GetString("runtime.script_path")
	config.Runtime.WorkDir = v.GetString("runtime.work_dir")
	config.Runtime.KillDelay = v.GetDuration("runtime.kill_delay")

	config.Models.Acting = agent.ModelHandle{
		Provider:    v.GetString("models.acting.provider"),
		Model:       v.GetString("models.acting.model"),
		APIKeyEnv:   v.GetString("models.acting.api_key_env"),
		Temperature: v.GetFloat64("models.acting.temperature"),
	}
	config.Models.Planning = agent.ModelHandle{
		Provider:    v.GetString("models.planning.provider"),
		Model:       v.GetString("models.planning.model"),
		APIKeyEnv:   v.GetString("models.planning.api_key_env"),
		Temperature: v.GetFloat64("models.planning.temperature"),
	}

	config.Agent.Roles = v.GetStringSlice("agent.roles")
	config.Agent.UseVision = v.GetBool("agent.use_vision")
	config.Agent.UseVisionForPlanner = v.GetBool("agent.use_vision_for_planner")

	config.Storage.Type = v.GetString("storage.type")
	config.Storage.S3Bucket = v.GetString("storage.s3_bucket")
	config.Storage.S3Region = v.GetString("storage.s3_region")
	config.Storage.S3Prefix = v.GetString("storage.s3_prefix")
	config.Storage.S3PresignExpiry = v.GetDuration("storage.s3_presign_expiry")

	config.Database.Driver = v.GetString("database.driver")
	config.Database.Path = v.GetString("database.path")
	config.Database.Host = v.GetString("database.host")
	config.Database.Port = v.GetInt("database.port")
	config.Database.User = v.GetString("database.user")
	config.Database.Password = v.GetString("database.password")
	config.Database.Database = v.GetString("database.database")
	config.Database.MaxOpenConns = v.GetInt("database.max_open_conns")
	config.Database.MaxIdleConns = v.GetInt("database.max_idle_conns")

	config.History.Enabled = v.GetBool("history.enabled")

	config.Server.Host = v.GetString("server.host")
	config.Server.Port = v.GetInt("server.port")
	config.Server.ReadTimeout = v.GetDuration("server.read_timeout")
	config.Server.WriteTimeout = v.GetDuration("server.write_timeout")

	return &config, nil
}
