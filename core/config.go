package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName      string
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		Debug        bool
		TestMode     bool
		WorkDir      string
		RollbarToken string

		Server   serverConfig
		Database databaseConfig
		Ranking  rankingConfig
		Task     taskConfig
		Export   exportConfig
		Drive    driveConfig
		Email    emailConfig
	}

	serverConfig struct {
		Host            string
		Address         string
		DebugHost       string
		APIKey          string
		DisableReqLogs  bool
		ShutdownTimeout time.Duration
		MaxUploadSize   string // body limit of dump uploads, eg. "10M"
	}

	databaseConfig struct {
		InMemory      bool
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	rankingConfig struct {
		MinEvaluations   int
		FallbackMaxScore float64
		TopN             int
	}

	taskConfig struct {
		DefaultClock string // "HH:MM" applied to date-only deadlines
		Timezone     string
	}

	exportConfig struct {
		BusyCooldown time.Duration
	}

	driveConfig struct {
		Enabled         bool
		CredentialsFile string // service account key
		ClientSecret    string // OAuth2 client secret json (with TokenFile)
		TokenFile       string
		FolderName      string
		BackupSchedule  string // cron spec; empty disables scheduled backups
	}

	emailConfig struct {
		DefaultFromName  string
		DefaultFromEmail string
		SendgridAPIKey   string
		ReportRecipients []string
		ReportSchedule   string // cron spec; empty disables scheduled reports
	}
)

func (c databaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Location returns the timezone task deadlines are evaluated in.
func (c taskConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Clock parses DefaultClock, falling back to 11:55.
func (c taskConfig) Clock() (hour, min int) {
	hour, min = 11, 55
	parts := strings.SplitN(c.DefaultClock, ":", 2)
	if len(parts) != 2 {
		return
	}
	h, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	m, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return
	}
	return h, m
}

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed with the env name, eg. `PROD_DATABASE_HOST`.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "EvalBoard")
	v.SetDefault("build", "develop")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.apiKey", "")
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.maxUploadSize", "10M")

	v.SetDefault("database.inMemory", env == "DEV" || env == "TEST")
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "evalboard")
	v.SetDefault("database.user", "evalboard")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", env == "DEV" || env == "TEST")

	v.SetDefault("ranking.minEvaluations", 1)
	v.SetDefault("ranking.fallbackMaxScore", 60.0)
	v.SetDefault("ranking.topN", 5)

	v.SetDefault("task.defaultClock", "11:55")
	v.SetDefault("task.timezone", "Asia/Dhaka")

	v.SetDefault("export.busyCooldown", 500*time.Millisecond)

	v.SetDefault("drive.enabled", false)
	v.SetDefault("drive.credentialsFile", "")
	v.SetDefault("drive.clientSecret", "")
	v.SetDefault("drive.tokenFile", "")
	v.SetDefault("drive.folderName", "EvalBoard Backups")
	v.SetDefault("drive.backupSchedule", "")

	v.SetDefault("email.defaultFromName", "EvalBoard")
	v.SetDefault("email.defaultFromEmail", "noreply@localhost")
	v.SetDefault("email.sendgridApiKey", "")
	v.SetDefault("email.reportRecipients", []string{})
	v.SetDefault("email.reportSchedule", "")

	wd := workDir()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		WorkDir:      wd,
		RollbarToken: v.GetString("rollbarToken"),
		Server: serverConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			APIKey:          v.GetString("server.apiKey"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			MaxUploadSize:   v.GetString("server.maxUploadSize"),
		},
		Database: databaseConfig{
			InMemory:      v.GetBool("database.inMemory"),
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Ranking: rankingConfig{
			MinEvaluations:   v.GetInt("ranking.minEvaluations"),
			FallbackMaxScore: v.GetFloat64("ranking.fallbackMaxScore"),
			TopN:             v.GetInt("ranking.topN"),
		},
		Task: taskConfig{
			DefaultClock: v.GetString("task.defaultClock"),
			Timezone:     v.GetString("task.timezone"),
		},
		Export: exportConfig{
			BusyCooldown: v.GetDuration("export.busyCooldown"),
		},
		Drive: driveConfig{
			Enabled:         v.GetBool("drive.enabled"),
			CredentialsFile: v.GetString("drive.credentialsFile"),
			ClientSecret:    v.GetString("drive.clientSecret"),
			TokenFile:       v.GetString("drive.tokenFile"),
			FolderName:      v.GetString("drive.folderName"),
			BackupSchedule:  v.GetString("drive.backupSchedule"),
		},
		Email: emailConfig{
			DefaultFromName:  v.GetString("email.defaultFromName"),
			DefaultFromEmail: v.GetString("email.defaultFromEmail"),
			SendgridAPIKey:   v.GetString("email.sendgridApiKey"),
			ReportRecipients: v.GetStringSlice("email.reportRecipients"),
			ReportSchedule:   v.GetString("email.reportSchedule"),
		},
	}
}

// workDir tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run, hence the walk up.
func workDir() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
