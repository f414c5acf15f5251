package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv           string
	Port              string
	JWTSecret         string
	AdminEmail        string
	AdminPasswordHash string
	EvidenciasDir     string
	Database          DatabaseConfig
	Skill             SkillConfig
	Recintos          map[string]RecintoConfig
}

// DatabaseConfig holds database server configuration. Each recinto gets
// its own database on this server.
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Alter    bool
}

// SkillConfig holds credentials for the external scheduling API
type SkillConfig struct {
	URL           string
	Username      string
	Password      string
	CompanyAuthID string
	IDData        string
	Timeout       time.Duration
}

// RecintoConfig describes one tenant: which database backs it and which
// e-mail domains may sign in to it.
type RecintoConfig struct {
	Database       string
	AllowedDomains []string
}

// Default tenant registry. Domains can be overridden per recinto with
// RECINTO_<CODE>_DOMAINS (comma separated).
var defaultRecintos = map[string]RecintoConfig{
	"CCCI": {Database: "calidad_ccci", AllowedDomains: []string{"@grupoheroica.com", "@cccartagena.com"}},
	"CCCR": {Database: "calidad_cccr", AllowedDomains: []string{"@grupoheroica.com", "@costaricacc.com"}},
	"CEVP": {Database: "calidad_cevp", AllowedDomains: []string{"@grupoheroica.com", "@valledelpacifico.co"}},
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	recintos := make(map[string]RecintoConfig, len(defaultRecintos))
	for code, rc := range defaultRecintos {
		if db := os.Getenv("RECINTO_" + code + "_DATABASE"); db != "" {
			rc.Database = db
		}
		if domains := os.Getenv("RECINTO_" + code + "_DOMAINS"); domains != "" {
			rc.AllowedDomains = splitDomains(domains)
		}
		recintos[code] = rc
	}

	return &Config{
		NodeEnv:           getEnv("NODE_ENV", "development"),
		Port:              getEnv("PORT", "3001"),
		JWTSecret:         jwtSecret,
		AdminEmail:        os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
		AdminPasswordHash: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD_HASH"),
		EvidenciasDir:     getEnv("EVIDENCIAS_DIR", "./evidencias"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "calidad"),
			Alter:    getEnv("DB_ALTER", "false") == "true",
		},
		Skill: SkillConfig{
			URL:           os.Getenv("SKILL_API_URL"),
			Username:      os.Getenv("SKILL_USERNAME"),
			Password:      os.Getenv("SKILL_PASSWORD"),
			CompanyAuthID: os.Getenv("SKILL_COMPANY_AUTH_ID"),
			IDData:        os.Getenv("SKILL_ID_DATA"),
			Timeout:       30 * time.Second,
		},
		Recintos: recintos,
	}, nil
}

// Recinto returns the tenant configuration for a code
func (c *Config) Recinto(code string) (RecintoConfig, bool) {
	rc, ok := c.Recintos[code]
	return rc, ok
}

func splitDomains(raw string) []string {
	parts := strings.Split(raw, ",")
	domains := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "@") {
			p = "@" + p
		}
		domains = append(domains, p)
	}
	return domains
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
