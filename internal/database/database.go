package database

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/grupoheroica/calidadrecintos/internal/config"
)

const (
	embeddedDataPath = "./db_data"
	embeddedPort     = 5433
)

// Manager owns one database handle per recinto plus the admin connection
// used to create tenant databases. Services never hold a database
// themselves; they receive the recinto's handle per operation.
type Manager struct {
	cfg      config.DatabaseConfig
	embedded *embeddedpostgres.EmbeddedPostgres
	admin    *gorm.DB
	tenants  map[string]*gorm.DB
}

// isPortInUse checks if a port is already in use
func isPortInUse(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// cleanupStalePostmaster cleans up leftover processes from a previous crash
func cleanupStalePostmaster(dataPath string) {
	pidFile := filepath.Join(dataPath, "postmaster.pid")

	data, err := os.ReadFile(pidFile)
	if err != nil {
		// No pid file = clean state
		return
	}

	// PID is the first line of postmaster.pid
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	if !scanner.Scan() {
		return
	}
	pid, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		log.Printf("⚠️  Could not parse PID from postmaster.pid: %v", err)
		return
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		log.Printf("🧹 Cleaning up stale postmaster.pid (PID %d not found)", pid)
		os.Remove(pidFile)
		return
	}

	// On Unix FindProcess always succeeds; signal 0 probes liveness
	if err := process.Signal(syscall.Signal(0)); err != nil {
		log.Printf("🧹 Cleaning up stale postmaster.pid (PID %d not running)", pid)
		os.Remove(pidFile)
		return
	}

	log.Printf("⚠️  Found orphaned PostgreSQL process (PID %d), attempting to stop...", pid)
	if err := process.Signal(syscall.SIGTERM); err != nil {
		log.Printf("⚠️  Could not send SIGTERM to PID %d: %v", pid, err)
	}

	// Wait up to 5 seconds for a graceful stop
	for i := 0; i < 10; i++ {
		time.Sleep(500 * time.Millisecond)
		if err := process.Signal(syscall.Signal(0)); err != nil {
			log.Printf("✅ Orphaned PostgreSQL process stopped")
			os.Remove(pidFile)
			return
		}
	}

	log.Printf("⚠️  Process did not stop gracefully, sending SIGKILL...")
	process.Kill()
	time.Sleep(500 * time.Millisecond)
	os.Remove(pidFile)
}

// NewManager connects to PostgreSQL (external, or embedded when host is
// localhost with no password) and opens one database per configured recinto.
func NewManager(cfg config.DatabaseConfig, recintos map[string]config.RecintoConfig) (*Manager, error) {
	m := &Manager{
		cfg:     cfg,
		tenants: make(map[string]*gorm.DB, len(recintos)),
	}

	// Embedded mode: localhost and no password
	if cfg.Host == "localhost" && cfg.Password == "" {
		log.Println("📦 Mode: [Embedded PostgreSQL] - Initializing internal database...")

		// Reap any orphan left by a previous crash before claiming the port
		cleanupStalePostmaster(embeddedDataPath)

		if isPortInUse(embeddedPort) {
			log.Printf("⚠️  Port %d still in use, waiting for release...", embeddedPort)
			for i := 0; i < 6; i++ {
				time.Sleep(500 * time.Millisecond)
				if !isPortInUse(embeddedPort) {
					break
				}
			}
			if isPortInUse(embeddedPort) {
				return nil, fmt.Errorf("port %d is still in use by another process", embeddedPort)
			}
		}

		embeddedCfg := embeddedpostgres.DefaultConfig().
			DataPath(embeddedDataPath).
			Port(uint32(embeddedPort)).
			Database(cfg.Database).
			Username(cfg.Username).
			Password("postgres")

		m.embedded = embeddedpostgres.NewDatabase(embeddedCfg)
		if err := m.embedded.Start(); err != nil {
			return nil, fmt.Errorf("failed to start embedded database: %w", err)
		}

		m.cfg.Port = strconv.Itoa(embeddedPort)
		m.cfg.Password = "postgres"
		log.Printf("✅ Embedded PostgreSQL process started on port %d", embeddedPort)
	} else {
		log.Printf("🌐 Mode: [External PostgreSQL] - Connecting to %s:%s\n", cfg.Host, cfg.Port)
	}

	admin, err := m.open(m.cfg.Database)
	if err != nil {
		m.stopEmbedded()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	m.admin = admin

	for code, rc := range recintos {
		if err := m.ensureDatabase(rc.Database); err != nil {
			m.stopEmbedded()
			return nil, fmt.Errorf("recinto %s: %w", code, err)
		}
		db, err := m.open(rc.Database)
		if err != nil {
			m.stopEmbedded()
			return nil, fmt.Errorf("recinto %s: %w", code, err)
		}
		m.tenants[code] = db
		log.Printf("✅ Recinto %s backed by database %q", code, rc.Database)
	}

	return m, nil
}

// ForRecinto returns the database handle backing a recinto
func (m *Manager) ForRecinto(code string) (*gorm.DB, error) {
	db, ok := m.tenants[code]
	if !ok {
		return nil, fmt.Errorf("unknown recinto %q", code)
	}
	return db, nil
}

// Recintos lists the configured tenant codes
func (m *Manager) Recintos() []string {
	codes := make([]string, 0, len(m.tenants))
	for code := range m.tenants {
		codes = append(codes, code)
	}
	return codes
}

// AutoMigrate synchronizes the schema on every tenant database
func (m *Manager) AutoMigrate(entities ...interface{}) error {
	for code, db := range m.tenants {
		if err := db.AutoMigrate(entities...); err != nil {
			return fmt.Errorf("recinto %s: %w", code, err)
		}
	}
	return nil
}

// Close shuts down every connection and the embedded process if active
func (m *Manager) Close() error {
	for _, db := range m.tenants {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if m.admin != nil {
		if sqlDB, err := m.admin.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	m.stopEmbedded()
	return nil
}

func (m *Manager) stopEmbedded() {
	if m.embedded != nil {
		log.Println("🛑 Stopping Embedded PostgreSQL process...")
		_ = m.embedded.Stop()
	}
}

// ensureDatabase creates the tenant database when it does not exist yet
func (m *Manager) ensureDatabase(name string) error {
	var count int64
	if err := m.admin.Raw("SELECT count(*) FROM pg_database WHERE datname = ?", name).Scan(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return m.admin.Exec(fmt.Sprintf("CREATE DATABASE %q", name)).Error
}

func (m *Manager) open(dbname string) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		m.cfg.Host,
		m.cfg.Port,
		m.cfg.Username,
		m.cfg.Password,
		dbname,
	)

	logLevel := logger.Warn
	if m.cfg.Alter {
		logLevel = logger.Silent
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return db, nil
}
