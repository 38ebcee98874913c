package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config holds the application's configuration values.
type Config struct {
	AppName      string `json:"appname"`
	AppEnv       string `json:"appenv"`
	AppPort      uint16 `json:"appport"`
	GinMode      string `json:"ginmode"`
	StoreBackend string `json:"storebackend"`
	PatientFile  string `json:"patientfile"`
	DBHost       string `json:"dbhost"`
	DBPort       uint16 `json:"dbport"`
	DBName       string `json:"dbname"`
	DBUser       string `json:"dbuser"`
	DBPass       string `json:"dbpass"`
}

var config *Config
var once sync.Once

// LoadConfig loads the environment variables from a .env file when one is
// present, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file loaded: %v", err)
		}

		appPort, _ := strconv.ParseUint(os.Getenv("APPPORT"), 10, 16)
		if appPort == 0 {
			appPort = 8080
		}
		dbPort, _ := strconv.ParseUint(os.Getenv("DBPORT"), 10, 16)

		backend := os.Getenv("STOREBACKEND")
		if backend == "" {
			backend = "file"
		}
		patientFile := os.Getenv("PATIENTFILE")
		if patientFile == "" {
			patientFile = "patients.json"
		}

		config = &Config{
			AppName:      os.Getenv("APPNAME"),
			AppEnv:       os.Getenv("APPENV"),
			AppPort:      uint16(appPort),
			GinMode:      os.Getenv("GINMODE"),
			StoreBackend: backend,
			PatientFile:  patientFile,
			DBHost:       os.Getenv("DBHOST"),
			DBPort:       uint16(dbPort),
			DBName:       os.Getenv("DBNAME"),
			DBUser:       os.Getenv("DBUSER"),
			DBPass:       os.Getenv("DBPASS"),
		}
	})
	return config
}

// ResetConfigForTest clears the config singleton so tests can reload it
// with different environment variables.
func ResetConfigForTest() {
	config = nil
	once = sync.Once{}
}

// ConnectDatabase opens the relational connection used by the database
// store backend and the audit log. In the test environment it opens an
// in-memory SQLite database instead of MySQL.
func ConnectDatabase() (*gorm.DB, error) {
	cfg := LoadConfig()

	if cfg.AppEnv == "test" {
		return gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}
