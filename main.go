// main.go
package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"patient-records-api/config"
	"patient-records-api/endpoint"
	"patient-records-api/middleware"
	"patient-records-api/model"
	"patient-records-api/store"
	"patient-records-api/util"
)

func buildStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "mysql":
		db, err := config.ConnectDatabase()
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := db.AutoMigrate(&store.PatientRecord{}, &model.AuditLog{}); err != nil {
			return nil, fmt.Errorf("migrate tables: %w", err)
		}
		util.SetAuditDB(db)
		return store.NewDBStore(db), nil
	case "file":
		return store.NewFileStore(cfg.PatientFile), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.StoreBackend)
	}
}

func main() {
	// Load the configuration
	cfg := config.LoadConfig()

	patientStore, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("Error initializing patient store: %v", err)
	}

	// Redis is optional; the rate limiter falls back to a local counter.
	if _, err := config.ConnectRedis(); err != nil {
		log.Printf("Redis unavailable, using in-process rate limiter: %v", err)
	}

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	// Create a Gin router with default middleware
	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.EndpointCallLogger())
	router.Use(middleware.StoreMiddleware(patientStore))

	// Basic HTTP handler for root path
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})
	router.GET("/about", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "A fully functional API for managing patient records.",
		})
	})

	router.GET("/view", endpoint.ViewPatients)
	router.GET("/patient/:id", endpoint.GetPatientInfo)
	router.GET("/sort", endpoint.SortPatients)

	mutating := router.Group("/", middleware.RateLimiter(middleware.RateLimitConfig{}))
	mutating.POST("/create", endpoint.CreatePatient)
	mutating.PUT("/update/:id", endpoint.UpdatePatient)
	mutating.DELETE("/delete/:id", endpoint.DeletePatient)

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
