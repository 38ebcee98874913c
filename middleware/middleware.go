package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"patient-records-api/store"
)

const storeContextKey = "patientStore"

// CORSMiddleware configures CORS headers for incoming requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE, PUT")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Content-Type", "application/json")

		// For preflight requests, respond with 204 and abort further processing.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// StoreMiddleware injects the patient store into the request context so
// handlers can retrieve it with GetStore.
func StoreMiddleware(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(storeContextKey, s)
		c.Next()
	}
}

// GetStore returns the patient store from the request context, or nil if
// none was injected.
func GetStore(c *gin.Context) store.Store {
	v, ok := c.Get(storeContextKey)
	if !ok {
		return nil
	}
	s, ok := v.(store.Store)
	if !ok {
		return nil
	}
	return s
}
