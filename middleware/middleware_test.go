package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"patient-records-api/model"
	"patient-records-api/store"
)

func TestCORSMiddleware_SetsHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected Access-Control-Allow-Origin *, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Fatalf("expected Access-Control-Allow-Methods header to be set")
	}
}

func TestCORSMiddleware_PreflightAborts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware())

	handlerCalled := false
	r.OPTIONS("/", func(c *gin.Context) { handlerCalled = true })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", w.Code)
	}
	if handlerCalled {
		t.Fatalf("expected preflight to abort before the handler")
	}
}

func TestStoreMiddlewareAndGetStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	s := store.NewFileStore("patients.json")
	r.Use(StoreMiddleware(s))
	r.GET("/teststore", func(c *gin.Context) {
		got := GetStore(c)
		if got == nil {
			c.AbortWithStatus(500)
			return
		}
		if got != store.Store(s) {
			c.AbortWithStatus(500)
			return
		}
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/teststore", nil)
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200 from handler with store set, got %d", w.Code)
	}
}

func TestGetStore_NotInjected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	if got := GetStore(c); got != nil {
		t.Fatalf("expected nil store when none injected, got %v", got)
	}
}

func TestGetStore_WrongType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(storeContextKey, model.Raw{})

	if got := GetStore(c); got != nil {
		t.Fatalf("expected nil store for wrong context value type, got %v", got)
	}
}
