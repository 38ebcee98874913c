package endpoint

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"

	"patient-records-api/middleware"
	"patient-records-api/model"
	"patient-records-api/store"
)

// memStore is an in-memory Store for handler tests.
type memStore struct {
	records map[string]model.Raw
}

func newMemStore(records map[string]model.Raw) *memStore {
	if records == nil {
		records = map[string]model.Raw{}
	}
	return &memStore{records: records}
}

func (m *memStore) Load() (map[string]model.Raw, error) {
	out := make(map[string]model.Raw, len(m.records))
	for id, raw := range m.records {
		out[id] = raw
	}
	return out, nil
}

func (m *memStore) Save(records map[string]model.Raw) error {
	m.records = records
	return nil
}

// failStore simulates an unreadable/unwritable persistence resource.
type failStore struct{}

func (failStore) Load() (map[string]model.Raw, error) {
	return nil, fmt.Errorf("read patient store: resource unavailable")
}

func (failStore) Save(map[string]model.Raw) error {
	return fmt.Errorf("write patient store: resource unavailable")
}

// seedRecords returns a small stored collection used across handler tests.
func seedRecords() map[string]model.Raw {
	return map[string]model.Raw{
		"P001": {
			"name":   "John Doe",
			"city":   "New York",
			"age":    float64(30),
			"height": 1.75,
			"weight": 70.0,
			"gender": "Male",
		},
		"P002": {
			"name":   "Jane Doe",
			"city":   "Boston",
			"age":    float64(41),
			"height": 1.80,
			"weight": 100.0,
			"gender": "Female",
		},
		"P003": {
			"name":   "Sam Roe",
			"city":   "Chicago",
			"age":    float64(25),
			"height": 1.60,
			"weight": 0.0,
			"gender": "Other",
		},
	}
}

// newPatientRouter builds a router with the store injected and every
// patient route registered, mirroring the wiring in main.
func newPatientRouter(s store.Store) *gin.Engine {
	r := gin.New()
	r.Use(middleware.StoreMiddleware(s))
	r.GET("/view", ViewPatients)
	r.GET("/patient/:id", GetPatientInfo)
	r.GET("/sort", SortPatients)
	r.POST("/create", CreatePatient)
	r.PUT("/update/:id", UpdatePatient)
	r.DELETE("/delete/:id", DeletePatient)
	return r
}

// performRequest executes one request against the router and decodes the
// JSON response envelope when present.
func performRequest(r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}, error) {
	var reader *strings.Reader
	setJSONHeader := false
	switch v := body.(type) {
	case nil:
		reader = strings.NewReader("")
	case string:
		reader = strings.NewReader(v)
		setJSONHeader = true
	default:
		b, _ := json.Marshal(body)
		reader = strings.NewReader(string(b))
		setJSONHeader = true
	}

	req := httptest.NewRequest(method, path, reader)
	if setJSONHeader {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			return w, nil, err
		}
	}
	return w, response, nil
}
