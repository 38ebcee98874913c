package endpoint

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"patient-records-api/middleware"
	"patient-records-api/model"
	"patient-records-api/store"
	"patient-records-api/util"
)

// sortableFields are the only fields the sort endpoint accepts.
var sortableFields = []string{"height", "weight", "bmi"}

// helper: ensure the store is available in context or respond with server error
func ensureStore(c *gin.Context) (store.Store, bool) {
	s := middleware.GetStore(c)
	if s == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Patient store not available",
			Err: fmt.Errorf("store is nil"),
		})
		return nil, false
	}
	return s, true
}

// helper: get and validate id param from path
func getIDParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if id == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Missing patient ID",
			Err: fmt.Errorf("patient ID is required"),
		})
		return "", false
	}
	return id, true
}

// helper: load the full snapshot or respond with server error
func loadRecords(c *gin.Context, s store.Store) (map[string]model.Raw, bool) {
	records, err := s.Load()
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to read patient store",
			Err: err,
		})
		return nil, false
	}
	return records, true
}

// helper: materialize every stored record, keyed by id
func materializeAll(records map[string]model.Raw) (map[string]model.Patient, error) {
	patients := make(map[string]model.Patient, len(records))
	for id, raw := range records {
		p, err := model.Validate(id, raw)
		if err != nil {
			return nil, fmt.Errorf("stored record %s: %w", id, err)
		}
		patients[id] = p
	}
	return patients, nil
}

// ViewPatients returns every patient, materialized with derived fields,
// keyed by id.
func ViewPatients(c *gin.Context) {
	s, ok := ensureStore(c)
	if !ok {
		return
	}
	records, ok := loadRecords(c, s)
	if !ok {
		return
	}

	patients, err := materializeAll(records)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to materialize patients",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patients retrieved",
		Data: patients,
	})
}

// GetPatientInfo returns one materialized patient by id.
func GetPatientInfo(c *gin.Context) {
	id, ok := getIDParam(c)
	if !ok {
		return
	}
	s, ok := ensureStore(c)
	if !ok {
		return
	}
	records, ok := loadRecords(c, s)
	if !ok {
		return
	}

	raw, exists := records[id]
	if !exists {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Patient not found",
			Err: model.ErrNotFound,
		})
		return
	}

	patient, err := model.Validate(id, raw)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to materialize patient",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient retrieved",
		Data: patient,
	})
}

// sortKey returns the comparable value of a patient for the given field.
// A nil BMI sorts below every computed value.
func sortKey(p model.Patient, field string) (float64, bool) {
	switch field {
	case "height":
		return p.Height, true
	case "weight":
		return p.Weight, true
	default: // bmi
		if p.BMI == nil {
			return 0, false
		}
		return *p.BMI, true
	}
}

// SortPatients returns all patients ordered by height, weight, or bmi.
// Unknown fields or directions are rejected before the store is read.
func SortPatients(c *gin.Context) {
	sortBy := c.Query("sort_by")
	if !util.Contains(sortBy, sortableFields) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: fmt.Sprintf("Invalid sort_by field. Must be one of %v", sortableFields),
			Err: fmt.Errorf("unsupported sort field: %q", sortBy),
		})
		return
	}
	order := strings.ToLower(c.DefaultQuery("order", "asc"))
	if order != "asc" && order != "desc" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid order. Must be 'asc' or 'desc'",
			Err: fmt.Errorf("unsupported sort order: %q", order),
		})
		return
	}

	s, ok := ensureStore(c)
	if !ok {
		return
	}
	records, ok := loadRecords(c, s)
	if !ok {
		return
	}

	byID, err := materializeAll(records)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to materialize patients",
			Err: err,
		})
		return
	}

	patients := make([]model.Patient, 0, len(byID))
	for _, p := range byID {
		patients = append(patients, p)
	}

	sort.SliceStable(patients, func(i, j int) bool {
		a, aOK := sortKey(patients[i], sortBy)
		b, bOK := sortKey(patients[j], sortBy)
		if aOK != bOK {
			// Records without a BMI come first in ascending order.
			less := !aOK
			if order == "desc" {
				return !less
			}
			return less
		}
		if order == "desc" {
			return a > b
		}
		return a < b
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patients sorted",
		Data: patients,
	})
}

type createPatientRequest struct {
	ID     string   `json:"id"`
	Name   *string  `json:"name"`
	City   *string  `json:"city"`
	Age    *int     `json:"age"`
	Height *float64 `json:"height"`
	Weight *float64 `json:"weight"`
	Gender *string  `json:"gender"`
}

// raw returns the supplied fields as a raw record, leaving omitted fields
// absent so validation can name them.
func (r createPatientRequest) raw() model.Raw {
	raw := model.Raw{}
	if r.Name != nil {
		raw["name"] = *r.Name
	}
	if r.City != nil {
		raw["city"] = *r.City
	}
	if r.Age != nil {
		raw["age"] = *r.Age
	}
	if r.Height != nil {
		raw["height"] = *r.Height
	}
	if r.Weight != nil {
		raw["weight"] = *r.Weight
	}
	if r.Gender != nil {
		raw["gender"] = *r.Gender
	}
	return raw
}

// respondRecordError maps a validation failure to a user error response.
func respondRecordError(c *gin.Context, err error) {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: fmt.Sprintf("Invalid patient field: %s", ve.Field),
			Err: err,
		})
		return
	}
	util.CallUserError(c, util.APIErrorParams{
		Msg: "Invalid patient record",
		Err: err,
	})
}

// CreatePatient registers a new patient. The id is caller-supplied and
// must not collide with an existing record. The persisted form carries
// the primary fields only; derived fields are stripped.
func CreatePatient(c *gin.Context) {
	req := createPatientRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if req.ID == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Missing patient ID",
			Err: fmt.Errorf("patient ID is required"),
		})
		return
	}

	patient, err := model.Validate(req.ID, req.raw())
	if err != nil {
		respondRecordError(c, err)
		return
	}

	s, ok := ensureStore(c)
	if !ok {
		return
	}
	records, ok := loadRecords(c, s)
	if !ok {
		return
	}

	if _, exists := records[patient.ID]; exists {
		util.CallErrorConflict(c, util.APIErrorParams{
			Msg: "Patient ID already exists",
			Err: model.ErrIDExists,
		})
		return
	}

	records[patient.ID] = model.Flatten(patient)
	if err := s.Save(records); err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to persist patient",
			Err: err,
		})
		return
	}

	util.CallSuccessCreated(c, util.APISuccessParams{
		Msg:  "Patient created",
		Data: patient,
	})
}

// UpdatePatient applies a sparse update to an existing patient. Only the
// fields present in the payload overwrite stored values; the merged record
// is re-validated (re-deriving bmi) before anything is persisted, so a
// failed update leaves the stored record unmodified.
func UpdatePatient(c *gin.Context) {
	id, ok := getIDParam(c)
	if !ok {
		return
	}

	upd := model.PatientUpdate{}
	if err := c.ShouldBindJSON(&upd); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	s, ok := ensureStore(c)
	if !ok {
		return
	}
	records, ok := loadRecords(c, s)
	if !ok {
		return
	}

	existing, exists := records[id]
	if !exists {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Patient not found",
			Err: model.ErrNotFound,
		})
		return
	}

	patient, err := model.Merge(id, existing, upd)
	if err != nil {
		respondRecordError(c, err)
		return
	}

	records[id] = model.Flatten(patient)
	if err := s.Save(records); err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to persist patient",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient updated",
		Data: patient,
	})
}

// DeletePatient removes a patient by id.
func DeletePatient(c *gin.Context) {
	id, ok := getIDParam(c)
	if !ok {
		return
	}
	s, ok := ensureStore(c)
	if !ok {
		return
	}
	records, ok := loadRecords(c, s)
	if !ok {
		return
	}

	if _, exists := records[id]; !exists {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Patient not found",
			Err: model.ErrNotFound,
		})
		return
	}

	delete(records, id)
	if err := s.Save(records); err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to persist patient store",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Patient deleted",
	})
}
