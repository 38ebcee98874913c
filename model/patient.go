package model

import (
	"fmt"
	"math"
)

// Raw is a stored patient record as it lives in the store: a plain
// field-name to value mapping without the record's id and without any
// derived fields.
type Raw map[string]interface{}

// Genders enumerates the accepted values for the gender field.
var Genders = []string{"Male", "Female", "Other"}

// Patient is a validated, fully materialized record. BMI and BMICategory
// are derived from height and weight on every materialization and are
// never written back to the store.
type Patient struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	City        string   `json:"city"`
	Age         int      `json:"age"`
	Height      float64  `json:"height"`
	Weight      float64  `json:"weight"`
	Gender      string   `json:"gender"`
	BMI         *float64 `json:"bmi"`
	BMICategory string   `json:"bmi_category"`
}

// PatientUpdate is the sparse payload for partial updates. Pointer fields
// distinguish "not supplied" (nil) from an explicitly supplied zero value.
// It deliberately has no id field; identity is taken from the request path.
type PatientUpdate struct {
	Name   *string  `json:"name"`
	City   *string  `json:"city"`
	Age    *int     `json:"age"`
	Height *float64 `json:"height"`
	Weight *float64 `json:"weight"`
	Gender *string  `json:"gender"`
}

// ComputeBMI returns weight / height² when both values are non-zero,
// nil otherwise.
func ComputeBMI(height, weight float64) *float64 {
	if height == 0 || weight == 0 {
		return nil
	}
	bmi := weight / (height * height)
	return &bmi
}

// BMICategory classifies a BMI value. A nil BMI is "Unknown". The
// thresholds intentionally leave [24.9, 25) to fall through to "Obesity";
// changing them needs product sign-off.
func BMICategory(bmi *float64) string {
	switch {
	case bmi == nil:
		return "Unknown"
	case *bmi < 18.5:
		return "Underweight"
	case *bmi < 24.9:
		return "Normal weight"
	case *bmi >= 25 && *bmi < 29.9:
		return "Overweight"
	default:
		return "Obesity"
	}
}

// Validate turns a raw stored record into a Patient. All six primary
// fields must be present and correctly typed, name and city non-empty,
// and gender one of Genders. Derived fields are attached on success.
func Validate(id string, raw Raw) (Patient, error) {
	name, err := stringField(raw, "name")
	if err != nil {
		return Patient{}, err
	}
	city, err := stringField(raw, "city")
	if err != nil {
		return Patient{}, err
	}
	age, err := intField(raw, "age")
	if err != nil {
		return Patient{}, err
	}
	height, err := floatField(raw, "height")
	if err != nil {
		return Patient{}, err
	}
	weight, err := floatField(raw, "weight")
	if err != nil {
		return Patient{}, err
	}
	gender, err := stringField(raw, "gender")
	if err != nil {
		return Patient{}, err
	}
	if !containsString(Genders, gender) {
		return Patient{}, &ValidationError{
			Field:  "gender",
			Reason: fmt.Sprintf("must be one of %v", Genders),
		}
	}

	bmi := ComputeBMI(height, weight)
	return Patient{
		ID:          id,
		Name:        name,
		City:        city,
		Age:         age,
		Height:      height,
		Weight:      weight,
		Gender:      gender,
		BMI:         bmi,
		BMICategory: BMICategory(bmi),
	}, nil
}

// Flatten returns the raw form of a Patient for persistence: primary
// fields only, id and derived fields stripped.
func Flatten(p Patient) Raw {
	return Raw{
		"name":   p.Name,
		"city":   p.City,
		"age":    p.Age,
		"height": p.Height,
		"weight": p.Weight,
		"gender": p.Gender,
	}
}

func stringField(raw Raw, field string) (string, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return "", &ValidationError{Field: field, Reason: "field is required"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: field, Reason: "must be a string"}
	}
	if s == "" {
		return "", &ValidationError{Field: field, Reason: "must not be empty"}
	}
	return s, nil
}

// intField accepts the numeric types a raw record can carry depending on
// where it came from: float64 from JSON decoding, int from in-process maps.
// JSON-decoded values must be integral.
func intField(raw Raw, field string) (int, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return 0, &ValidationError{Field: field, Reason: "field is required"}
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, &ValidationError{Field: field, Reason: "must be an integer"}
		}
		return int(n), nil
	default:
		return 0, &ValidationError{Field: field, Reason: "must be an integer"}
	}
}

func floatField(raw Raw, field string) (float64, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return 0, &ValidationError{Field: field, Reason: "field is required"}
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, &ValidationError{Field: field, Reason: "must be a number"}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
