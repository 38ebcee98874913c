package model

// Merge overlays the supplied fields of a PatientUpdate onto an existing
// raw record and re-validates the result, which re-derives bmi and
// bmi_category. Fields left nil in the update keep their stored value.
// The caller-supplied id always wins; a payload cannot alter identity.
//
// The input map is not mutated, so a merge that fails validation leaves
// the stored record exactly as it was.
func Merge(id string, existing Raw, upd PatientUpdate) (Patient, error) {
	merged := make(Raw, len(existing))
	for k, v := range existing {
		merged[k] = v
	}

	if upd.Name != nil {
		merged["name"] = *upd.Name
	}
	if upd.City != nil {
		merged["city"] = *upd.City
	}
	if upd.Age != nil {
		merged["age"] = *upd.Age
	}
	if upd.Height != nil {
		merged["height"] = *upd.Height
	}
	if upd.Weight != nil {
		merged["weight"] = *upd.Weight
	}
	if upd.Gender != nil {
		merged["gender"] = *upd.Gender
	}

	return Validate(id, merged)
}
