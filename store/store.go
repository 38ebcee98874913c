package store

import "patient-records-api/model"

// Store is the persistence collaborator holding the full id-keyed
// collection of raw patient records. Both operations work on the whole
// snapshot: Load returns every record, Save replaces the collection.
// Writes are last-write-wins; the store gives no cross-record
// transaction beyond snapshot atomicity.
type Store interface {
	Load() (map[string]model.Raw, error)
	Save(records map[string]model.Raw) error
}
