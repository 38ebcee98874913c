package store

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"patient-records-api/model"
)

// PatientRecord is the database row form of one raw record: the id as
// primary key and the remaining fields as a JSON document.
type PatientRecord struct {
	PatientID string         `gorm:"column:patient_id;primaryKey;size:64"`
	Doc       datatypes.JSON `gorm:"column:doc;type:json"`
}

// DBStore keeps the collection in a relational table with the same
// whole-snapshot Load/Save contract as FileStore.
type DBStore struct {
	db *gorm.DB
}

// NewDBStore returns a DBStore backed by the given gorm connection.
// The PatientRecord table must already be migrated.
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Load() (map[string]model.Raw, error) {
	var rows []PatientRecord
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read patient store: %w", err)
	}

	records := make(map[string]model.Raw, len(rows))
	for _, row := range rows {
		raw := model.Raw{}
		if err := json.Unmarshal(row.Doc, &raw); err != nil {
			return nil, fmt.Errorf("decode patient record %s: %w", row.PatientID, err)
		}
		records[row.PatientID] = raw
	}
	return records, nil
}

// Save rewrites the table from the snapshot in a single transaction.
func (s *DBStore) Save(records map[string]model.Raw) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&PatientRecord{}).Error; err != nil {
			return fmt.Errorf("clear patient store: %w", err)
		}
		for id, raw := range records {
			doc, err := json.Marshal(raw)
			if err != nil {
				return fmt.Errorf("encode patient record %s: %w", id, err)
			}
			row := PatientRecord{PatientID: id, Doc: datatypes.JSON(doc)}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("write patient record %s: %w", id, err)
			}
		}
		return nil
	})
}
