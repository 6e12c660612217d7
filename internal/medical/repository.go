package medical

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type postgresRecordStore struct {
	db *sql.DB
}

func NewRecordStore(db *sql.DB) RecordStore {
	return &postgresRecordStore{db: db}
}

func (r *postgresRecordStore) FindMedicalRecord(ctx context.Context, subjectID uuid.UUID) (*MedicalRecord, error) {
	query := `SELECT subject_id, height, weight, blood_type, conditions, allergies, medications, updated_at
		FROM medical_records WHERE subject_id = $1`

	row := r.db.QueryRowContext(ctx, query, subjectID)

	var (
		rec                                            MedicalRecord
		height, weight                                 sql.NullFloat64
		bloodType                                      sql.NullString
		conditionsJSON, allergiesJSON, medicationsJSON []byte
	)
	err := row.Scan(
		&rec.SubjectID,
		&height,
		&weight,
		&bloodType,
		&conditionsJSON,
		&allergiesJSON,
		&medicationsJSON,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if height.Valid {
		rec.Height = &height.Float64
	}
	if weight.Valid {
		rec.Weight = &weight.Float64
	}
	rec.BloodType = bloodType.String

	if err := unmarshalList(conditionsJSON, &rec.Conditions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
	}
	if err := unmarshalList(allergiesJSON, &rec.Allergies); err != nil {
		return nil, fmt.Errorf("failed to unmarshal allergies: %w", err)
	}
	if err := unmarshalList(medicationsJSON, &rec.Medications); err != nil {
		return nil, fmt.Errorf("failed to unmarshal medications: %w", err)
	}

	return &rec, nil
}

type postgresProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) ProfileStore {
	return &postgresProfileStore{db: db}
}

func (r *postgresProfileStore) FindProfile(ctx context.Context, subjectID uuid.UUID) (*Profile, error) {
	query := `SELECT subject_id, first_name, last_name, date_of_birth, gender FROM profiles WHERE subject_id = $1`

	row := r.db.QueryRowContext(ctx, query, subjectID)

	var (
		p                   Profile
		firstName, lastName sql.NullString
		dob                 sql.NullTime
		gender              sql.NullString
	)
	if err := row.Scan(&p.SubjectID, &firstName, &lastName, &dob, &gender); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	p.FirstName = firstName.String
	p.LastName = lastName.String
	p.Gender = Gender(gender.String)
	if dob.Valid {
		p.DateOfBirth = &dob.Time
	}
	return &p, nil
}

func unmarshalList[T any](data []byte, out *[]T) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
