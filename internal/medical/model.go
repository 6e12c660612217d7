package medical

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Profile is the demographic part of a subject's data.
type Profile struct {
	SubjectID   uuid.UUID  `json:"subject_id" db:"subject_id"`
	FirstName   string     `json:"first_name" db:"first_name"`
	LastName    string     `json:"last_name" db:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Gender      Gender     `json:"gender,omitempty" db:"gender"`
}

type Condition struct {
	Name     string `json:"name"`
	Severity string `json:"severity,omitempty"`
}

type Allergy struct {
	Name     string `json:"name"`
	Reaction string `json:"reaction,omitempty"`
	Severity string `json:"severity,omitempty"`
}

type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

// MedicalRecord holds the clinical data a subject keeps about themselves.
// Height is in centimetres, weight in kilograms.
type MedicalRecord struct {
	SubjectID   uuid.UUID    `json:"subject_id" db:"subject_id"`
	Height      *float64     `json:"height,omitempty" db:"height"`
	Weight      *float64     `json:"weight,omitempty" db:"weight"`
	BloodType   string       `json:"blood_type,omitempty" db:"blood_type"`
	Conditions  []Condition  `json:"conditions" db:"conditions"`
	Allergies   []Allergy    `json:"allergies" db:"allergies"`
	Medications []Medication `json:"medications" db:"medications"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// BMI returns weight / height(m)^2 rounded to one decimal, or false when
// either measurement is missing.
func (r *MedicalRecord) BMI() (float64, bool) {
	if r == nil || r.Height == nil || r.Weight == nil || *r.Height <= 0 || *r.Weight <= 0 {
		return 0, false
	}
	h := *r.Height / 100
	bmi := *r.Weight / (h * h)
	return math.Round(bmi*10) / 10, true
}
