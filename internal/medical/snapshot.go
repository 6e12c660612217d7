package medical

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	unknownValue = "unknown"
	noneValue    = "none"
)

// RecordStore looks up a subject's medical record. A missing record is
// reported as (nil, nil).
type RecordStore interface {
	FindMedicalRecord(ctx context.Context, subjectID uuid.UUID) (*MedicalRecord, error)
}

// ProfileStore looks up a subject's profile. A missing profile is reported as
// (nil, nil).
type ProfileStore interface {
	FindProfile(ctx context.Context, subjectID uuid.UUID) (*Profile, error)
}

// Snapshot is the read-only medical context handed to the prompt composer.
// Zero values mean "unknown".
type Snapshot struct {
	Age         *int
	Gender      Gender
	Height      *float64
	Weight      *float64
	BMI         *float64
	BloodType   string
	Conditions  []string
	Allergies   []string
	Medications []string
}

// Render produces the fixed-shape context block. Every line is always present.
func (s Snapshot) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Age: %s\n", intOrUnknown(s.Age))
	fmt.Fprintf(&b, "- Gender: %s\n", stringOrUnknown(string(s.Gender)))
	fmt.Fprintf(&b, "- Height: %s cm\n", floatOrUnknown(s.Height))
	fmt.Fprintf(&b, "- Weight: %s kg\n", floatOrUnknown(s.Weight))
	fmt.Fprintf(&b, "- BMI: %s\n", floatOrUnknown(s.BMI))
	fmt.Fprintf(&b, "- Blood type: %s\n", stringOrUnknown(s.BloodType))
	fmt.Fprintf(&b, "- Medical history: %s\n", listOrNone(s.Conditions))
	fmt.Fprintf(&b, "- Allergies: %s\n", listOrNone(s.Allergies))
	fmt.Fprintf(&b, "- Current medications: %s", listOrNone(s.Medications))
	return b.String()
}

// Builder assembles a Snapshot from the record and profile stores.
type Builder struct {
	records  RecordStore
	profiles ProfileStore
	now      func() time.Time
}

func NewBuilder(records RecordStore, profiles ProfileStore) *Builder {
	return &Builder{records: records, profiles: profiles, now: time.Now}
}

// Build fetches both sources concurrently. The first store failure cancels the
// other fetch and is returned as is.
func (b *Builder) Build(ctx context.Context, subjectID uuid.UUID) (Snapshot, error) {
	var (
		record  *MedicalRecord
		profile *Profile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := b.records.FindMedicalRecord(gctx, subjectID)
		if err != nil {
			return fmt.Errorf("find medical record: %w", err)
		}
		record = r
		return nil
	})
	g.Go(func() error {
		p, err := b.profiles.FindProfile(gctx, subjectID)
		if err != nil {
			return fmt.Errorf("find profile: %w", err)
		}
		profile = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	return newSnapshot(record, profile, b.now()), nil
}

func newSnapshot(record *MedicalRecord, profile *Profile, now time.Time) Snapshot {
	var s Snapshot
	if profile != nil {
		s.Gender = profile.Gender
		if profile.DateOfBirth != nil {
			age := ageAt(*profile.DateOfBirth, now)
			s.Age = &age
		}
	}
	if record != nil {
		s.Height = copyFloat(record.Height)
		s.Weight = copyFloat(record.Weight)
		if bmi, ok := record.BMI(); ok {
			s.BMI = &bmi
		}
		s.BloodType = record.BloodType
		for _, c := range record.Conditions {
			s.Conditions = appendName(s.Conditions, c.Name)
		}
		for _, a := range record.Allergies {
			s.Allergies = appendName(s.Allergies, a.Name)
		}
		for _, m := range record.Medications {
			s.Medications = appendName(s.Medications, m.Name)
		}
	}
	return s
}

// ageAt counts whole years of 365.25 days.
func ageAt(dob, now time.Time) int {
	const year = 365.25 * 24 * float64(time.Hour)
	return int(float64(now.Sub(dob)) / year)
}

func appendName(names []string, name string) []string {
	if name = strings.TrimSpace(name); name == "" {
		return names
	}
	return append(names, name)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func intOrUnknown(v *int) string {
	if v == nil {
		return unknownValue
	}
	return strconv.Itoa(*v)
}

func floatOrUnknown(v *float64) string {
	if v == nil {
		return unknownValue
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func stringOrUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return unknownValue
	}
	return v
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return noneValue
	}
	return strings.Join(items, ", ")
}
