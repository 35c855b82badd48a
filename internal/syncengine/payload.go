package syncengine

import (
	"fmt"

	"github.com/meltforce/ironlog/internal/entity"
	"github.com/meltforce/ironlog/internal/models"
)

// binding connects a kind to its field in SyncData.
type binding struct {
	items func(d *models.SyncData) []models.Syncable
	fill  func(d *models.SyncData, recs []entity.Record) error
}

func sliceBinding[T any, PT interface {
	*T
	models.Syncable
}](field func(*models.SyncData) *[]T) binding {
	return binding{
		items: func(d *models.SyncData) []models.Syncable {
			s := *field(d)
			out := make([]models.Syncable, 0, len(s))
			for i := range s {
				out = append(out, PT(&s[i]))
			}
			return out
		},
		fill: func(d *models.SyncData, recs []entity.Record) error {
			v, err := entity.DecodeAll[T, PT](recs)
			if err != nil {
				return err
			}
			*field(d) = v
			return nil
		},
	}
}

// singleBinding is for per-user singletons; when several rows exist the most
// recently updated one is used.
func singleBinding[T any, PT interface {
	*T
	models.Syncable
}](field func(*models.SyncData) **T) binding {
	return binding{
		items: func(d *models.SyncData) []models.Syncable {
			if p := *field(d); p != nil {
				return []models.Syncable{PT(p)}
			}
			return nil
		},
		fill: func(d *models.SyncData, recs []entity.Record) error {
			rec, ok := entity.Latest(recs)
			if !ok {
				*field(d) = nil
				return nil
			}
			v, err := entity.Decode[T, PT](rec)
			if err != nil {
				return err
			}
			*field(d) = &v
			return nil
		},
	}
}

var bindings = map[entity.Kind]binding{
	entity.KindExercise:          sliceBinding(func(d *models.SyncData) *[]models.Exercise { return &d.Exercises }),
	entity.KindProgram:           sliceBinding(func(d *models.SyncData) *[]models.Program { return &d.Programs }),
	entity.KindTrainingDay:       sliceBinding(func(d *models.SyncData) *[]models.TrainingDay { return &d.TrainingDays }),
	entity.KindWorkoutLog:        sliceBinding(func(d *models.SyncData) *[]models.WorkoutLog { return &d.WorkoutLogs }),
	entity.KindPersonalRecord:    sliceBinding(func(d *models.SyncData) *[]models.PersonalRecord { return &d.PersonalRecords }),
	entity.KindSettings:          singleBinding(func(d *models.SyncData) **models.UserSettings { return &d.Settings }),
	entity.KindOnboardingProfile: singleBinding(func(d *models.SyncData) **models.OnboardingProfile { return &d.OnboardingProfile }),
	entity.KindAchievement:       sliceBinding(func(d *models.SyncData) *[]models.Achievement { return &d.Achievements }),
}

// Flatten converts a payload into records owned by userID, in registry order.
// Each record keeps the entity's own updatedAt.
func Flatten(userID string, d *models.SyncData) ([]entity.Record, error) {
	var out []entity.Record
	for _, spec := range entity.Registry {
		for _, v := range bindings[spec.Kind].items(d) {
			rec, err := entity.Encode(spec.Kind, userID, v, v.SyncUpdatedAt())
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

// Assemble groups records back into a payload. Kinds without records stay empty.
func Assemble(recs []entity.Record) (*models.SyncData, error) {
	byKind := make(map[entity.Kind][]entity.Record)
	for _, r := range recs {
		byKind[r.Kind] = append(byKind[r.Kind], r)
	}
	d := &models.SyncData{}
	for kind, group := range byKind {
		b, ok := bindings[kind]
		if !ok {
			return nil, fmt.Errorf("assembling payload: unknown kind %q", kind)
		}
		if err := b.fill(d, group); err != nil {
			return nil, err
		}
	}
	d.EnsureSlices()
	return d, nil
}
