package test

import (
	"context"

	"github.com/tidepool-org/caretrack/patients"
	"github.com/tidepool-org/caretrack/store"
	"github.com/tidepool-org/caretrack/test"
)

type Repository struct {
	Patients []patients.Patient
	Err      error
}

var _ patients.Repository = &Repository{}

func NewRepository(items ...patients.Patient) *Repository {
	return &Repository{Patients: items}
}

func (r *Repository) List(_ context.Context, pagination store.Pagination) ([]patients.Patient, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if pagination.Offset >= len(r.Patients) {
		return nil, nil
	}
	end := min(pagination.Offset+pagination.Limit, len(r.Patients))
	return r.Patients[pagination.Offset:end], nil
}

func RandomPatient() patients.Patient {
	name := test.Faker.Person().FirstName()
	return patients.Patient{
		UserId:    test.RandomId(),
		PatientId: test.RandomId(),
		Name:      &name,
	}
}
