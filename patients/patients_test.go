package patients_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tidepool-org/caretrack/patients"
	patientsTest "github.com/tidepool-org/caretrack/patients/test"
	"github.com/tidepool-org/caretrack/store"
)

var _ = Describe("Patients", func() {
	Describe("DisplayName", func() {
		It("falls back to a generic name", func() {
			empty := ""
			Expect(patients.Patient{}.DisplayName()).To(Equal("your patient"))
			Expect(patients.Patient{Name: &empty}.DisplayName()).To(Equal("your patient"))
		})

		It("returns the patient name", func() {
			patient := patientsTest.RandomPatient()
			Expect(patient.DisplayName()).To(Equal(*patient.Name))
		})
	})

	Describe("ForEach", func() {
		It("visits every page", func() {
			count := store.DefaultPagination().Limit + 5
			repo := patientsTest.NewRepository()
			for i := 0; i < count; i++ {
				repo.Patients = append(repo.Patients, patientsTest.RandomPatient())
			}

			visited := 0
			Expect(patients.ForEach(context.Background(), repo, func(patient patients.Patient) error {
				visited++
				return nil
			})).To(Succeed())
			Expect(visited).To(Equal(count))
		})

		It("stops at the first error", func() {
			repo := patientsTest.NewRepository(patientsTest.RandomPatient(), patientsTest.RandomPatient())
			failure := errors.New("stop")

			visited := 0
			err := patients.ForEach(context.Background(), repo, func(patient patients.Patient) error {
				visited++
				return failure
			})
			Expect(err).To(MatchError(failure))
			Expect(visited).To(Equal(1))
		})
	})
})
