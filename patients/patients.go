// Package patients enumerates the patients followed by each caregiver.
package patients

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tidepool-org/caretrack/store"
)

const CollectionName = "patients"

const DefaultName = "your patient"

type Patient struct {
	Id        *primitive.ObjectID `bson:"_id,omitempty"`
	UserId    string              `bson:"userId"`
	PatientId string              `bson:"patientId"`
	Name      *string             `bson:"name,omitempty"`
}

// DisplayName returns the name to use in notifications
func (p Patient) DisplayName() string {
	if p.Name == nil || *p.Name == "" {
		return DefaultName
	}
	return *p.Name
}

type Repository interface {
	// List returns patients of all users ordered by insertion
	List(ctx context.Context, pagination store.Pagination) ([]Patient, error)
}

// ForEach calls fn for every patient, page by page. Iteration stops at the first error
// returned by the repository or fn.
func ForEach(ctx context.Context, repo Repository, fn func(patient Patient) error) error {
	pagination := store.DefaultPagination()
	for {
		page, err := repo.List(ctx, pagination)
		if err != nil {
			return err
		}
		for _, patient := range page {
			if err := fn(patient); err != nil {
				return err
			}
		}
		if len(page) < pagination.Limit {
			return nil
		}
		pagination = pagination.Next()
	}
}
