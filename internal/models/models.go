// package models defines the data model for the favorite task service
package models

import (
	"time"
)

// Model defines the base interface for all persistent models.
// Implementations include Draft and CachedUser.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// persisted holds the identity, sequence and timestamp fields shared by every persistent model.
type persisted struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func newPersisted(sequence int) persisted {
	now := time.Now()
	return persisted{sequence: sequence, createdAt: now, updatedAt: now}
}

func (p *persisted) ID() string { return p.id }
func (p *persisted) Sequence() int { return p.sequence }
func (p *persisted) CreatedAt() time.Time { return p.createdAt }
func (p *persisted) UpdatedAt() time.Time { return p.updatedAt }
func (p *persisted) DeletedAt() *time.Time { return p.deletedAt }
func (p *persisted) IsDeleted() bool { return p.deletedAt != nil }
func (p *persisted) SetID(id string) { p.id = id }
func (p *persisted) SetSequence(seq int) { p.sequence = seq }
func (p *persisted) SetCreatedAt(t time.Time) { p.createdAt = t }
func (p *persisted) SetUpdatedAt(t time.Time) { p.updatedAt = t }
func (p *persisted) SetDeletedAt(t *time.Time) { p.deletedAt = t }
