package sample

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// People returns the two fixture people: notes (1, 2) and (3, 4)
func People() []Person {
	return []Person{
		{
			FirstNote:  1,
			SecondNote: 2,
			FirstName:  "Lautaro",
			LastName:   "Redbear",
			Datetime:   time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC),
		},
		{
			FirstNote:  3,
			SecondNote: 4,
			FirstName:  "Gabriel",
			LastName:   "Smith",
			Datetime:   time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC),
		},
	}
}

// Seed creates the tables and inserts People with profiles aged 20 and 30.
func Seed(ctx context.Context, db *gorm.DB) ([]Person, error) {
	if err := db.WithContext(ctx).AutoMigrate(&Person{}, &Profile{}); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	people := People()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range people {
			if err := tx.Create(&people[i]).Error; err != nil {
				return err
			}
			profile := Profile{PersonID: people[i].ID, Age: 20 + 10*i}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
			people[i].Profile = &profile
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed sample data: %w", err)
	}
	return people, nil
}
