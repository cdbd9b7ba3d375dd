// Package sample declares the Person and Profile models used by the tests, the example program
// and the CLI demo.
package sample

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shepherrrd/hybrid/internal/expr"
	"github.com/shepherrrd/hybrid/internal/orm"
)

type Person struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	FirstNote  int       `gorm:"not null"`
	SecondNote int       `gorm:"not null"`
	FirstName  string    `gorm:"size:63;not null"`
	LastName   string    `gorm:"size:63;not null"`
	Datetime   time.Time `gorm:"not null"`
	Profile    *Profile  `gorm:"constraint:OnDelete:CASCADE"`
}

func (Person) TableName() string { return "people" }

func (p *Person) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Profile is one-to-one with Person
type Profile struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	PersonID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Person   *Person
	Age      int `gorm:"not null;check:age <= 100"`
}

func (Profile) TableName() string { return "profiles" }

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func sum(through string) expr.X {
	return expr.F(through + "first_note").Add(expr.F(through + "second_note"))
}

// Approved reports whether the notes add up to more than n
var Approved = orm.NewProperty("approved", func(p *Person, args orm.Args) bool {
	return p.FirstNote+p.SecondNote > args.Int("n", 0, 0)
}).WithDoc("Approved(n) reports whether first_note + second_note > n.").
	Expression(func(args orm.Args, through string) expr.Expr {
		return expr.Case(expr.When(sum(through).GT(args.Int("n", 0, 0)), true)).Else(false)
	})

var TotalNotes = orm.NewProperty("total_notes", func(p *Person, _ orm.Args) int {
	return p.FirstNote + p.SecondNote
}).Expression(func(_ orm.Args, through string) expr.Expr {
	return sum(through)
})

var NotesConcat = orm.NewProperty("notes_concat", func(p *Person, _ orm.Args) string {
	return fmt.Sprintf("%d - %d", p.FirstNote, p.SecondNote)
}).Expression(func(_ orm.Args, through string) expr.Expr {
	return expr.Concat(through+"first_note", expr.Value(" - "), through+"second_note")
})

// NotesMultiplication is first_note * second_note * n
var NotesMultiplication = orm.NewProperty("notes_multiplication", func(p *Person, args orm.Args) int {
	return p.FirstNote * p.SecondNote * args.Int("n", 0, 0)
}).Expression(func(args orm.Args, through string) expr.Expr {
	return expr.F(through + "first_note").Mul(expr.F(through + "second_note")).Mul(args.Int("n", 0, 0))
})

var FullName = orm.NewProperty("full_name", func(p *Person, _ orm.Args) string {
	return p.FirstName + " " + p.LastName
}).WithDoc("FullName is the first and last name separated by a space.").
	Expression(func(_ orm.Args, through string) expr.Expr {
		return expr.Concat(through+"first_name", expr.Value(" "), through+"last_name")
	})

var BirthDatetime = orm.NewProperty("birth_datetime", func(p *Person, _ orm.Args) time.Time {
	return p.Datetime
}).Expression(func(_ orm.Args, through string) expr.Expr {
	return expr.F(through + "datetime")
})
