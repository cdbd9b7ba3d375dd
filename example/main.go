package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shepherrrd/hybrid"
)

// User entity - represents a user in our system
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username  string    `gorm:"uniqueIndex;not null"`
	FirstName string    `gorm:"not null"`
	LastName  string    `gorm:"not null"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
}

// Post entity - represents a blog post
type Post struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title     string    `gorm:"not null"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null"`
	Author    *User     `gorm:"foreignKey:AuthorID"`
	Views     int       `gorm:"not null;default:0"`
	Likes     int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (p *Post) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// DisplayName works on a loaded user and inside queries on users or, through "author", on posts
var DisplayName = hybrid.NewProperty("display_name", func(u *User, _ hybrid.Args) string {
	return u.FirstName + " " + u.LastName
}).Expression(func(_ hybrid.Args, through string) hybrid.Expr {
	return hybrid.Concat(through+"first_name", hybrid.Value(" "), through+"last_name")
})

// Score weighs likes against views: likes*weight + views
var Score = hybrid.NewProperty("score", func(p *Post, args hybrid.Args) int {
	return p.Likes*args.Int("weight", 0, 10) + p.Views
}).Expression(func(args hybrid.Args, through string) hybrid.Expr {
	return hybrid.F(through + "likes").Mul(args.Int("weight", 0, 10)).Add(hybrid.F(through + "views"))
})

// BlogContext - a DbContext with the managers of its models
type BlogContext struct {
	*hybrid.DbContext
	Users *hybrid.Manager[User]
	Posts *hybrid.Manager[Post]
}

func NewBlogContext(connectionString string) (*BlogContext, error) {
	ctx, err := hybrid.NewDbContext(connectionString, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to create database context: %w", err)
	}

	users, err := hybrid.Objects[User](ctx)
	if err != nil {
		return nil, err
	}
	posts, err := hybrid.Objects[Post](ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.EnsureCreated(); err != nil {
		return nil, err
	}

	return &BlogContext{DbContext: ctx, Users: users, Posts: posts}, nil
}

func main() {
	db, err := NewBlogContext("file:blog?mode=memory&cache=shared")
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()

	ada := &User{Username: "ada", FirstName: "Ada", LastName: "Lovelace", CreatedAt: time.Now()}
	alan := &User{Username: "alan", FirstName: "Alan", LastName: "Turing", CreatedAt: time.Now()}
	for _, u := range []*User{ada, alan} {
		if err := db.Users.Create(ctx, u); err != nil {
			log.Fatal(err)
		}
	}
	posts := []*Post{
		{Title: "Notes on the Analytical Engine", AuthorID: ada.ID, Views: 120, Likes: 30, CreatedAt: time.Now()},
		{Title: "Computing Machinery and Intelligence", AuthorID: alan.ID, Views: 400, Likes: 10, CreatedAt: time.Now()},
		{Title: "On Computable Numbers", AuthorID: alan.ID, Views: 50, Likes: 2, CreatedAt: time.Now()},
	}
	for _, p := range posts {
		if err := db.Posts.Create(ctx, p); err != nil {
			log.Fatal(err)
		}
	}

	// Value side
	fmt.Println("display name:", DisplayName.Value(ada))
	fmt.Println("score(weight=5):", Score.Value(posts[0], hybrid.Kw("weight", 5)))

	// Query side: annotate and filter by the same property
	popular := db.Posts.Filter(Score.Expr(hybrid.Kw("weight", 5)).GTE(200)).OrderBy("-score")
	rows, err := popular.Values(ctx, "title", "score")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("\nposts with score(weight=5) >= 200:")
	for _, row := range rows {
		fmt.Printf("  %v (%v)\n", row["title"], row["score"])
	}

	// Through a relation: posts whose author's display name starts with "alan", ignoring case
	byAlan := db.Posts.Filter(DisplayName.Expr(hybrid.Through("author"), hybrid.Alias("author_name")).IStartsWith("alan"))
	titles, err := hybrid.Pluck[string](ctx, byAlan.OrderBy("title"), "title")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("\nposts by alan:", titles)

	// Q combines results with AND, OR and NOT
	q := hybrid.NewQ(Score.Expr().GT(500)).Or(hybrid.NewQ(DisplayName.Expr(hybrid.Through("author")).Eq("Ada Lovelace")))
	n, err := db.Posts.Filter(q.Not()).Count(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("\nposts neither scoring above 500 nor by Ada:", n)

	sql, err := byAlan.ToSQL()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("\n" + sql)
}
