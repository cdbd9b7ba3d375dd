package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	dbcontext "github.com/shepherrrd/hybrid/internal/context"
	"github.com/shepherrrd/hybrid/internal/drivers"
	"github.com/shepherrrd/hybrid/internal/logging"
	"github.com/shepherrrd/hybrid/internal/orm"
	"github.com/shepherrrd/hybrid/internal/queryset"
	"github.com/shepherrrd/hybrid/internal/sample"
)

type DemoQuery struct {
	Title string           `json:"title" yaml:"title"`
	SQL   string           `json:"sql,omitempty" yaml:"sql,omitempty"`
	Rows  []map[string]any `json:"rows" yaml:"rows"`
}

type DemoResult struct {
	Driver  string      `json:"driver" yaml:"driver"`
	Queries []DemoQuery `json:"queries" yaml:"queries"`
}

func (r DemoResult) RenderText(w io.Writer) error {
	for _, q := range r.Queries {
		fmt.Fprintf(w, "== %s\n", q.Title)
		if q.SQL != "" {
			fmt.Fprintf(w, "   %s\n", q.SQL)
		}
		for _, row := range q.Rows {
			keys := make([]string, 0, len(row))
			for k := range row {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, len(keys))
			for i, k := range keys {
				parts[i] = fmt.Sprintf("%s=%v", k, row[k])
			}
			fmt.Fprintf(w, "   %s\n", strings.Join(parts, " "))
		}
	}
	return nil
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	var showSQL bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Seed the sample models and run hybrid queries against them",
		Long: `Create the Person and Profile tables in the configured database, insert two people
and run annotate, filter, exclude and Q queries built from their hybrid properties.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config()
			driver, err := drivers.ByName(cfg.Database.Driver)
			if err != nil {
				return err
			}
			db, err := dbcontext.NewDbContext(dbcontext.DbContextOptions{
				ConnectionString: cfg.Database.DSN,
				Driver:           driver,
				LogLevel:         cfg.Database.LogLevel,
			})
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := RunDemo(cmd.Context(), db, showSQL)
			if err != nil {
				return err
			}
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Write(result)
		},
	}

	cmd.Flags().BoolVar(&showSQL, "show-sql", false, "print the statement of every query")
	return cmd
}

// RunDemo seeds db and runs the demo queries
func RunDemo(ctx context.Context, db *dbcontext.DbContext, showSQL bool) (*DemoResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	personModel, err := db.RegisterEntity(sample.Person{})
	if err != nil {
		return nil, err
	}
	profileModel, err := db.RegisterEntity(sample.Profile{})
	if err != nil {
		return nil, err
	}
	if _, err := sample.Seed(ctx, db.GetDB()); err != nil {
		return nil, err
	}

	dialect := db.GetDriver().Dialect()
	people := queryset.NewManager[sample.Person](db.GetDB(), dialect, personModel)
	profiles := queryset.NewManager[sample.Profile](db.GetDB(), dialect, profileModel)

	result := &DemoResult{Driver: db.GetDriver().Name()}
	run := func(title string, values func() ([]map[string]any, error), toSQL func() (string, error)) error {
		rows, err := values()
		if err != nil {
			return fmt.Errorf("%s: %w", title, err)
		}
		q := DemoQuery{Title: title, Rows: rows}
		if showSQL {
			if q.SQL, err = toSQL(); err != nil {
				return fmt.Errorf("%s: %w", title, err)
			}
		}
		logging.Debug("demo query", "title", title, "rows", len(rows))
		result.Queries = append(result.Queries, q)
		return nil
	}

	annotated := people.Annotate(sample.FullName.Expr(), sample.TotalNotes.Expr(), sample.NotesConcat.Expr()).
		OrderBy("total_notes")
	if err := run("annotate full_name, total_notes, notes_concat", func() ([]map[string]any, error) {
		return annotated.Values(ctx, "full_name", "total_notes", "notes_concat")
	}, annotated.ToSQL); err != nil {
		return nil, err
	}

	approved := people.Filter(sample.Approved.Expr(6).Eq(true)).OrderBy("first_name")
	if err := run("filter approved(6)", func() ([]map[string]any, error) {
		return approved.Values(ctx, "first_name", "approved")
	}, approved.ToSQL); err != nil {
		return nil, err
	}

	excluded := people.Exclude(sample.TotalNotes.Expr().GT(3)).OrderBy("first_name")
	if err := run("exclude total_notes > 3", func() ([]map[string]any, error) {
		return excluded.Values(ctx, "full_name", "total_notes")
	}, excluded.ToSQL); err != nil {
		return nil, err
	}

	either := people.Filter(orm.NewQ(sample.FullName.Expr().Eq("Lautaro Redbear")).
		Or(orm.NewQ(sample.NotesMultiplication.Expr(10).GTE(120)))).OrderBy("first_name")
	if err := run("Q(full_name) | Q(notes_multiplication(10) >= 120)", func() ([]map[string]any, error) {
		return either.Values(ctx, "full_name", "notes_multiplication")
	}, either.ToSQL); err != nil {
		return nil, err
	}

	through := profiles.Filter(sample.FullName.Expr(orm.Through("person"), orm.IgnoreCase()).Eq("gabriel smith"))
	if err := run("profiles where person full_name iexact 'gabriel smith'", func() ([]map[string]any, error) {
		return through.Values(ctx, "age", "full_name")
	}, through.ToSQL); err != nil {
		return nil, err
	}

	return result, nil
}
