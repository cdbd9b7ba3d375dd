package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	dbcontext "github.com/shepherrrd/hybrid/internal/context"
	"github.com/shepherrrd/hybrid/internal/drivers"
	"github.com/shepherrrd/hybrid/internal/orm"
	"github.com/shepherrrd/hybrid/internal/queryset"
	"github.com/shepherrrd/hybrid/internal/sample"
)

// sampleProperties maps property names to their expression factories
var sampleProperties = map[string]func(args ...any) *orm.Expression{
	sample.Approved.Name():            sample.Approved.Expr,
	sample.TotalNotes.Name():          sample.TotalNotes.Expr,
	sample.NotesConcat.Name():         sample.NotesConcat.Expr,
	sample.NotesMultiplication.Name(): sample.NotesMultiplication.Expr,
	sample.FullName.Name():            sample.FullName.Expr,
	sample.BirthDatetime.Name():       sample.BirthDatetime.Expr,
}

// dryRunDSN is used when the configured driver differs from the requested one. Dry-run sessions
// never connect.
var dryRunDSN = map[string]string{
	"postgres": "host=localhost user=hybrid dbname=hybrid sslmode=disable",
	"mysql":    "hybrid@tcp(localhost:3306)/hybrid?parseTime=true",
	"sqlite":   "file:hybrid_sql?mode=memory&cache=shared",
}

type SQLOptions struct {
	Driver     string
	Model      string
	Property   string
	Lookup     string
	Value      string
	Args       []int
	Through    string
	IgnoreCase bool
	Exclude    bool
}

type SQLResult struct {
	Driver string `json:"driver" yaml:"driver"`
	SQL    string `json:"sql" yaml:"sql"`
}

func (r SQLResult) RenderText(w io.Writer) error {
	_, err := fmt.Fprintln(w, r.SQL)
	return err
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SQLOptions{}

	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the SQL a hybrid filter compiles to",
		Long: `Build a filter on a sample model from a hybrid property and a lookup, and print the
statement the chosen driver would run. Nothing is executed.`,
		Example: `  hybrid sql --driver postgres --property total_notes --lookup gt --value 3
  hybrid sql --model profile --property full_name --through person --ignore-case --value "gabriel smith"`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Driver == "" {
				opts.Driver = rootOpts.Config().Database.Driver
			}
			sql, err := renderSQL(opts)
			if err != nil {
				return err
			}
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Write(SQLResult{Driver: opts.Driver, SQL: sql})
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", "", "sqlite, postgres or mysql (default from config)")
	cmd.Flags().StringVar(&opts.Model, "model", "person", "person or profile")
	cmd.Flags().StringVarP(&opts.Property, "property", "p", "full_name", "hybrid property name")
	cmd.Flags().StringVarP(&opts.Lookup, "lookup", "l", "exact", "lookup to compare with")
	cmd.Flags().StringVar(&opts.Value, "value", "", "value to compare with; integers are passed as numbers")
	cmd.Flags().IntSliceVar(&opts.Args, "arg", nil, "positional property arguments")
	cmd.Flags().StringVar(&opts.Through, "through", "", "relation path to reach the person fields")
	cmd.Flags().BoolVar(&opts.IgnoreCase, "ignore-case", false, "use the case-insensitive lookup")
	cmd.Flags().BoolVar(&opts.Exclude, "exclude", false, "exclude instead of filter")

	return cmd
}

func renderSQL(opts *SQLOptions) (string, error) {
	factory, ok := sampleProperties[opts.Property]
	if !ok {
		names := make([]string, 0, len(sampleProperties))
		for name := range sampleProperties {
			names = append(names, name)
		}
		sort.Strings(names)
		return "", fmt.Errorf("unknown property %q, expected one of %v", opts.Property, names)
	}

	driver, err := drivers.ByName(opts.Driver)
	if err != nil {
		return "", err
	}
	db, err := dbcontext.NewDbContext(dbcontext.DbContextOptions{
		ConnectionString: dryRunDSN[driver.Name()],
		Driver:           driver,
		DryRun:           true,
	})
	if err != nil {
		return "", err
	}

	var call []any
	for _, a := range opts.Args {
		call = append(call, a)
	}
	if opts.Through != "" {
		call = append(call, orm.Through(opts.Through))
	}
	if opts.IgnoreCase {
		call = append(call, orm.IgnoreCase())
	}
	result := factory(call...).Lookup(opts.Lookup, parseValue(opts.Value))

	switch opts.Model {
	case "person":
		return filterSQL[sample.Person](db, result, opts.Exclude)
	case "profile":
		return filterSQL[sample.Profile](db, result, opts.Exclude)
	default:
		return "", fmt.Errorf("unknown model %q, expected person or profile", opts.Model)
	}
}

func filterSQL[T any](db *dbcontext.DbContext, result *orm.Result, exclude bool) (string, error) {
	var zero T
	model, err := db.RegisterEntity(zero)
	if err != nil {
		return "", err
	}
	manager := queryset.NewManager[T](db.GetDB(), db.GetDriver().Dialect(), model)
	if exclude {
		return manager.Exclude(result).ToSQL()
	}
	return manager.Filter(result).ToSQL()
}

func parseValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}
