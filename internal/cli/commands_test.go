package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	dbcontext "github.com/shepherrrd/hybrid/internal/context"
	"github.com/shepherrrd/hybrid/internal/drivers"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSQLCommand(t *testing.T) {
	out, err := execute(t, "sql", "--driver", "postgres", "--property", "total_notes", "--lookup", "gt", "--value", "3")
	require.NoError(t, err)
	assert.Contains(t, out, `AS "total_notes"`)
	assert.Contains(t, out, `WHERE ((("people"."first_note" + "people"."second_note")) > 3)`)
}

func TestSQLCommand_Through(t *testing.T) {
	out, err := execute(t, "sql", "--driver", "mysql", "--model", "profile",
		"--through", "person", "--ignore-case", "--value", "gabriel smith", "--exclude")
	require.NoError(t, err)
	assert.Contains(t, out, "LEFT JOIN `people` `person`")
	assert.Contains(t, out, "WHERE `profiles`.`id` NOT IN (SELECT `profiles`.`id` FROM `profiles`")
	assert.Contains(t, out, "LIKE 'gabriel smith'")
}

func TestSQLCommand_JSON(t *testing.T) {
	out, err := execute(t, "sql", "--driver", "sqlite", "-p", "notes_multiplication", "--arg", "10", "-l", "gte", "--value", "120", "--format", "json")
	require.NoError(t, err)

	var result SQLResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "sqlite", result.Driver)
	assert.Contains(t, result.SQL, `AS "notes_multiplication"`)
	assert.Contains(t, result.SQL, ">= 120")
}

func TestSQLCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown property", []string{"sql", "--driver", "sqlite", "-p", "nickname"}, `unknown property "nickname"`},
		{"unknown model", []string{"sql", "--driver", "sqlite", "--model", "pet"}, `unknown model "pet"`},
		{"unknown driver", []string{"sql", "--driver", "oracle"}, "unsupported driver"},
		{"unknown lookup", []string{"sql", "--driver", "sqlite", "-l", "between"}, "unsupported lookup"},
		{"search on sqlite", []string{"sql", "--driver", "sqlite", "-l", "search", "--value", "x"}, "unsupported lookup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPropsCommand(t *testing.T) {
	out, err := execute(t, "props", "--format", "yaml", "--doc")
	require.NoError(t, err)

	var result PropsResult
	require.NoError(t, yaml.Unmarshal([]byte(out), &result))

	byName := make(map[string]PropertyInfo)
	for _, p := range result.Properties {
		byName[p.Name] = p
	}
	for _, name := range []string{"approved", "total_notes", "notes_concat", "notes_multiplication", "full_name", "birth_datetime"} {
		p, ok := byName[name]
		require.True(t, ok, name)
		assert.Equal(t, "Person", p.Model)
		assert.True(t, p.Registered)
		assert.True(t, p.SupportsThrough)
	}
	assert.Contains(t, byName["full_name"].Doc, "first and last name")
	assert.Contains(t, byName["full_name"].Doc, "Through(path)")
}

func TestPropsCommand_Text(t *testing.T) {
	out, err := execute(t, "props")
	require.NoError(t, err)
	assert.Contains(t, out, "Person.full_name (through)\n")
	assert.NotContains(t, out, "Query options")
}

func TestRunDemo(t *testing.T) {
	db, err := dbcontext.NewDbContext(dbcontext.DbContextOptions{
		ConnectionString: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		Driver:           drivers.NewSQLiteDriver(),
	})
	require.NoError(t, err)
	defer db.Close()

	result, err := RunDemo(context.Background(), db, true)
	require.NoError(t, err)
	require.Len(t, result.Queries, 5)
	assert.Equal(t, "sqlite", result.Driver)

	annotated := result.Queries[0]
	require.Len(t, annotated.Rows, 2)
	assert.Equal(t, "Lautaro Redbear", annotated.Rows[0]["full_name"])
	assert.EqualValues(t, 3, annotated.Rows[0]["total_notes"])
	assert.Equal(t, "3 - 4", annotated.Rows[1]["notes_concat"])
	assert.Contains(t, annotated.SQL, "SELECT")

	approved := result.Queries[1]
	require.Len(t, approved.Rows, 1)
	assert.Equal(t, "Gabriel", approved.Rows[0]["first_name"])

	excluded := result.Queries[2]
	require.Len(t, excluded.Rows, 1)
	assert.Equal(t, "Lautaro Redbear", excluded.Rows[0]["full_name"])

	assert.Len(t, result.Queries[3].Rows, 2)

	through := result.Queries[4]
	require.Len(t, through.Rows, 1)
	assert.EqualValues(t, 30, through.Rows[0]["age"])
	assert.Equal(t, "Gabriel Smith", through.Rows[0]["full_name"])

	var text bytes.Buffer
	require.NoError(t, result.RenderText(&text))
	assert.Contains(t, text.String(), "== exclude total_notes > 3")
	assert.Contains(t, text.String(), "full_name=Lautaro Redbear")
}

func TestDemoCommand(t *testing.T) {
	t.Setenv("HYBRID_DATABASE_DSN", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	t.Setenv("HYBRID_DATABASE_DRIVER", "sqlite")

	out, err := execute(t, "demo", "--format", "json")
	require.NoError(t, err)

	var result DemoResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Len(t, result.Queries, 5)
	for _, q := range result.Queries {
		assert.Empty(t, q.SQL, "--show-sql was not given")
	}
}

func TestOutputFormatter(t *testing.T) {
	data := SQLResult{Driver: "postgres", SQL: "SELECT 1"}

	var text bytes.Buffer
	require.NoError(t, (&OutputFormatter{Format: "text", Writer: &text}).Write(data))
	assert.Equal(t, "SELECT 1\n", text.String())

	var js bytes.Buffer
	require.NoError(t, (&OutputFormatter{Format: "json", Writer: &js}).Write(data))
	assert.JSONEq(t, `{"driver":"postgres","sql":"SELECT 1"}`, js.String())

	var ym bytes.Buffer
	require.NoError(t, (&OutputFormatter{Format: "yaml", Writer: &ym}).Write(data))
	assert.YAMLEq(t, "driver: postgres\nsql: SELECT 1\n", ym.String())

	var plain bytes.Buffer
	require.NoError(t, (&OutputFormatter{Format: "text", Writer: &plain}).Write(42))
	assert.Equal(t, "42\n", plain.String())
}
