package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"cookbook/internal/config"
	"cookbook/internal/db"
	"cookbook/internal/db/mock"
	applog "cookbook/internal/log"
	"cookbook/internal/recipes"
	"cookbook/internal/users"
)

var (
	openDatabaseFunc = func(url string) (*gorm.DB, error) {
		return db.Configure(config.DatabaseConfig{URL: url})
	}
	newMockDatabaseFunc = mock.New
)

// recipeFile is the YAML document read by the importer.
type recipeFile struct {
	Recipes []recipeEntry `yaml:"recipes"`
}

type recipeEntry struct {
	Name        string         `yaml:"name" validate:"required,max=30"`
	Ingredients ingredientList `yaml:"ingredients" validate:"required,max=300"`
	Text        string         `yaml:"text" validate:"required,max=500"`
}

// ingredientList accepts either a comma separated string or a sequence of
// names, and holds the comma separated form.
type ingredientList string

func (l *ingredientList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = ingredientList(node.Value)
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		*l = ingredientList(strings.Join(names, ", "))
		return nil
	default:
		return fmt.Errorf("line %d: ingredients must be a string or a list", node.Line)
	}
}

type importReport struct {
	Created    int
	Duplicates []string
	Skipped    []string
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "import_recipes",
		Usage: "Import recipes from a YAML file on behalf of an existing user",
		Description: `Each recipe is created in its own transaction through the same ingredient
linker the API uses. Recipes whose name is already taken are reported and
left untouched.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the YAML recipe file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "owner",
				Aliases:  []string{"o"},
				Usage:    "Username that will own the imported recipes",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Postgres connection string",
				Sources: cli.EnvVars("DATABASE_URL", "DB_URL"),
			},
			&cli.BoolFlag{
				Name:  "mock",
				Usage: "Import into the seeded in-memory database instead of postgres",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := applog.SetLevel(cmd.String("log-level")); err != nil {
				return err
			}

			entries, err := readRecipeFile(cmd.String("file"))
			if err != nil {
				return err
			}

			database, err := openDatabase(ctx, cmd.Bool("mock"), cmd.String("database-url"))
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(database); err != nil {
					applog.Warn(ctx, "failed to close database", "error", err)
				}
			}()

			report, err := importRecipes(ctx, database, cmd.String("owner"), entries)
			if err != nil {
				return err
			}
			printReport(cmd.Root().Writer, report, filepath.Base(cmd.String("file")))
			return nil
		},
	}
}

func openDatabase(ctx context.Context, useMock bool, url string) (*gorm.DB, error) {
	if useMock {
		return newMockDatabaseFunc(ctx)
	}
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("database url must be set with --database-url or DATABASE_URL")
	}
	return openDatabaseFunc(url)
}

func readRecipeFile(path string) ([]recipeEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe file: %w", err)
	}

	var doc recipeFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse recipe file: %w", err)
	}
	if len(doc.Recipes) == 0 {
		return nil, fmt.Errorf("recipe file %s lists no recipes", path)
	}
	return doc.Recipes, nil
}

// importRecipes creates entries for owner. Invalid entries and taken names
// are reported; any other failure stops the import.
func importRecipes(ctx context.Context, database *gorm.DB, owner string, entries []recipeEntry) (importReport, error) {
	var report importReport

	user, err := users.NewStore(database).FindByUsername(ctx, owner)
	if err != nil {
		return report, fmt.Errorf("find owner %q: %w", owner, err)
	}

	validate := validator.New()
	service := recipes.NewService(database)
	for idx, entry := range entries {
		if err := validate.Struct(entry); err != nil {
			report.Skipped = append(report.Skipped, fmt.Sprintf("#%d %q: %v", idx+1, entry.Name, err))
			continue
		}

		created, err := service.Create(ctx, recipes.CreateInput{
			OwnerID:     user.ID,
			Name:        entry.Name,
			Ingredients: string(entry.Ingredients),
			Text:        entry.Text,
		})
		switch {
		case err == nil:
			report.Created++
			applog.Debug(ctx, "recipe imported", "recipe_id", created.ID, "name", created.Name)
		case errors.Is(err, recipes.ErrDuplicateRecipeName):
			report.Duplicates = append(report.Duplicates, entry.Name)
		case errors.Is(err, recipes.ErrNoIngredients):
			report.Skipped = append(report.Skipped, fmt.Sprintf("#%d %q: no usable ingredients", idx+1, entry.Name))
		default:
			return report, fmt.Errorf("recipe #%d (%s): %w", idx+1, entry.Name, err)
		}
	}
	return report, nil
}

func printReport(w io.Writer, report importReport, source string) {
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "Imported %d recipes from %s\n", report.Created, source)
	for _, name := range report.Duplicates {
		fmt.Fprintf(w, "  exists:  %s\n", name)
	}
	for _, reason := range report.Skipped {
		fmt.Fprintf(w, "  skipped: %s\n", reason)
	}
}
