package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"gopkg.in/yaml.v3"

	"github.com/ilan2004/Ev-wheels-sub003/internal/auth"
	"github.com/ilan2004/Ev-wheels-sub003/internal/config"
	"github.com/ilan2004/Ev-wheels-sub003/internal/database"
)

type SeedData struct {
	Locations []Location `yaml:"locations"`
	Users     []User     `yaml:"users"`
	Customers []Customer `yaml:"customers"`
}

type Location struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

type User struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	// Location codes the user is assigned to. Bypass roles can stay empty.
	Locations []string `yaml:"locations"`
}

type Customer struct {
	Name     string `yaml:"name"`
	Phone    string `yaml:"phone"`
	Email    string `yaml:"email"`
	Location string `yaml:"location"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return errors.New("command required")
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "seed":
		return seedCommand(args)
	case "nuke":
		return nukeCommand(args)
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func seedCommand(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	file := fs.String("file", "", "YAML file to seed from")
	dir := fs.String("dir", "", "Directory of YAML files to seed from")
	dryRun := fs.Bool("dry-run", false, "Validate files without making database changes")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	files, err := resolveFiles(*file, *dir)
	if err != nil {
		return err
	}

	seedData, err := loadSeedData(files)
	if err != nil {
		return fmt.Errorf("failed to load seed data: %w", err)
	}

	if *dryRun {
		fmt.Println("dry run: validating data structure")
		return validateSeedData(seedData)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	fmt.Printf("seeding database from %d file(s)\n", len(files))
	return applySeedData(context.Background(), db.Pool(), seedData)
}

func nukeCommand(args []string) error {
	fs := flag.NewFlagSet("nuke", flag.ExitOnError)
	force := fs.Bool("force", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	if !*force && !confirmNuke() {
		fmt.Println("operation cancelled")
		return nil
	}

	return nukeDatabase()
}

func resolveFiles(file, dir string) ([]string, error) {
	if file == "" && dir == "" {
		return nil, errors.New("must specify either --file or --dir")
	}

	if file != "" && dir != "" {
		return nil, errors.New("cannot specify both --file and --dir")
	}

	if file != "" {
		return []string{file}, nil
	}

	return findYAMLFiles(dir)
}

func findYAMLFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && isYAMLFile(path) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no YAML files found in directory: %s", dir)
	}

	return files, nil
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func loadSeedData(files []string) (*SeedData, error) {
	combined := &SeedData{}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", file, err)
		}

		var fileData SeedData
		if err := yaml.Unmarshal(data, &fileData); err != nil {
			return nil, fmt.Errorf("failed to parse YAML in %s: %w", file, err)
		}

		combined.Locations = append(combined.Locations, fileData.Locations...)
		combined.Users = append(combined.Users, fileData.Users...)
		combined.Customers = append(combined.Customers, fileData.Customers...)
	}

	return combined, nil
}

func validateSeedData(data *SeedData) error {
	fmt.Printf("  Locations: %d\n", len(data.Locations))
	fmt.Printf("  Users: %d\n", len(data.Users))
	fmt.Printf("  Customers: %d\n", len(data.Customers))

	codes := make(map[string]bool)
	for _, loc := range data.Locations {
		if loc.Code == "" {
			return fmt.Errorf("location %q has no code", loc.Name)
		}
		codes[loc.Code] = true
	}
	for _, u := range data.Users {
		for _, code := range u.Locations {
			if !codes[code] {
				return fmt.Errorf("user %s references unknown location %q", u.Email, code)
			}
		}
	}
	for _, c := range data.Customers {
		if !codes[c.Location] {
			return fmt.Errorf("customer %s references unknown location %q", c.Name, c.Location)
		}
	}

	fmt.Println("data structure is valid")
	return nil
}

func applySeedData(ctx context.Context, pool *pgxpool.Pool, data *SeedData) error {
	locationIDs := make(map[string]uuid.UUID)
	for _, loc := range data.Locations {
		id := uuid.New()
		_, err := pool.Exec(ctx,
			`INSERT INTO locations (id, name, code) VALUES ($1, $2, $3)`,
			id, loc.Name, loc.Code)
		if err != nil {
			return fmt.Errorf("failed to create location %s: %w", loc.Name, err)
		}
		locationIDs[loc.Code] = id
		fmt.Printf("created location: %s (%s)\n", loc.Name, loc.Code)
	}

	for _, user := range data.Users {
		id := uuid.New()
		hash, err := auth.HashPassword(user.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", user.Email, err)
		}
		_, err = pool.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, role) VALUES ($1, $2, $3, $4)`,
			id, user.Email, hash, user.Role)
		if err != nil {
			return fmt.Errorf("failed to create user %s: %w", user.Email, err)
		}
		for _, code := range user.Locations {
			locID, ok := locationIDs[code]
			if !ok {
				return fmt.Errorf("user %s references unknown location %q", user.Email, code)
			}
			_, err := pool.Exec(ctx,
				`INSERT INTO user_locations (user_id, location_id) VALUES ($1, $2)`,
				id, locID)
			if err != nil {
				return fmt.Errorf("failed to assign %s to %s: %w", user.Email, code, err)
			}
		}
		fmt.Printf("created user: %s (%s)\n", user.Email, user.Role)
	}

	for _, c := range data.Customers {
		locID, ok := locationIDs[c.Location]
		if !ok {
			return fmt.Errorf("customer %s references unknown location %q", c.Name, c.Location)
		}
		_, err := pool.Exec(ctx,
			`INSERT INTO customers (id, location_id, name, phone, email, created_at)
			 VALUES ($1, $2, $3, $4, $5, now())`,
			uuid.New(), locID, c.Name, c.Phone, c.Email)
		if err != nil {
			return fmt.Errorf("failed to create customer %s: %w", c.Name, err)
		}
		fmt.Printf("created customer: %s\n", c.Name)
	}

	fmt.Println("seeding completed")
	return nil
}

func nukeDatabase() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	sqlDB, err := goose.OpenDBWithDriver("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			fmt.Printf("warning: failed to close database: %v\n", err)
		}
	}()

	fmt.Println("resetting database with goose...")

	fmt.Println("rolling back all migrations...")
	if err := goose.Reset(sqlDB, "db/migrations"); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}

	fmt.Println("applying all migrations...")
	if err := goose.Up(sqlDB, "db/migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	fmt.Println("database reset complete - ready for seeding")
	return nil
}

func confirmNuke() bool {
	fmt.Print("warning: this will delete all data from the database. are you sure? (yes/no): ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false
	}

	return strings.ToLower(strings.TrimSpace(response)) == "yes"
}

func printUsage() {
	fmt.Println("Seeder Tool - Database seeding utility for EV Wheels")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  seeder <command> [flags]")
	fmt.Println()
	fmt.Println("COMMANDS:")
	fmt.Println("  seed        Seed database from YAML files")
	fmt.Println("  nuke        Reset the database schema")
	fmt.Println("  help        Show this help message")
	fmt.Println()
	fmt.Println("SEED FLAGS:")
	fmt.Println("  --file      Path to a single YAML file")
	fmt.Println("  --dir       Path to directory containing YAML files")
	fmt.Println("  --dry-run   Validate files without making database changes")
	fmt.Println()
	fmt.Println("NUKE FLAGS:")
	fmt.Println("  --force     Skip confirmation prompt")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  seeder seed --file dev-data.yaml")
	fmt.Println("  seeder seed --dir ./seed-data/")
	fmt.Println("  seeder nuke --force")
}
