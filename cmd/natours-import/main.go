// Command natours-import loads or removes development users.
//
//	natours-import -import -file dev-data/users.json
//	natours-import -delete
//
// Passwords in the file are stored hashes and are written unchanged.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/MrEthical07/natours/account"
	"github.com/MrEthical07/natours/internal/appconfig"
	"github.com/MrEthical07/natours/store/mongo"
)

type userRecord struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Photo    string `json:"photo"`
	Password string `json:"password"`
	Active   *bool  `json:"active"`
}

func main() {
	var (
		doImport = flag.Bool("import", false, "import users from -file")
		doDelete = flag.Bool("delete", false, "delete every user")
		file     = flag.String("file", "dev-data/users.json", "users JSON file")
	)
	flag.Parse()

	if *doImport == *doDelete {
		fmt.Fprintln(os.Stderr, "exactly one of -import or -delete is required")
		os.Exit(2)
	}

	cfg, err := appconfig.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := mongo.Connect(ctx, mongo.Config{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer store.Close(context.Background())

	if *doDelete {
		n, err := store.DeleteAll(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "delete: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("deleted %d users\n", n)
		return
	}

	accounts, err := readUsers(*file, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	for _, a := range accounts {
		if _, err := store.Create(ctx, a); err != nil {
			fmt.Fprintf(os.Stderr, "import %s: %v\n", a.Email, err)
			os.Exit(1)
		}
	}
	fmt.Printf("imported %d users\n", len(accounts))
}

func readUsers(path string, now time.Time) ([]account.Account, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var records []userRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]account.Account, 0, len(records))
	for i, r := range records {
		role := account.DefaultRole
		if r.Role != "" {
			if role, err = account.ParseRole(r.Role); err != nil {
				return nil, fmt.Errorf("user %d: %w", i, err)
			}
		}
		photo := r.Photo
		if photo == "" {
			photo = account.DefaultPhoto
		}
		a := account.Account{
			ID:           r.ID,
			Name:         r.Name,
			Email:        account.NormalizeEmail(r.Email),
			Photo:        photo,
			Role:         role,
			PasswordHash: r.Password,
			Active:       r.Active == nil || *r.Active,
			CreatedAt:    now.UTC(),
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("user %d: %w", i, err)
		}
		if a.PasswordHash == "" {
			return nil, fmt.Errorf("user %d: password hash is required", i)
		}
		out = append(out, a)
	}
	return out, nil
}
