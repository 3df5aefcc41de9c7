// overdue-checkouts lists active project checkouts whose expected return has
// passed. It only reports; nothing is checked in.
//
// Usage: go run ./scripts/overdue-checkouts
//
// Database connection: Uses standard PG* environment variables
//
// Flags:
//
//	-grace   Ignore checkouts overdue by less than this duration (default: 0)
//	-format  table or yaml (default: table)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/projectvault/projectvault/pkg/config"
	"github.com/projectvault/projectvault/pkg/database"
	"github.com/projectvault/projectvault/pkg/models"
	"github.com/projectvault/projectvault/pkg/repositories"
)

func main() {
	grace := flag.Duration("grace", 0, "Ignore checkouts overdue by less than this duration")
	format := flag.String("format", "table", "Output format: table or yaml")
	flag.Parse()

	if *format != "table" && *format != "yaml" {
		fmt.Fprintf(os.Stderr, "Unknown format %q\n", *format)
		os.Exit(1)
	}

	var dbCfg config.DatabaseConfig
	if err := cleanenv.ReadEnv(&dbCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read database settings: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{URL: dbCfg.ConnectionString(), MaxConnections: 2})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	scope, err := db.Acquire(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to acquire connection: %v\n", err)
		os.Exit(1)
	}
	defer scope.Close()
	ctx = database.SetScope(ctx, scope)

	now := time.Now().UTC()
	overdue, err := repositories.NewCheckoutRepository().ListOverdue(ctx, now.Add(-*grace))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list overdue checkouts: %v\n", err)
		os.Exit(1)
	}

	if *format == "yaml" {
		writeYAML(overdue, now)
		return
	}

	if len(overdue) == 0 {
		fmt.Println("No overdue checkouts")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROJECT\tHOLDER\tCHECKED OUT\tDUE\tOVERDUE BY")
	for _, c := range overdue {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.ProjectID,
			c.UserName,
			c.CheckedOutAt.Format(time.RFC3339),
			c.ExpectedReturn.Format(time.RFC3339),
			now.Sub(c.ExpectedReturn).Truncate(time.Minute),
		)
	}
	_ = w.Flush()

	fmt.Printf("\nTotal overdue checkouts: %d\n", len(overdue))
}

// overdueEntry is one line of the yaml report.
type overdueEntry struct {
	ProjectID      string    `yaml:"project_id"`
	CheckoutID     string    `yaml:"checkout_id"`
	Holder         string    `yaml:"holder"`
	HolderID       string    `yaml:"holder_id"`
	CheckedOutAt   time.Time `yaml:"checked_out_at"`
	ExpectedReturn time.Time `yaml:"expected_return"`
	OverdueBy      string    `yaml:"overdue_by"`
}

func writeYAML(overdue []*models.Checkout, now time.Time) {
	entries := make([]overdueEntry, 0, len(overdue))
	for _, c := range overdue {
		entries = append(entries, overdueEntry{
			ProjectID:      c.ProjectID.String(),
			CheckoutID:     c.ID.String(),
			Holder:         c.UserName,
			HolderID:       c.UserID.String(),
			CheckedOutAt:   c.CheckedOutAt,
			ExpectedReturn: c.ExpectedReturn,
			OverdueBy:      now.Sub(c.ExpectedReturn).Truncate(time.Minute).String(),
		})
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"generated_at": now, "overdue": entries}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write report: %v\n", err)
		os.Exit(1)
	}
	_ = enc.Close()
}
