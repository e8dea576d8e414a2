// cmd/subdomain/main.go
//
// Ops wrapper around the provider's single-domain resource.
//
// Usage
// -----
//
//	subdomain <siteID> <host> <updatesJSON>
//
// Sends a PATCH for the named subdomain with the given JSON updates,
// falling back to a create when the provider has no such domain resource,
// and prints the provider's response verbatim.  Exit status is 0 on
// success, 1 on any failure, so the command composes with shell scripts
// and cron.
//
// The bearer token comes from PROVIDER_TOKEN (a .env file is honored);
// PROVIDER_BASE_URL overrides the production API root for testing.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/yanizio/pressroom/internal/alias"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: subdomain <siteID> <host> <updatesJSON>")
		os.Exit(1)
	}
	siteID, host, rawUpdates := os.Args[1], os.Args[2], os.Args[3]

	token := os.Getenv("PROVIDER_TOKEN")
	if token == "" {
		fmt.Fprintln(os.Stderr, "PROVIDER_TOKEN is not set")
		os.Exit(1)
	}

	var updates map[string]any
	if err := json.Unmarshal([]byte(rawUpdates), &updates); err != nil {
		fmt.Fprintf(os.Stderr, "updates must be a JSON object: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cli := alias.NewClient(os.Getenv("PROVIDER_BASE_URL"), token, nil)
	body, err := cli.UpdateSubdomain(ctx, siteID, host, updates)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	os.Stdout.Write(body)
	fmt.Println()
}
