package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"user-directory-service/internal/contract"
	"user-directory-service/pkg/security"
)

type commandParams struct {
	serviceURL string
	adminToken string
	jwtSecret  string
	timeout    time.Duration
	seed       uint64
	existingID int64
	firstName  string
	lastName   string
	email      string
	password   string
	filters    contract.RegexFilters
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.serviceURL, "url", "", "base URL of the service under test")
	fs.StringVar(&c.adminToken, "admin-token", "has-the-privilege", "static admin bearer token")
	fs.StringVar(&c.jwtSecret, "jwt-secret", "", "if set, sign an admin JWT with this secret instead of using -admin-token")
	fs.DurationVar(&c.timeout, "timeout", 10*time.Second, "per-request timeout")
	fs.Uint64Var(&c.seed, "seed", uint64(time.Now().UnixNano()), "seed for random fixtures")
	fs.Int64Var(&c.existingID, "existing-id", 0, "id of a user known to exist; created through the admin API when 0")
	fs.StringVar(&c.firstName, "existing-first-name", "", "first name of the existing user")
	fs.StringVar(&c.lastName, "existing-last-name", "", "last name of the existing user")
	fs.StringVar(&c.email, "existing-email", "", "email of the existing user")
	fs.StringVar(&c.password, "existing-password", "", "password of the existing user")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select checks to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select checks not to run")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if c.serviceURL == "" {
		fmt.Fprintln(os.Stderr, "-url is required")
		fs.Usage()
		return false
	}
	if c.existingID != 0 && (c.firstName == "" || c.lastName == "" || c.email == "" || c.password == "") {
		fmt.Fprintln(os.Stderr, "-existing-id requires -existing-first-name, -existing-last-name, -existing-email and -existing-password")
		fs.Usage()
		return false
	}
	return true
}

func main() {
	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	token := params.adminToken
	if params.jwtSecret != "" {
		signed, err := security.IssueAdminToken(params.jwtSecret, "contract-suite", time.Hour)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot sign admin token: %s\n", err)
			os.Exit(1)
		}
		token = signed
	}

	ctx := context.Background()
	client := contract.NewClient(params.serviceURL, token, params.timeout)
	fixtures := contract.NewFixtures(params.seed)

	existing := contract.ExistingUser{
		ID: params.existingID,
		Fields: contract.Record{
			"firstName": params.firstName,
			"lastName":  params.lastName,
			"email":     params.email,
			"password":  params.password,
		},
	}
	if params.existingID == 0 {
		seeded, err := contract.SeedExistingUser(ctx, client, fixtures)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		existing = seeded
	}

	fmt.Printf("Running contract checks against %s (seed %d)\n\n", params.serviceURL, params.seed)
	params.filters.Describe(os.Stdout)

	env := &contract.Env{Client: client, Fixtures: fixtures, Existing: existing}
	results := contract.Run(ctx, env, contract.Checks(), params.filters, os.Stdout)
	contract.PrintSummary(os.Stdout, results)

	if !results.OK() {
		os.Exit(1)
	}
}
