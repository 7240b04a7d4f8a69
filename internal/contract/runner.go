package contract

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/fatih/color"
)

// RegexList is a repeatable command line flag holding compiled patterns.
type RegexList struct {
	patterns []*regexp.Regexp
}

func (r RegexList) String() string {
	var ss []string
	for _, p := range r.patterns {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (r *RegexList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	r.patterns = append(r.patterns, rx)
	return nil
}

func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

func (r RegexList) AnyMatch(s string) bool {
	for _, p := range r.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// RegexFilters selects checks by id.
type RegexFilters struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

func (r RegexFilters) Allows(id string) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(id)) &&
		!r.MustNotMatch.AnyMatch(id)
}

// Describe writes which checks the filters exclude, if any.
func (r RegexFilters) Describe(out io.Writer) {
	if !r.MustMatch.IsDefined() && !r.MustNotMatch.IsDefined() {
		return
	}
	fmt.Fprintln(out, "Some checks will be skipped based on the filter criteria for this run:")
	if r.MustMatch.IsDefined() {
		fmt.Fprintf(out, "  skip any not matching %s\n", r.MustMatch)
	}
	if r.MustNotMatch.IsDefined() {
		fmt.Fprintf(out, "  skip any matching %s\n", r.MustNotMatch)
	}
	fmt.Fprintln(out)
}

// Result is the outcome of one check.
type Result struct {
	ID       string
	Err      error
	Skipped  bool
	Duration time.Duration
}

// Results is the outcome of a run.
type Results struct {
	Checks []Result
}

// Failures returns the failed checks.
func (r Results) Failures() []Result {
	var out []Result
	for _, c := range r.Checks {
		if c.Err != nil {
			out = append(out, c)
		}
	}
	return out
}

// OK is true when no check failed.
func (r Results) OK() bool {
	return len(r.Failures()) == 0
}

var (
	passLabel = color.New(color.FgGreen, color.Bold).SprintFunc()
	failLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	skipLabel = color.New(color.FgYellow).SprintFunc()
)

// Run executes the checks the filters allow, in order, writing one line per check.
func Run(ctx context.Context, env *Env, checks []Check, filters RegexFilters, out io.Writer) Results {
	var results Results
	for _, check := range checks {
		if !filters.Allows(check.ID) {
			results.Checks = append(results.Checks, Result{ID: check.ID, Skipped: true})
			fmt.Fprintf(out, "%s %s\n", skipLabel("SKIP"), check.ID)
			continue
		}

		start := time.Now()
		err := check.Run(ctx, env)
		res := Result{ID: check.ID, Err: err, Duration: time.Since(start)}
		results.Checks = append(results.Checks, res)

		if err != nil {
			fmt.Fprintf(out, "%s %s (%s)\n      %s\n", failLabel("FAIL"), check.ID, res.Duration.Round(time.Millisecond), err)
			continue
		}
		fmt.Fprintf(out, "%s %s (%s)\n", passLabel("PASS"), check.ID, res.Duration.Round(time.Millisecond))
	}
	return results
}

// PrintSummary writes the totals of a run.
func PrintSummary(out io.Writer, results Results) {
	var passed, skipped int
	for _, c := range results.Checks {
		switch {
		case c.Skipped:
			skipped++
		case c.Err == nil:
			passed++
		}
	}
	failed := len(results.Failures())

	fmt.Fprintln(out)
	if failed == 0 {
		fmt.Fprintf(out, "%s: %d passed, %d skipped\n", passLabel("All checks passed"), passed, skipped)
		return
	}
	fmt.Fprintf(out, "%s: %d passed, %d failed, %d skipped\n", failLabel("Checks failed"), passed, failed, skipped)
	for _, f := range results.Failures() {
		fmt.Fprintf(out, "  %s\n", f.ID)
	}
}
