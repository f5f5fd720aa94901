// Package stress repeatedly checks the behavior of the racer primitives
// under real concurrency.
package stress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
)

// ErrUnknownCheck is returned when a requested check does not exist.
var ErrUnknownCheck = errors.New("unknown check")

// Check is one property exercised by the stress run.
type Check struct {
	Name string
	Run  func(threads int) error
}

// Options control a stress run.
type Options struct {
	// Rounds is how many times each check runs.
	Rounds int
	// Threads is how many threads each check starts.
	Threads int
	// Only restricts the run to the named checks. Empty means all.
	Only []string
}

// DefaultOptions returns the options used by the CLI when no flags are given.
func DefaultOptions() Options {
	return Options{Rounds: 100, Threads: 10}
}

// Result summarizes one check across every round.
type Result struct {
	Name     string
	Rounds   int
	Failures int
	Elapsed  time.Duration
}

// Select returns the checks named in only, in the order of all. An empty only
// selects every check.
func Select(all []Check, only []string) ([]Check, error) {
	if len(only) == 0 {
		return all, nil
	}

	byName := make(map[string]Check, len(all))
	for _, c := range all {
		byName[c.Name] = c
	}

	var (
		out  []Check
		merr error
	)
	for _, name := range only {
		c, ok := byName[name]
		if !ok {
			merr = multierror.Append(merr, fmt.Errorf("%w: %q", ErrUnknownCheck, name))
			continue
		}
		out = append(out, c)
	}
	return out, merr
}

// Run runs every check opts.Rounds times. It returns a Result per check and
// an error aggregating every failed round. It stops early if ctx is done.
func Run(ctx context.Context, checks []Check, opts Options) ([]Result, error) {
	if opts.Rounds <= 0 || opts.Threads <= 0 {
		return nil, fmt.Errorf("rounds and threads must be positive: got %d and %d", opts.Rounds, opts.Threads)
	}

	var (
		results []Result
		merr    error
	)
	for _, c := range checks {
		res := Result{Name: c.Name}
		start := time.Now()

		for round := 0; round < opts.Rounds; round++ {
			if err := ctx.Err(); err != nil {
				return results, multierror.Append(merr, err).ErrorOrNil()
			}

			res.Rounds++
			if err := c.Run(opts.Threads); err != nil {
				res.Failures++
				merr = multierror.Append(merr, fmt.Errorf("%s round %d: %w", c.Name, round, err))
			}
		}

		res.Elapsed = time.Since(start)
		results = append(results, res)

		slog.Debug("stress check finished",
			slog.String("check", res.Name),
			slog.Int("rounds", res.Rounds),
			slog.Int("failures", res.Failures),
			slog.Duration("elapsed", res.Elapsed),
		)
	}

	return results, merr
}
