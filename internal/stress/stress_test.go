package stress_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeebo/racer/internal/stress"
)

func TestChecks(t *testing.T) {
	t.Parallel()

	for _, c := range stress.Checks() {
		t.Run(c.Name, func(t *testing.T) {
			t.Parallel()

			for range 5 {
				require.NoError(t, c.Run(8))
			}
		})
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		only    []string
		want    []string
		wantErr error
	}{
		"all": {
			want: []string{"a", "b", "c"},
		},
		"subset keeps order given": {
			only: []string{"c", "a"},
			want: []string{"c", "a"},
		},
		"unknown": {
			only:    []string{"a", "nope"},
			want:    []string{"a"},
			wantErr: stress.ErrUnknownCheck,
		},
	}

	all := []stress.Check{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := stress.Select(all, tc.only)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}

			names := make([]string, 0, len(got))
			for _, c := range got {
				names = append(names, c.Name)
			}
			assert.Equal(t, tc.want, names)
		})
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	fail := errors.New("fail")
	calls := 0
	checks := []stress.Check{
		{Name: "ok", Run: func(int) error { return nil }},
		{Name: "flaky", Run: func(int) error {
			calls++
			if calls%2 == 0 {
				return fail
			}
			return nil
		}},
	}

	results, err := stress.Run(context.Background(), checks, stress.Options{Rounds: 4, Threads: 1})
	require.ErrorIs(t, err, fail)
	require.Len(t, results, 2)

	assert.Equal(t, "ok", results[0].Name)
	assert.Equal(t, 4, results[0].Rounds)
	assert.Equal(t, 0, results[0].Failures)
	assert.Equal(t, 4, results[1].Rounds)
	assert.Equal(t, 2, results[1].Failures)
}

func TestRunCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := stress.Run(ctx, stress.Checks(), stress.DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestRunInvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := stress.Run(context.Background(), stress.Checks(), stress.Options{})
	require.Error(t, err)
}
