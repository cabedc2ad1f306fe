package rsync

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFlagCombinationsAreDistinct(t *testing.T) {
	// Every boolean flag must be observable in the option list: any two
	// combinations that differ in at least one flag must build different
	// option sets.
	var built []struct {
		opts Options
		key  string
	}
	for i := 0; i < 16; i++ {
		opts := Options{
			Overwrite: i&1 != 0,
			DryRun:    i&2 != 0,
			Delete:    i&4 != 0,
			Checksum:  i&8 != 0,
		}
		built = append(built, struct {
			opts Options
			key  string
		}{opts, strings.Join(opts.Build(), " ")})
	}

	for i := range built {
		for j := i + 1; j < len(built); j++ {
			assert.NotEqual(t, built[i].key, built[j].key,
				"options %+v and %+v built the same flag list",
				built[i].opts, built[j].opts)
		}
	}
}

func TestBuildConditionalFlags(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		expect  []string
		forbid  []string
	}{
		{
			name:   "Defaults",
			opts:   Options{},
			expect: []string{"--update"},
			forbid: []string{"--dry-run", "--delete-delay", "--checksum"},
		},
		{
			name:   "Overwrite",
			opts:   Options{Overwrite: true},
			forbid: []string{"--update"},
		},
		{
			name:   "DryRunDelete",
			opts:   Options{DryRun: true, Delete: true},
			expect: []string{"--update", "--dry-run", "--delete-delay"},
		},
		{
			name:   "Bwlimit",
			opts:   Options{BwlimitKBps: 500},
			expect: []string{"--bwlimit=500"},
		},
		{
			name:   "Checksum",
			opts:   Options{Checksum: true},
			expect: []string{"--checksum"},
		},
		{
			name:   "ExcludeFrom",
			opts:   Options{ExcludeFrom: "/home/alice/.syncb_excludes"},
			expect: []string{"--exclude-from=/home/alice/.syncb_excludes"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			opts := test.opts.Build()
			for _, flag := range baseOptions {
				assert.Contains(t, opts, flag)
			}
			for _, flag := range test.expect {
				assert.Contains(t, opts, flag)
			}
			for _, flag := range test.forbid {
				assert.NotContains(t, opts, flag)
			}
		})
	}
}

func TestBuildExcludeOrdering(t *testing.T) {
	opts := Options{
		ConfigExcludes: []string{".cache", "*.tmp"},
		CLIExcludes:    []string{"node_modules", ".cache"},
	}

	var excludes []string
	for _, flag := range opts.Build() {
		if strings.HasPrefix(flag, "--exclude=") {
			excludes = append(excludes, strings.TrimPrefix(flag, "--exclude="))
		}
	}

	// One flag per pattern, config patterns first, duplicates preserved.
	assert.Equal(t,
		[]string{".cache", "*.tmp", "node_modules", ".cache"}, excludes)
}

func TestBuildExcludeFromPrecedesPatterns(t *testing.T) {
	opts := Options{
		ExcludeFrom:    "/home/alice/.syncb_excludes",
		ConfigExcludes: []string{".cache"},
	}

	built := opts.Build()
	fromAt, patternAt := -1, -1
	for i, flag := range built {
		if strings.HasPrefix(flag, "--exclude-from=") {
			fromAt = i
		} else if strings.HasPrefix(flag, "--exclude=") && patternAt == -1 {
			patternAt = i
		}
	}

	assert.NotEqual(t, -1, fromAt)
	assert.NotEqual(t, -1, patternAt)
	assert.Less(t, fromAt, patternAt,
		"the pattern file comes before individual patterns")
}

func TestBuildIsDeterministic(t *testing.T) {
	opts := Options{
		Delete:         true,
		BwlimitKBps:    100,
		ConfigExcludes: []string{"a", "b"},
		CLIExcludes:    []string{"c"},
	}
	first := fmt.Sprint(opts.Build())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, fmt.Sprint(opts.Build()))
	}
}
