package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildStages(t *testing.T) {
	all := func(names ...string) map[string]bool {
		m := make(map[string]bool, len(names))
		for _, n := range names {
			m[n] = true
		}
		return m
	}

	tests := []struct {
		name      string
		checks    []string
		groups    [][]string
		scheduled map[string]bool
		want      []Stage
	}{
		{
			name:      "sequential",
			checks:    []string{"a", "b", "c"},
			scheduled: all("a", "b", "c"),
			want: []Stage{
				{Index: 0, Checks: []string{"a"}},
				{Index: 1, Checks: []string{"b"}},
				{Index: 2, Checks: []string{"c"}},
			},
		},
		{
			name:      "groups first then ungrouped in list order",
			checks:    []string{"lint", "unit", "vet", "build"},
			groups:    [][]string{{"unit", "lint"}},
			scheduled: all("lint", "unit", "vet", "build"),
			want: []Stage{
				{Index: 0, Checks: []string{"unit", "lint"}},
				{Index: 1, Checks: []string{"vet"}},
				{Index: 2, Checks: []string{"build"}},
			},
		},
		{
			name:      "unscheduled members dropped",
			checks:    []string{"a", "b", "c"},
			groups:    [][]string{{"a", "b"}},
			scheduled: all("b", "c"),
			want: []Stage{
				{Index: 0, Checks: []string{"b"}},
				{Index: 1, Checks: []string{"c"}},
			},
		},
		{
			name:      "empty group dropped and indexes stay dense",
			checks:    []string{"a", "b", "c"},
			groups:    [][]string{{"a"}, {"b", "c"}},
			scheduled: all("b", "c"),
			want: []Stage{
				{Index: 0, Checks: []string{"b", "c"}},
			},
		},
		{
			name:      "nothing scheduled",
			checks:    []string{"a"},
			scheduled: all(),
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildStages(tt.checks, tt.groups, tt.scheduled))
		})
	}
}
