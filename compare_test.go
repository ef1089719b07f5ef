package knuffimap

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComparators(t *testing.T) {
	type player struct {
		name  string
		score int
	}
	players := []player{{"carol", 20}, {"bob", 30}, {"alice", 20}, {"dave", 10}}

	tests := []struct {
		name     string
		compare  Comparator[player]
		expected []string
	}{
		{
			"ordered by score",
			OrderedBy(func(p player) int { return p.score }),
			[]string{"dave", "carol", "alice", "bob"},
		},
		{
			"reversed",
			Reverse(OrderedBy(func(p player) int { return p.score })),
			[]string{"bob", "carol", "alice", "dave"},
		},
		{
			"ties broken by name",
			Then(
				Reverse(OrderedBy(func(p player) int { return p.score })),
				OrderedBy(func(p player) string { return p.name }),
			),
			[]string{"bob", "alice", "carol", "dave"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := append([]player(nil), players...)
			sort.SliceStable(ps, func(i, j int) bool { return tt.compare(ps[i], ps[j]) < 0 })

			var names []string
			for _, p := range ps {
				names = append(names, p.name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}

	assert.Equal(t, 0, Then(OrderedBy(func(p player) int { return p.score }))(players[0], players[2]))
}
