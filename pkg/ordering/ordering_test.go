package ordering

import (
	"testing"

	"github.com/core-tools/hsu-init/pkg/errors"
	"github.com/core-tools/hsu-init/pkg/units"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deps struct {
	before, after, wants string
}

func newService(name string, d deps) units.Service {
	unit := units.Unit{Name: name}
	if d.before != "" {
		unit.Before = &d.before
	}
	if d.after != "" {
		unit.After = &d.after
	}
	if d.wants != "" {
		unit.Wants = &d.wants
	}
	return units.Service{Unit: unit, Type: units.ServiceTypeSimple}
}

func TestOrder(t *testing.T) {
	tests := []struct {
		name     string
		services []units.Service
		expected []string
	}{
		{
			name: "after_chain",
			services: []units.Service{
				newService("C", deps{after: "B"}),
				newService("A", deps{}),
				newService("B", deps{after: "A"}),
			},
			expected: []string{"A", "B", "C"},
		},
		{
			name: "no_edges_is_lexical",
			services: []units.Service{
				newService("zeta", deps{}),
				newService("Alpha", deps{}),
				newService("alpha", deps{}),
				newService("beta", deps{}),
			},
			expected: []string{"Alpha", "alpha", "beta", "zeta"},
		},
		{
			name: "before_overrides_lexical",
			services: []units.Service{
				newService("a", deps{}),
				newService("b", deps{before: "a"}),
			},
			expected: []string{"b", "a"},
		},
		{
			name: "wants_is_an_ordering_edge",
			services: []units.Service{
				newService("a", deps{wants: "b"}),
				newService("b", deps{}),
				newService("c", deps{after: "a"}),
			},
			expected: []string{"b", "a", "c"},
		},
		{
			name: "unknown_targets_are_ignored",
			services: []units.Service{
				newService("b", deps{after: "missing", wants: "ghost"}),
				newService("a", deps{before: "nowhere"}),
			},
			expected: []string{"a", "b"},
		},
		{
			name: "smallest_ready_name_first",
			services: []units.Service{
				newService("d", deps{}),
				newService("c", deps{after: "a"}),
				newService("b", deps{after: "d"}),
				newService("a", deps{}),
			},
			expected: []string{"a", "c", "d", "b"},
		},
		{
			name: "redundant_edges",
			services: []units.Service{
				newService("a", deps{before: "b"}),
				newService("b", deps{after: "a", wants: "a"}),
			},
			expected: []string{"a", "b"},
		},
		{
			// A pairwise comparator can report A<B, B<C and C<A for this
			// set; the edges themselves are acyclic.
			name: "non_transitive_comparator_case",
			services: []units.Service{
				newService("A", deps{before: "B"}),
				newService("B", deps{before: "C"}),
				newService("C", deps{}),
				newService("0", deps{after: "C"}),
			},
			expected: []string{"A", "B", "C", "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ordered, err := Order(tt.services)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, units.Names(ordered))
		})
	}
}

func TestOrder_Cycles(t *testing.T) {
	tests := []struct {
		name     string
		services []units.Service
		members  []string
	}{
		{
			name: "direct_before_cycle",
			services: []units.Service{
				newService("A", deps{before: "B"}),
				newService("B", deps{before: "A"}),
			},
			members: []string{"A", "B"},
		},
		{
			name: "self_loop",
			services: []units.Service{
				newService("A", deps{after: "A"}),
				newService("B", deps{}),
			},
			members: []string{"A"},
		},
		{
			name: "three_cycle_with_downstream_unit",
			services: []units.Service{
				newService("a", deps{after: "c"}),
				newService("b", deps{after: "a"}),
				newService("c", deps{wants: "b"}),
				newService("d", deps{after: "c"}),
				newService("e", deps{}),
			},
			members: []string{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ordered, err := Order(tt.services)
			assert.Nil(t, ordered)

			domainErr, ok := errors.Find(err, errors.ErrorTypeCycleDetected)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.members, domainErr.Names(errors.ContextKeyUnits))
		})
	}
}

func TestOrder_Idempotent(t *testing.T) {
	services := []units.Service{
		newService("web", deps{after: "db", wants: "cache"}),
		newService("db", deps{}),
		newService("cache", deps{before: "db"}),
		newService("metrics", deps{}),
		newService("proxy", deps{after: "web"}),
	}

	first, err := Order(services)
	require.NoError(t, err)
	second, err := Order(services)
	require.NoError(t, err)
	again, err := Order(first)
	require.NoError(t, err)

	assert.Equal(t, []string{"cache", "db", "metrics", "web", "proxy"}, units.Names(first))
	assert.Equal(t, first, second)
	assert.Equal(t, first, again)
}

func TestOrder_Empty(t *testing.T) {
	ordered, err := Order(nil)
	require.NoError(t, err)
	assert.Empty(t, ordered)
}

func TestOrder_DuplicateNames(t *testing.T) {
	_, err := Order([]units.Service{newService("a", deps{}), newService("a", deps{})})
	assert.True(t, errors.IsDuplicateUnitError(err))
}

func TestEdges(t *testing.T) {
	edges, err := Edges([]units.Service{
		newService("a", deps{before: "c"}),
		newService("b", deps{after: "a", wants: "a"}),
		newService("c", deps{after: "missing"}),
	})
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{
		"a": {"b", "c"},
		"b": {},
		"c": {},
	}, edges)
}
