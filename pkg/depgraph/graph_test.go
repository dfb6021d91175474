package depgraph

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_Idempotent(t *testing.T) {
	g := New[string]()
	g.Connect("a", "b")
	g.Connect("a", "b")
	g.Connect("a", "c")

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, []string{"b", "c"}, g.Connections("a"))
	assert.True(t, g.HasConnection("a", "b"))
	assert.False(t, g.HasConnection("b", "a"))
}

func TestConnections_UnknownNode(t *testing.T) {
	g := New[int]()
	assert.Nil(t, g.Connections(42))
	assert.False(t, g.Contains(42))
}

func TestAddNode_Isolated(t *testing.T) {
	g := New[int]()
	g.AddNode(1)
	g.AddNode(1)

	assert.Equal(t, []int{1}, g.Nodes())
	assert.Empty(t, g.Connections(1))
}

func TestReverse(t *testing.T) {
	g := New[string]()
	g.Connect("a", "b")
	g.Connect("b", "c")

	r := g.Reverse()
	assert.Equal(t, []string{"a", "b", "c"}, r.Nodes())
	assert.True(t, r.HasConnection("b", "a"))
	assert.True(t, r.HasConnection("c", "b"))
	assert.Equal(t, 2, r.EdgeCount())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]string
		want  error
	}{
		{name: "empty"},
		{name: "chain", edges: [][2]string{{"a", "b"}, {"b", "c"}}},
		{name: "diamond", edges: [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}}},
		{name: "two cycle", edges: [][2]string{{"a", "b"}, {"b", "a"}}, want: ErrCycle},
		{name: "self loop", edges: [][2]string{{"a", "a"}}, want: ErrCycle},
		{name: "long cycle", edges: [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "b"}}, want: ErrCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New[string]()
			for _, e := range tt.edges {
				g.Connect(e[0], e[1])
			}
			assert.ErrorIs(t, g.Validate(), tt.want)
		})
	}
}

func TestMergeSCC_Acyclic(t *testing.T) {
	g := New[string]()
	g.Connect("a", "b")
	g.Connect("b", "c")
	g.Connect("a", "c")

	dag := MergeStronglyConnectedComponents(g)
	require.Equal(t, 3, dag.NodeCount())
	assert.Equal(t, 3, dag.EdgeCount())
	require.NoError(t, dag.Validate())

	for _, c := range dag.Nodes() {
		assert.False(t, c.IsMerged())
		assert.Equal(t, 1, c.Len())
	}
	// Tarjan emits sinks first.
	assert.Equal(t, "c", dag.Nodes()[0].Single())
	assert.Equal(t, "a", dag.Nodes()[2].Single())
}

func TestMergeSCC_TwoCycle(t *testing.T) {
	g := New[string]()
	g.Connect("top", "x")
	g.Connect("x", "y")
	g.Connect("y", "x")
	g.Connect("y", "base")

	dag := MergeStronglyConnectedComponents(g)
	require.NoError(t, dag.Validate())
	require.Equal(t, 3, dag.NodeCount())

	var merged *Component[string]
	for _, c := range dag.Nodes() {
		if c.IsMerged() {
			merged = c
		}
	}
	require.NotNil(t, merged)
	assert.Equal(t, []string{"x", "y"}, merged.Merged())
	assert.Equal(t, merged.Merged(), merged.Members())
	assert.Equal(t, 2, dag.EdgeCount(), "top→{x,y} and {x,y}→base")
}

func TestMergeSCC_SelfLoopStaysSingle(t *testing.T) {
	g := New[int]()
	g.Connect(1, 1)
	g.Connect(1, 2)

	dag := MergeStronglyConnectedComponents(g)
	require.Equal(t, 2, dag.NodeCount())
	assert.Equal(t, 1, dag.EdgeCount())
	for _, c := range dag.Nodes() {
		assert.False(t, c.IsMerged())
		assert.False(t, dag.HasConnection(c, c))
	}
}

func TestMergeSCC_MultipleEdgesCollapse(t *testing.T) {
	// a and b form a cycle, both point at c: only one condensed edge remains.
	g := New[string]()
	g.Connect("a", "b")
	g.Connect("b", "a")
	g.Connect("a", "c")
	g.Connect("b", "c")

	dag := MergeStronglyConnectedComponents(g)
	assert.Equal(t, 2, dag.NodeCount())
	assert.Equal(t, 1, dag.EdgeCount())
}

func TestMergeSCC_DeepChainDoesNotRecurse(t *testing.T) {
	g := New[int]()
	const n = 200000
	for i := range n - 1 {
		g.Connect(i, i+1)
	}
	g.Connect(n-1, 0)

	dag := MergeStronglyConnectedComponents(g)
	require.Equal(t, 1, dag.NodeCount())
	assert.Equal(t, n, dag.Nodes()[0].Len())
}

func TestTransitiveClosure(t *testing.T) {
	g := New[string]()
	g.Connect("a", "b")
	g.Connect("b", "d")
	g.Connect("a", "c")
	g.Connect("c", "d")
	g.AddNode("lonely")

	closure := TransitiveClosure(g)
	sorted := func(s Set[string]) []string { return s.SortedFunc(cmp.Compare[string]) }

	assert.Equal(t, []string{"a", "b", "c", "d"}, sorted(closure["a"]))
	assert.Equal(t, []string{"b", "d"}, sorted(closure["b"]))
	assert.Equal(t, []string{"d"}, sorted(closure["d"]))
	assert.Equal(t, []string{"lonely"}, sorted(closure["lonely"]))
}

func TestAggregate_CountsPaths(t *testing.T) {
	// Number of distinct paths to a sink, folded bottom-up.
	g := New[string]()
	g.Connect("a", "b")
	g.Connect("a", "c")
	g.Connect("b", "d")
	g.Connect("c", "d")

	paths := Aggregate(g,
		func(n string) int {
			if len(g.Connections(n)) == 0 {
				return 1
			}
			return 0
		},
		func(acc int, _ string, child int) int { return acc + child },
	)
	assert.Equal(t, 2, paths["a"])
	assert.Equal(t, 1, paths["b"])
	assert.Equal(t, 1, paths["d"])
}

func TestAggregate_TerminatesOnCycle(t *testing.T) {
	g := New[int]()
	g.Connect(1, 2)
	g.Connect(2, 1)

	closure := TransitiveClosure(g)
	assert.True(t, closure[1].Has(2))
	assert.True(t, closure[2].Has(2))
}

func TestAggregate_OnCondensedGraph(t *testing.T) {
	g := New[string]()
	g.Connect("top", "x")
	g.Connect("x", "y")
	g.Connect("y", "x")
	g.Connect("y", "base")

	dag := MergeStronglyConnectedComponents(g)
	closure := TransitiveClosure(dag)

	var top *Component[string]
	for _, c := range dag.Nodes() {
		if !c.IsMerged() && c.Single() == "top" {
			top = c
		}
	}
	require.NotNil(t, top)
	assert.Len(t, closure[top], 3)
}
