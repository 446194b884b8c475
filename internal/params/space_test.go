package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(s *Space) []Query {
	var queries []Query
	for {
		q, ok := s.Next()
		if !ok {
			return queries
		}
		queries = append(queries, q)
	}
}

func TestSpacePackageJsonScenario(t *testing.T) {
	s := NewSpace("package.json")
	queries := collect(s)

	// 29 field names, ba khối sort/order
	require.Len(t, queries, 87)
	require.Equal(t, 87, s.Len())

	defaults := 0
	asc := 0
	desc := 0
	for _, q := range queries {
		require.Equal(t, "package.json", q.Filename)
		require.NotEmpty(t, q.Term)
		switch {
		case q.Sort == SortDefault:
			defaults++
		case q.Sort == SortIndexed && q.Order == OrderAsc:
			asc++
		case q.Sort == SortIndexed && q.Order == OrderDesc:
			desc++
		default:
			t.Fatalf("query ngoài không gian hợp lệ: %+v", q)
		}
	}
	assert.Equal(t, 29, defaults)
	assert.Equal(t, 29, asc)
	assert.Equal(t, 29, desc)
}

func TestSpaceDefaultSortNeverVariesOrder(t *testing.T) {
	queries := collect(NewSpace("package.json"))

	seen := map[string]int{}
	for _, q := range queries {
		if q.Sort != SortDefault {
			continue
		}
		// Sort mặc định không được sinh order, và mỗi term đúng một lần
		require.Equal(t, OrderNone, q.Order)
		seen[q.Term]++
	}
	for term, n := range seen {
		assert.Equal(t, 1, n, "term %q xuất hiện %d lần dưới sort mặc định", term, n)
	}
}

func TestSpaceDeterministic(t *testing.T) {
	first := collect(NewSpace("package.json"))
	second := collect(NewSpace("package.json"))
	require.Equal(t, first, second)
}

func TestSpaceUnknownFilenameFallback(t *testing.T) {
	s := NewSpace("composer.json")
	queries := collect(s)

	require.Len(t, queries, 3)
	assert.Equal(t, Query{Sort: SortDefault, Order: OrderNone, Filename: "composer.json"}, queries[0])
	assert.Equal(t, Query{Sort: SortIndexed, Order: OrderAsc, Filename: "composer.json"}, queries[1])
	assert.Equal(t, Query{Sort: SortIndexed, Order: OrderDesc, Filename: "composer.json"}, queries[2])
}

func TestSpaceReset(t *testing.T) {
	s := NewSpace("package.json")
	first, ok := s.Next()
	require.True(t, ok)

	_, _ = s.Next()
	_, _ = s.Next()
	s.Reset()

	again, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, first, again)
}

func TestSpaceExhaustion(t *testing.T) {
	s := NewSpace("composer.json")
	collect(s)

	_, ok := s.Next()
	assert.False(t, ok)
}
