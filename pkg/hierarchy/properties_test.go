package hierarchy

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var nameParts = []string{"a", "b", "ab", "Ba", "c", "AC"}

// randomForest builds n records where each parent is an earlier record or
// none, so the result is always acyclic.
func randomForest(r *rand.Rand, n int) []Record {
	recs := make([]Record, 0, n)
	for i := range n {
		rec := Record{ID: fmt.Sprintf("n%d", i), Order: i + 1}
		var name strings.Builder
		for range 1 + r.IntN(3) {
			name.WriteString(nameParts[r.IntN(len(nameParts))])
		}
		rec.Name = name.String()
		if i > 0 && r.IntN(4) != 0 {
			rec.ParentID = recs[r.IntN(i)].ID
		}
		recs = append(recs, rec)
	}
	return recs
}

func TestValidateParentAssignment_RandomForests(t *testing.T) {
	for seed := uint64(1); seed <= 25; seed++ {
		r := rand.New(rand.NewPCG(seed, seed*31))
		recs := randomForest(r, 2+r.IntN(14))

		for _, x := range recs {
			below := Descendants(x.ID, recs)
			require.NoError(t, ValidateParentAssignment(x.ID, "", recs))
			for _, y := range recs {
				err := ValidateParentAssignment(x.ID, y.ID, recs)
				if y.ID == x.ID || slices.Contains(below, y.ID) {
					circ, ok := errors.AsType[*CircularReferenceError](err)
					require.True(t, ok, "seed=%d x=%s y=%s err=%v", seed, x.ID, y.ID, err)
					require.False(t, circ.Corrupt)
					continue
				}
				require.NoError(t, err, "seed=%d x=%s y=%s", seed, x.ID, y.ID)
			}
		}
	}
}

func TestSearch_RandomForests(t *testing.T) {
	terms := []string{"", "a", "b", "ab", "ba", "ac", "bab", "z"}
	for seed := uint64(1); seed <= 25; seed++ {
		r := rand.New(rand.NewPCG(seed, seed*17))
		recs := randomForest(r, 1+r.IntN(20))
		roots := BuildTree(recs)

		for _, term := range terms {
			matches := func(rec Record) bool {
				return strings.Contains(strings.ToLower(rec.Name), term)
			}
			byID := indexByID(recs)

			want := map[string]bool{}
			for _, rec := range recs {
				keep := matches(rec)
				for _, d := range Descendants(rec.ID, recs) {
					keep = keep || matches(byID[d])
				}
				if keep {
					want[rec.ID] = matches(rec) && term != ""
				}
			}

			got := map[string]bool{}
			Walk(Search(roots, term), func(n *Node, _ int) bool {
				got[n.ID] = n.Highlighted
				return true
			})
			require.Equal(t, want, got, "seed=%d term=%q", seed, term)
		}
		require.Equal(t, len(recs), Count(roots), "search must not modify its input")
	}
}

func TestNextOrder_Sweep(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for n := 0; n <= 30; n++ {
		full := make([]int, 0, n)
		for i := 1; i <= n; i++ {
			full = append(full, i)
		}
		r.Shuffle(len(full), func(i, j int) { full[i], full[j] = full[j], full[i] })
		require.Equal(t, n+1, NextOrder(full), "n=%d without a gap", n)

		for g := 1; g <= n; g++ {
			orders := make([]int, 0, n)
			for _, o := range full {
				if o != g {
					orders = append(orders, o)
				}
			}
			require.Equal(t, g, NextOrder(orders), "n=%d g=%d", n, g)
		}
	}
}
