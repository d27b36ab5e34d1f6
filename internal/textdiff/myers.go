package textdiff

import "strings"

// DefaultMaxUnits is the default ceiling on combined input size, in
// grapheme clusters. Above the ceiling Diff falls back to a whole-range
// replacement instead of running the minimal-edit algorithm.
const DefaultMaxUnits = 10000

// Options configures diff computation.
type Options struct {
	// MaxUnits limits the combined grapheme count of both inputs.
	// Inputs above the limit produce a single Delete+Insert pair.
	// 0 uses DefaultMaxUnits; negative disables the limit.
	MaxUnits int
}

// DefaultOptions returns the default diff options.
func DefaultOptions() Options {
	return Options{MaxUnits: DefaultMaxUnits}
}

// Diff computes a minimal edit script transforming old into new.
// The script is minimal under grapheme-count cost; adjacent operations
// of the same kind are coalesced and within a changed region deletions
// precede insertions, keeping scripts stable across equal-cost paths.
func Diff(old, new string, opts Options) Script {
	if old == new {
		if old == "" {
			return nil
		}
		return Script{{Kind: Retain, Text: old, N: uniCount(old)}}
	}

	oldUnits := graphemes(old)
	newUnits := graphemes(new)

	maxUnits := opts.MaxUnits
	if maxUnits == 0 {
		maxUnits = DefaultMaxUnits
	}
	if maxUnits > 0 && len(oldUnits)+len(newUnits) > maxUnits {
		// Pathological input size: replace the whole range.
		var s Script
		if old != "" {
			s = append(s, Op{Kind: Delete, Text: old, N: len(oldUnits)})
		}
		if new != "" {
			s = append(s, Op{Kind: Insert, Text: new, N: len(newUnits)})
		}
		return s
	}

	return coalesce(myers(oldUnits, newUnits), oldUnits, newUnits)
}

// uniCount returns the number of grapheme clusters in s.
func uniCount(s string) int {
	return len(graphemes(s))
}

// unitOp is a single-unit edit produced by the Myers backtrack.
type unitOp struct {
	kind     OpKind
	oldIndex int
	newIndex int
}

// myers implements the Myers shortest-edit-script algorithm over
// grapheme units. Runs in O(ND) time and space.
func myers(oldUnits, newUnits []string) []unitOp {
	n := len(oldUnits)
	m := len(newUnits)

	if n == 0 && m == 0 {
		return nil
	}
	if n == 0 {
		ops := make([]unitOp, m)
		for i := range ops {
			ops[i] = unitOp{kind: Insert, newIndex: i}
		}
		return ops
	}
	if m == 0 {
		ops := make([]unitOp, n)
		for i := range ops {
			ops[i] = unitOp{kind: Delete, oldIndex: i}
		}
		return ops
	}

	maxD := n + m
	offset := maxD // v[-max..max] maps to slice[0..2*max]
	v := make([]int, 2*maxD+1)
	v[offset+1] = 0

	var trace [][]int

outer:
	for d := 0; d <= maxD; d++ {
		vCopy := make([]int, len(v))
		copy(vCopy, v)
		trace = append(trace, vCopy)

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k

			for x < n && y < m && oldUnits[x] == newUnits[y] {
				x++
				y++
			}
			v[offset+k] = x

			if x >= n && y >= m {
				vFinal := make([]int, len(v))
				copy(vFinal, v)
				trace = append(trace, vFinal)
				break outer
			}
		}
	}

	return backtrack(trace, n, m, offset)
}

// backtrack reconstructs the edit sequence from the search trace.
func backtrack(trace [][]int, n, m, offset int) []unitOp {
	if len(trace) == 0 {
		return nil
	}

	x, y := n, m
	var ops []unitOp

	for d := len(trace) - 2; d >= 0; d-- {
		v := trace[d]
		k := x - y

		var prevK int
		if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}

		prevX := v[offset+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			ops = append(ops, unitOp{kind: Retain, oldIndex: x, newIndex: y})
		}

		if d > 0 {
			if x > prevX {
				x--
				ops = append(ops, unitOp{kind: Delete, oldIndex: x})
			} else if y > prevY {
				y--
				ops = append(ops, unitOp{kind: Insert, newIndex: y})
			}
		}
	}

	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return ops
}

// coalesce merges single-unit edits into runs. Within each changed
// region deletions are emitted before insertions.
func coalesce(ops []unitOp, oldUnits, newUnits []string) Script {
	var script Script
	i := 0
	for i < len(ops) {
		kind := ops[i].kind

		if kind == Retain {
			var b strings.Builder
			n := 0
			for i < len(ops) && ops[i].kind == Retain {
				b.WriteString(oldUnits[ops[i].oldIndex])
				n++
				i++
			}
			script = append(script, Op{Kind: Retain, Text: b.String(), N: n})
			continue
		}

		// Collect the whole changed region (everything up to the
		// next retain), then emit Delete before Insert.
		var del, ins strings.Builder
		nDel, nIns := 0, 0
		for i < len(ops) && ops[i].kind != Retain {
			if ops[i].kind == Delete {
				del.WriteString(oldUnits[ops[i].oldIndex])
				nDel++
			} else {
				ins.WriteString(newUnits[ops[i].newIndex])
				nIns++
			}
			i++
		}
		if nDel > 0 {
			script = append(script, Op{Kind: Delete, Text: del.String(), N: nDel})
		}
		if nIns > 0 {
			script = append(script, Op{Kind: Insert, Text: ins.String(), N: nIns})
		}
	}
	return script
}
