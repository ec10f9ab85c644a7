package vm

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/zurustar/scmvm/pkg/opcode"
)

// TestProperty3_ConditionFolding tests that an if-block folds exactly the
// declared number of results with AND or OR.
// Feature: scheduler, Property 3: 条件の畳み込み
func TestProperty3_ConditionFolding(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("AND mode yields true only if every result is true", prop.ForAll(
		func(results []bool) bool {
			if len(results) == 0 || len(results) > 8 {
				return true
			}
			th := newThread(0, false)
			th.BeginCondition(int32(len(results) - 1))
			want := true
			for _, r := range results {
				th.ApplyCondition(r)
				want = want && r
			}
			return th.ConditionCount == 0 && th.ConditionResult == want
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("OR mode yields true if any result is true", prop.ForAll(
		func(results []bool) bool {
			if len(results) == 0 || len(results) > 8 {
				return true
			}
			th := newThread(0, false)
			th.BeginCondition(int32(len(results) + 19))
			want := false
			for _, r := range results {
				th.ApplyCondition(r)
				want = want || r
			}
			return th.ConditionCount == 0 && th.ConditionResult == want
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}

// TestProperty4_JumpIfFalseUsesFoldedResult runs if-blocks through the
// machine, with negated probes, and checks the branch taken.
// Feature: scheduler, Property 4: 分岐は最終結果のみを参照
func TestProperty4_JumpIfFalseUsesFoldedResult(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	reg := NewRegistry(CoreModule(), probeModule(map[opcode.ID]bool{probeTrue: true, probeFalse: false}))

	properties.Property("branch follows the folded result", prop.ForAll(
		func(results []bool, negate []bool, or bool) bool {
			n := len(results)
			if n == 0 || n > 8 || len(negate) < n {
				return true
			}
			b := program()
			if or {
				b.Op(opcode.If).Int(int32(n + 19))
			} else {
				b.Op(opcode.If).Int(int32(n - 1))
			}
			want := !or
			for i, r := range results {
				id := probeFalse
				if r != negate[i] {
					id = probeTrue
				}
				if negate[i] {
					b.NotOp(id)
				} else {
					b.Op(id)
				}
				if or {
					want = want || r
				} else {
					want = want && r
				}
			}
			b.Op(opcode.JumpIfFalse)
			skip := b.Label()
			b.Op(opcode.SetGlobalInt).Global(8).Int(1)
			b.Patch(skip, int32(b.Offset()))
			halt(b)

			m := newMachineWith(t, b.Bytes(), reg)
			if err := m.Execute(tick); err != nil {
				return false
			}
			got, _ := m.Globals().Int32(8)
			return (got == 1) == want
		},
		gen.SliceOf(gen.Bool()),
		gen.SliceOfN(8, gen.Bool()),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
