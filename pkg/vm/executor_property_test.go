package vm

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/zurustar/scmvm/pkg/opcode"
)

// Property-based tests for the scheduler.

// TestProperty6_SleepSemantics tests the wake counter set by the sleep opcode.
// Feature: scheduler, Property 6: スリープのセマンティクス
func TestProperty6_SleepSemantics(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("sleep 0 suspends, sleep k waits k ms", prop.ForAll(
		func(k int32) bool {
			m := newTestMachine(t, program().Op(opcode.Sleep).Int(k).Bytes())
			_, th := entryThread(t, m)
			if err := m.Execute(tick); err != nil {
				return false
			}
			if k == 0 {
				return th.WakeCounter == Suspended
			}
			return th.WakeCounter == k
		},
		gen.Int32Range(0, 1<<20),
	))

	properties.TestingRun(t)
}

// TestProperty7_SuspendedThreadsAreUntouched tests that a tick never changes
// the pc or locals of a thread that stays asleep or suspended.
// Feature: scheduler, Property 7: 停止中スレッドの不変性
func TestProperty7_SuspendedThreadsAreUntouched(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("sleeping threads keep pc and locals", prop.ForAll(
		func(k int32, ticks int) bool {
			b := program()
			loop := b.Offset()
			b.Op(opcode.AddLocalInt).Local(5).Int(1)
			b.Op(opcode.Sleep).Int(k)
			b.Op(opcode.Jump).Int32(int32(loop))

			m := newTestMachine(t, b.Bytes())
			_, th := entryThread(t, m)
			for i := 0; i < ticks; i++ {
				before := th.WakeCounter
				pc := th.ProgramCounter
				locals := th.Locals().Bytes()
				if err := m.Execute(tick); err != nil {
					return false
				}
				stays := before == Suspended || before-int32(tick.Milliseconds()) > 0
				if stays && (th.ProgramCounter != pc || !bytes.Equal(locals, th.Locals().Bytes())) {
					return false
				}
			}
			return true
		},
		gen.Int32Range(0, 200),
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}

// TestProperty8_NewThreadsStartNextTick tests that threads created during a
// tick run from the following tick, in creation order.
// Feature: scheduler, Property 8: 新規スレッドは次のティックから実行
func TestProperty8_NewThreadsStartNextTick(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("children do not run in their creation tick", prop.ForAll(
		func(n int) bool {
			b := program()
			labels := make([]int, n)
			for i := range labels {
				b.Op(opcode.StartThread)
				labels[i] = b.Label()
				b.End()
			}
			halt(b)
			for i, at := range labels {
				b.Patch(at, int32(b.Offset()))
				// each child records its creation index + 1 in its own cell
				// and the last writer of global 8
				b.Op(opcode.SetGlobalInt).Global(uint16(12 + 4*i)).Int(int32(i + 1))
				b.Op(opcode.SetGlobalInt).Global(8).Int(int32(i + 1))
				halt(b)
			}

			m := newTestMachine(t, b.Bytes())
			if err := m.Execute(tick); err != nil {
				return false
			}
			for i := 0; i < n; i++ {
				if v, _ := m.Globals().Int32(uint32(12 + 4*i)); v != 0 {
					return false
				}
			}
			if len(m.Threads()) != n {
				return false
			}
			if err := m.Execute(tick); err != nil {
				return false
			}
			for i := 0; i < n; i++ {
				if v, _ := m.Globals().Int32(uint32(12 + 4*i)); v != int32(i+1) {
					return false
				}
			}
			last, _ := m.Globals().Int32(8)
			return last == int32(n)
		},
		gen.IntRange(1, 16),
	))

	properties.TestingRun(t)
}
