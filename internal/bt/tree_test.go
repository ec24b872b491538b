package bt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func statusAction(s Status) *Action {
	return &Action{Fn: func(*Context) Status { return s }}
}

func TestSelectorShortCircuits(t *testing.T) {
	ran := 0
	counting := &Action{Fn: func(*Context) Status { ran++; return Success }}
	never := &Action{Fn: func(*Context) Status { t.Fatal("should not run"); return Failure }}

	sel := &Selector{Children: []Node{statusAction(Failure), counting, never}}
	assert.Equal(t, Success, sel.Tick(&Context{}))
	assert.Equal(t, 1, ran)
}

func TestSelectorReturnsRunning(t *testing.T) {
	sel := &Selector{Children: []Node{statusAction(Failure), statusAction(Running), statusAction(Success)}}
	assert.Equal(t, Running, sel.Tick(&Context{}))
}

func TestSelectorAllFail(t *testing.T) {
	sel := &Selector{Children: []Node{statusAction(Failure), statusAction(Failure)}}
	assert.Equal(t, Failure, sel.Tick(&Context{}))
}

func TestSequenceStopsOnNonSuccess(t *testing.T) {
	ran := 0
	counting := &Action{Fn: func(*Context) Status { ran++; return Success }}

	seq := &Sequence{Children: []Node{counting, statusAction(Running), counting}}
	assert.Equal(t, Running, seq.Tick(&Context{}))
	assert.Equal(t, 1, ran)

	seq = &Sequence{Children: []Node{counting, statusAction(Failure)}}
	assert.Equal(t, Failure, seq.Tick(&Context{}))
}

func TestCheckAndInverter(t *testing.T) {
	truthy := &Check{Fn: func(*Context) bool { return true }}
	assert.Equal(t, Success, truthy.Tick(&Context{}))
	assert.Equal(t, Failure, (&Inverter{Child: truthy}).Tick(&Context{}))
	assert.Equal(t, Running, (&Inverter{Child: statusAction(Running)}).Tick(&Context{}))
}

func TestNilTreeFails(t *testing.T) {
	var tr *Tree
	assert.Equal(t, Failure, tr.Tick(&Context{}))
	assert.Equal(t, Failure, (&Tree{}).Tick(&Context{}))
}

// A shared tree must be resumable across ticks: progress lives on the agent
// record, not in the nodes, so two agents evaluating the same tree do not
// interfere.
func TestSharedTreeExternalizedState(t *testing.T) {
	type agent struct{ steps int }

	tree := &Tree{Root: &Action{Fn: func(ctx *Context) Status {
		a := ctx.Agent.(*agent)
		a.steps++
		if a.steps < 3 {
			return Running
		}
		return Success
	}}}

	a1 := &agent{}
	a2 := &agent{}
	for i := 0; i < 2; i++ {
		assert.Equal(t, Running, tree.Tick(&Context{Agent: a1}))
	}
	assert.Equal(t, Running, tree.Tick(&Context{Agent: a2}))
	assert.Equal(t, Success, tree.Tick(&Context{Agent: a1}))
	assert.Equal(t, 3, a1.steps)
	assert.Equal(t, 1, a2.steps)
}

func TestBlackboardTypedGetters(t *testing.T) {
	b := NewBlackboard()
	b.Set("target", "e1")
	b.Set("cooldown", 1.5)
	b.Set("alerted", true)

	assert.Equal(t, "e1", b.GetString("target"))
	assert.Equal(t, 1.5, b.GetFloat("cooldown"))
	assert.True(t, b.GetBool("alerted"))
	assert.Equal(t, "", b.GetString("missing"))

	b.Delete("target")
	_, ok := b.Get("target")
	assert.False(t, ok)
}
