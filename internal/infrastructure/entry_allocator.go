package infrastructure

import (
	"github.com/lumenlang/lumenc/internal/interfaces"
)

// EntryAllocator is the secondary-builder pattern spec.md §4.5/§9
// requires: SSA IR demands that stack-slot reservations live in a
// function's entry block so they dominate every use, but the IR
// builder's main insertion point moves around as it lowers control
// flow. For each alloca, EntryAllocator moves the LLVMBuilder it was
// given to the entry block of whichever function is currently being
// lowered, asks for the new alloca right after the previous one in that
// frame (preserving declaration order), and then moves the builder back
// to the block it was in.
//
// Frames are pushed on entering a function body and popped on leaving
// it (callers Pop as soon as the body is lowered, before checking its
// error), which
// lets nested function lowering (a class method lowered while still
// inside another function's frame) restore the enclosing frame exactly.
type EntryAllocator struct {
	builder interfaces.LLVMBuilder
	frames  []*allocFrame
}

type allocFrame struct {
	block interfaces.LLVMBasicBlock
	last  interfaces.LLVMValue
}

func NewEntryAllocator(builder interfaces.LLVMBuilder) *EntryAllocator {
	return &EntryAllocator{builder: builder}
}

// Push starts a new allocation frame anchored at block. It must be
// matched by a Pop when that function's lowering completes.
func (a *EntryAllocator) Push(block interfaces.LLVMBasicBlock) {
	a.frames = append(a.frames, &allocFrame{block: block})
}

// Pop discards the innermost frame, restoring whatever frame (if any)
// was active before the matching Push.
func (a *EntryAllocator) Pop() {
	if len(a.frames) == 0 {
		return
	}
	a.frames = a.frames[:len(a.frames)-1]
}

// Alloca reserves a new stack slot in the current frame's entry block,
// positioned after the most recent alloca placed in that frame.
func (a *EntryAllocator) Alloca(t interfaces.LLVMType, name string) interfaces.LLVMValue {
	frame := a.frames[len(a.frames)-1]
	saved := a.builder.CurrentBlock()
	if frame.last == nil {
		a.builder.PositionAtEnd(frame.block)
	} else {
		a.builder.PositionAfter(frame.block, frame.last)
	}
	v := a.builder.CreateAlloca(t, name)
	frame.last = v
	if saved != nil {
		a.builder.PositionAtEnd(saved)
	}
	return v
}
