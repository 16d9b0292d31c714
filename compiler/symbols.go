package compiler

import "github.com/lumalang/luma/types"

// local is a variable bound to a WASM local slot.
type local struct {
	Name string
	Slot uint32
	Type *types.Type
}

// symbolTable maps names to local slots for one function body. Block scopes
// push and pop frames; slots themselves are never reused, so every variable
// in a function occupies a distinct local even when scopes do not overlap.
type symbolTable struct {
	frames []map[string]*local
	next   uint32
}

func newSymbolTable() *symbolTable {
	return &symbolTable{frames: []map[string]*local{{}}}
}

func (st *symbolTable) push() {
	st.frames = append(st.frames, map[string]*local{})
}

func (st *symbolTable) pop() {
	st.frames = st.frames[:len(st.frames)-1]
}

// define binds a name in the innermost frame and assigns it the next slot.
func (st *symbolTable) define(name string, typ *types.Type) *local {
	sym := &local{Name: name, Slot: st.next, Type: typ}
	st.next++
	st.frames[len(st.frames)-1][name] = sym
	return sym
}

// resolve looks a name up, innermost frame first.
func (st *symbolTable) resolve(name string) (*local, bool) {
	for i := len(st.frames) - 1; i >= 0; i-- {
		if sym, ok := st.frames[i][name]; ok {
			return sym, true
		}
	}
	return nil, false
}
