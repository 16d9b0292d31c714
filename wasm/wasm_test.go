package wasm

import (
	"testing"

	"github.com/lumalang/luma/op"
	"github.com/stretchr/testify/require"
)

func TestUleb128(t *testing.T) {
	tests := []struct {
		value    uint64
		expected []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xAC, 0x02}},
		{624485, []byte{0xE5, 0x8E, 0x26}},
		{1<<64 - 1, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}},
	}
	for _, tt := range tests {
		encoded := AppendUleb128(nil, tt.value)
		require.Equal(t, tt.expected, encoded, "value: %d", tt.value)
		decoded, n, err := ReadUleb128(encoded)
		require.Nil(t, err)
		require.Equal(t, len(encoded), n)
		require.Equal(t, tt.value, decoded)
	}
}

func TestSleb128(t *testing.T) {
	tests := []struct {
		value    int64
		expected []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{-1, []byte{0x7F}},
		{63, []byte{0x3F}},
		{64, []byte{0xC0, 0x00}},
		{-64, []byte{0x40}},
		{-65, []byte{0xBF, 0x7F}},
		{-123456, []byte{0xC0, 0xBB, 0x78}},
	}
	for _, tt := range tests {
		encoded := AppendSleb128(nil, tt.value)
		require.Equal(t, tt.expected, encoded, "value: %d", tt.value)
		decoded, n, err := ReadSleb128(encoded)
		require.Nil(t, err)
		require.Equal(t, len(encoded), n)
		require.Equal(t, tt.value, decoded)
	}
}

func TestSleb128Extremes(t *testing.T) {
	for _, v := range []int64{1<<63 - 1, -1 << 63, 1 << 32, -(1 << 32)} {
		encoded := AppendSleb128(nil, v)
		decoded, _, err := ReadSleb128(encoded)
		require.Nil(t, err)
		require.Equal(t, v, decoded, "value: %d", v)
	}
}

func TestLeb128Truncated(t *testing.T) {
	_, _, err := ReadUleb128([]byte{0x80})
	require.NotNil(t, err)
	_, _, err = ReadSleb128([]byte{0xFF, 0xFF})
	require.NotNil(t, err)
	_, _, err = ReadUleb128(nil)
	require.NotNil(t, err)
}

// addModule builds the module for: func add(a: i32, b: i32) -> i32.
func addModule() *Module {
	m := &Module{}
	typeIndex := m.AddType(FuncType{Params: []ValType{I32, I32}, Results: []ValType{I32}})
	var body []byte
	body = append(body, byte(op.LocalGet))
	body = AppendUleb128(body, 0)
	body = append(body, byte(op.LocalGet))
	body = AppendUleb128(body, 1)
	body = append(body, byte(op.I32Add))
	m.Funcs = append(m.Funcs, Function{TypeIndex: typeIndex, Body: body})
	m.Memory = &Memory{Min: 1, Max: 16, HasMax: true}
	m.Exports = append(m.Exports, Export{Name: "add", Kind: KindFunc, Index: 0})
	return m
}

func TestEncodeHeader(t *testing.T) {
	encoded := addModule().Encode()
	require.Equal(t, []byte{0x00, 0x61, 0x73, 0x6D}, encoded[:4])
	require.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, encoded[4:8])
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := addModule()
	decoded, err := Decode(m.Encode())
	require.Nil(t, err)
	require.Equal(t, m.Types, decoded.Types)
	require.Equal(t, m.Funcs, decoded.Funcs)
	require.Equal(t, m.Memory, decoded.Memory)
	require.Equal(t, m.Exports, decoded.Exports)
}

func TestAddTypeDeduplicates(t *testing.T) {
	m := &Module{}
	sig := FuncType{Params: []ValType{I32}, Results: []ValType{I32}}
	first := m.AddType(sig)
	second := m.AddType(FuncType{Params: []ValType{I32}, Results: []ValType{I32}})
	require.Equal(t, first, second)
	require.Len(t, m.Types, 1)

	third := m.AddType(FuncType{Params: []ValType{I64}, Results: []ValType{I32}})
	require.NotEqual(t, first, third)
	require.Len(t, m.Types, 2)
}

func TestLocalsRunLength(t *testing.T) {
	m := &Module{}
	typeIndex := m.AddType(FuncType{})
	m.Funcs = append(m.Funcs, Function{
		TypeIndex: typeIndex,
		Locals:    []ValType{I32, I32, I64, F64, F64, F64},
	})
	decoded, err := Decode(m.Encode())
	require.Nil(t, err)
	require.Equal(t, m.Funcs[0].Locals, decoded.Funcs[0].Locals)
}

func TestExportedFunc(t *testing.T) {
	m := addModule()
	index, ok := m.ExportedFunc("add")
	require.True(t, ok)
	require.Equal(t, uint32(0), index)
	_, ok = m.ExportedFunc("missing")
	require.False(t, ok)
}

func TestDecodeBadMagic(t *testing.T) {
	data := addModule().Encode()
	data[0] = 0xFF
	_, err := Decode(data)
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "magic")
}

func TestDecodeBadVersion(t *testing.T) {
	data := addModule().Encode()
	data[4] = 0x02
	_, err := Decode(data)
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "version")
}

func TestDecodeShortInput(t *testing.T) {
	_, err := Decode([]byte{0x00, 0x61, 0x73})
	require.NotNil(t, err)
}

func TestDecodeSectionOrder(t *testing.T) {
	m := addModule()
	encoded := m.Encode()

	// Rebuild the binary with the memory section moved after the export
	// section, which violates the required ordering.
	var reordered []byte
	reordered = append(reordered, encoded[:8]...)
	sections := splitSections(t, encoded[8:])
	reordered = append(reordered, sections[sectionType]...)
	reordered = append(reordered, sections[sectionFunction]...)
	reordered = append(reordered, sections[sectionExport]...)
	reordered = append(reordered, sections[sectionMemory]...)
	reordered = append(reordered, sections[sectionCode]...)

	_, err := Decode(reordered)
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "out of order")
}

// splitSections cuts a section stream into id -> raw section bytes.
func splitSections(t *testing.T, data []byte) map[byte][]byte {
	t.Helper()
	out := map[byte][]byte{}
	for len(data) > 0 {
		id := data[0]
		size, n, err := ReadUleb128(data[1:])
		require.Nil(t, err)
		end := 1 + n + int(size)
		out[id] = data[:end]
		data = data[end:]
	}
	return out
}

func TestDecodeTruncatedSection(t *testing.T) {
	data := addModule().Encode()
	_, err := Decode(data[:len(data)-3])
	require.NotNil(t, err)
}

func TestDecodeBodyMissingEnd(t *testing.T) {
	m := &Module{}
	typeIndex := m.AddType(FuncType{})
	m.Funcs = append(m.Funcs, Function{TypeIndex: typeIndex})
	data := m.Encode()
	// The last byte of the code section is the body's end opcode.
	data[len(data)-1] = byte(op.Nop)
	_, err := Decode(data)
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "end opcode")
}
