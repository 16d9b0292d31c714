package wasm

import (
	"bytes"
	"fmt"

	"github.com/lumalang/luma/op"
)

// Decode parses a WASM binary back into a Module. It validates the magic
// number, the version, and that sections appear in increasing id order.
func Decode(data []byte) (*Module, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("module too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:4], magic) {
		return nil, fmt.Errorf("bad magic number % x", data[:4])
	}
	if !bytes.Equal(data[4:8], version) {
		return nil, fmt.Errorf("unsupported version % x", data[4:8])
	}

	d := &decoder{buf: data[8:]}
	m := &Module{}
	lastSection := byte(0)
	for d.len() > 0 {
		id, err := d.byte()
		if err != nil {
			return nil, err
		}
		size, err := d.uint()
		if err != nil {
			return nil, err
		}
		content, err := d.take(int(size))
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", id, err)
		}
		if id == 0 {
			continue // custom sections may appear anywhere
		}
		if id <= lastSection {
			return nil, fmt.Errorf("section %d out of order", id)
		}
		lastSection = id

		s := &decoder{buf: content}
		switch id {
		case sectionType:
			err = decodeTypes(s, m)
		case sectionFunction:
			err = decodeFuncDecls(s, m)
		case sectionMemory:
			err = decodeMemory(s, m)
		case sectionExport:
			err = decodeExports(s, m)
		case sectionCode:
			err = decodeCode(s, m)
		default:
			return nil, fmt.Errorf("unsupported section id %d", id)
		}
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", id, err)
		}
	}

	for i, fn := range m.Funcs {
		if int(fn.TypeIndex) >= len(m.Types) {
			return nil, fmt.Errorf("function %d: type index %d out of range", i, fn.TypeIndex)
		}
	}
	for _, exp := range m.Exports {
		if exp.Kind == KindFunc && int(exp.Index) >= len(m.Funcs) {
			return nil, fmt.Errorf("export %q: function index %d out of range", exp.Name, exp.Index)
		}
	}
	return m, nil
}

func decodeTypes(d *decoder, m *Module) error {
	count, err := d.uint()
	if err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		tag, err := d.byte()
		if err != nil {
			return err
		}
		if tag != funcTypeTag {
			return fmt.Errorf("type %d: bad tag 0x%02x", i, tag)
		}
		params, err := d.valTypes()
		if err != nil {
			return err
		}
		results, err := d.valTypes()
		if err != nil {
			return err
		}
		if len(results) > 1 {
			return fmt.Errorf("type %d: multiple results", i)
		}
		m.Types = append(m.Types, FuncType{Params: params, Results: results})
	}
	return nil
}

func decodeFuncDecls(d *decoder, m *Module) error {
	count, err := d.uint()
	if err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		typeIndex, err := d.uint()
		if err != nil {
			return err
		}
		m.Funcs = append(m.Funcs, Function{TypeIndex: uint32(typeIndex)})
	}
	return nil
}

func decodeMemory(d *decoder, m *Module) error {
	count, err := d.uint()
	if err != nil {
		return err
	}
	if count != 1 {
		return fmt.Errorf("expected one memory, found %d", count)
	}
	flags, err := d.byte()
	if err != nil {
		return err
	}
	min, err := d.uint()
	if err != nil {
		return err
	}
	mem := &Memory{Min: uint32(min)}
	if flags&0x01 != 0 {
		max, err := d.uint()
		if err != nil {
			return err
		}
		mem.Max = uint32(max)
		mem.HasMax = true
	}
	m.Memory = mem
	return nil
}

func decodeExports(d *decoder, m *Module) error {
	count, err := d.uint()
	if err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		nameLen, err := d.uint()
		if err != nil {
			return err
		}
		name, err := d.take(int(nameLen))
		if err != nil {
			return err
		}
		kind, err := d.byte()
		if err != nil {
			return err
		}
		if kind != KindFunc && kind != KindMemory {
			return fmt.Errorf("export %q: unsupported kind %d", name, kind)
		}
		index, err := d.uint()
		if err != nil {
			return err
		}
		m.Exports = append(m.Exports, Export{
			Name:  string(name),
			Kind:  kind,
			Index: uint32(index),
		})
	}
	return nil
}

func decodeCode(d *decoder, m *Module) error {
	count, err := d.uint()
	if err != nil {
		return err
	}
	if int(count) != len(m.Funcs) {
		return fmt.Errorf("code count %d does not match %d declared functions", count, len(m.Funcs))
	}
	for i := uint64(0); i < count; i++ {
		size, err := d.uint()
		if err != nil {
			return err
		}
		entry, err := d.take(int(size))
		if err != nil {
			return err
		}
		locals, body, err := decodeFuncBody(entry)
		if err != nil {
			return fmt.Errorf("function %d: %w", i, err)
		}
		m.Funcs[i].Locals = locals
		m.Funcs[i].Body = body
	}
	return nil
}

func decodeFuncBody(entry []byte) ([]ValType, []byte, error) {
	d := &decoder{buf: entry}
	runs, err := d.uint()
	if err != nil {
		return nil, nil, err
	}
	var locals []ValType
	for i := uint64(0); i < runs; i++ {
		count, err := d.uint()
		if err != nil {
			return nil, nil, err
		}
		typ, err := d.byte()
		if err != nil {
			return nil, nil, err
		}
		if !ValType(typ).IsValid() {
			return nil, nil, fmt.Errorf("bad local type 0x%02x", typ)
		}
		for j := uint64(0); j < count; j++ {
			locals = append(locals, ValType(typ))
		}
	}
	body := d.rest()
	if len(body) == 0 || body[len(body)-1] != byte(op.End) {
		return nil, nil, fmt.Errorf("body does not end with end opcode")
	}
	return locals, body[:len(body)-1], nil
}

// decoder is a cursor over a byte slice.
type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) len() int { return len(d.buf) - d.pos }

func (d *decoder) byte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, fmt.Errorf("unexpected end of data")
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) uint() (uint64, error) {
	v, n, err := ReadUleb128(d.buf[d.pos:])
	if err != nil {
		return 0, err
	}
	d.pos += n
	return v, nil
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || d.len() < n {
		return nil, fmt.Errorf("unexpected end of data")
	}
	out := d.buf[d.pos : d.pos+n]
	d.pos += n
	return out, nil
}

func (d *decoder) rest() []byte {
	out := d.buf[d.pos:]
	d.pos = len(d.buf)
	return out
}

func (d *decoder) valTypes() ([]ValType, error) {
	count, err := d.uint()
	if err != nil {
		return nil, err
	}
	var out []ValType
	for i := uint64(0); i < count; i++ {
		b, err := d.byte()
		if err != nil {
			return nil, err
		}
		if !ValType(b).IsValid() {
			return nil, fmt.Errorf("bad value type 0x%02x", b)
		}
		out = append(out, ValType(b))
	}
	return out, nil
}
