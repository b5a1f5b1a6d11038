package ir

import (
	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/internal/litmatch"
)

// Interp is the reference IR backend: a [Builder] that executes emitted
// function bodies immediately, against real bytes and a real [Object],
// instead of lowering them to machine code. It exists so the rest of the
// module — TypeLayout, LiteralMatcher, Synchronizer, ParserBuilder,
// Composer, CodeGen — can be exercised end to end without a real backend
// attached; a production backend would implement the same [Builder]/
// [Block] interfaces by emitting actual instructions instead.
type Interp struct {
	structs     map[string]*StructType
	unions      map[string]*UnionType
	funcs       map[string]*Func
	descriptors []ParserDescriptor
}

// NewInterp returns an empty reference backend.
func NewInterp() *Interp {
	return &Interp{
		structs: map[string]*StructType{},
		unions:  map[string]*UnionType{},
		funcs:   map[string]*Func{},
	}
}

var _ Builder = (*Interp)(nil)

func (ip *Interp) DeclareStruct(name string) *StructType {
	if t, ok := ip.structs[name]; ok {
		return t
	}
	t := &StructType{Name: name}
	ip.structs[name] = t
	return t
}

func (ip *Interp) DefineStruct(t *StructType, fields []Field) { t.Fields = fields }

func (ip *Interp) DeclareUnion(name string) *UnionType {
	if t, ok := ip.unions[name]; ok {
		return t
	}
	t := &UnionType{Name: name}
	ip.unions[name] = t
	return t
}

func (ip *Interp) DefineUnion(t *UnionType, cases []Field) { t.Cases = cases }

func (ip *Interp) DeclareFunc(name string) *Func {
	if f, ok := ip.funcs[name]; ok {
		return f
	}
	f := &Func{Name: name}
	ip.funcs[name] = f
	return f
}

func (ip *Interp) DefineFunc(f *Func, body FuncBody) { f.body = body }

func (ip *Interp) Func(name string) *Func { return ip.funcs[name] }

func (ip *Interp) RegisterParser(desc ParserDescriptor) {
	ip.descriptors = append(ip.descriptors, desc)
}

// Descriptors returns every parser descriptor registered so far, in
// registration order.
func (ip *Interp) Descriptors() []ParserDescriptor { return ip.descriptors }

// HookRunner dispatches the registered implementations of a hook id. It is
// supplied by [internal/hooks] when starting a run; ir has no opinion on
// registration or priority ordering, only on when to call the dispatcher.
type HookRunner interface {
	Run(id string, self Value, cookie any, element Value) (stop bool, err error)
}

// SinkWriter forwards parsed or composed byte ranges to a runtime sink.
type SinkWriter interface {
	Write(sink string, data []byte, cookie any)
}

// RunOptions configures one [Interp.Start] call.
type RunOptions struct {
	Hooks  HookRunner
	Sinks  SinkWriter
	Output func(data []byte) // composer byte-output callback
	Cookie any
	Data   []byte
	Frozen bool
}

// feedItem is one Feed/Finish round trip's input.
type feedItem struct {
	data   []byte
	frozen bool
}

// Step is the outcome of one round of a [Run]: either the fiber yielded
// (Waiting), finished (Done, with Results or Err), or — never both.
type Step struct {
	Waiting bool
	Done    bool
	Results []Value
	Err     error
}

// Run is a single in-flight fiber execution of an IR function.
type Run struct {
	feed chan feedItem
	out  chan Step
}

// Feed appends data to the fiber's input and reports the next step.
func (r *Run) Feed(data []byte) Step {
	r.feed <- feedItem{data: data}
	return <-r.out
}

// Finish appends a final chunk of data, marks the input frozen (no more
// will ever arrive), and reports the final step.
func (r *Run) Finish(data []byte) Step {
	r.feed <- feedItem{data: data, frozen: true}
	return <-r.out
}

// Start begins executing fn as a fresh fiber and returns once it either
// yields or completes.
func (ip *Interp) Start(fn *Func, args []Value, opts RunOptions) (*Run, Step) {
	st := &execState{
		ip:     ip,
		data:   append([]byte(nil), opts.Data...),
		frozen: opts.Frozen,
		hooks:  opts.Hooks,
		sinks:  opts.Sinks,
		output: opts.Output,
		cookie: opts.Cookie,
		feed:   make(chan feedItem),
		out:    make(chan Step),
	}

	r := &Run{feed: st.feed, out: st.out}
	go st.run(fn, args)
	return r, <-st.out
}

// execState is one fiber's mutable state: the byte buffer, the current and
// bounded-end iterators, and the channels used to suspend/resume across
// [Run.Feed] calls.
type execState struct {
	ip *Interp

	data   []byte
	frozen bool
	cur    int
	ends   []int // active &length bounds, innermost last

	hooks  HookRunner
	sinks  SinkWriter
	output func([]byte)
	cookie any

	feed chan feedItem
	out  chan Step
}

func (st *execState) run(fn *Func, args []Value) {
	blk := &blockImpl{st: st}
	vals, err := fn.Call(blk, args...)
	st.out <- Step{Done: true, Results: vals, Err: err}
}

func (st *execState) effectiveEnd() int {
	e := -1
	if st.frozen {
		e = len(st.data)
	}
	for _, b := range st.ends {
		if e == -1 || b < e {
			e = b
		}
	}
	return e
}

// yield blocks the fiber until at least need bytes are available past cur,
// or the input is frozen. It is the only suspension point in the
// interpreter, implementing §5's cooperative-fiber model with a goroutine
// and a pair of unbuffered channels rather than continuation-passing.
func (st *execState) yield(need int) {
	for {
		if len(st.data)-st.cur >= need || st.frozen {
			return
		}
		st.out <- Step{Waiting: true}
		item := <-st.feed
		st.data = append(st.data, item.data...)
		if item.frozen {
			st.frozen = true
		}
	}
}

// blockImpl implements [Block] against an [execState].
type blockImpl struct{ st *execState }

var _ Block = (*blockImpl)(nil)

func (b *blockImpl) Pos() int { return b.st.cur }

func (b *blockImpl) Mark() int { return b.st.cur }

func (b *blockImpl) Reset(mark int) { b.st.cur = mark }

func (b *blockImpl) Buffered() []byte { return b.st.data[b.st.cur:] }

func (b *blockImpl) Frozen() bool { return b.st.frozen }

func (b *blockImpl) AtEOD() bool {
	e := b.st.effectiveEnd()
	return e != -1 && b.st.cur >= e
}

func (b *blockImpl) Yield(need int, eodOK bool) error {
	b.st.yield(need)
	if len(b.st.data)-b.st.cur >= need {
		return nil
	}
	// Frozen and still short.
	if eodOK {
		return nil
	}
	return &ParseError{Reason: "insufficient input", Offset: b.st.cur}
}

func (b *blockImpl) UnpackInt(bits int, signed bool, order ast.ByteOrder) (Value, error) {
	n := bits / 8
	if err := b.Yield(n, false); err != nil {
		return Nil, err
	}
	raw := b.st.data[b.st.cur : b.st.cur+n]
	b.st.cur += n

	var u uint64
	if order == ast.ByteOrderLittle {
		for i := n - 1; i >= 0; i-- {
			u = u<<8 | uint64(raw[i])
		}
	} else {
		for i := 0; i < n; i++ {
			u = u<<8 | uint64(raw[i])
		}
	}

	if signed && bits < 64 {
		shift := 64 - bits
		return IntValue(int64(u<<shift) >> shift), nil
	}
	return IntValue(int64(u)), nil
}

func (b *blockImpl) UnpackBytes(n int) (Value, error) {
	if err := b.Yield(n, false); err != nil {
		return Nil, err
	}
	raw := append([]byte(nil), b.st.data[b.st.cur:b.st.cur+n]...)
	b.st.cur += n
	return BytesValue(raw), nil
}

func (b *blockImpl) MatchExact(want []byte) (bool, error) {
	if err := b.Yield(len(want), false); err != nil {
		return false, err
	}
	raw := b.st.data[b.st.cur : b.st.cur+len(want)]
	ok := string(raw) == string(want)
	if ok {
		b.st.cur += len(want)
	}
	return ok, nil
}

func (b *blockImpl) PackInt(bits int, signed bool, order ast.ByteOrder, val Value) []byte {
	n := bits / 8
	u := uint64(val.Int())
	out := make([]byte, n)
	if order == ast.ByteOrderLittle {
		for i := 0; i < n; i++ {
			out[i] = byte(u)
			u >>= 8
		}
	} else {
		for i := n - 1; i >= 0; i-- {
			out[i] = byte(u)
			u >>= 8
		}
	}
	return out
}

func (b *blockImpl) PackBytes(val Value) []byte { return val.Bytes() }

func (b *blockImpl) EmitBytes(data []byte) {
	if b.st.output != nil {
		b.st.output(data)
	}
}

func (b *blockImpl) MatchLiteral(terminals []Terminal) (int, []byte, error) {
	for {
		avail := b.st.data[b.st.cur:]
		res := litmatch.Match(avail, b.st.frozen, terminals)
		switch res.Status {
		case litmatch.StatusMatched:
			consumed := append([]byte(nil), avail[:res.Length]...)
			b.st.cur += res.Length
			return res.Token, consumed, nil
		case litmatch.StatusAmbiguous:
			return 0, nil, &ParseError{Reason: "ambiguous", Offset: b.st.cur}
		case litmatch.StatusNotFound:
			return 0, nil, nil
		case litmatch.StatusInsufficient:
			if b.st.frozen {
				return 0, nil, nil
			}
			b.st.yield(len(b.st.data) - b.st.cur + 1)
		}
	}
}

func (b *blockImpl) Get(obj *Object, path []string) (Value, bool) { return obj.Get(path) }
func (b *blockImpl) Set(obj *Object, path []string, val Value)    { obj.Set(path, val) }
func (b *blockImpl) IsSet(obj *Object, path []string) bool        { return obj.IsSet(path) }
func (b *blockImpl) Unset(obj *Object, path []string)             { obj.Unset(path) }

func (b *blockImpl) Bitfield(src Value, lo, hi, width int, msb0 bool) Value {
	if msb0 {
		lo, hi = width-1-hi, width-1-lo
	}
	u := uint64(src.Int())
	mask := uint64(1)<<(hi-lo+1) - 1
	return IntValue(int64((u >> lo) & mask))
}

func (b *blockImpl) RunHook(id string, self Value, element Value) (bool, error) {
	if b.st.hooks == nil {
		return false, nil
	}
	return b.st.hooks.Run(id, self, b.st.cookie, element)
}

func (b *blockImpl) WriteSink(sink string, data []byte) {
	if b.st.sinks != nil {
		b.st.sinks.Write(sink, data, b.st.cookie)
	}
}

func (b *blockImpl) Trim() {
	if b.st.cur == 0 {
		return
	}
	b.st.data = b.st.data[b.st.cur:]
	for i := range b.st.ends {
		if b.st.ends[i] >= 0 {
			b.st.ends[i] -= b.st.cur
		}
	}
	b.st.cur = 0
}

func (b *blockImpl) ParseChild(unit *ast.Unit, args []Value) (Value, error) {
	fn := b.st.ip.Func(childFuncName(unit))
	if fn == nil {
		return Nil, &InternalError{Reason: "ir: no parse function declared for unit " + unit.Name}
	}
	vals, err := fn.Call(b, args...)
	if err != nil {
		return Nil, err
	}
	if len(vals) == 0 {
		return Nil, nil
	}
	return vals[0], nil
}

// childFuncName is the convention [internal/parserbuilder] declares a
// unit's internal parse function under, so [Block.ParseChild] can look it
// up without a direct reference to the codegen cache.
func childFuncName(unit *ast.Unit) string { return "parse_" + unit.Name + "_internal" }

func (b *blockImpl) PushLength(n int, body func(Block) error) error {
	b.st.ends = append(b.st.ends, b.st.cur+n)
	idx := len(b.st.ends) - 1
	defer func() { b.st.ends = b.st.ends[:len(b.st.ends)-1] }()

	if err := body(b); err != nil {
		return err
	}
	// Read the bound back: a Trim inside body shifts every entry of ends.
	if b.st.cur != b.st.ends[idx] {
		return &ParseError{Reason: "&length area not fully parsed", Offset: b.st.cur}
	}
	return nil
}

func (b *blockImpl) PushData(data []byte, body func(Block) error) error {
	sub := &execState{
		ip:     b.st.ip,
		data:   data,
		frozen: true,
		hooks:  b.st.hooks,
		sinks:  b.st.sinks,
		output: b.st.output,
		cookie: b.st.cookie,
		// &parse runs against fully-materialized bytes: it never yields, so
		// these channels are never used, but kept non-nil for uniformity.
		feed: make(chan feedItem, 1),
		out:  make(chan Step, 1),
	}
	return body(&blockImpl{st: sub})
}

func (b *blockImpl) Raise(reason string) error {
	return &ParseError{Reason: reason, Offset: b.st.cur}
}
