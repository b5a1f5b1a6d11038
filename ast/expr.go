package ast

// Expr is a resolved source-language expression: a field length, a switch
// discriminant, a loop condition, a &default value. Expression evaluation
// is conceptually the front end's concern, but the core still has to ask
// for a value at codegen time (and, for the reference IR backend used in
// tests, actually compute one) — so Expr exposes just enough structure for
// that without reintroducing a general expression language.
type Expr interface {
	exprNode()
	// Eval evaluates the expression against a scope. Real back ends lower
	// this to IR instructions instead of calling Eval directly; Eval exists
	// so the reference/test IR backend can execute generated code without a
	// second, parallel expression representation.
	Eval(scope Scope) (any, error)
}

// Scope resolves identifiers visible to an [Expr]: the current field value
// ($$), sibling fields of the enclosing parse object, and unit parameters.
type Scope interface {
	// Lookup returns the value bound to name, or ok=false if it is unset.
	Lookup(name string) (value any, ok bool)
	// This returns the $$ value (the element under construction in a
	// Counter/Loop body, or the field currently being parsed).
	This() any
}

// IntLiteral is a constant integer expression.
type IntLiteral int64

func (IntLiteral) exprNode() {}
func (v IntLiteral) Eval(Scope) (any, error) { return int64(v), nil }

// BoolLiteral is a constant boolean expression.
type BoolLiteral bool

func (BoolLiteral) exprNode() {}
func (v BoolLiteral) Eval(Scope) (any, error) { return bool(v), nil }

// FieldRef refers to a sibling field or parameter by name.
type FieldRef string

func (FieldRef) exprNode() {}
func (v FieldRef) Eval(scope Scope) (any, error) {
	val, ok := scope.Lookup(string(v))
	if !ok {
		return nil, &UndefinedValueError{Field: string(v)}
	}
	return val, nil
}

// This is the $$ expression, referring to the value currently being
// produced (an element of a container, or the field under parse).
type This struct{}

func (This) exprNode() {}
func (This) Eval(scope Scope) (any, error) { return scope.This(), nil }

// BinOp is the operator of a [BinaryExpr].
type BinOp int

const (
	OpEq BinOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpAnd
	OpOr
)

// BinaryExpr is a two-operand expression, e.g. the `$$==0` in `&until=$$==0`.
type BinaryExpr struct {
	Op          BinOp
	Left, Right Expr
}

func (*BinaryExpr) exprNode() {}

func (b *BinaryExpr) Eval(scope Scope) (any, error) {
	l, err := b.Left.Eval(scope)
	if err != nil {
		return nil, err
	}
	r, err := b.Right.Eval(scope)
	if err != nil {
		return nil, err
	}
	return evalBinOp(b.Op, l, r)
}

// UnaryExpr is a single-operand expression (logical negation).
type UnaryExpr struct {
	Not  bool
	Expr Expr
}

func (*UnaryExpr) exprNode() {}

func (u *UnaryExpr) Eval(scope Scope) (any, error) {
	v, err := u.Expr.Eval(scope)
	if err != nil {
		return nil, err
	}
	if u.Not {
		b, _ := v.(bool)
		return !b, nil
	}
	return v, nil
}

// UndefinedValueError reports a read of an unset parse-object slot without
// a &default, per §7's UndefinedValue taxonomy entry.
type UndefinedValueError struct {
	Field string
}

func (e *UndefinedValueError) Error() string {
	return "undefined value: " + e.Field
}
