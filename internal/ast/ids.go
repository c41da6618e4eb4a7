package ast

type (
	// ExprID identifies an expression in the arena.
	ExprID uint32
	// PayloadID indexes into the per-kind payload arenas.
	PayloadID uint32
)

const (
	NoExprID    ExprID    = 0
	NoPayloadID PayloadID = 0
)

func (id ExprID) IsValid() bool    { return id != NoExprID }
func (id PayloadID) IsValid() bool { return id != NoPayloadID }
