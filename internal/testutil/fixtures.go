package testutil

import "github.com/roach88/fusionscope/internal/ir"

// MulScalar is NumericFloat(F32, MulScalar{rhs=<rhs>}).
func MulScalar(rhs string) ir.OpKind {
	return ir.NumericOp{
		Domain: ir.DomainFloat,
		DType:  ir.F32,
		Name:   "MulScalar",
		Params: ir.Params(ir.P("rhs", ir.IRString(rhs))),
	}
}

// AddFloat is NumericFloat(F32, Add).
func AddFloat() ir.OpKind {
	return ir.NumericOp{Domain: ir.DomainFloat, DType: ir.F32, Name: "Add"}
}

// Tanh is Float(F32, Tanh).
func Tanh() ir.OpKind {
	return ir.FloatOp{DType: ir.F32, Name: "Tanh"}
}

// Exp is Float(F32, Exp).
func Exp() ir.OpKind {
	return ir.FloatOp{DType: ir.F32, Name: "Exp"}
}

// ChainOps is T0 -> Op[0] -> T1 -> Op[1] -> T2 -> Op[2] -> T3.
func ChainOps() []ir.OperationRecord {
	return []ir.OperationRecord{
		ir.Op(MulScalar("2.0"), []ir.TensorID{0}, 1),
		ir.Op(Tanh(), []ir.TensorID{1}, 2),
		ir.Op(Exp(), []ir.TensorID{2}, 3),
	}
}

// DiamondOps fans T1 out to two consumers and ends with a drop:
//
//	Op[0] MulScalar  T0 -> T1
//	Op[1] Tanh       T1 -> T2
//	Op[2] Add        T1, T2 -> T3
//	Op[3] Drop       T1
func DiamondOps() []ir.OperationRecord {
	return []ir.OperationRecord{
		ir.Op(MulScalar("2.0"), []ir.TensorID{0}, 1),
		ir.Op(Tanh(), []ir.TensorID{1}, 2),
		ir.Op(AddFloat(), []ir.TensorID{1, 2}, 3),
		ir.Op(ir.DropOp{Tensor: 1}, []ir.TensorID{1}),
	}
}

// SquareOps reads T1 twice in one operation: Op[1] = Mul(T1, T1).
func SquareOps() []ir.OperationRecord {
	return []ir.OperationRecord{
		ir.Op(Exp(), []ir.TensorID{0}, 1),
		ir.Op(ir.NumericOp{Domain: ir.DomainFloat, DType: ir.F32, Name: "Mul"}, []ir.TensorID{1, 1}, 2),
	}
}

// Snapshot wraps ops in a snapshot of stream.
func Snapshot(stream ir.StreamID, ops []ir.OperationRecord) ir.StreamSnapshot {
	return ir.NewSnapshot(stream, ops)
}
