package flexnode

import "github.com/sarchlab/nio/internal/message"

// Named constructors for the required reference operators (spec.md §6)
// and the SPEC_FULL.md §4.9 additions (Max/Min, Pow), all realized as
// the single generic ElementWise FlexNode parameterized by Operator.

func ElementWiseAdd(in1, in2, out []float32) *ElementWise {
	return NewElementWise("ElementWiseAdd", message.ADD, in1, in2, out)
}

func ElementWiseSub(in1, in2, out []float32) *ElementWise {
	return NewElementWise("ElementWiseSub", message.SUB, in1, in2, out)
}

func ElementWiseMul(in1, in2, out []float32) *ElementWise {
	return NewElementWise("ElementWiseMul", message.MUL, in1, in2, out)
}

func ElementWiseDiv(in1, in2, out []float32) *ElementWise {
	return NewElementWise("ElementWiseDiv", message.DIV, in1, in2, out)
}

// ElementWiseMax and ElementWiseMin round out the reduction operators
// spec.md §3 reserves (MAX/MIN) but that the distilled spec.md §6
// didn't wire a FlexNode for.
func ElementWiseMax(in1, in2, out []float32) *ElementWise {
	return NewElementWise("ElementWiseMax", message.MAX, in1, in2, out)
}

func ElementWiseMin(in1, in2, out []float32) *ElementWise {
	return NewElementWise("ElementWiseMin", message.MIN, in1, in2, out)
}

// Pow realizes elementwise exponentiation via the POW operator, added
// per SPEC_FULL.md §4.9.
func Pow(base, exponent, out []float32) *ElementWise {
	return NewElementWise("Pow", message.POW, base, exponent, out)
}
