package ir

import (
	"fmt"
	"strings"
)

// OpKind is the sealed operation-kind descriptor of an OperationRecord.
//
// KindName is the stable short name ("NumericFloat", "Module", ...) used by
// every renderer; Describe is the full descriptor including typed params.
// Graph building and rendering use only these two methods and never switch
// on the concrete type. The codec, SpecOf, NewKind and cloning do, so a new
// variant must be added there too.
type OpKind interface {
	KindName() string
	Describe() string
	opKind()
}

// Domain is the element domain of base and numeric operations.
type Domain uint8

const (
	// DomainFloat covers floating point tensors.
	DomainFloat Domain = iota + 1
	// DomainInt covers integer tensors.
	DomainInt
	// DomainBool covers boolean tensors.
	DomainBool
)

// String returns "Float", "Int" or "Bool".
func (d Domain) String() string {
	switch d {
	case DomainFloat:
		return "Float"
	case DomainInt:
		return "Int"
	case DomainBool:
		return "Bool"
	default:
		return fmt.Sprintf("Domain(%d)", uint8(d))
	}
}

// DType is the element type of a tensor, e.g. "F32".
type DType string

// Known element types.
const (
	F64  DType = "F64"
	F32  DType = "F32"
	F16  DType = "F16"
	BF16 DType = "BF16"
	I64  DType = "I64"
	I32  DType = "I32"
	U8   DType = "U8"
	Bool DType = "Bool"
)

// BaseOp is a shape/layout operation shared by all domains (reshape,
// slice, cat, ...). KindName: BaseFloat, BaseInt or BaseBool.
type BaseOp struct {
	Domain Domain
	Name   string
	Params IRObject
}

// NumericOp is an arithmetic operation on float or int tensors.
// KindName: NumericFloat or NumericInt.
type NumericOp struct {
	Domain Domain
	DType  DType
	Name   string
	Params IRObject
}

// FloatOp is a float-only operation (tanh, exp, matmul, ...).
type FloatOp struct {
	DType  DType
	Name   string
	Params IRObject
}

// IntOp is an int-only operation.
type IntOp struct {
	Name   string
	Params IRObject
}

// BoolOp is a bool-only operation.
type BoolOp struct {
	Name   string
	Params IRObject
}

// ModuleOp is a neural-network module operation (conv2d, pooling, ...).
type ModuleOp struct {
	Name   string
	Params IRObject
}

// InitOp registers an already materialized tensor with the stream.
type InitOp struct{}

// CustomOp is a backend-defined operation identified by ID.
type CustomOp struct {
	ID string
}

// DropOp releases a tensor.
type DropOp struct {
	Tensor TensorID
}

func (BaseOp) opKind()    {}
func (NumericOp) opKind() {}
func (FloatOp) opKind()   {}
func (IntOp) opKind()     {}
func (BoolOp) opKind()    {}
func (ModuleOp) opKind()  {}
func (InitOp) opKind()    {}
func (CustomOp) opKind()  {}
func (DropOp) opKind()    {}

func (k BaseOp) KindName() string    { return "Base" + k.Domain.String() }
func (k NumericOp) KindName() string { return "Numeric" + k.Domain.String() }
func (FloatOp) KindName() string     { return "Float" }
func (IntOp) KindName() string       { return "Int" }
func (BoolOp) KindName() string      { return "Bool" }
func (ModuleOp) KindName() string    { return "Module" }
func (InitOp) KindName() string      { return "Init" }
func (CustomOp) KindName() string    { return "Custom" }
func (DropOp) KindName() string      { return "Drop" }

func (k BaseOp) Describe() string {
	return fmt.Sprintf("%s(%s)", k.KindName(), describeNamed(k.Name, k.Params))
}

func (k NumericOp) Describe() string {
	return fmt.Sprintf("%s(%s, %s)", k.KindName(), k.DType, describeNamed(k.Name, k.Params))
}

func (k FloatOp) Describe() string {
	return fmt.Sprintf("Float(%s, %s)", k.DType, describeNamed(k.Name, k.Params))
}

func (k IntOp) Describe() string {
	return fmt.Sprintf("Int(%s)", describeNamed(k.Name, k.Params))
}

func (k BoolOp) Describe() string {
	return fmt.Sprintf("Bool(%s)", describeNamed(k.Name, k.Params))
}

func (k ModuleOp) Describe() string {
	return fmt.Sprintf("Module(%s)", describeNamed(k.Name, k.Params))
}

func (InitOp) Describe() string { return "Init" }

func (k CustomOp) Describe() string { return fmt.Sprintf("Custom(%s)", k.ID) }

func (k DropOp) Describe() string { return fmt.Sprintf("Drop(%s)", k.Tensor) }

// describeNamed renders Name or Name{k=v, ...}.
func describeNamed(name string, params IRObject) string {
	if len(params) == 0 {
		return name
	}
	return name + FormatValue(params)
}

// cloneKind returns a copy of k that shares no params storage with it.
func cloneKind(k OpKind) OpKind {
	switch v := k.(type) {
	case BaseOp:
		v.Params = v.Params.Clone()
		return v
	case NumericOp:
		v.Params = v.Params.Clone()
		return v
	case FloatOp:
		v.Params = v.Params.Clone()
		return v
	case IntOp:
		v.Params = v.Params.Clone()
		return v
	case BoolOp:
		v.Params = v.Params.Clone()
		return v
	case ModuleOp:
		v.Params = v.Params.Clone()
		return v
	default:
		return k
	}
}

// KindSpec is the flat, serializable form of an OpKind. Type is the kind
// name; the other fields are used as the variant requires.
type KindSpec struct {
	Type   string
	DType  DType
	Name   string
	ID     string
	Tensor TensorID
	Params IRObject
}

// SpecOf flattens k into a KindSpec.
func SpecOf(k OpKind) KindSpec {
	spec := KindSpec{Type: k.KindName()}
	switch v := k.(type) {
	case BaseOp:
		spec.Name, spec.Params = v.Name, v.Params
	case NumericOp:
		spec.DType, spec.Name, spec.Params = v.DType, v.Name, v.Params
	case FloatOp:
		spec.DType, spec.Name, spec.Params = v.DType, v.Name, v.Params
	case IntOp:
		spec.Name, spec.Params = v.Name, v.Params
	case BoolOp:
		spec.Name, spec.Params = v.Name, v.Params
	case ModuleOp:
		spec.Name, spec.Params = v.Name, v.Params
	case CustomOp:
		spec.ID = v.ID
	case DropOp:
		spec.Tensor = v.Tensor
	}
	return spec
}

// NewKind builds the OpKind a spec describes.
// Returns an error for unknown types and missing required fields.
func NewKind(spec KindSpec) (OpKind, error) {
	needName := func() error {
		if strings.TrimSpace(spec.Name) == "" {
			return fmt.Errorf("kind %s: name is required", spec.Type)
		}
		return nil
	}
	needDType := func() error {
		if spec.DType == "" {
			return fmt.Errorf("kind %s: dtype is required", spec.Type)
		}
		return nil
	}

	switch spec.Type {
	case "BaseFloat", "BaseInt", "BaseBool":
		if err := needName(); err != nil {
			return nil, err
		}
		domain, _ := ParseDomain(strings.TrimPrefix(spec.Type, "Base"))
		return BaseOp{Domain: domain, Name: spec.Name, Params: spec.Params}, nil
	case "NumericFloat", "NumericInt":
		if err := needName(); err != nil {
			return nil, err
		}
		if err := needDType(); err != nil {
			return nil, err
		}
		domain, _ := ParseDomain(strings.TrimPrefix(spec.Type, "Numeric"))
		return NumericOp{Domain: domain, DType: spec.DType, Name: spec.Name, Params: spec.Params}, nil
	case "Float":
		if err := needName(); err != nil {
			return nil, err
		}
		if err := needDType(); err != nil {
			return nil, err
		}
		return FloatOp{DType: spec.DType, Name: spec.Name, Params: spec.Params}, nil
	case "Int":
		if err := needName(); err != nil {
			return nil, err
		}
		return IntOp{Name: spec.Name, Params: spec.Params}, nil
	case "Bool":
		if err := needName(); err != nil {
			return nil, err
		}
		return BoolOp{Name: spec.Name, Params: spec.Params}, nil
	case "Module":
		if err := needName(); err != nil {
			return nil, err
		}
		return ModuleOp{Name: spec.Name, Params: spec.Params}, nil
	case "Init":
		return InitOp{}, nil
	case "Custom":
		if spec.ID == "" {
			return nil, fmt.Errorf("kind Custom: id is required")
		}
		return CustomOp{ID: spec.ID}, nil
	case "Drop":
		return DropOp{Tensor: spec.Tensor}, nil
	case "":
		return nil, fmt.Errorf("kind type is required")
	default:
		return nil, fmt.Errorf("unknown kind type %q", spec.Type)
	}
}

// ParseDomain parses "Float", "Int" or "Bool".
func ParseDomain(s string) (Domain, error) {
	switch s {
	case "Float":
		return DomainFloat, nil
	case "Int":
		return DomainInt, nil
	case "Bool":
		return DomainBool, nil
	default:
		return 0, fmt.Errorf("unknown domain %q", s)
	}
}
