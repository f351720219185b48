package ir

import (
	"encoding/json"
	"fmt"

	"fortio.org/safecast"
)

// KindToIR encodes an OpKind as a tagged object:
//
//	{"type":"NumericFloat","dtype":"F32","name":"MulScalar","params":{"rhs":"2.0"}}
//
// Empty fields are omitted; "tensor" appears only for Drop.
func KindToIR(k OpKind) (IRObject, error) {
	if k == nil {
		return nil, fmt.Errorf("kind is nil")
	}
	spec := SpecOf(k)
	obj := IRObject{"type": IRString(spec.Type)}
	if spec.DType != "" {
		obj["dtype"] = IRString(spec.DType)
	}
	if spec.Name != "" {
		obj["name"] = IRString(spec.Name)
	}
	if spec.ID != "" {
		obj["id"] = IRString(spec.ID)
	}
	if _, ok := k.(DropOp); ok {
		t, err := safecast.Conv[int64](uint64(spec.Tensor))
		if err != nil {
			return nil, fmt.Errorf("drop tensor: %w", err)
		}
		obj["tensor"] = IRInt(t)
	}
	if len(spec.Params) > 0 {
		obj["params"] = spec.Params.Clone()
	}
	return obj, nil
}

// KindFromIR decodes the tagged object written by KindToIR.
func KindFromIR(obj IRObject) (OpKind, error) {
	var spec KindSpec
	var err error

	if spec.Type, err = optionalString(obj, "type"); err != nil {
		return nil, err
	}
	dtype, err := optionalString(obj, "dtype")
	if err != nil {
		return nil, err
	}
	spec.DType = DType(dtype)
	if spec.Name, err = optionalString(obj, "name"); err != nil {
		return nil, err
	}
	if spec.ID, err = optionalString(obj, "id"); err != nil {
		return nil, err
	}
	if v, ok := obj["tensor"]; ok {
		n, isInt := v.(IRInt)
		if !isInt {
			return nil, fmt.Errorf("kind.tensor: expected int, got %T", v)
		}
		t, err := safecast.Conv[uint64](int64(n))
		if err != nil {
			return nil, fmt.Errorf("kind.tensor: %w", err)
		}
		spec.Tensor = TensorID(t)
	}
	if v, ok := obj["params"]; ok {
		params, isObj := v.(IRObject)
		if !isObj {
			return nil, fmt.Errorf("kind.params: expected object, got %T", v)
		}
		spec.Params = params.Clone()
	}
	return NewKind(spec)
}

// RecordToIR encodes a record as {"kind":{...},"inputs":[..],"outputs":[..]}.
func RecordToIR(r OperationRecord) (IRObject, error) {
	kind, err := KindToIR(r.Kind)
	if err != nil {
		return nil, err
	}
	inputs := make(IRArray, len(r.Inputs))
	for i, in := range r.Inputs {
		n, err := safecast.Conv[int64](uint64(in.ID))
		if err != nil {
			return nil, fmt.Errorf("inputs[%d]: %w", i, err)
		}
		inputs[i] = IRInt(n)
	}
	outputs := make(IRArray, len(r.Outputs))
	for i, out := range r.Outputs {
		n, err := safecast.Conv[int64](uint64(out))
		if err != nil {
			return nil, fmt.Errorf("outputs[%d]: %w", i, err)
		}
		outputs[i] = IRInt(n)
	}
	return IRObject{"kind": kind, "inputs": inputs, "outputs": outputs}, nil
}

// RecordFromIR decodes the object written by RecordToIR.
func RecordFromIR(obj IRObject) (OperationRecord, error) {
	kindVal, ok := obj["kind"].(IRObject)
	if !ok {
		return OperationRecord{}, fmt.Errorf("record.kind: expected object")
	}
	kind, err := KindFromIR(kindVal)
	if err != nil {
		return OperationRecord{}, fmt.Errorf("record.kind: %w", err)
	}

	inputIDs, err := tensorList(obj, "inputs")
	if err != nil {
		return OperationRecord{}, err
	}
	outputs, err := tensorList(obj, "outputs")
	if err != nil {
		return OperationRecord{}, err
	}
	var inputs []TensorRef
	for _, id := range inputIDs {
		inputs = append(inputs, Ref(id))
	}
	return OperationRecord{Kind: kind, Inputs: inputs, Outputs: outputs}, nil
}

// MarshalJSON encodes the record in its canonical tagged form.
func (r OperationRecord) MarshalJSON() ([]byte, error) {
	obj, err := RecordToIR(r)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(obj)
}

// UnmarshalJSON decodes the canonical tagged form.
func (r *OperationRecord) UnmarshalJSON(data []byte) error {
	var obj IRObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	rec, err := RecordFromIR(obj)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

func optionalString(obj IRObject, key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", nil
	}
	s, isStr := v.(IRString)
	if !isStr {
		return "", fmt.Errorf("kind.%s: expected string, got %T", key, v)
	}
	return string(s), nil
}

func tensorList(obj IRObject, key string) ([]TensorID, error) {
	v, ok := obj[key]
	if !ok {
		return nil, nil
	}
	arr, isArr := v.(IRArray)
	if !isArr {
		return nil, fmt.Errorf("record.%s: expected array, got %T", key, v)
	}
	if len(arr) == 0 {
		return nil, nil
	}
	out := make([]TensorID, len(arr))
	for i, elem := range arr {
		n, isInt := elem.(IRInt)
		if !isInt {
			return nil, fmt.Errorf("record.%s[%d]: expected int, got %T", key, i, elem)
		}
		id, err := safecast.Conv[uint64](int64(n))
		if err != nil {
			return nil, fmt.Errorf("record.%s[%d]: %w", key, i, err)
		}
		out[i] = TensorID(id)
	}
	return out, nil
}

// EncodeRecords writes records as a canonical JSON array.
func EncodeRecords(records []OperationRecord) ([]byte, error) {
	arr := make(IRArray, len(records))
	for i, r := range records {
		obj, err := RecordToIR(r)
		if err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
		arr[i] = obj
	}
	return MarshalCanonical(arr)
}

// DecodeRecords reads the array written by EncodeRecords.
func DecodeRecords(data []byte) ([]OperationRecord, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	out := make([]OperationRecord, len(raw))
	for i, msg := range raw {
		if err := out[i].UnmarshalJSON(msg); err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
	}
	return out, nil
}
