package handler

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxExactInteger は float64 で誤差なく表現できる整数の上限です。
const maxExactInteger = 1 << 53

func fieldValue(req *structpb.Struct, name string) (*structpb.Value, bool) {
	v, ok := req.GetFields()[name]
	if !ok || v == nil {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

func stringField(req *structpb.Struct, name string) (string, error) {
	ptr, err := optionalString(req, name)
	if err != nil || ptr == nil {
		return "", err
	}
	return *ptr, nil
}

func optionalString(req *structpb.Struct, name string) (*string, error) {
	v, ok := fieldValue(req, name)
	if !ok {
		return nil, nil
	}
	s, isString := v.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("%s: must be a string", name))
	}
	value := s.StringValue
	return &value, nil
}

func optionalInt(req *structpb.Struct, name string) (*int, error) {
	v, ok := fieldValue(req, name)
	if !ok {
		return nil, nil
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || math.Abs(n) > maxExactInteger {
			return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("%s: must be an integer", name))
		}
		value := int(n)
		return &value, nil
	case *structpb.Value_StringValue:
		value, err := strconv.Atoi(strings.TrimSpace(kind.StringValue))
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("%s: must be an integer", name))
		}
		return &value, nil
	default:
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("%s: must be an integer", name))
	}
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return out, nil
}
