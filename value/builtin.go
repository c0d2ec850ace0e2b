package value

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/signadot/go-sdf/token"
)

func scalar[T any](name string, from func(Literal) (T, error), format func(T) string) *Type {
	var zero T
	return &Type{
		Name:    name,
		GoType:  reflect.TypeFor[T](),
		Default: func() any { return zero },
		FromLiteral: func(l Literal) (any, error) {
			v, err := from(l)
			if err != nil {
				return nil, err
			}
			return v, nil
		},
		Format: func(x any) (string, error) {
			v, ok := x.(T)
			if !ok {
				return "", fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, x, name)
			}
			return format(v), nil
		},
	}
}

func litFloat(l Literal, bits int) (float64, error) {
	switch l.Kind {
	case LitNumber:
	case LitIdent:
		if l.Text != "inf" && l.Text != "nan" {
			return 0, l.errorf("expected number, got %q", l.Text)
		}
	default:
		return 0, l.errorf("expected number, got %s", l.Kind)
	}
	f, err := strconv.ParseFloat(l.Text, bits)
	if err != nil {
		return 0, l.errorf("%v", err)
	}
	return f, nil
}

func litInt(l Literal, bits int) (int64, error) {
	if l.Kind != LitNumber {
		return 0, l.errorf("expected integer, got %s", l.Kind)
	}
	i, err := strconv.ParseInt(l.Text, 10, bits)
	if err != nil {
		return 0, l.errorf("%v", err)
	}
	return i, nil
}

func litUint(l Literal, bits int) (uint64, error) {
	if l.Kind != LitNumber {
		return 0, l.errorf("expected integer, got %s", l.Kind)
	}
	i, err := strconv.ParseUint(l.Text, 10, bits)
	if err != nil {
		return 0, l.errorf("%v", err)
	}
	return i, nil
}

// FormatFloat formats f in the shortest form that reads back as the same
// value at the given bit size.
func FormatFloat(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

func builtins() []*Type {
	boolT := scalar("bool", func(l Literal) (bool, error) {
		switch {
		case l.Kind == LitIdent && l.Text == "true", l.Kind == LitNumber && l.Text == "1":
			return true, nil
		case l.Kind == LitIdent && l.Text == "false", l.Kind == LitNumber && l.Text == "0":
			return false, nil
		}
		return false, l.errorf("expected bool, got %q", l.Text)
	}, strconv.FormatBool)
	ucharT := scalar("uchar", func(l Literal) (uint8, error) {
		i, err := litUint(l, 8)
		return uint8(i), err
	}, func(v uint8) string { return strconv.FormatUint(uint64(v), 10) })
	intT := scalar("int", func(l Literal) (int32, error) {
		i, err := litInt(l, 32)
		return int32(i), err
	}, func(v int32) string { return strconv.FormatInt(int64(v), 10) })
	uintT := scalar("uint", func(l Literal) (uint32, error) {
		i, err := litUint(l, 32)
		return uint32(i), err
	}, func(v uint32) string { return strconv.FormatUint(uint64(v), 10) })
	int64T := scalar("int64", func(l Literal) (int64, error) {
		return litInt(l, 64)
	}, func(v int64) string { return strconv.FormatInt(v, 10) })
	uint64T := scalar("uint64", func(l Literal) (uint64, error) {
		return litUint(l, 64)
	}, func(v uint64) string { return strconv.FormatUint(v, 10) })
	halfT := scalar("half", func(l Literal) (Half, error) {
		f, err := litFloat(l, 32)
		return Half(f), err
	}, func(v Half) string { return FormatFloat(float64(v), 32) })
	floatT := scalar("float", func(l Literal) (float32, error) {
		f, err := litFloat(l, 32)
		return float32(f), err
	}, func(v float32) string { return FormatFloat(float64(v), 32) })
	doubleT := scalar("double", func(l Literal) (float64, error) {
		return litFloat(l, 64)
	}, func(v float64) string { return FormatFloat(v, 64) })
	stringT := scalar("string", func(l Literal) (string, error) {
		if l.Kind != LitString {
			return "", l.errorf("expected string, got %s", l.Kind)
		}
		return l.Text, nil
	}, token.Quote)
	tokenT := scalar("token", func(l Literal) (Token, error) {
		if l.Kind != LitString {
			return "", l.errorf("expected token, got %s", l.Kind)
		}
		return Token(l.Text), nil
	}, func(v Token) string { return token.Quote(string(v)) })
	assetT := scalar("asset", func(l Literal) (AssetPath, error) {
		if l.Kind != LitAsset {
			return AssetPath{}, l.errorf("expected asset path, got %s", l.Kind)
		}
		return AssetPath{Path: l.Text}, nil
	}, func(v AssetPath) string { return formatAsset(v.Path) })

	tuple := tupleType
	row := func(n int) *Type {
		return tupleType("double"+strconv.Itoa(n), reflect.ArrayOf(n, reflect.TypeFor[float64]()), doubleT)
	}
	return []*Type{
		boolT, ucharT, intT, uintT, int64T, uint64T,
		halfT, floatT, doubleT,
		stringT, tokenT, assetT,

		tuple("int2", reflect.TypeFor[Int2](), intT),
		tuple("int3", reflect.TypeFor[Int3](), intT),
		tuple("int4", reflect.TypeFor[Int4](), intT),
		tuple("half2", reflect.TypeFor[Half2](), halfT),
		tuple("half3", reflect.TypeFor[Half3](), halfT),
		tuple("half4", reflect.TypeFor[Half4](), halfT),
		tuple("float2", reflect.TypeFor[Float2](), floatT),
		tuple("float3", reflect.TypeFor[Float3](), floatT),
		tuple("float4", reflect.TypeFor[Float4](), floatT),
		tuple("double2", reflect.TypeFor[Double2](), doubleT),
		tuple("double3", reflect.TypeFor[Double3](), doubleT),
		tuple("double4", reflect.TypeFor[Double4](), doubleT),
		tuple("color3f", reflect.TypeFor[Color3f](), floatT),
		tuple("color4f", reflect.TypeFor[Color4f](), floatT),
		tuple("point3f", reflect.TypeFor[Point3f](), floatT),
		tuple("normal3f", reflect.TypeFor[Normal3f](), floatT),
		tuple("vector3f", reflect.TypeFor[Vector3f](), floatT),
		tuple("texCoord2f", reflect.TypeFor[TexCoord2f](), floatT),
		tuple("quatf", reflect.TypeFor[Quatf](), floatT),
		tuple("quatd", reflect.TypeFor[Quatd](), doubleT),
		tuple("matrix2d", reflect.TypeFor[Matrix2d](), row(2)),
		tuple("matrix3d", reflect.TypeFor[Matrix3d](), row(3)),
		tuple("matrix4d", reflect.TypeFor[Matrix4d](), row(4)),
	}
}
