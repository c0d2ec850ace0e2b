package value

import (
	"slices"
	"sort"
)

// Block is the value written as None. It blocks weaker opinions of a field.
type Block struct{}

// Half is a 16 bit float, held at float32 precision.
type Half float32

// Token is an interned-style identifier string, distinct from string.
type Token string

// AssetPath references an external asset by an unresolved identifier.
type AssetPath struct {
	Path string
}

func (a AssetPath) String() string { return formatAsset(a.Path) }

type (
	Int2 [2]int32
	Int3 [3]int32
	Int4 [4]int32

	Half2 [2]Half
	Half3 [3]Half
	Half4 [4]Half

	Float2 [2]float32
	Float3 [3]float32
	Float4 [4]float32

	Double2 [2]float64
	Double3 [3]float64
	Double4 [4]float64

	Color3f    [3]float32
	Color4f    [4]float32
	Point3f    [3]float32
	Normal3f   [3]float32
	Vector3f   [3]float32
	TexCoord2f [2]float32

	// Quatf and Quatd hold (real, i, j, k).
	Quatf [4]float32
	Quatd [4]float64

	Matrix2d [2][2]float64
	Matrix3d [3][3]float64
	Matrix4d [4][4]float64
)

// Dictionary maps keys to values of registered types, including nested
// dictionaries.
type Dictionary map[string]any

// Keys returns the keys of d in sorted order.
func (d Dictionary) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of d.
func (d Dictionary) Clone() Dictionary {
	if d == nil {
		return nil
	}
	res := make(Dictionary, len(d))
	for k, v := range d {
		if sub, ok := v.(Dictionary); ok {
			v = sub.Clone()
		}
		res[k] = v
	}
	return res
}

// Sample is one time sampled value. Value may be Block.
type Sample struct {
	Time  float64
	Value any
}

// TimeSamples holds samples in ascending time order, at most one per time.
type TimeSamples []Sample

func (ts TimeSamples) search(t float64) (int, bool) {
	return slices.BinarySearchFunc(ts, t, func(s Sample, t float64) int {
		switch {
		case s.Time < t:
			return -1
		case s.Time > t:
			return 1
		}
		return 0
	})
}

// Set returns ts with the sample at t set to v.
func (ts TimeSamples) Set(t float64, v any) TimeSamples {
	i, ok := ts.search(t)
	if ok {
		ts[i].Value = v
		return ts
	}
	return slices.Insert(ts, i, Sample{Time: t, Value: v})
}

// Get returns the value sampled exactly at t.
func (ts TimeSamples) Get(t float64) (any, bool) {
	i, ok := ts.search(t)
	if !ok {
		return nil, false
	}
	return ts[i].Value, true
}

// Remove returns ts without a sample at t.
func (ts TimeSamples) Remove(t float64) TimeSamples {
	i, ok := ts.search(t)
	if !ok {
		return ts
	}
	return slices.Delete(ts, i, i+1)
}

// Times returns the sample times.
func (ts TimeSamples) Times() []float64 {
	res := make([]float64, len(ts))
	for i := range ts {
		res[i] = ts[i].Time
	}
	return res
}
