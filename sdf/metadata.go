package sdf

import (
	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/sdfpath"
	"github.com/signadot/go-sdf/value"
)

func layerField[T any](l *Layer, name string, def T) T {
	v, ok := l.GetField(sdfpath.AbsoluteRoot(), name)
	if !ok {
		return def
	}
	x, ok := v.(T)
	if !ok {
		return def
	}
	return x
}

func (l *Layer) setLayerField(name string, v any) error {
	return l.SetField(sdfpath.AbsoluteRoot(), name, v)
}

func (l *Layer) Documentation() string { return layerField(l, sdfdata.FieldDocumentation, "") }

func (l *Layer) SetDocumentation(s string) error {
	return l.setLayerField(sdfdata.FieldDocumentation, s)
}

func (l *Layer) Comment() string { return layerField(l, sdfdata.FieldComment, "") }

func (l *Layer) SetComment(s string) error {
	return l.setLayerField(sdfdata.FieldComment, s)
}

// DefaultPrim returns the name of the root prim consumers should use
// when referencing l without a prim path.
func (l *Layer) DefaultPrim() string {
	return string(layerField(l, sdfdata.FieldDefaultPrim, value.Token("")))
}

// SetDefaultPrim sets the default prim name; "" clears it.
func (l *Layer) SetDefaultPrim(name string) error {
	if name == "" {
		return l.ClearField(sdfpath.AbsoluteRoot(), sdfdata.FieldDefaultPrim)
	}
	return l.setLayerField(sdfdata.FieldDefaultPrim, value.Token(name))
}

// SubLayerPaths returns the asset paths of the sublayers of l.
func (l *Layer) SubLayerPaths() []string {
	assets := layerField[[]value.AssetPath](l, sdfdata.FieldSubLayers, nil)
	res := make([]string, len(assets))
	for i, a := range assets {
		res[i] = a.Path
	}
	return res
}

func (l *Layer) SetSubLayerPaths(paths []string) error {
	if len(paths) == 0 {
		return l.ClearField(sdfpath.AbsoluteRoot(), sdfdata.FieldSubLayers)
	}
	assets := make([]value.AssetPath, len(paths))
	for i, p := range paths {
		assets[i] = value.AssetPath{Path: p}
	}
	return l.setLayerField(sdfdata.FieldSubLayers, assets)
}

func (l *Layer) StartTimeCode() float64 { return layerField(l, sdfdata.FieldStartTimeCode, 0.0) }

func (l *Layer) SetStartTimeCode(t float64) error {
	return l.setLayerField(sdfdata.FieldStartTimeCode, t)
}

func (l *Layer) EndTimeCode() float64 { return layerField(l, sdfdata.FieldEndTimeCode, 0.0) }

func (l *Layer) SetEndTimeCode(t float64) error {
	return l.setLayerField(sdfdata.FieldEndTimeCode, t)
}

// TimeCodesPerSecond defaults to 24.
func (l *Layer) TimeCodesPerSecond() float64 {
	return layerField(l, sdfdata.FieldTimeCodesPerSecond, 24.0)
}

func (l *Layer) SetTimeCodesPerSecond(n float64) error {
	return l.setLayerField(sdfdata.FieldTimeCodesPerSecond, n)
}

// FramesPerSecond defaults to 24.
func (l *Layer) FramesPerSecond() float64 {
	return layerField(l, sdfdata.FieldFramesPerSecond, 24.0)
}

func (l *Layer) SetFramesPerSecond(n float64) error {
	return l.setLayerField(sdfdata.FieldFramesPerSecond, n)
}

// CustomLayerData returns a copy of the custom layer data, nil if unset.
func (l *Layer) CustomLayerData() value.Dictionary {
	return layerField[value.Dictionary](l, sdfdata.FieldCustomLayerData, nil)
}

func (l *Layer) SetCustomLayerData(d value.Dictionary) error {
	return l.setLayerField(sdfdata.FieldCustomLayerData, d)
}
