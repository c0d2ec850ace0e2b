// Package textfmt reads and writes the text form of a layer.
//
// A document starts with the "#sdf 1.0" header, followed by optional
// layer metadata in parentheses and a sequence of prim blocks:
//
//	#sdf 1.0
//	(
//	    defaultPrim = "World"
//	)
//
//	def Xform "World" (
//	    prepend references = @./model.sdf@</Model> (offset = 10; scale = 1)
//	)
//	{
//	    custom float3 size = (1, 2, 3)
//	    rel material = </Looks/Red>
//	}
//
// Read builds a fresh store and never touches existing data; Write emits
// a store in a deterministic order so that Read(Write(s)) holds the same
// specs and fields as s.
package textfmt
