// Package sdf provides layers: path addressed trees of specs with
// identity, batched change notification and a text serialization.
//
// All process scoped state lives in an Env. An Env holds the registry
// of open layers, the change manager that batches their edits, the
// value registry and field schema, and the resolver used to locate
// layer files.
//
//	env := sdf.NewEnv()
//	l, err := sdf.CreateNew(env, "shot.sdf", nil)
//	...
//	err = env.Changes().Do(func() error {
//		prim, err := l.CreatePrimSpec(sdfpath.AbsoluteRoot(), "World", sdfdata.SpecifierDef, "Xform")
//		if err != nil {
//			return err
//		}
//		return prim.SetField(sdfdata.FieldKind, value.Token("assembly"))
//	})
//
// The registry holds layers weakly. A layer stays open as long as the
// caller keeps a reference to it, and opening the same identifier again
// while it is open returns the same *Layer.
package sdf
