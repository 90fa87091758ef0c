// Package model loads Relic model files (.rgm).
//
// A model is a chunky file whose FOLDMODL chunk holds materials, meshes and
// an optional FOLDVARS section of model variables and conditions. Mesh
// payloads are not copied: index and vertex slices alias the mapped file and
// stay valid until the model is closed.
//
//	m, err := model.LoadFrom(src, `art\ebps\races\marine.rgm`)
//	if err != nil {
//		return err
//	}
//	defer m.Close()
//
//	_ = m.SetVariable("damaged", condition.BoolValue(true))
//	for i, obj := range m.Objects() {
//		if m.Visible(i) {
//			draw(obj)
//		}
//	}
package model
