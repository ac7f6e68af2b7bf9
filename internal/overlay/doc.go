// Package overlay builds configuration instances from a declared schema of
// defaults and an external settings source.
//
// A schema declares fields and defaults:
//
//	base := overlay.NewSchema("mail").
//		Field("HOST", "localhost").
//		Field("PORT", 25).
//		Field("_POOL", 4) // hidden: never read from the source
//
// New then overlays every public field with the value the source holds under
// prefix+name:
//
//	inst, err := overlay.New(base, "MAIL_", settings.Map{"MAIL_HOST": "smtp.example.com"})
//
// Derived schemas are built with Extend; their Go wrappers usually embed the
// parent's wrapper so methods carry over.
package overlay
