// Package schema loads model definitions written in CUE and turns them into
// fixed point registries.
//
// A schema directory holds one CUE package. Each model lists the fields
// stored at a fixed scale:
//
//	package schema
//
//	model: Invoice: fixed_point: [
//		{fields: ["total", "tax"]},           // width 2, base 10
//		{fields: ["rate"], width: 4},
//		{fields: ["weight"], width: 3, base: 10},
//	]
//
// Declarations are applied in order, so a field named again later takes the
// later scale. Unknown keys inside a declaration are ignored.
package schema
