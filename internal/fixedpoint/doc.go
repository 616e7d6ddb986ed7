// Package fixedpoint maps decimal values onto integers stored at a fixed
// scale, the way money is kept as cents and read back as dollars.
//
// A field is registered on a Registry with a width (fractional digits) and a
// base. The scale factor is base^width:
//
//	stored  = round(value * factor)
//	value   = stored / factor
//
// Each registered field exposes four named operations:
//
//	price          float getter
//	price=         float setter
//	price_fixed    raw getter
//	price_fixed=   raw setter
//
// The package never stores field values itself. An Accessor binds a Registry
// to an Attributes implementation (the record's backing store) and delegates
// every raw read and write to it.
//
// # Rounding
//
// ToStored rounds half away from zero (math.Round). Values that are NaN,
// infinite, or whose scaled form does not fit in an int64 are rejected with
// an INVALID_VALUE error before anything is written.
//
// # Registration
//
// Registration is a setup step. A Registry is built once per model type and
// treated as read-only afterwards; it carries no lock.
package fixedpoint
