// Package normalisers loads uploaded manuals into text. Each subpackage
// handles one format; Registry dispatches on the declared or derived
// format of a RawDocument.
//
// Normalisers are registered with the Registry at startup via RegisterDefaults.
package normalisers
