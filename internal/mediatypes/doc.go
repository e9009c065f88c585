// Package mediatypes classifies source files for the thumbnail service.
//
// Classification is by extension only, against fixed allow-lists; the file
// content is never sniffed here. Decoders may still reject a file that has
// a supported extension.
//
//	switch mediatypes.Classify(path) {
//	case mediatypes.KindImage:
//	    // image pool
//	case mediatypes.KindVideo:
//	    // video slot
//	default:
//	    // unsupported, fails immediately
//	}
//
// The package has no dependencies beyond the standard library so it can be
// imported from anywhere without cycles.
package mediatypes
