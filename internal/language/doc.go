// Package language normalizes spoken-language codes between the forms the
// recognizer reports (ISO 639-1 or English names), the forms users type, and
// the ISO 639-2 codes and display names written into muxed subtitle tracks.
package language
