// Package protocol owns the particulate sensor wire contract and decoding primitives.
//
// Ownership boundary:
// - start-of-frame synchronization
// - length-prefixed frame assembly
// - checksum validation
// - measurement field extraction
//
// Wire format:
//
//	[0x42][0x4D][length:u16 BE][fields: u16 BE ...][checksum:u16 BE]
//
// length counts the field bytes plus the trailing checksum.
//
// The decoder never owns the byte source. Callers serialize access to it and
// close it to abort a blocked read.
package protocol
