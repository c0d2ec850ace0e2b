// Package token scans the layer text format into tokens.
//
// The scanner is hand written and operates on a complete document. Every
// token carries a *Pos from which line and column may be recovered;
// scanning errors are *TokenizeErr values carrying the offending position.
//
// Tokens are produced in document order by Tokenize or one at a time by a
// Scanner. Comments are dropped unless requested with TokenComments.
package token
