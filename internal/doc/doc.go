// Package doc provides the document surface that every overlay
// annotates: linear-addressed content, the transaction contract
// describing each mutation, and the ordered observer list through
// which overlays learn about edits.
package doc
