// Package core defines the shared content model and error taxonomy used by
// every other modelbridge package. Content is role-based and composed of
// ordered heterogeneous parts (text, file attachments, function calls and
// responses) so that provider adapters can translate a single normalized
// shape into their vendor-specific wire format.
package core
