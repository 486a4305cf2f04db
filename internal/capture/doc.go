// Package capture extracts indicators and a textual summary from binary
// packet captures. The packet dissection itself is delegated to an external
// tshark process; this package owns only the subprocess invocation and the
// pure reduction of tshark's per-packet JSON into report material.
package capture
