package types

// Version is the canonical project version.
// The CLI, the snapshot format, and the cart event payload all report
// this constant (lockstep versioning).
const Version = "0.2.0"
