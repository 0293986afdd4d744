// Package fastmail creates masked email addresses through the Fastmail JMAP
// API.
//
// The client performs the two-step JMAP flow: fetch the session document to
// discover the API endpoint and the primary account holding the masked-email
// capability, then issue a MaskedEmail/set call to mint the address. A dry-run
// mode synthesizes a plausible response without touching the network so the
// alias command can be rehearsed safely.
package fastmail
