// Package localtls generates and loads self-signed certificates for the
// local HTTPS file server.
//
// Certificates are keyed by common name and cached on disk as
// <name>.key.pem and <name>.cert.pem; an existing pair is reused so serving
// the same host twice does not churn browser trust prompts.
package localtls
