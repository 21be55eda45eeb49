// Package security holds the TLS settings for outbound connections, such
// as the viewer talking to a server behind a private CA.
//
//	cfg := security.TLSConfig{CAFile: "/etc/convoview/ca.pem"}
//	tlsConfig, err := cfg.Build()
package security
