// Package tlsroots builds the TLS client configuration used to reach the
// recommender API: system roots plus optional private CA files, and an
// optional client certificate.
package tlsroots
