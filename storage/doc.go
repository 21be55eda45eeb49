// Package storage abstracts where conversation documents and audio files
// live. Backends register themselves from their packages (local, s3) and are
// selected by Config.Provider.
//
// Beyond the basic Storage operations a backend may implement Opener for
// seekable reads (HTTP range requests) and SignedURLProvider for pre-signed
// download URLs.
package storage
