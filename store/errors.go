package store

import "errors"

var (
	// ErrNilRecord indicates a nil record was passed to a put operation.
	ErrNilRecord = errors.New("store: nil record")

	// ErrDuplicateCertificate indicates the certificate id is already stored.
	ErrDuplicateCertificate = errors.New("store: duplicate certificate")

	// ErrCertificateNotFound indicates no certificate exists under the id.
	ErrCertificateNotFound = errors.New("store: certificate not found")
)
