package lease

import "errors"

var (
	// ErrNilIntent indicates a nil intent was supplied.
	ErrNilIntent = errors.New("lease: nil intent")

	// ErrDeadlinePassed indicates the intent deadline is in the past.
	ErrDeadlinePassed = errors.New("lease: intent deadline passed")

	// ErrInvalidWindow indicates the lease start time is not before its end time.
	ErrInvalidWindow = errors.New("lease: start time must precede end time")

	// ErrAssetNotFound indicates the referenced asset is not registered.
	ErrAssetNotFound = errors.New("lease: referenced asset not found")

	// ErrSchemaMismatch indicates the intent's schema hash does not match the
	// asset type's schema hash.
	ErrSchemaMismatch = errors.New("lease: asset type schema hash mismatch")

	// ErrMissingLeaseField indicates a required lease field is absent or empty.
	ErrMissingLeaseField = errors.New("lease: required lease field missing")

	// ErrUnboundLessee indicates the intent's lessee slot is still the zero address.
	ErrUnboundLessee = errors.New("lease: lessee not bound")

	// ErrLessorSignature indicates the lessor signature does not recover to the lessor.
	ErrLessorSignature = errors.New("lease: lessor signature mismatch")

	// ErrLesseeSignature indicates the lessee signature does not recover to the lessee.
	ErrLesseeSignature = errors.New("lease: lessee signature mismatch")

	// ErrMalformedSignature indicates a signature could not be parsed at all.
	ErrMalformedSignature = errors.New("lease: malformed compact signature")

	// ErrIntentReplayed indicates this exact intent was already executed.
	ErrIntentReplayed = errors.New("lease: intent already executed")

	// ErrDuplicateCertificate indicates the id scheme produced an id that
	// is already minted.
	ErrDuplicateCertificate = errors.New("lease: certificate id already minted")

	// ErrCertificateNotFound indicates no certificate exists under the id.
	ErrCertificateNotFound = errors.New("lease: certificate not found")
)
