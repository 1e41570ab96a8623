// errors.go: the six-kind error taxonomy surfaced by every engine operation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package chronos

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for Chronos cache operations, grouped by kind.
const (
	// InvalidArgument: the caller passed a value the engine will never
	// accept, regardless of state (empty key, oversized parent-key list).
	ErrCodeInvalidArgument   errors.ErrorCode = "CHRONOS_INVALID_ARGUMENT"
	ErrCodeInvalidPartition  errors.ErrorCode = "CHRONOS_INVALID_PARTITION"
	ErrCodeInvalidKey        errors.ErrorCode = "CHRONOS_INVALID_KEY"
	ErrCodeTooManyParents    errors.ErrorCode = "CHRONOS_TOO_MANY_PARENT_KEYS"
	ErrCodeInvalidExpiry     errors.ErrorCode = "CHRONOS_INVALID_EXPIRY"

	// ContractViolation: the request is well-formed but conflicts with an
	// invariant the engine enforces (unencodable value, parent missing).
	ErrCodeContractViolation errors.ErrorCode = "CHRONOS_CONTRACT_VIOLATION"
	ErrCodeUnencodableValue  errors.ErrorCode = "CHRONOS_UNENCODABLE_VALUE"
	ErrCodeParentNotFound    errors.ErrorCode = "CHRONOS_PARENT_NOT_FOUND"
	ErrCodeTamperDetected    errors.ErrorCode = "CHRONOS_TAMPER_DETECTED"

	// WriteFailure: the database rejected or failed to durably apply a
	// mutating statement (Add/Remove/Clear/purge).
	ErrCodeWriteFailure errors.ErrorCode = "CHRONOS_WRITE_FAILURE"

	// ReadFailure: the database failed to serve a read, or a stored row
	// could not be decoded back into a value.
	ErrCodeReadFailure     errors.ErrorCode = "CHRONOS_READ_FAILURE"
	ErrCodeDecodeFailure   errors.ErrorCode = "CHRONOS_DECODE_FAILURE"

	// Cancelled: ctx was cancelled or its deadline elapsed mid-operation.
	ErrCodeCancelled errors.ErrorCode = "CHRONOS_CANCELLED"

	// Capacity: an operation was refused because a size limit would
	// otherwise be exceeded (oversized value).
	ErrCodeCapacity         errors.ErrorCode = "CHRONOS_CAPACITY"
	ErrCodeValueTooLarge    errors.ErrorCode = "CHRONOS_VALUE_TOO_LARGE"

	// Internal errors not named by the main taxonomy but still surfaced
	// when a value-getter panics mid-call.
	ErrCodePanicRecovered errors.ErrorCode = "CHRONOS_PANIC_RECOVERED"
)

const (
	msgEmptyKey          = "key cannot be empty"
	msgInvalidPartition  = "partition name is invalid"
	msgTooManyParents    = "too many parent keys for a single item"
	msgInvalidExpiry     = "expiry option is invalid"
	msgUnencodableValue  = "value cannot be encoded by the configured serializer"
	msgParentNotFound    = "one or more parent keys do not exist in the partition"
	msgTamperDetected    = "stored entry failed its integrity check"
	msgWriteFailure      = "database write failed"
	msgReadFailure       = "database read failed"
	msgDecodeFailure     = "stored value could not be decoded"
	msgCancelled         = "operation was cancelled"
	msgValueTooLarge     = "encoded value exceeds the configured maximum size"
	msgPanicRecovered    = "panic recovered in cache operation"
)

// =============================================================================
// INVALID ARGUMENT
// =============================================================================

// NewErrEmptyKey reports that operation was called with an empty key.
func NewErrEmptyKey(operation string) error {
	return errors.NewWithField(ErrCodeInvalidKey, msgEmptyKey, "operation", operation)
}

// NewErrInvalidPartition reports a rejected partition name.
func NewErrInvalidPartition(partition string) error {
	return errors.NewWithField(ErrCodeInvalidPartition, msgInvalidPartition, "partition", partition)
}

// NewErrTooManyParents reports a parent-key list exceeding the configured cap.
func NewErrTooManyParents(provided, max int) error {
	return errors.NewWithContext(ErrCodeTooManyParents, msgTooManyParents, map[string]interface{}{
		"provided_count": provided,
		"max_allowed":    max,
	})
}

// NewErrInvalidExpiry reports a malformed or contradictory expiry option.
func NewErrInvalidExpiry(reason string) error {
	return errors.NewWithField(ErrCodeInvalidExpiry, msgInvalidExpiry, "reason", reason)
}

// =============================================================================
// CONTRACT VIOLATION
// =============================================================================

// NewErrUnencodableValue reports that the configured Serializer rejected value's type.
func NewErrUnencodableValue(key string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeUnencodableValue, msgUnencodableValue).
			WithContext("key", key)
	}
	return errors.NewWithField(ErrCodeUnencodableValue, msgUnencodableValue, "key", key)
}

// NewErrParentNotFound reports that Add referenced a parent key absent from
// the partition.
func NewErrParentNotFound(partition string, missing []string) error {
	return errors.NewWithContext(ErrCodeParentNotFound, msgParentNotFound, map[string]interface{}{
		"partition": partition,
		"missing":   missing,
	})
}

// NewErrTamperDetected reports that a stored entry's tamper hash did not
// match its recomputed value.
func NewErrTamperDetected(partition, key string) error {
	return errors.NewWithContext(ErrCodeTamperDetected, msgTamperDetected, map[string]interface{}{
		"partition": partition,
		"key":       key,
	})
}

// =============================================================================
// WRITE / READ FAILURE
// =============================================================================

// NewErrWriteFailure wraps a database error encountered while writing.
func NewErrWriteFailure(operation string, cause error) error {
	return errors.Wrap(cause, ErrCodeWriteFailure, msgWriteFailure).
		WithContext("operation", operation).
		AsRetryable()
}

// NewErrReadFailure wraps a database error encountered while reading.
func NewErrReadFailure(operation string, cause error) error {
	return errors.Wrap(cause, ErrCodeReadFailure, msgReadFailure).
		WithContext("operation", operation).
		AsRetryable()
}

// NewErrDecodeFailure wraps a Serializer/Compressor error encountered while
// reconstructing a stored value.
func NewErrDecodeFailure(partition, key string, cause error) error {
	return errors.Wrap(cause, ErrCodeDecodeFailure, msgDecodeFailure).
		WithContext("partition", partition).
		WithContext("key", key)
}

// =============================================================================
// CANCELLED
// =============================================================================

// NewErrCancelled reports that ctx ended the operation before it completed.
func NewErrCancelled(operation string, cause error) error {
	return errors.Wrap(cause, ErrCodeCancelled, msgCancelled).
		WithContext("operation", operation)
}

// =============================================================================
// CAPACITY
// =============================================================================

// NewErrValueTooLarge reports that an encoded value exceeds Settings.MaxValueSize.
func NewErrValueTooLarge(key string, size, max int64) error {
	return errors.NewWithContext(ErrCodeValueTooLarge, msgValueTooLarge, map[string]interface{}{
		"key":       key,
		"size":      size,
		"max_size":  max,
	})
}

// =============================================================================
// INTERNAL
// =============================================================================

// NewErrPanicRecovered wraps a recovered panic from a GetOrAdd loader or the
// maintenance worker.
func NewErrPanicRecovered(operation string, panicValue interface{}) error {
	return errors.NewWithContext(ErrCodePanicRecovered, msgPanicRecovered, map[string]interface{}{
		"operation":   operation,
		"panic_value": fmt.Sprintf("%v", panicValue),
	}).WithSeverity("critical")
}

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsInvalidArgument reports whether err belongs to the InvalidArgument kind.
func IsInvalidArgument(err error) bool {
	return hasAnyCode(err, ErrCodeInvalidArgument, ErrCodeInvalidPartition, ErrCodeInvalidKey,
		ErrCodeTooManyParents, ErrCodeInvalidExpiry)
}

// IsContractViolation reports whether err belongs to the ContractViolation kind.
func IsContractViolation(err error) bool {
	return hasAnyCode(err, ErrCodeContractViolation, ErrCodeUnencodableValue,
		ErrCodeParentNotFound, ErrCodeTamperDetected)
}

// IsWriteFailure reports whether err belongs to the WriteFailure kind.
func IsWriteFailure(err error) bool {
	return errors.HasCode(err, ErrCodeWriteFailure)
}

// IsReadFailure reports whether err belongs to the ReadFailure kind.
func IsReadFailure(err error) bool {
	return hasAnyCode(err, ErrCodeReadFailure, ErrCodeDecodeFailure)
}

// IsCancelled reports whether err belongs to the Cancelled kind.
func IsCancelled(err error) bool {
	return errors.HasCode(err, ErrCodeCancelled)
}

// IsCapacity reports whether err belongs to the Capacity kind.
func IsCapacity(err error) bool {
	return hasAnyCode(err, ErrCodeCapacity, ErrCodeValueTooLarge)
}

func hasAnyCode(err error, codes ...errors.ErrorCode) bool {
	if err == nil {
		return false
	}
	for _, code := range codes {
		if errors.HasCode(err, code) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether the error's source operation may succeed if
// retried (the engine's bounded-retry policy consults this).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the error code from err, or "" if it carries none.
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts the structured context attached to err, if any.
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var chronosErr *errors.Error
	if goerrors.As(err, &chronosErr) {
		return chronosErr.Context
	}
	return nil
}
