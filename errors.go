package x402

import (
	"errors"
	"fmt"
)

// ErrorCode enumerates the taxonomy of facilitator failures. Validation and
// chain-state codes are terminal for the attempt; transport and store codes
// may be retried by the caller.
type ErrorCode string

const (
	ErrInvalidEncoding        ErrorCode = "InvalidEncoding"
	ErrInvalidAtomicGroup     ErrorCode = "InvalidAtomicGroup"
	ErrPaymentIndexOutOfBounds ErrorCode = "PaymentIndexOutOfBounds"
	ErrAsaIdMismatch          ErrorCode = "AsaIdMismatch"
	ErrForbiddenFeeField      ErrorCode = "ForbiddenFeeField"
	ErrInvalidAddress         ErrorCode = "InvalidAddress"
	ErrNetworkMismatch        ErrorCode = "NetworkMismatch"
	ErrUnsupportedNetwork     ErrorCode = "UnsupportedNetwork"
	ErrInsufficientAmount     ErrorCode = "InsufficientAmount"
	ErrSignatureInvalid       ErrorCode = "SignatureInvalid"

	ErrTransactionExpired     ErrorCode = "TransactionExpired"
	ErrTransactionNotConfirmed ErrorCode = "TransactionNotConfirmed"
	ErrInvalidGroupId         ErrorCode = "InvalidGroupId"

	ErrRpcError        ErrorCode = "RpcError"
	ErrSubmissionFailed ErrorCode = "SubmissionFailed"

	ErrNonceAlreadyUsed  ErrorCode = "NonceAlreadyUsed"
	ErrConnectionFailed  ErrorCode = "ConnectionFailed"

	ErrHttpError         ErrorCode = "HttpError"
	ErrParseError        ErrorCode = "ParseError"
	ErrInvalidUrl        ErrorCode = "InvalidUrl"
	ErrFacilitatorError  ErrorCode = "FacilitatorError"

	ErrUnexpectedSettleError ErrorCode = "UnexpectedSettleError"
	ErrOther                 ErrorCode = "Other"
)

// FacilitatorError is the typed error the façade and the chain providers
// return. The nonce-store backends and the discovery aggregator return plain
// errors and do not wrap them in this type. It carries a machine-readable
// Code plus optional Field/Payer context and an underlying error for wrapping.
type FacilitatorError struct {
	Code    ErrorCode
	Field   string // e.g. "close_remainder_to" for ForbiddenFeeField
	Payer   string
	Network Network
	Err     error
}

func (e *FacilitatorError) Error() string {
	msg := string(e.Code)
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field: %s)", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

func (e *FacilitatorError) Unwrap() error {
	return e.Err
}

// NewFacilitatorError builds a FacilitatorError with no field/payer context.
func NewFacilitatorError(code ErrorCode, err error) *FacilitatorError {
	return &FacilitatorError{Code: code, Err: err}
}

// WithField attaches the offending field name, used by ForbiddenFeeField.
func (e *FacilitatorError) WithField(field string) *FacilitatorError {
	e.Field = field
	return e
}

// WithPayer attaches a known payer address to an error.
func (e *FacilitatorError) WithPayer(payer string) *FacilitatorError {
	e.Payer = payer
	return e
}

// AsFacilitatorError converts any error into a *FacilitatorError, mapping
// unknown kinds to ErrOther while preserving the original message — the
// façade's propagation policy from §7.
func AsFacilitatorError(err error) *FacilitatorError {
	if err == nil {
		return nil
	}
	var fe *FacilitatorError
	if errors.As(err, &fe) {
		return fe
	}
	return &FacilitatorError{Code: ErrOther, Err: err}
}
