package mappy

import "mappy/internal/errs"

// Error is the structured error returned by the package. Match kinds with
// errors.Is against the sentinels below; Pos names the batch element for
// element-level failures and is -1 otherwise.
type Error = errs.Error

var (
	ErrIndexLoad            = errs.ErrIndexLoad
	ErrConfig               = errs.ErrConfig
	ErrUnsupportedBatchType = errs.ErrUnsupportedBatchType
	ErrElementNotARecord    = errs.ErrElementNotARecord
	ErrMissingSeqKey        = errs.ErrMissingSeqKey
	ErrSeqNotString         = errs.ErrSeqNotString
	ErrQueueOverflow        = errs.ErrQueueOverflow
	ErrNotFound             = errs.ErrNotFound
	ErrInvalidRange         = errs.ErrInvalidRange
	ErrClosed               = errs.ErrClosed
)
