// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Codes cover both generic service failures (NOT_FOUND, INVALID_REQUEST,
// INTERNAL) and the CPU map taxonomy: record loading (DUPLICATE_NAME,
// MISSING_NAME, UNKNOWN_VENDOR, INVALID_IDENTIFIER), model resolution
// (UNKNOWN_MODEL, NO_MODEL_FOR_IDENTIFIER), baseline consistency
// (OPERATION_FAILED) and hypervisor allow-lists (CONFIG_UNSUPPORTED).
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeUnknownModel,
//	    "failed to resolve guest CPU",
//	    cause,
//	    map[string]any{
//	        "model": def.Model,
//	        "arch":  def.Arch,
//	    },
//	)
//
//	if errors.IsCode(err, errors.ErrCodeUnknownModel) {
//	    // configuration problem, not a compatibility mismatch
//	}
package errors
