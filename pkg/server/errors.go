// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
	"github.com/NVIDIA/cpumap/pkg/serializer"
)

// ErrorResponse is the body of every error the API returns.
type ErrorResponse struct {
	Code      cpuerrors.ErrorCode `json:"code"`
	Message   string              `json:"message"`
	Details   map[string]any      `json:"details,omitempty"`
	RequestID string              `json:"requestId"`
	Timestamp time.Time           `json:"timestamp"`
	Retryable bool                `json:"retryable"`
}

// WriteError writes an ErrorResponse with statusCode.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int,
	code cpuerrors.ErrorCode, message string, retryable bool, details map[string]any) {

	errorResponses.WithLabelValues(string(code)).Inc()

	requestID := RequestID(r.Context())
	if requestID == "" {
		requestID = uuid.New().String()
	}

	serializer.RespondJSON(w, statusCode, ErrorResponse{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	})
}

// WriteErrorFromErr writes err using the status of its error code. The
// StructuredError context, if any, is merged into details.
func WriteErrorFromErr(w http.ResponseWriter, r *http.Request, err error, message string, details map[string]any) {
	code := cpuerrors.CodeOf(err)

	merged := make(map[string]any, len(details)+1)
	var se *cpuerrors.StructuredError
	if stderrors.As(err, &se) {
		for k, v := range se.Context {
			merged[k] = v
		}
	}
	for k, v := range details {
		merged[k] = v
	}
	if err != nil {
		merged["error"] = err.Error()
	}

	WriteError(w, r, StatusForCode(code), code, message, isRetryable(code), merged)
}

// StatusForCode maps an error code to an HTTP status.
func StatusForCode(code cpuerrors.ErrorCode) int {
	switch code {
	case cpuerrors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case cpuerrors.ErrCodeNotFound, cpuerrors.ErrCodeUnknownModel, cpuerrors.ErrCodeNoModelForIdentifier:
		return http.StatusNotFound
	case cpuerrors.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case cpuerrors.ErrCodeOperationFailed, cpuerrors.ErrCodeIncompatible:
		return http.StatusConflict
	case cpuerrors.ErrCodeConfigUnsupported:
		return http.StatusUnprocessableEntity
	case cpuerrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case cpuerrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case cpuerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func isRetryable(code cpuerrors.ErrorCode) bool {
	switch code {
	case cpuerrors.ErrCodeTimeout, cpuerrors.ErrCodeUnavailable, cpuerrors.ErrCodeRateLimitExceeded:
		return true
	default:
		return false
	}
}
