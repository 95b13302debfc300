// Copyright 2025 Poiesic Systems
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

// Package handlers exposes the search engine over HTTP with gin.
//
// Every response uses one envelope:
//
//	{"success": true, "data": ...}
//	{"success": false, "error": {"code": "...", "message": "..."}}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	CodeInvalidQuery      = "INVALID_QUERY"
	CodeInvalidParameter  = "INVALID_PARAMETER"
	CodeMissingCitation   = "MISSING_CITATION"
	CodeCaseNotFound      = "CASE_NOT_FOUND"
	CodeUnknownSource     = "UNKNOWN_SOURCE"
	CodeSourceUnavailable = "SOURCE_UNAVAILABLE"
	CodeInternal          = "INTERNAL_ERROR"
)

// ErrorBody is the error half of the envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the shape of every response body.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message},
	})
}
