// Copyright 2025 The Rivaas Authors
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

package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"

	"moor.dev/moor/errors"
)

// ExampleRFC9457 demonstrates how to use the RFC9457 formatter.
func ExampleRFC9457() {
	formatter := errors.NewRFC9457("https://moor.dev/problems")

	err := errors.WithStatus(stderrors.New("no route for GET /nowhere"), http.StatusNotFound)
	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)

	w := httptest.NewRecorder()
	_ = errors.Write(w, formatter.Format(req, err))

	fmt.Printf("Status: %d\n", w.Code)
	fmt.Printf("Content-Type: %s\n", w.Header().Get("Content-Type"))
	// Output:
	// Status: 404
	// Content-Type: application/problem+json; charset=utf-8
}

// ExampleSimple demonstrates how to use the Simple formatter.
func ExampleSimple() {
	formatter := errors.NewSimple()

	response := formatter.Format(nil, stderrors.New("handler failed"))

	fmt.Printf("Status: %d\n", response.Status)
	fmt.Printf("Body: %v\n", response.Body)
	// Output:
	// Status: 500
	// Body: map[error:handler failed]
}

// ExampleRFC9457_customErrorID demonstrates custom error ID generation.
func ExampleRFC9457_customErrorID() {
	formatter := &errors.RFC9457{
		BaseURL: "https://moor.dev/problems",
		ErrorIDGenerator: func() string {
			return "dispatch-42"
		},
	}

	response := formatter.Format(nil, stderrors.New("handler failed"))

	body := response.Body.(errors.ProblemDetail)
	fmt.Printf("Error ID: %v\n", body.Extensions["error_id"])
	// Output:
	// Error ID: dispatch-42
}
