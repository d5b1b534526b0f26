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

package router_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"moor.dev/moor/router"
	"moor.dev/moor/router/route"
)

var _ = Describe("Router", func() {
	var (
		r     *router.Router
		calls []string
	)

	record := func(c *router.Context) {
		calls = append(calls, fmt.Sprintf("%s %v", c.Callback(), c.Params()))
	}

	dispatch := func(method, path string) *router.Result {
		res, err := r.Dispatch(context.Background(), &router.Request{Method: method, Path: path})
		Expect(err).NotTo(HaveOccurred())
		return res
	}

	BeforeEach(func() {
		calls = nil
		r = router.MustNew(router.WithPrefix("/api"))
		r.Map("/invoices/:id(\\d+)", "Invoices::show", route.WithName("invoice"))
		r.Map("/invoices", nil,
			route.WithMethod(http.MethodGet, "Invoices::index"),
			route.WithMethod(http.MethodPost, "Invoices::create"),
		)
		r.Map("/:class/:method", "*::*")
		for _, cb := range []string{"Invoices::show", "Invoices::index", "Invoices::create", "InvoiceLine::editAll"} {
			r.BindFunc(cb, record)
		}
	})

	Describe("Dispatch", func() {
		It("should run the callback of the first matching route", func() {
			res := dispatch(http.MethodGet, "/api/invoices/7")

			Expect(res.Found()).To(BeTrue())
			Expect(res.Callback).To(Equal("Invoices::show"))
			Expect(res.Params).To(HaveKeyWithValue("id", "7"))
			Expect(calls).To(ConsistOf("Invoices::show map[id:7]"))
		})

		It("should pick the target of the request method", func() {
			dispatch(http.MethodGet, "/api/invoices")
			dispatch(http.MethodPost, "/api/invoices")

			Expect(calls).To(Equal([]string{"Invoices::index map[]", "Invoices::create map[]"}))
		})

		It("should derive wildcard callbacks from the path", func() {
			res := dispatch(http.MethodGet, "/api/invoice_line/edit_all")

			Expect(res.Callback).To(Equal("InvoiceLine::editAll"))
			Expect(res.Pattern()).To(Equal("/api/:class/:method"))
		})

		It("should report paths outside the prefix as not found", func() {
			res := dispatch(http.MethodGet, "/invoices/7")

			Expect(res.Found()).To(BeFalse())
			Expect(res.State).To(Equal(router.StateNotFound))
			Expect(res.Pattern()).To(Equal("_not_found"))
			Expect(calls).To(BeEmpty())
		})
	})

	Describe("LinkTo", func() {
		It("should build paths from names and callbacks", func() {
			Expect(r.LinkTo("invoice", map[string]string{"id": "42"})).To(Equal("/api/invoices/42"))
			Expect(r.LinkTo("Invoices::show", map[string]string{"id": "8"})).To(Equal("/api/invoices/8"))
		})

		It("should fail for targets no route accepts", func() {
			_, err := r.LinkTo("nobody", nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ServeHTTP", func() {
		It("should answer unmatched requests with a problem document", func() {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/elsewhere", nil))

			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/problem+json"))
		})
	})

	Describe("Routes", func() {
		It("should list routes in dispatch order with the prefix applied", func() {
			infos, err := r.Routes()
			Expect(err).NotTo(HaveOccurred())

			patterns := make([]string, 0, len(infos))
			for _, info := range infos {
				patterns = append(patterns, info.Pattern)
			}
			Expect(patterns).To(Equal([]string{"/api/invoices/:id(\\d+)", "/api/invoices", "/api/:class/:method"}))
		})
	})
})
