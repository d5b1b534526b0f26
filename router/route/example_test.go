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

package route_test

import (
	"fmt"

	"moor.dev/moor/router/compiler"
	"moor.dev/moor/router/route"
)

// ExampleTable demonstrates registering and compiling routes.
func ExampleTable() {
	tbl := route.NewTable(compiler.Options{})
	tbl.Add(route.NewDefinition("/invoices/:id/send", `Billing\Invoice::send`))
	tbl.Add(route.NewDefinition("/reports/:name", `Reports\@name(uc)::show`))

	if err := tbl.Compile(); err != nil {
		panic(err)
	}

	for _, r := range tbl.Routes() {
		fmt.Println(r.ID, r.Pattern.Template(), r.Default.Callback)
	}
	// Output:
	// 0 /invoices/:id/send Billing\Invoice::send
	// 1 /reports/:name Reports\@name(uc)::show
}

// ExampleTable_Compile demonstrates the parameter consistency check.
func ExampleTable_Compile() {
	tbl := route.NewTable(compiler.Options{})
	tbl.Add(route.NewDefinition("/reports", `Reports\@name(uc)::show`))

	fmt.Println(tbl.Compile())
	// Output: moor: param_mismatch in "/reports" (params: name): callback and pattern parameters differ: undeclared in pattern [name], unused by callback []
}
