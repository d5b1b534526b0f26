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

package linker

import (
	"errors"
	"maps"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	"moor.dev/moor/router/callback"
	"moor.dev/moor/router/route"
)

// ErrRelative is returned when a relative target reaches the linker.
// Relative targets are resolved against a running dispatch first.
var ErrRelative = errors.New("relative link target outside of a dispatch")

// Linker builds URLs from callback targets.
//
// The ranking of routes for a (target, parameter names) pair is memoized.
// Ranking never depends on parameter values, so the memo stays valid while
// values that a sub-pattern rejects fall through to the next route. The
// table is frozen before links are built, so entries never go stale. Only
// targets with at least one candidate are memoized, and the memo is
// emptied when it reaches MemoLimit entries.
type Linker struct {
	table *route.Table

	mu        sync.RWMutex
	memo      map[string][]route.ID
	memoLimit int
}

// MemoLimit is the number of rankings a Linker keeps.
const MemoLimit = 1024

// New creates a Linker over a compiled table.
func New(table *route.Table) *Linker {
	return &Linker{
		table:     table,
		memo:      make(map[string][]route.ID),
		memoLimit: MemoLimit,
	}
}

// candidate is a route whose callbacks accept the requested target.
type candidate struct {
	route    *route.Route
	values   map[string]string // everything the URL is built from
	consumed map[string]bool   // keys never emitted as query
	distance int
	lastWild int
	overlap  int
	countGap int
}

// less orders candidates: closest finder, latest wildcard, widest parameter
// overlap, closest parameter count, then registration order.
func (c *candidate) less(o *candidate) bool {
	if c.distance != o.distance {
		return c.distance < o.distance
	}
	if c.lastWild != o.lastWild {
		return c.lastWild > o.lastWild
	}
	if c.overlap != o.overlap {
		return c.overlap > o.overlap
	}
	if c.countGap != o.countGap {
		return c.countGap < o.countGap
	}
	return c.route.ID < o.route.ID
}

func (c *candidate) buildable() bool {
	return c.route.Pattern.CanBuild(c.values)
}

// Link returns the URL of the best route for target with params.
// Parameters not used by the path are appended as a sorted query string.
func (l *Linker) Link(target string, params map[string]string) (string, error) {
	c, err := l.best(target, params, nil)
	if err != nil {
		return "", err
	}

	return c.build()
}

// LinkValues binds values, in order, to the parameters of the best route
// that the target does not already provide.
func (l *Linker) LinkValues(target string, values ...string) (string, error) {
	c, err := l.best(target, nil, values)
	if err != nil {
		return "", err
	}

	return c.build()
}

// Best returns the route Link would use.
func (l *Linker) Best(target string, params map[string]string) (*route.Route, error) {
	c, err := l.best(target, params, nil)
	if err != nil {
		return nil, err
	}

	return c.route, nil
}

func (l *Linker) best(target string, params map[string]string, values []string) (*candidate, error) {
	names := slices.Sorted(maps.Keys(params))
	if callback.IsRelative(target) {
		return nil, route.NoLinkError(target, names, ErrRelative)
	}

	// Exact key fast path.
	if id, ok := l.table.Lookup(target); ok {
		if r, found := l.table.Route(id); found {
			if c := evaluate(r, target, params, values); c != nil && c.buildable() {
				return c, nil
			}
		}
	}

	key := memoKey(target, names, values)
	l.mu.RLock()
	ranked, ok := l.memo[key]
	l.mu.RUnlock()
	if !ok {
		ranked = l.rank(target, params, values)
		if len(ranked) > 0 {
			l.remember(key, ranked)
		}
	}

	for _, id := range ranked {
		r, found := l.table.Route(id)
		if !found {
			continue
		}
		if c := evaluate(r, target, params, values); c != nil && c.buildable() {
			return c, nil
		}
	}

	return nil, route.NoLinkError(target, names, nil)
}

func (l *Linker) remember(key string, ranked []route.ID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.memo) >= l.memoLimit {
		clear(l.memo)
	}
	l.memo[key] = ranked
}

func (l *Linker) memoSize() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.memo)
}

// rank returns the IDs of every route accepting target, best first.
func (l *Linker) rank(target string, params map[string]string, values []string) []route.ID {
	var cs []*candidate
	for _, r := range l.table.Routes() {
		if c := evaluate(r, target, params, values); c != nil {
			cs = append(cs, c)
		}
	}
	slices.SortFunc(cs, func(a, b *candidate) int {
		switch {
		case a.less(b):
			return -1
		case b.less(a):
			return 1
		}
		return 0
	})

	ids := make([]route.ID, len(cs))
	for i, c := range cs {
		ids[i] = c.route.ID
	}

	return ids
}

func memoKey(target string, names, values []string) string {
	var sb strings.Builder
	sb.WriteString(target)
	sb.WriteByte(0)
	sb.WriteString(strings.Join(names, ","))
	if values != nil {
		sb.WriteString("#")
		sb.WriteString(strconv.Itoa(len(values)))
	}

	return sb.String()
}

// evaluate returns r as a candidate for target, or nil when none of its
// callbacks accept target. A callback accepts target only when dispatching
// the extracted values resolves to target again; "HTMLPage" extracts to
// "html_page", which resolves to "HtmlPage", so it is rejected. Parameter
// values are not validated here.
func evaluate(r *route.Route, target string, params map[string]string, values []string) *candidate {
	if !r.Pattern.Linkable() {
		return nil
	}

	var (
		extracted map[string]string
		finder    string
		lastWild  = math.MaxInt
	)
	if r.Definition.Name != "" && r.Definition.Name == target {
		extracted = map[string]string{}
		finder = target
	} else {
		for _, d := range r.Callbacks() {
			if !d.Matches(target) {
				continue
			}
			v, err := d.Extract(target)
			if err != nil {
				continue
			}
			if back, err := d.Resolve(v); err != nil || back != target {
				continue
			}
			extracted, finder, lastWild = v, d.Finder(), d.LastWildcard()
			break
		}
	}
	if extracted == nil {
		return nil
	}

	c := &candidate{
		route:    r,
		values:   make(map[string]string, len(params)+len(extracted)),
		consumed: make(map[string]bool, len(r.Definition.Overrides)),
		distance: levenshtein.ComputeDistance(finder, target),
		lastWild: lastWild,
	}

	// Overrides are applied on match; the target must agree with them.
	for k, v := range r.Definition.Overrides {
		if e, ok := extracted[k]; ok && e != v {
			return nil
		}
		c.consumed[k] = true
	}

	maps.Copy(c.values, params)
	for k, v := range r.Definition.Overrides {
		if _, ok := c.values[k]; !ok && r.Pattern.HasParam(k) {
			c.values[k] = v
		}
	}
	if values != nil {
		free := freeParams(r, extracted)
		if len(values) > len(free) {
			return nil
		}
		for i, v := range values {
			c.values[free[i]] = v
		}
	}
	for k, v := range extracted {
		if !c.consumed[k] {
			c.values[k] = v
		}
	}

	declared := r.Pattern.ParamNames()
	supplied := len(params) + len(values)
	for _, name := range declared {
		if _, ok := params[name]; ok {
			c.overlap++
		}
	}
	c.countGap = len(declared) - supplied
	if c.countGap < 0 {
		c.countGap = -c.countGap
	}

	return c
}

// freeParams lists pattern parameters the target and overrides leave open.
func freeParams(r *route.Route, extracted map[string]string) []string {
	var free []string
	for _, name := range r.Pattern.ParamNames() {
		if _, ok := extracted[name]; ok {
			continue
		}
		if _, ok := r.Definition.Overrides[name]; ok {
			continue
		}
		free = append(free, name)
	}

	return free
}

// build fills the pattern and appends unused values as a query string.
func (c *candidate) build() (string, error) {
	path, used, err := c.route.Pattern.Build(c.values)
	if err != nil {
		return "", route.NoLinkError(c.route.Definition.Pattern, nil, err)
	}

	for _, name := range used {
		c.consumed[name] = true
	}

	query := url.Values{}
	for k, v := range c.values {
		if !c.consumed[k] {
			query.Set(k, v)
		}
	}
	if len(query) == 0 {
		return path, nil
	}

	// Encode sorts by key.
	return path + "?" + query.Encode(), nil
}
