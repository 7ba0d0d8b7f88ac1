// Copyright 2025 samber.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://github.com/samber/ro/blob/main/licenses/LICENSE.apache.md
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package httputil holds the small, non-core collaborators the concurrency
// core's generator/recycler callbacks typically feed: header canonicalization,
// percent-decoding, and a file-backed item generator. None of this package
// participates in the core's state machines; it exists so the core has
// realistic callers.
package httputil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var headerTitleCaser = cases.Title(language.Und)

// CanonicalHeaderName title-cases each hyphen-separated token of a raw
// header name, e.g. "content-type" -> "Content-Type".
func CanonicalHeaderName(name string) string {
	tokens := strings.Split(name, "-")
	for i, tok := range tokens {
		tokens[i] = headerTitleCaser.String(tok)
	}
	return strings.Join(tokens, "-")
}

// NormalizeHeaderValue trims leading/trailing whitespace and collapses
// internal runs of whitespace to a single space, as required of header
// field values before they are handed to a consumer.
func NormalizeHeaderValue(value string) string {
	fields := strings.Fields(value)
	return strings.Join(fields, " ")
}
