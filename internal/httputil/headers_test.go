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

package httputil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalHeaderName(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	is.Equal("Content-Type", CanonicalHeaderName("content-type"))
	is.Equal("Content-Type", CanonicalHeaderName("CONTENT-TYPE"))
	is.Equal("X-Forwarded-For", CanonicalHeaderName("x-forwarded-for"))
	is.Equal("Host", CanonicalHeaderName("host"))
	is.Equal("", CanonicalHeaderName(""))
}

func TestNormalizeHeaderValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	is.Equal("text/html; charset=utf-8", NormalizeHeaderValue("  text/html; charset=utf-8  "))
	is.Equal("a b c", NormalizeHeaderValue("  a \t b \t\t  c "))
	is.Equal("", NormalizeHeaderValue("   "))
}
