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

import "net/url"

// PercentDecode decodes a percent-encoded path segment. It is a thin
// wrapper over net/url.PathUnescape; the utility layer only needs the
// decoding itself, not another implementation of it.
func PercentDecode(s string) (string, error) {
	return url.PathUnescape(s)
}
