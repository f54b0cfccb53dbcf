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

// Package dates finds the issue date of a document in its extracted text.
//
// An Extractor tries an ordered list of regular expressions. For each
// pattern, only its leftmost match is considered, and that match is parsed
// against an ordered list of time layouts. The first layout that parses wins.
// If every layout rejects the match, the next pattern is tried. Text with no
// parseable date yields core.UnknownDate, which sorts as the oldest
// possible date.
//
// The default configuration recognizes numeric dates such as "12/01/2023"
// or "31-12-2020" (day first, then month first) and written dates such as
// "December 31, 2020" or "Dec 31, 2020".
package dates
