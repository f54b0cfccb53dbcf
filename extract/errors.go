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

package extract

import "errors"

var (
	// ErrUnsupportedType is returned for files no extractor handles.
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrExtraction wraps failures reading text out of a document.
	ErrExtraction = errors.New("text extraction failed")

	// ErrUnknownMode is returned by ParseMode for unrecognized mode names.
	ErrUnknownMode = errors.New("unknown extraction mode")

	// ErrRunnerRequired is returned when OCR is configured without a CommandRunner.
	ErrRunnerRequired = errors.New("command runner required")
)
