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

// Package extract turns document files into raw text.
//
// Plain text files are read as is. PDFs are handled in one of three modes:
//   - ocr rasterizes every page with pdftoppm at 300 dpi and reads it back
//     with tesseract, the right choice for scanned circulars
//   - text reads the PDF's embedded text layer
//   - auto reads the text layer and falls back to OCR when it is empty
//
// External tools run through a CommandRunner so tests can replace them.
// OCR and text-layer output mark each page with a "--- Page N ---" line.
package extract
