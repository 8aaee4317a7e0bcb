/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package apis

// Describer is implemented by dispatch entities that can render a stable,
// human-readable description of themselves for diagnostics, docs, and
// golden tests.
//
// # Contract
//
//   - Describe MUST be deterministic for a fixed registration state.
//   - Describe MUST be safe for concurrent calls.
//   - The output is for humans and test fixtures; it is not a wire format
//     and carries no compatibility promise beyond one module version.
type Describer interface {
	// Describe returns a multi-line or single-line description.
	Describe() string
}
