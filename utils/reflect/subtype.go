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

package reflect

import (
	"reflect"
)

// Abstract reports whether t is an abstract supertype marker: an open,
// extensible category with a membership test. In Go that is exactly an
// interface type; satisfaction is fixed at compile time, so membership is
// stable for the whole process run, which dispatch caching relies on.
func Abstract(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Interface
}

// Subtype reports whether candidate is the same as, or a recognized
// subtype of, reference.
//
// A concrete (non-interface) reference is closed: it accepts only an
// identical candidate, never a derived or convertible one, because the
// resolver must not assume a lookalike type preserves its semantics. An
// abstract (interface) reference accepts any candidate that satisfies it.
func Subtype(candidate, reference reflect.Type) bool {
	if candidate == nil || reference == nil {
		return false
	}
	if candidate == reference {
		return true
	}
	if !Abstract(reference) {
		return false
	}
	return candidate.Implements(reference)
}
