// Copyright 2025 Google LLC
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

package wasi

import "go.uber.org/zap"

// logger emits debug traces on the open, close, and wait paths. It defaults
// to a no-op logger so the package is silent unless a caller opts in.
var logger = zap.NewNop()

// SetLogger installs the logger used for debug traces. Passing nil restores
// the no-op default. Not safe to call while operations are in flight.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}
