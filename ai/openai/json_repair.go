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

package openai

import "unicode"

// repairJSON patches the mistakes chat models make most often in JSON mode:
// an object key that lost its opening quote (`{clusters": ...`) and a
// trailing comma before a closing bracket. Text inside strings is untouched.
func repairJSON(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+8)
	inString := false

	for i := 0; i < len(in); i++ {
		ch := in[i]
		if inString {
			out = append(out, ch)
			switch ch {
			case '\\':
				if i+1 < len(in) {
					i++
					out = append(out, in[i])
				}
			case '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case ',':
			if next := skipSpace(in, i+1); next < len(in) && (in[next] == '}' || in[next] == ']') {
				continue
			}
		}
		out = append(out, ch)

		if ch != '{' && ch != ',' {
			continue
		}
		start := skipSpace(in, i+1)
		end := start
		for end < len(in) && isKeyRune(in[end]) {
			end++
		}
		if end == start || end+1 >= len(in) || in[end] != '"' || in[end+1] != ':' {
			continue
		}
		// bare key followed by `":`; emit it quoted and resume after the closing quote
		out = append(out, in[i+1:start]...)
		out = append(out, '"')
		out = append(out, in[start:end+1]...)
		i = end
	}
	return string(out)
}

func skipSpace(in []rune, i int) int {
	for i < len(in) && unicode.IsSpace(in[i]) {
		i++
	}
	return i
}

func isKeyRune(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
