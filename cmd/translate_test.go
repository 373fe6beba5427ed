/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

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
package cmd

import (
	"slices"
	"strings"
	"testing"
	"unicode"

	"github.com/valpere/revtran/internal/document"
)

func TestTranslateHelp_ListsSegmentedTags(t *testing.T) {
	help := strings.ReplaceAll(translateCmd.Long, "h1-h6", "h1 h2 h3 h4 h5 h6")
	words := strings.FieldsFunc(help, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	atomic, container, skipped := document.Tags()
	for _, tags := range [][]string{atomic, container, skipped} {
		for _, tag := range tags {
			if !slices.Contains(words, tag) {
				t.Errorf("help does not mention %q", tag)
			}
		}
	}
	// list items travel with their list
	if slices.Contains(words, "li") {
		t.Error("help lists li as a block of its own")
	}
}
