/*
Copyright 2016 The GoStor Authors All rights reserved.

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

package util

import (
	"bytes"
	"testing"
)

func TestUint24(t *testing.T) {
	for _, v := range []uint32{0, 1, 0x1000, 0xabcdef, 0xffffff} {
		if got := GetUnalignedUint24(MarshalUint24(v)); got != v {
			t.Errorf("uint24 %#x: got %#x", v, got)
		}
	}
}

func TestSpacePad(t *testing.T) {
	var tests = []struct {
		in     string
		length int
		want   []byte
	}{
		{"ab", 4, []byte("ab  ")},
		{"abcdef", 4, []byte("abcd")},
		{"", 2, []byte("  ")},
	}
	for i, tt := range tests {
		if got := SpacePad(tt.in, tt.length); !bytes.Equal(got, tt.want) {
			t.Errorf("[%02d] SpacePad(%q, %d) = %q, want %q", i, tt.in, tt.length, got, tt.want)
		}
	}
}
