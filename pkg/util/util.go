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

// Package util provides some basic util functions.
package util

import (
	"encoding/binary"
)

func GetUnalignedUint16(u8 []uint8) uint16 {
	return binary.BigEndian.Uint16(u8)
}

// GetUnalignedUint24 reads the 3 byte big endian lengths used by group 0 CDBs.
func GetUnalignedUint24(u8 []uint8) uint32 {
	return uint32(u8[0])<<16 | uint32(u8[1])<<8 | uint32(u8[2])
}

func MarshalUint24(i uint32) []byte {
	var data []byte
	for j := 16; j >= 0; j -= 8 {
		b := byte(i >> uint32(j))
		data = append(data, b)
	}
	return data
}

// SpacePad returns str truncated or padded with ASCII spaces to length bytes,
// the layout of inquiry identification fields.
func SpacePad(str string, length int) []byte {
	data := make([]byte, length)
	n := copy(data, str)
	for ; n < length; n++ {
		data[n] = ' '
	}
	return data
}

// MinUint32 returns the smaller of a and b.
func MinUint32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
