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

package storage

import (
	"encoding/binary"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/poiesic/caselaw/payload"
)

// MarshalSeq serializes an insertion sequence number to bytes.
func MarshalSeq(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

// UnmarshalSeq deserializes an insertion sequence number.
func UnmarshalSeq(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: sequence is %d bytes", ErrSerializationFailed, len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// MarshalCase serializes a stored case.
func MarshalCase(c *payload.Local) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalCase deserializes a stored case.
func UnmarshalCase(data []byte) (*payload.Local, error) {
	var c payload.Local
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &c, nil
}

// MarshalReporters serializes the reporters manifest.
func MarshalReporters(reporters []payload.ReporterManifest) ([]byte, error) {
	data, err := json.Marshal(reporters)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalReporters deserializes the reporters manifest.
func UnmarshalReporters(data []byte) ([]payload.ReporterManifest, error) {
	var reporters []payload.ReporterManifest
	if err := json.Unmarshal(data, &reporters); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return reporters, nil
}
