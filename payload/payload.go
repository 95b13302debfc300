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

package payload

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// Kind tags which source a payload came from.
type Kind string

const (
	KindLocal   Kind = "local"
	KindRemoteA Kind = "remoteA"
	KindRemoteB Kind = "remoteB"
)

// ErrUnknownKind is returned when decoding an envelope with an unrecognized tag.
var ErrUnknownKind = errors.New("unknown payload kind")

// Raw is the closed set of source-native payloads. The unexported marker
// method keeps implementations inside this package.
type Raw interface {
	Kind() Kind
	isRaw()
}

// Local is a case loaded from the bulk archive together with the reporter
// and volume it was filed under.
type Local struct {
	Case     CAPCase `json:"case"`
	Reporter string  `json:"reporter,omitempty"`
	Volume   string  `json:"volume,omitempty"`
}

// RemoteA is a CourtListener result. Hit is set for search results; Cluster
// and Opinion are set when the record was fetched by ID.
type RemoteA struct {
	Hit     *CLSearchHit `json:"hit,omitempty"`
	Cluster *CLCluster   `json:"cluster,omitempty"`
	Opinion *CLOpinion   `json:"opinion,omitempty"`
}

// RemoteB is a Caselaw Access Project API case.
type RemoteB struct {
	Case CAPCase `json:"case"`
}

func (Local) Kind() Kind   { return KindLocal }
func (RemoteA) Kind() Kind { return KindRemoteA }
func (RemoteB) Kind() Kind { return KindRemoteB }

func (Local) isRaw()   {}
func (RemoteA) isRaw() {}
func (RemoteB) isRaw() {}

var (
	_ Raw = Local{}
	_ Raw = RemoteA{}
	_ Raw = RemoteB{}
)

// Envelope is the serialized form of a Raw value.
type Envelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Wrap encodes r into an envelope. A nil payload yields a nil envelope.
func Wrap(r Raw) (*Envelope, error) {
	if r == nil {
		return nil, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", r.Kind(), err)
	}
	return &Envelope{Kind: r.Kind(), Data: data}, nil
}

// Decode restores the payload held by e. A nil envelope yields a nil payload.
func (e *Envelope) Decode() (Raw, error) {
	if e == nil {
		return nil, nil
	}
	switch e.Kind {
	case KindLocal:
		var v Local
		if err := json.Unmarshal(e.Data, &v); err != nil {
			return nil, fmt.Errorf("decoding local payload: %w", err)
		}
		return v, nil
	case KindRemoteA:
		var v RemoteA
		if err := json.Unmarshal(e.Data, &v); err != nil {
			return nil, fmt.Errorf("decoding remoteA payload: %w", err)
		}
		return v, nil
	case KindRemoteB:
		var v RemoteB
		if err := json.Unmarshal(e.Data, &v); err != nil {
			return nil, fmt.Errorf("decoding remoteB payload: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
}
