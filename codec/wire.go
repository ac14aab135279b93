// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import "github.com/luxfi/mesh/messages"

// MarshalMessage encodes a signed Message for the wire with the package's
// versioned Codec; no Envelope frame is added.
func MarshalMessage(msg messages.Message) ([]byte, error) {
	return Codec.Marshal(CurrentVersion, msg)
}

// UnmarshalMessage decodes a signed Message previously produced by
// MarshalMessage.
func UnmarshalMessage(data []byte) (messages.Message, error) {
	var msg messages.Message
	_, err := Codec.Unmarshal(data, &msg)
	return msg, err
}
