// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drive

import (
	"encoding/binary"
	"fmt"
)

// Size of the supported security protocol list header (SPC-4 7.7.1).
const protocolListHeaderSize = 8

// SecurityProtocols returns the supported security protocols in the order the
// device reports them.
//
// If the controller does not implement Security Send/Receive, ErrNotSupported
// is returned without issuing any command. Otherwise the list is read in two
// steps: an 8 byte header to learn the list length, then the header plus the
// list itself. Devices are only required to honor an allocation length equal
// to the one they advertise, so the two requests must not be merged.
func SecurityProtocols(d SendReceive, id *Identity) ([]SecurityProtocol, error) {
	if !id.OACS.Security() {
		return nil, ErrNotSupported
	}

	raw := make([]byte, protocolListHeaderSize)
	if err := d.IFRecv(SecurityProtocolInformation, 0, &raw); err != nil {
		return nil, fmt.Errorf("failed to read security protocol list header: %w", err)
	}
	n := int(binary.BigEndian.Uint16(raw[6:8]))
	if n == 0 {
		return []SecurityProtocol{}, nil
	}

	raw = make([]byte, protocolListHeaderSize+n)
	if err := d.IFRecv(SecurityProtocolInformation, 0, &raw); err != nil {
		return nil, fmt.Errorf("failed to read security protocol list: %w", err)
	}
	res := make([]SecurityProtocol, 0, n)
	for _, p := range raw[protocolListHeaderSize:] {
		res = append(res, SecurityProtocol(p))
	}
	return res, nil
}
