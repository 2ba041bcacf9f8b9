package runner

import (
	"encoding/json"
	"io"

	"github.com/decthings/model-go/internal/protocol"
)

// writeCommand writes a host->guest RPC command frame with the given
// method/params, the shape every real host connection produces.
func writeCommand(w io.Writer, method string, params interface{}) error {
	p, err := json.Marshal(params)
	if err != nil {
		return err
	}
	body, err := json.Marshal(struct {
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}{method, p})
	if err != nil {
		return err
	}
	if err := protocol.WriteUint8(w, 0); err != nil {
		return err
	}
	return protocol.WriteSegment(w, body)
}

// writeProvideData writes a host->guest ProvideData reply frame.
func writeProvideData(w io.Writer, requestID uint32, segments [][]byte) error {
	if err := protocol.WriteUint8(w, 1); err != nil {
		return err
	}
	if err := protocol.WriteUint32(w, requestID); err != nil {
		return err
	}
	if err := protocol.WriteUint32(w, uint32(len(segments))); err != nil {
		return err
	}
	for _, seg := range segments {
		if err := protocol.WriteSegment(w, seg); err != nil {
			return err
		}
	}
	return nil
}

// guestFrame is a parsed guest->host frame, read from the harness side.
type guestFrame struct {
	isDataEvent bool
	body        []byte
	extras      [][]byte
}

func readGuestFrame(r io.Reader) (*guestFrame, error) {
	tag, err := protocol.ReadUint8(r)
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		nExtra, err := protocol.ReadUint32(r)
		if err != nil {
			return nil, err
		}
		bodyLen, err := protocol.ReadUint64(r)
		if err != nil {
			return nil, err
		}
		body := make([]byte, bodyLen)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
		extras := make([][]byte, nExtra)
		for i := range extras {
			seg, err := protocol.ReadSegment(r)
			if err != nil {
				return nil, err
			}
			extras[i] = seg
		}
		if _, err := protocol.ReadUint8(r); err != nil { // trailer
			return nil, err
		}
		return &guestFrame{body: body, extras: extras}, nil
	}

	bodyLen, err := protocol.ReadUint64(r)
	if err != nil {
		return nil, err
	}
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return &guestFrame{isDataEvent: true, body: body}, nil
}

type resultEnvelope struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
}

type simpleResultBody struct {
	Error *protocol.WireError `json:"error"`
}

type requestDataEvent struct {
	Event      string `json:"event"`
	Dataset    string `json:"dataset"`
	RequestID  uint32 `json:"requestId"`
	StartIndex uint32 `json:"startIndex"`
	Amount     uint32 `json:"amount"`
}
