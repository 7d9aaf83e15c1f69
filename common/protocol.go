package common

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Wire format. Every field is length-prefixed so a frame is
// self-delimiting: the reader always knows how many bytes complete it,
// even when TCP delivers them in arbitrary pieces.
//
//	request:  [1B action length][action name][2B big-endian text length][text]
//	response: [2B big-endian text length][text]
//
// Length fields are validated against MaxTextLen before any payload is
// allocated or read.

// MaxTextLen is the largest text payload, in bytes, a request or
// response may carry.
const MaxTextLen = 1024

var (
	// ErrTextTooLarge reports a text payload over MaxTextLen.
	ErrTextTooLarge = errors.New("text exceeds maximum length")

	// ErrMalformedFrame reports a frame that cannot be decoded:
	// truncated input, an empty action name, or a length field over the
	// bound.
	ErrMalformedFrame = errors.New("malformed frame")
)

const (
	actionHeaderLen = 1
	textHeaderLen   = 2
)

// EncodeRequest serializes one transformation request into a frame.
// The action must be in the transform table and the text within
// MaxTextLen; violations are reported before any bytes are produced.
func EncodeRequest(action string, text []byte) ([]byte, error) {
	if _, ok := Transforms[action]; !ok {
		return nil, errors.Wrapf(ErrUnknownAction, "action %q", action)
	}
	if len(text) > MaxTextLen {
		return nil, errors.Wrapf(ErrTextTooLarge, "%d bytes, limit %d", len(text), MaxTextLen)
	}
	buf := make([]byte, 0, actionHeaderLen+len(action)+textHeaderLen+len(text))
	buf = append(buf, byte(len(action)))
	buf = append(buf, action...)
	var hdr [textHeaderLen]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(len(text)))
	buf = append(buf, hdr[:]...)
	buf = append(buf, text...)
	return buf, nil
}

// DecodeRequest reads one complete request frame from r, reassembling
// it however the stream fragments. It validates frame structure only;
// whether the action is serviceable is the dispatch layer's call.
func DecodeRequest(r io.Reader) (string, []byte, error) {
	var hdr [actionHeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return "", nil, errors.Wrapf(ErrMalformedFrame, "reading action length: %v", err)
	}
	nameLen := int(hdr[0])
	if nameLen == 0 {
		return "", nil, errors.Wrap(ErrMalformedFrame, "empty action name")
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return "", nil, errors.Wrapf(ErrMalformedFrame, "reading action name: %v", err)
	}
	text, err := decodeText(r)
	if err != nil {
		return "", nil, err
	}
	return string(name), text, nil
}

// EncodeResponse serializes the transformed text into a response frame.
func EncodeResponse(text []byte) ([]byte, error) {
	if len(text) > MaxTextLen {
		return nil, errors.Wrapf(ErrTextTooLarge, "%d bytes, limit %d", len(text), MaxTextLen)
	}
	buf := make([]byte, textHeaderLen+len(text))
	binary.BigEndian.PutUint16(buf[:textHeaderLen], uint16(len(text)))
	copy(buf[textHeaderLen:], text)
	return buf, nil
}

// DecodeResponse reads one complete response frame from r.
func DecodeResponse(r io.Reader) ([]byte, error) {
	return decodeText(r)
}

func decodeText(r io.Reader) ([]byte, error) {
	var hdr [textHeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, errors.Wrapf(ErrMalformedFrame, "reading text length: %v", err)
	}
	textLen := int(binary.BigEndian.Uint16(hdr[:]))
	if textLen > MaxTextLen {
		return nil, errors.Wrapf(ErrMalformedFrame, "text length %d over limit %d", textLen, MaxTextLen)
	}
	text := make([]byte, textLen)
	if _, err := io.ReadFull(r, text); err != nil {
		return nil, errors.Wrapf(ErrMalformedFrame, "reading text: %v", err)
	}
	return text, nil
}
