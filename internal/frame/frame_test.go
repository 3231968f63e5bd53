package frame

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gDollaZ/flo/internal/types"
	"github.com/gDollaZ/flo/internal/w3gs"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := Frame{Type: TypeW3GS, Payload: []byte{1, 2, 3, 4}}

	require.NoError(t, Write(&buf, in))

	out, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWriteRead_EmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Frame{Type: TypeControl}))

	out, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, TypeControl, out.Type)
	assert.Empty(t, out.Payload)
}

func TestRead_RejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Frame{Type: TypeW3GS, Payload: []byte{1}}))

	raw := buf.Bytes()
	raw[4] = 0xff
	raw[5] = 0xff
	raw[6] = 0xff
	raw[7] = 0xff

	_, err := Read(bytes.NewReader(raw))
	assert.Error(t, err)
}

func TestRead_ShortHeaderErrors(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFromW3GS_ToW3GS_RoundTrip(t *testing.T) {
	pkt := w3gs.Packet{Type: w3gs.TypeLeaveReq, Payload: []byte{0xAA, 0xBB}}
	f := FromW3GS(pkt)
	assert.Equal(t, TypeW3GS, f.Type)

	out, err := ToW3GS(f)
	require.NoError(t, err)
	assert.Equal(t, pkt, out)
}

func TestToW3GS_RejectsWrongFrameType(t *testing.T) {
	_, err := ToW3GS(Frame{Type: TypeControl, Payload: []byte{0, 1}})
	assert.Error(t, err)
}

func TestToW3GS_RejectsTooShortPayload(t *testing.T) {
	_, err := ToW3GS(Frame{Type: TypeW3GS})
	assert.Error(t, err)
}

func TestControlMessages_EncodeDecodeRoundTrip(t *testing.T) {
	statusReq := ClientUpdateSlotClientStatusRequest{SlotPlayerID: 3, Status: types.SlotClientStatusLoaded}
	decoded, err := DecodeControl(statusReq.Encode())
	require.NoError(t, err)
	assert.Equal(t, statusReq, decoded)

	statusUpd := NodeGameStatusUpdate{Status: types.NodeGameStatusRunning}
	decoded, err = DecodeControl(statusUpd.Encode())
	require.NoError(t, err)
	assert.Equal(t, statusUpd, decoded)
}

func TestDecodeControl_RejectsNonControlFrame(t *testing.T) {
	_, err := DecodeControl(Frame{Type: TypeW3GS, Payload: []byte{1}})
	assert.Error(t, err)
}

func TestDecodeControl_RejectsUnknownType(t *testing.T) {
	_, err := DecodeControl(Frame{Type: TypeControl, Payload: []byte{0xFF}})
	assert.Error(t, err)
}

func TestTypeID_String(t *testing.T) {
	assert.Equal(t, "W3GS", TypeW3GS.String())
	assert.Equal(t, "Control", TypeControl.String())
	assert.Contains(t, TypeID(99).String(), "Unknown")
}
