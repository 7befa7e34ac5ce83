package domain

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	assert.ErrorIs(t, ErrNoPacket, ErrConfiguration)
	assert.ErrorIs(t, ErrAddressNotFound, ErrConfiguration)
	assert.ErrorIs(t, ErrAlreadySending, ErrSenderState)
	assert.ErrorIs(t, ErrNotSending, ErrSenderState)
	assert.NotErrorIs(t, ErrNotSending, ErrConfiguration)

	var missing error = &MissingFieldError{Field: "src_mac"}
	assert.ErrorIs(t, missing, ErrConfiguration)
	assert.Contains(t, missing.Error(), "src_mac")

	invalid := &InvalidFieldError{Field: "dst_ipv4", Value: "nope", Err: io.ErrUnexpectedEOF}
	assert.ErrorIs(t, invalid, ErrConfiguration)
	assert.ErrorIs(t, invalid, io.ErrUnexpectedEOF)

	transport := &TransportError{Interface: "eth0", Op: "send", Err: io.ErrClosedPipe}
	assert.ErrorIs(t, transport, ErrTransport)
	assert.ErrorIs(t, transport, io.ErrClosedPipe)
	var te *TransportError
	assert.True(t, errors.As(error(transport), &te))
	assert.Equal(t, "eth0", te.Interface)
}

func TestNewActivityRecord(t *testing.T) {
	rec, err := NewActivityRecord("run-1", "eth0", ActionSendBurst, KindARP)
	assert.NoError(t, err)
	assert.Equal(t, "eth0", rec.Interface)
	assert.False(t, rec.Timestamp.IsZero())

	rec.Fail(nil)
	assert.Empty(t, rec.Error)
	rec.Fail(io.EOF)
	assert.Equal(t, "EOF", rec.Error)

	_, err = NewActivityRecord("run-1", "", ActionSendBurst, KindARP)
	assert.ErrorIs(t, err, ErrMissingInterface)

	_, err = NewActivityRecord("run-1", "eth0", ActivityAction("BOGUS"), KindARP)
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestSenderConfig_Validate(t *testing.T) {
	assert.NoError(t, SenderConfig{Interface: "eth0"}.Validate())
	assert.ErrorIs(t, SenderConfig{}.Validate(), ErrConfiguration)
	assert.ErrorIs(t, SenderConfig{Interface: "eth0;reboot"}.Validate(), ErrInvalidInterface)
}

func TestPacket_Immutable(t *testing.T) {
	raw := []byte{1, 2, 3}
	p := NewPacket(KindRaw, raw)
	raw[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, p.Bytes())

	out := p.Bytes()
	out[1] = 9
	assert.Equal(t, []byte{1, 2, 3}, p.Bytes())
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, KindRaw, p.Kind())
}
