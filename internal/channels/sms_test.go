package channels

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureEmail struct {
	to, subject, body string
	err               error
}

func (c *captureEmail) Send(_ context.Context, to, subject, body string) error {
	c.to = to
	c.subject = subject
	c.body = body
	return c.err
}

func TestGatewayAddress(t *testing.T) {
	tests := []struct {
		name    string
		number  string
		carrier string
		want    string
		wantErr bool
	}{
		{name: "att", number: "5551234567", carrier: "att", want: "5551234567@txt.att.net"},
		{name: "carrier is case insensitive", number: "5551234567", carrier: "Verizon", want: "5551234567@vtext.com"},
		{name: "ampersand alias", number: "5551234567", carrier: "at&t", want: "5551234567@txt.att.net"},
		{name: "formatting stripped", number: "+1 (555) 123-4567", carrier: "tmobile", want: "15551234567@tmomail.net"},
		{name: "unsupported carrier", number: "5551234567", carrier: "rogers", wantErr: true},
		{name: "no digits", number: "---", carrier: "att", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GatewayAddress(tt.number, tt.carrier)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short"))

	exact := strings.Repeat("a", 160)
	assert.Equal(t, exact, Truncate(exact))

	long := strings.Repeat("a", 161)
	got := Truncate(long)
	assert.Len(t, got, 160)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("a", 157), strings.TrimSuffix(got, "..."))
}

func TestGatewaySender_Send(t *testing.T) {
	email := &captureEmail{}
	sender, err := NewGatewaySender(email)
	require.NoError(t, err)

	long := strings.Repeat("x", 200)
	require.NoError(t, sender.Send(context.Background(), "(555) 123-4567", "att", long))

	assert.Equal(t, "5551234567@txt.att.net", email.to)
	assert.Empty(t, email.subject)
	assert.Len(t, email.body, 160)
}

func TestGatewaySender_RejectsBadCarrier(t *testing.T) {
	sender, err := NewGatewaySender(&captureEmail{})
	require.NoError(t, err)

	err = sender.Send(context.Background(), "5551234567", "nope", "msg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported carrier")
}

func TestNewGatewaySender_RequiresEmail(t *testing.T) {
	_, err := NewGatewaySender(nil)
	require.Error(t, err)
}
