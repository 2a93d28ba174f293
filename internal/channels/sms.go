package channels

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/taskd/internal/dispatch"
)

// smsMaxLen is the single-segment SMS limit; longer messages are
// truncated with an ellipsis.
const smsMaxLen = 160

// carrierGateways maps a carrier name to its email-to-SMS gateway
// domain.
var carrierGateways = map[string]string{
	"att":        "txt.att.net",
	"at&t":       "txt.att.net",
	"verizon":    "vtext.com",
	"tmobile":    "tmomail.net",
	"t-mobile":   "tmomail.net",
	"sprint":     "messaging.sprintpcs.com",
	"boost":      "myboostmobile.com",
	"cricket":    "sms.cricketwireless.net",
	"metropcs":   "mymetropcs.com",
	"virgin":     "vmobl.com",
	"uscellular": "email.uscc.net",
}

// GatewaySender delivers SMS by emailing the carrier's SMS gateway,
// reusing the SMTP transport.
type GatewaySender struct {
	email dispatch.EmailSender
}

// NewGatewaySender creates an SMS sender on top of an email sender.
func NewGatewaySender(email dispatch.EmailSender) (*GatewaySender, error) {
	if email == nil {
		return nil, fmt.Errorf("email sender is required for the sms gateway")
	}
	return &GatewaySender{email: email}, nil
}

// Send emails the message to the carrier gateway address for the phone
// number, truncated to one SMS segment.
func (g *GatewaySender) Send(ctx context.Context, phoneNumber, carrier, message string) error {
	gateway, err := GatewayAddress(phoneNumber, carrier)
	if err != nil {
		return err
	}
	// Gateways ignore the subject.
	return g.email.Send(ctx, gateway, "", Truncate(message))
}

// GatewayAddress returns the gateway email address for a phone number
// and carrier, stripping any formatting from the number.
func GatewayAddress(phoneNumber, carrier string) (string, error) {
	domain, ok := carrierGateways[strings.ToLower(carrier)]
	if !ok {
		return "", fmt.Errorf("unsupported carrier: %s", carrier)
	}

	var digits strings.Builder
	for _, c := range phoneNumber {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	if digits.Len() == 0 {
		return "", fmt.Errorf("phone number has no digits: %q", phoneNumber)
	}

	return digits.String() + "@" + domain, nil
}

// Truncate shortens a message to a single SMS segment.
func Truncate(message string) string {
	if len(message) <= smsMaxLen {
		return message
	}
	return message[:smsMaxLen-3] + "..."
}
