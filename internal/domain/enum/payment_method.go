package enum

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PaymentMethod represents how a settlement was paid
type PaymentMethod int

const (
	PaymentMethodUnknown PaymentMethod = 0
	PaymentMethodQRIS    PaymentMethod = 1
	PaymentMethodCash    PaymentMethod = 2
)

func (p PaymentMethod) String() string {
	switch p {
	case PaymentMethodQRIS:
		return "QRIS"
	case PaymentMethodCash:
		return "Cash"
	}
	return "Unknown"
}

func (p PaymentMethod) Valid() bool {
	return p == PaymentMethodQRIS || p == PaymentMethodCash
}

func (p PaymentMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *PaymentMethod) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*p = PaymentMethod(i)
		return nil
	}
	parsed, err := ParsePaymentMethod(str)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePaymentMethod is case-insensitive.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "qris":
		return PaymentMethodQRIS, nil
	case "cash":
		return PaymentMethodCash, nil
	}
	return PaymentMethodUnknown, fmt.Errorf("unknown payment method %q", s)
}
