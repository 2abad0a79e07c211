package domain

type PaymentKind string

const (
	PaymentCOD  PaymentKind = "cod"
	PaymentCard PaymentKind = "card"
	PaymentUPI  PaymentKind = "upi"
)

// RequiresCapture is true for the electronic methods charged at checkout.
func (k PaymentKind) RequiresCapture() bool {
	return k == PaymentCard || k == PaymentUPI
}

// PaymentMethod carries the raw details entered at checkout. It is handed to
// the payment capability and never persisted; orders keep a PaymentSummary.
type PaymentMethod struct {
	Kind       PaymentKind `json:"kind"`
	CardNumber string      `json:"card_number,omitempty"`
	Expiry     string      `json:"expiry,omitempty"`
	CVV        string      `json:"cvv,omitempty"`
	UPIHandle  string      `json:"upi_handle,omitempty"`
}

func (m PaymentMethod) Summary(reference string) PaymentSummary {
	s := PaymentSummary{Kind: m.Kind, Reference: reference}
	switch m.Kind {
	case PaymentCard:
		if n := len(m.CardNumber); n >= 4 {
			s.CardLast4 = m.CardNumber[n-4:]
		}
	case PaymentUPI:
		s.UPIHandle = m.UPIHandle
	}
	return s
}

type PaymentSummary struct {
	Kind      PaymentKind `json:"kind"`
	CardLast4 string      `json:"card_last4,omitempty"`
	UPIHandle string      `json:"upi_handle,omitempty"`
	Reference string      `json:"reference,omitempty"`
}

type ShippingDetails struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}
