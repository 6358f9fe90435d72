package domain

// PaymentStatus represents the payment state of an order
type PaymentStatus int

const (
	PaymentStatusUnpaid  PaymentStatus = 0
	PaymentStatusPromise PaymentStatus = 1
	PaymentStatusPending PaymentStatus = 2
	PaymentStatusPaid    PaymentStatus = 3
)

// IsValid checks if the payment status is a known code
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPromise, PaymentStatusPending, PaymentStatusPaid:
		return true
	default:
		return false
	}
}

func (s PaymentStatus) String() string {
	switch s {
	case PaymentStatusUnpaid:
		return "unpaid"
	case PaymentStatusPromise:
		return "promise"
	case PaymentStatusPending:
		return "pending"
	case PaymentStatusPaid:
		return "paid"
	default:
		return "unknown"
	}
}

// PaymentType represents how an order is paid
type PaymentType int

const (
	PaymentTypeCash     PaymentType = 0
	PaymentTypeTransfer PaymentType = 1
)

// IsValid checks if the payment type is a known code
func (t PaymentType) IsValid() bool {
	return t == PaymentTypeCash || t == PaymentTypeTransfer
}

func (t PaymentType) String() string {
	switch t {
	case PaymentTypeCash:
		return "cash"
	case PaymentTypeTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// ResourceStatus represents the provisioning state of the purchased resource
type ResourceStatus int

const (
	ResourceStatusNotProvisioned ResourceStatus = 0
	ResourceStatusProvisioned    ResourceStatus = 1
	ResourceStatusFailed         ResourceStatus = 2
)

// IsValid checks if the resource status is a known code
func (s ResourceStatus) IsValid() bool {
	switch s {
	case ResourceStatusNotProvisioned, ResourceStatusProvisioned, ResourceStatusFailed:
		return true
	default:
		return false
	}
}

func (s ResourceStatus) String() string {
	switch s {
	case ResourceStatusNotProvisioned:
		return "not_provisioned"
	case ResourceStatusProvisioned:
		return "provisioned"
	case ResourceStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
