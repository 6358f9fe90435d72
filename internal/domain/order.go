package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// Order matches the order_info table of the backing REST API. Field names on
// the wire are kept exactly as the backend produces them. Nullable columns are
// pointers so empty, zero and null stay distinct across JSON and CSV.
type Order struct {
	ID              string         `json:"order_info_Id"`
	OrderNo         string         `json:"orderno"`
	ProductID       string         `json:"productId"`
	PackCode        string         `json:"packcode"`
	LicenseInfo     interface{}    `json:"licenseInfo"`
	OrderDate       *string        `json:"order_date"`
	CustomerName    string         `json:"customer_name"`
	CustomerAddress string         `json:"customer_address"`
	CustomerType    *int           `json:"customer_type"`
	TaxCode         string         `json:"taxcode"`
	IdentityCode    string         `json:"identity_code"`
	Tel             string         `json:"tel"`
	Email           string         `json:"email"`
	Note            string         `json:"note"`
	Amount          *float64       `json:"amount"`
	PaymentStatus   PaymentStatus  `json:"payment_status"`
	PaymentTranNo   string         `json:"payment_tran_no"`
	PaymentType     PaymentType    `json:"payment_type"`
	PaymentDate     *string        `json:"payment_date"`
	ResourceStatus  ResourceStatus `json:"resource_status"`
	PartnerCode     string         `json:"partner_code"`
	EmployeeCode    string         `json:"employee_code"`
}

// NewOrder creates an order template with a fresh identity, today's order
// date and default enum values. OrderNo is left empty; whoever owns the
// collection allocates it.
func NewOrder() Order {
	today := time.Now().Format("2006-01-02")
	return Order{
		ID:             uuid.NewString(),
		LicenseInfo:    map[string]interface{}{},
		OrderDate:      &today,
		PaymentStatus:  PaymentStatusUnpaid,
		PaymentType:    PaymentTypeCash,
		ResourceStatus: ResourceStatusNotProvisioned,
	}
}

// Clone copies every non-identity field of src onto a fresh order. The copy
// gets a new UUID and an empty OrderNo.
func Clone(src Order) Order {
	var dup Order
	// copier never fails on two identical struct types
	_ = copier.Copy(&dup, &src)
	dup.ID = uuid.NewString()
	dup.OrderNo = ""
	if dup.LicenseInfo == nil {
		dup.LicenseInfo = map[string]interface{}{}
	}
	return dup
}

// MarkPaid records a successful payment confirmation. Repeat confirmations
// keep the status and refresh the timestamp.
func (o *Order) MarkPaid(at time.Time) {
	ts := at.UTC().Format(time.RFC3339)
	o.PaymentStatus = PaymentStatusPaid
	o.PaymentDate = &ts
}
