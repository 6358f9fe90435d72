package domain

// OrderPatch is a partial update payload: only non-nil fields are applied.
// It mirrors the PUT/POST request bodies of the backend, which accept any
// subset of the order columns.
type OrderPatch struct {
	ProductID       *string         `json:"productId,omitempty"`
	PackCode        *string         `json:"packcode,omitempty"`
	LicenseInfo     interface{}     `json:"licenseInfo,omitempty"`
	OrderDate       *string         `json:"order_date,omitempty"`
	CustomerName    *string         `json:"customer_name,omitempty"`
	CustomerAddress *string         `json:"customer_address,omitempty"`
	CustomerType    *int            `json:"customer_type,omitempty"`
	TaxCode         *string         `json:"taxcode,omitempty"`
	IdentityCode    *string         `json:"identity_code,omitempty"`
	Tel             *string         `json:"tel,omitempty"`
	Email           *string         `json:"email,omitempty"`
	Note            *string         `json:"note,omitempty"`
	Amount          *float64        `json:"amount,omitempty"`
	PaymentStatus   *PaymentStatus  `json:"payment_status,omitempty"`
	PaymentTranNo   *string         `json:"payment_tran_no,omitempty"`
	PaymentType     *PaymentType    `json:"payment_type,omitempty"`
	PaymentDate     *string         `json:"payment_date,omitempty"`
	ResourceStatus  *ResourceStatus `json:"resource_status,omitempty"`
	PartnerCode     *string         `json:"partner_code,omitempty"`
	EmployeeCode    *string         `json:"employee_code,omitempty"`
}

// Apply overwrites the target's fields with the patch's non-nil values.
func (p OrderPatch) Apply(o *Order) {
	if p.ProductID != nil {
		o.ProductID = *p.ProductID
	}
	if p.PackCode != nil {
		o.PackCode = *p.PackCode
	}
	if p.LicenseInfo != nil {
		o.LicenseInfo = p.LicenseInfo
	}
	if p.OrderDate != nil {
		o.OrderDate = p.OrderDate
	}
	if p.CustomerName != nil {
		o.CustomerName = *p.CustomerName
	}
	if p.CustomerAddress != nil {
		o.CustomerAddress = *p.CustomerAddress
	}
	if p.CustomerType != nil {
		o.CustomerType = p.CustomerType
	}
	if p.TaxCode != nil {
		o.TaxCode = *p.TaxCode
	}
	if p.IdentityCode != nil {
		o.IdentityCode = *p.IdentityCode
	}
	if p.Tel != nil {
		o.Tel = *p.Tel
	}
	if p.Email != nil {
		o.Email = *p.Email
	}
	if p.Note != nil {
		o.Note = *p.Note
	}
	if p.Amount != nil {
		o.Amount = p.Amount
	}
	if p.PaymentStatus != nil {
		o.PaymentStatus = *p.PaymentStatus
	}
	if p.PaymentTranNo != nil {
		o.PaymentTranNo = *p.PaymentTranNo
	}
	if p.PaymentType != nil {
		o.PaymentType = *p.PaymentType
	}
	if p.PaymentDate != nil {
		o.PaymentDate = p.PaymentDate
	}
	if p.ResourceStatus != nil {
		o.ResourceStatus = *p.ResourceStatus
	}
	if p.PartnerCode != nil {
		o.PartnerCode = *p.PartnerCode
	}
	if p.EmployeeCode != nil {
		o.EmployeeCode = *p.EmployeeCode
	}
}
