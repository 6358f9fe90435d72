// Package csvcodec converts order lists to and from the CSV layout used for
// spreadsheet interchange. The column set and ordering match the export
// produced by the backend, so files round-trip between the two.
package csvcodec

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/licshop/ordermgr/internal/domain"
)

// Header is the fixed column order of the interchange format.
var Header = []string{
	"order_info_Id",
	"orderno",
	"productId",
	"packcode",
	"licenseInfo",
	"order_date",
	"customer_name",
	"customer_address",
	"customer_type",
	"taxcode",
	"identity_code",
	"tel",
	"email",
	"note",
	"amount",
	"payment_status",
	"payment_tran_no",
	"payment_type",
	"payment_date",
	"resource_status",
	"partner_code",
	"employee_code",
}

// Encode renders orders as CSV text. Nullable fields become empty cells and
// licenseInfo is JSON-serialized into a single cell.
func Encode(orders []domain.Order) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for _, o := range orders {
		license := o.LicenseInfo
		if license == nil {
			license = map[string]interface{}{}
		}
		licenseCell, err := json.Marshal(license)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize licenseInfo for %s: %w", o.ID, err)
		}

		record := []string{
			o.ID,
			o.OrderNo,
			o.ProductID,
			o.PackCode,
			string(licenseCell),
			strCell(o.OrderDate),
			o.CustomerName,
			o.CustomerAddress,
			intCell(o.CustomerType),
			o.TaxCode,
			o.IdentityCode,
			o.Tel,
			o.Email,
			o.Note,
			floatCell(o.Amount),
			strconv.Itoa(int(o.PaymentStatus)),
			o.PaymentTranNo,
			strconv.Itoa(int(o.PaymentType)),
			strCell(o.PaymentDate),
			strconv.Itoa(int(o.ResourceStatus)),
			o.PartnerCode,
			o.EmployeeCode,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses CSV text back into orders. Columns are matched by header
// name, so column order and extra columns in the input are tolerated. Rows
// without an identity cell get a fresh UUID.
func Decode(text []byte) ([]domain.Order, error) {
	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[name] = i
	}

	orders := make([]domain.Order, 0, len(records)-1)
	for _, record := range records[1:] {
		cell := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		o := domain.Order{
			ID:              cell("order_info_Id"),
			OrderNo:         cell("orderno"),
			ProductID:       cell("productId"),
			PackCode:        cell("packcode"),
			LicenseInfo:     parseLicense(cell("licenseInfo")),
			OrderDate:       parseStr(cell("order_date")),
			CustomerName:    cell("customer_name"),
			CustomerAddress: cell("customer_address"),
			CustomerType:    parseInt(cell("customer_type")),
			TaxCode:         cell("taxcode"),
			IdentityCode:    cell("identity_code"),
			Tel:             cell("tel"),
			Email:           cell("email"),
			Note:            cell("note"),
			Amount:          parseFloat(cell("amount")),
			PaymentStatus:   domain.PaymentStatus(parseEnum(cell("payment_status"))),
			PaymentTranNo:   cell("payment_tran_no"),
			PaymentType:     domain.PaymentType(parseEnum(cell("payment_type"))),
			PaymentDate:     parseStr(cell("payment_date")),
			ResourceStatus:  domain.ResourceStatus(parseEnum(cell("resource_status"))),
			PartnerCode:     cell("partner_code"),
			EmployeeCode:    cell("employee_code"),
		}
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func strCell(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intCell(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func floatCell(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func parseStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseInt(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseEnum(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// parseLicense re-parses the licenseInfo cell as JSON, keeping the raw string
// when it is not well-formed. An empty cell decodes to an empty object.
func parseLicense(s string) interface{} {
	if s == "" {
		return map[string]interface{}{}
	}
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	if v == nil {
		return map[string]interface{}{}
	}
	return v
}
