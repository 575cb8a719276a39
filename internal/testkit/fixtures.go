package testkit

import (
	"time"

	invoicedomain "github.com/smallbiznis/gstengine/internal/invoice/domain"
)

// CustomerEmail is the recipient on every fixture order.
const CustomerEmail = "customer@example.com"

// Vendor returns a compliant vendor registered in Maharashtra.
func Vendor(id string) invoicedomain.VendorProfile {
	return invoicedomain.VendorProfile{
		VendorID:     id,
		TaxID:        VendorTaxID,
		HasTaxID:     true,
		Jurisdiction: "27",
		BusinessName: "Vendor " + id,
		Email:        "vendor@example.com",
	}
}

// Order returns a single-line order from vendorID shipped within
// Maharashtra. Callers adjust fields for other scenarios.
func Order(orderID, vendorID string, unitPrice int64, at time.Time) invoicedomain.Order {
	return invoicedomain.Order{
		OrderID:            orderID,
		VendorID:           vendorID,
		CustomerID:         "cust-" + orderID,
		CustomerName:       "Customer " + orderID,
		CustomerEmail:      CustomerEmail,
		BuyerJurisdiction:  "27",
		SellerJurisdiction: "27",
		Items: []invoicedomain.OrderItem{{
			ProductID:          "prod-" + orderID,
			ClassificationCode: "3004",
			Quantity:           1,
			UnitPrice:          unitPrice,
		}},
		CompletedAt: at,
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
