package order

// View is an order decorated with the display fields the projections
// join in: vendor name and customer name/contact. Line snapshots are
// already part of the order itself and never re-read from the current
// pizza records.
type View struct {
	Order

	VendorName      string `json:"vendorName"`
	CustomerName    string `json:"customerName"`
	CustomerContact string `json:"customerContact,omitempty"`
}
