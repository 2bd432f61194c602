package order

import "github.com/google/uuid"

// QueryOrdersModel represents filter parameters for querying orders.
// Results are always newest first.
type QueryOrdersModel struct {
	IDs         []uuid.UUID `json:"ids,omitempty"`
	CustomerIDs []uuid.UUID `json:"customerIds,omitempty"`
	VendorIDs   []uuid.UUID `json:"vendorIds,omitempty"`
	Statuses    []Status    `json:"statuses,omitempty"`
	Search      string      `json:"search,omitempty"`
	Limit       int         `json:"limit,omitempty"`
	Offset      int         `json:"offset,omitempty"`
}
