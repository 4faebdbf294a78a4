package domain

// WorkRecord is one row of billable work from the works feed
type WorkRecord struct {
	Date        string     `json:"date"`
	Client      string     `json:"client"`
	Description string     `json:"description"`
	Price       float64    `json:"price" validate:"gte=0"`
	Status      WorkStatus `json:"status" validate:"oneof=Paid Pending"`
}

// WorkStatus is the payment classification derived from the note column
type WorkStatus string

const (
	WorkStatusPaid    WorkStatus = "Paid"
	WorkStatusPending WorkStatus = "Pending"
)

// IsPaid reports whether the record has been settled
func (w WorkRecord) IsPaid() bool {
	return w.Status == WorkStatusPaid
}
