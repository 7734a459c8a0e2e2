package domain

// TransactionRecord mirrors the transactions table. PatientID is NOT NULL
// in the target: a financial record must never float detached from a
// patient, so an unresolvable patient reference rejects the record.
// DoctorID is optional attribution and nullable.
type TransactionRecord struct {
	ID              string   `json:"id" db:"transaction_id"`
	PatientID       string   `json:"patient_id" db:"patient_id"`
	DoctorID        *string  `json:"doctor_id" db:"doctor_id"`
	TransactionType string   `json:"transaction_type" db:"transaction_type"`
	PaymentMode     string   `json:"payment_mode" db:"payment_mode"`
	Amount          *float64 `json:"amount" db:"amount"` // NOT NULL >= 0 in target
	Department      string   `json:"department" db:"department"`
	TransactionDate *string  `json:"transaction_date" db:"transaction_date"` // ISO date, nullable
}

func (t *TransactionRecord) EntityType() EntityType { return EntityTransaction }
func (t *TransactionRecord) Key() string            { return t.ID }

func (t *TransactionRecord) Clone() Record {
	c := *t
	if t.DoctorID != nil {
		id := *t.DoctorID
		c.DoctorID = &id
	}
	if t.Amount != nil {
		amount := *t.Amount
		c.Amount = &amount
	}
	if t.TransactionDate != nil {
		date := *t.TransactionDate
		c.TransactionDate = &date
	}
	return &c
}
