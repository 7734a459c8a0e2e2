package domain

// DoctorRecord mirrors the doctors table. Department is free text (no FK);
// a blank department is defaulted during repair rather than rejected.
type DoctorRecord struct {
	ID             string   `json:"id" db:"doctor_id"`
	FullName       string   `json:"full_name" db:"full_name"`
	Department     string   `json:"department" db:"department"`
	Specialization string   `json:"specialization" db:"specialization"`
	Fee            *float64 `json:"fee" db:"fee"` // consultation fee, NOT NULL >= 0 in target
	Phone          string   `json:"phone" db:"phone"`
	Email          string   `json:"email" db:"email"`
	Active         bool     `json:"active" db:"active"`
}

func (d *DoctorRecord) EntityType() EntityType { return EntityDoctor }
func (d *DoctorRecord) Key() string            { return d.ID }

func (d *DoctorRecord) Clone() Record {
	c := *d
	if d.Fee != nil {
		fee := *d.Fee
		c.Fee = &fee
	}
	return &c
}
