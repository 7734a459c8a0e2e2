package domain

// PatientRecord mirrors the patients table. PatientCode is the external
// code shown on printed forms; ID is the migration key.
type PatientRecord struct {
	ID             string `json:"id" db:"patient_id"`
	PatientCode    string `json:"patient_code" db:"patient_code"`
	FullName       string `json:"full_name" db:"full_name"`
	Age            *int   `json:"age" db:"age"` // valid range 0-120
	Gender         string `json:"gender" db:"gender"`
	Phone          string `json:"phone" db:"phone"`
	Address        string `json:"address" db:"address"`
	MedicalHistory string `json:"medical_history" db:"medical_history"`
	Active         bool   `json:"active" db:"active"`
}

func (p *PatientRecord) EntityType() EntityType { return EntityPatient }
func (p *PatientRecord) Key() string            { return p.ID }

func (p *PatientRecord) Clone() Record {
	c := *p
	if p.Age != nil {
		age := *p.Age
		c.Age = &age
	}
	return &c
}
