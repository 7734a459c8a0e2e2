package domain

// BedRecord mirrors the beds table. BedNumber is the natural key (unique
// in both stores). PatientID is the occupying patient and nullable: a bed
// whose occupant cannot be resolved is imported vacant, not dropped.
type BedRecord struct {
	BedNumber  string   `json:"bed_number" db:"bed_number"`
	Department string   `json:"department" db:"department"`
	RoomType   string   `json:"room_type" db:"room_type"`
	Status     string   `json:"status" db:"status"`
	PatientID  *string  `json:"patient_id" db:"patient_id"`
	DailyRate  *float64 `json:"daily_rate" db:"daily_rate"` // NOT NULL >= 0 in target
}

func (b *BedRecord) EntityType() EntityType { return EntityBed }
func (b *BedRecord) Key() string            { return b.BedNumber }

func (b *BedRecord) Clone() Record {
	c := *b
	if b.PatientID != nil {
		id := *b.PatientID
		c.PatientID = &id
	}
	if b.DailyRate != nil {
		rate := *b.DailyRate
		c.DailyRate = &rate
	}
	return &c
}
