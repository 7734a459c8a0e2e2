package domain

// DepartmentRecord is a lookup-table row (no outbound foreign keys,
// imported before everything else).
type DepartmentRecord struct {
	ID   string `json:"id" db:"department_id"`
	Name string `json:"name" db:"department_name"`
}

func (d *DepartmentRecord) EntityType() EntityType { return EntityDepartment }
func (d *DepartmentRecord) Key() string            { return d.ID }

func (d *DepartmentRecord) Clone() Record {
	c := *d
	return &c
}
