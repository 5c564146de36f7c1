package transformer

// Column maps one output column to the competitor attribute it is read from.
type Column struct {
	// Header is the CSV header cell.
	Header string
	// Source is the competitor attribute name in the entry document.
	Source string
	// SQLName is the column name used by table sinks.
	SQLName string
}

// SailNoAttr identifies a real registrant. Records without it are unused
// placeholder slots and are not exported.
const SailNoAttr = "compsailno"

// NumColumns is the width of every exported row.
const NumColumns = 12

// columns is the export schema. Order is the output column order.
var columns = [NumColumns]Column{
	{Header: "SailNo", Source: SailNoAttr, SQLName: "sail_no"},
	{Header: "Class", Source: "compclass", SQLName: "class"},
	{Header: "Fleet", Source: "compdivision", SQLName: "fleet"},
	{Header: "Helm", Source: "comphelmname", SQLName: "helm"},
	{Header: "PY", Source: "comprating", SQLName: "py"},
	{Header: "Nationality", Source: "compnat", SQLName: "nationality"},
	{Header: "Medical", Source: "compmedical", SQLName: "medical"},
	{Header: "Medical Flag", Source: "compmedicalflag", SQLName: "medical_flag"},
	{Header: "Age Group", Source: "comphelmagegroup", SQLName: "age_group"},
	{Header: "Email", Source: "comphelmemail", SQLName: "email"},
	{Header: "Sex", Source: "comphelmsex", SQLName: "sex"},
	{Header: "Photo Path", Source: "comphelmphoto", SQLName: "photo_path"},
}

// Columns returns a copy of the export schema.
func Columns() []Column {
	out := make([]Column, NumColumns)
	copy(out, columns[:])
	return out
}

// Headers returns the CSV header row.
func Headers() []string {
	out := make([]string, NumColumns)
	for i, c := range columns {
		out[i] = c.Header
	}
	return out
}

// SQLColumns returns the table sink column names in output order.
func SQLColumns() []string {
	out := make([]string, NumColumns)
	for i, c := range columns {
		out[i] = c.SQLName
	}
	return out
}
