package records

// SampleDataset returns the built-in seven-row customer batch. Rows 1 and 5
// conform after normalization; every other row carries at least one defect.
func SampleDataset() Dataset {
	return Dataset{
		Columns: []string{FieldCustomerID, FieldName, FieldEmail, FieldCountry},
		Rows: []Record{
			{FieldCustomerID: int64(1), FieldName: "Alice", FieldEmail: "alice@example.com", FieldCountry: "UK"},
			{FieldCustomerID: int64(2), FieldName: "Bob", FieldEmail: "bobexample.com", FieldCountry: "FR"},
			{FieldCustomerID: nil, FieldName: "David", FieldEmail: "david@example.com", FieldCountry: "UK"},
			{FieldCustomerID: int64(4), FieldName: nil, FieldEmail: nil, FieldCountry: "UK"},
			{FieldCustomerID: int64(5), FieldName: "Eve", FieldEmail: "eve@example.com", FieldCountry: "US "},
			{FieldCustomerID: int64(6), FieldName: "", FieldEmail: "john_email", FieldCountry: " CA"},
			{FieldCustomerID: int64(7), FieldName: "Mary", FieldEmail: "", FieldCountry: "USA"},
		},
	}
}
