package roster

// Entry is one delegate row of a roster CSV.
type Entry struct {
	Line     int    `json:"line"`
	Name     string `json:"name"`
	RoleUnit string `json:"role_unit"`
	Message  string `json:"message"`
	// Photo is resolved against the CSV's directory; empty means no avatar.
	Photo string `json:"photo"`
}
