package types

// Address is one shipping address in a user's address book.
type Address struct {
	Line1   string `json:"line1"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
	Default bool   `json:"default"`
}

// AddressList is stored as a jsonb column on the user row.
type AddressList []Address

// DefaultIndex returns the index of the default address, or -1 when none is set.
func (l AddressList) DefaultIndex() int {
	for i, addr := range l {
		if addr.Default {
			return i
		}
	}
	return -1
}

// Normalize enforces the default invariant: exactly one default entry when the
// list is non-empty, zero when it is empty. The first flagged entry wins; when
// none is flagged, index 0 becomes the default.
func (l AddressList) Normalize() AddressList {
	if len(l) == 0 {
		return l
	}
	def := l.DefaultIndex()
	if def < 0 {
		def = 0
	}
	for i := range l {
		l[i].Default = i == def
	}
	return l
}
