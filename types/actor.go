package types

import "strconv"

// Actor is the authenticated user behind a request.
type Actor struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Role int    `json:"role"`
}

// Label is what audit rows and OOO entries record as the acting user.
func (a Actor) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return "user-" + strconv.FormatUint(uint64(a.ID), 10)
}
