package entity

// Player is one seat in a room. ID is the transport-assigned connection id.
type Player struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
}
