package app

// CreateOrderRequest is the input for creating a new order in one call.
type CreateOrderRequest struct {
	CustomerID int64            `json:"knr"`
	OrderDate  string           `json:"ordredato"` // YYYY-MM-DD
	Lines      []OrderLineInput `json:"linjer"`
}

// OrderLineInput is a single line within a CreateOrderRequest. The unit price
// is always the item's current catalogue price.
type OrderLineInput struct {
	ItemID   string `json:"vnr"`
	Quantity int    `json:"antall"`
}

// SaveItemRequest creates or updates a catalogue item.
type SaveItemRequest struct {
	ItemID      string `json:"vnr"`
	Description string `json:"betegnelse"`
	UnitPrice   string `json:"pris"` // decimal string, comma or point
	InStock     int    `json:"antall"`
	Create      bool   `json:"-"`
}

// SaveCustomerRequest creates (ID == 0) or updates a customer.
type SaveCustomerRequest struct {
	ID         int64  `json:"knr,omitempty"`
	FirstName  string `json:"fornavn"`
	LastName   string `json:"etternavn"`
	Address    string `json:"adresse"`
	PostalCode string `json:"postnr"`
	Phone      string `json:"telefon,omitempty"`
	Email      string `json:"epost,omitempty"`
}
