package domain

type OrderItem struct {
	Name      string
	Price     float64
	Quantity  int
	Modifiers *string
}
