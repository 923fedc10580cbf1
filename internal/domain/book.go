package domain

// Book is a catalog record. It is never mutated once loaded.
type Book struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating"`
	Pages       int     `json:"pages"`
	Description string  `json:"description"`
}
