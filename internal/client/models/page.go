package models

// Page is the envelope every list endpoint returns.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether another page can be fetched.
func (p Page[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}
