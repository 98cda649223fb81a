package models

// Account is a chart-of-accounts entry as served by /accounting/accounts/.
type Account struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Type     string `json:"account_type"`
	Currency string `json:"currency,omitempty"`
	Balance  string `json:"balance,omitempty"`
	IsActive bool   `json:"is_active"`
}

// NewAccount is the payload for creating an account.
type NewAccount struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Type     string `json:"account_type"`
	Currency string `json:"currency,omitempty"`
}

// Statement describes an uploaded bank statement file.
type Statement struct {
	ID        string `json:"id"`
	AccountID string `json:"account"`
	FileName  string `json:"file_name"`
	Status    string `json:"status"`
}
