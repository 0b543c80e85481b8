package domain

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page são os parâmetros de paginação aceitos pelas listagens.
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize aplica padrões e o limite máximo.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset é o deslocamento SQL da página.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}
