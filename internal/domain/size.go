package domain

import "strings"

// NormalizeSize reduz um tamanho à sua forma canônica: sem espaços nas bordas e em
// minúsculas. Nulo e vazio viram "", o bucket "sem tamanho".
func NormalizeSize(size string) string {
	return strings.ToLower(strings.TrimSpace(size))
}
