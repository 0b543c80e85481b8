// Package migrations embute os scripts SQL do goose no binário.
package migrations

import "embed"

// FS contém todos os arquivos *.sql deste diretório.
//
//go:embed *.sql
var FS embed.FS
