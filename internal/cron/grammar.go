package cron

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Field expressions are tokenized before names are mapped onto numbers, so a
// name can never match inside another token.
var (
	fieldLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Number", Pattern: `[0-9]+`},
		{Name: "Name", Pattern: `[A-Za-z]+`},
		{Name: "Punct", Pattern: `[-*,/]`},
	})

	fieldParser = participle.MustBuild[fieldExpr](
		participle.Lexer(fieldLexer),
	)
)

// Numbers are captured as text and converted in base 10, so zero padded
// values like "08" are accepted.
type fieldExpr struct {
	Terms []*fieldTerm `parser:"@@ ( ',' @@ )*"`
}

type fieldTerm struct {
	Wildcard bool        `parser:"( @'*'"`
	Start    *fieldValue `parser:"| @@"`
	End      *fieldValue `parser:"  ( '-' @@ )? )"`
	Step     *string     `parser:"( '/' @Number )?"`
}

type fieldValue struct {
	Number *string `parser:"  @Number"`
	Name   *string `parser:"| @Name"`
}
