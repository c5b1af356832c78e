package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dot5enko/simple-hash-db/dberr"
	"github.com/dot5enko/simple-hash-db/schema"
)

var (
	stringLiteral  = regexp.MustCompile(`^"([^"]*)"$`)
	integerLiteral = regexp.MustCompile(`^[+-]?\d+$`)
	leadingZero    = regexp.MustCompile(`^[+-]?0\d+$`)
	booleanLiteral = regexp.MustCompile(`(?i)^(true|false)$`)
	nullLiteral    = regexp.MustCompile(`(?i)^null$`)
	identOnly      = regexp.MustCompile(`(?i)^` + identifier + `$`)
)

// parseLiteral types a literal by its shape: quoted string, integer,
// true/false or null.
func parseLiteral(text string) (schema.Value, error) {
	text = strings.TrimSpace(text)

	switch {
	case stringLiteral.MatchString(text):
		s := stringLiteral.FindStringSubmatch(text)[1]
		if len(s) > schema.MaxStringBytes {
			return schema.Null, fmt.Errorf("%w: string of %d bytes, max %d", dberr.ErrMalformedRow, len(s), schema.MaxStringBytes)
		}
		return schema.String(s), nil

	case integerLiteral.MatchString(text):
		if leadingZero.MatchString(text) {
			return schema.Null, fmt.Errorf("%w: integer `%s` starts with 0", dberr.ErrMalformedRow, text)
		}
		i, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return schema.Null, fmt.Errorf("%w: integer `%s` out of range", dberr.ErrMalformedRow, text)
		}
		return schema.Integer(int32(i)), nil

	case booleanLiteral.MatchString(text):
		return schema.Boolean(strings.EqualFold(text, "true")), nil

	case nullLiteral.MatchString(text):
		return schema.Null, nil
	}

	return schema.Null, fmt.Errorf("%w: cannot determine the type of `%s`", ErrSyntax, text)
}

// splitList splits on commas outside double quotes and trims every item.
func splitList(text string) []string {
	var (
		items   []string
		current strings.Builder
		quoted  bool
	)

	for _, r := range text {
		switch {
		case r == '"':
			quoted = !quoted
			current.WriteRune(r)
		case r == ',' && !quoted:
			items = append(items, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	return append(items, strings.TrimSpace(current.String()))
}
