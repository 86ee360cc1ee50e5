package cssrules

import (
	"strings"

	"github.com/gorilla/css/scanner"

	"github.com/nao1215/a11yscan/internal/color"
)

// Declaration is one "property: value" pair.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Declarations is an ordered list of declarations as written.
type Declarations []Declaration

// ParseDeclarations tokenizes a declaration list such as the contents of a
// style attribute. Property names are lower-cased; values keep their case
// with whitespace collapsed. Malformed declarations are skipped.
func ParseDeclarations(style string) Declarations {
	var (
		result   Declarations
		property string
		value    strings.Builder
		inValue  bool
		depth    int
	)

	flush := func() {
		if property != "" && inValue {
			v := strings.TrimSpace(value.String())
			important := false
			if i := strings.Index(strings.ToLower(v), "!important"); i >= 0 {
				important = true
				v = strings.TrimSpace(v[:i])
			}
			if v != "" {
				result = append(result, Declaration{Property: property, Value: v, Important: important})
			}
		}
		property = ""
		value.Reset()
		inValue = false
		depth = 0
	}

	s := scanner.New(style)
	for {
		tok := s.Next()
		if tok.Type == scanner.TokenEOF || tok.Type == scanner.TokenError {
			break
		}

		if !inValue {
			switch tok.Type {
			case scanner.TokenIdent:
				if property == "" {
					property = strings.ToLower(tok.Value)
				}
			case scanner.TokenChar:
				switch tok.Value {
				case ":":
					if property != "" {
						inValue = true
					}
				case ";":
					flush()
				}
			}
			continue
		}

		switch tok.Type {
		case scanner.TokenComment:
			continue
		case scanner.TokenS:
			if value.Len() > 0 {
				value.WriteByte(' ')
			}
			continue
		case scanner.TokenFunction:
			depth++
		case scanner.TokenChar:
			switch tok.Value {
			case ";":
				if depth == 0 {
					flush()
					continue
				}
			case ")":
				if depth > 0 {
					depth--
				}
			}
		}
		value.WriteString(tok.Value)
	}
	flush()

	return result
}

// Get returns the value of the last declaration of property. Later
// declarations override earlier ones, as in a browser.
func (d Declarations) Get(property string) (string, bool) {
	property = strings.ToLower(property)
	for i := len(d) - 1; i >= 0; i-- {
		if d[i].Property == property {
			return d[i].Value, true
		}
	}
	return "", false
}

// Has reports whether property is declared.
func (d Declarations) Has(property string) bool {
	_, ok := d.Get(property)
	return ok
}

// Color returns the declared text color, if any.
func (d Declarations) Color() (string, bool) {
	v, ok := d.Get("color")
	if !ok {
		return "", false
	}
	return FirstColor(v)
}

// Background returns the color from background-color or the background
// shorthand, whichever is declared last.
func (d Declarations) Background() (string, bool) {
	for i := len(d) - 1; i >= 0; i-- {
		if d[i].Property == "background-color" || d[i].Property == "background" {
			if c, ok := FirstColor(d[i].Value); ok {
				return c, true
			}
		}
	}
	return "", false
}

// FirstColor returns the first color component of a property value, such
// as "#fff" in "url(bg.png) #fff no-repeat".
func FirstColor(value string) (string, bool) {
	if _, err := color.Parse(value); err == nil {
		return strings.TrimSpace(value), true
	}

	s := scanner.New(value)
	for {
		tok := s.Next()
		switch tok.Type {
		case scanner.TokenEOF, scanner.TokenError:
			return "", false
		case scanner.TokenHash, scanner.TokenIdent:
			if _, err := color.Parse(tok.Value); err == nil {
				return tok.Value, true
			}
		case scanner.TokenFunction:
			name := strings.ToLower(tok.Value)
			if name != "rgb(" && name != "rgba(" {
				continue
			}
			var b strings.Builder
			b.WriteString(tok.Value)
			for {
				next := s.Next()
				if next.Type == scanner.TokenEOF || next.Type == scanner.TokenError {
					return "", false
				}
				b.WriteString(next.Value)
				if next.Type == scanner.TokenChar && next.Value == ")" {
					break
				}
			}
			if _, err := color.Parse(b.String()); err == nil {
				return b.String(), true
			}
		}
	}
}
