// Package cssrules approximates the CSS cascade for contrast and layout checks.
//
// Two sources are understood: rules declared in <style> blocks, reduced to
// the first color and background per block (Extract), and inline style
// attributes, tokenized into ordered declarations (ParseDeclarations).
// Neither handles specificity, inheritance or external stylesheets.
package cssrules
