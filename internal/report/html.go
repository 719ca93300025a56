package report

import (
	"bytes"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// HTML renders r as an HTML fragment. Generated text is escaped; raw HTML
// in tool names or highlights is not passed through.
func HTML(r *Report) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(r)), &buf); err != nil {
		return "", eris.Wrap(err, "report: render html")
	}
	return buf.String(), nil
}

// EmailHTML renders r as a complete HTML document for an email body.
func EmailHTML(r *Report) (string, error) {
	body, err := HTML(r)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n%s</body>\n</html>\n", Title, body), nil
}
