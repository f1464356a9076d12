package email

import (
	"fmt"
	"html/template"
	"strings"
)

var filledFormTmpl = template.Must(template.New("filled-form").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
	<h2>Your form is ready</h2>
	<p>Hi {{.Name}},</p>
	<p>We finished filling out <strong>{{.FormName}}</strong> for you.
	The completed document is available at the link below:</p>
	<p><a href="{{.URL}}">Download {{.FormName}}</a></p>
	<p>The link expires after a short period. You can always find your
	filled forms on your dashboard.</p>
</body>
</html>
`))

// FilledFormMessage builds the notification sent after a form has been
// filled and uploaded. The URL is typically a presigned download link.
func FilledFormMessage(to, name, formName, url string) (Message, error) {
	var sb strings.Builder
	data := struct {
		Name     string
		FormName string
		URL      string
	}{Name: name, FormName: formName, URL: url}
	if err := filledFormTmpl.Execute(&sb, data); err != nil {
		return Message{}, fmt.Errorf("%w: render body: %v", ErrInvalidMessage, err)
	}
	return Message{
		To:       to,
		Subject:  fmt.Sprintf("Your filled form: %s", formName),
		BodyHTML: sb.String(),
		Tag:      "filled-form",
	}, nil
}
