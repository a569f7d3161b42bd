// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// WaitlistEmailData holds data for the waitlist slot-open email.
type WaitlistEmailData struct {
	SiteName    string
	DisplayName string
	Category    string
	ExploreLink string
}

// BuildWaitlistEmail creates the notification sent when a category the
// user is waiting on frees a group slot.
func BuildWaitlistEmail(data WaitlistEmailData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("A %s group slot just opened up", data.Category),
		TextBody: buildWaitlistText(data),
		HTMLBody: buildWaitlistHTML(data),
	}
}

func buildWaitlistText(data WaitlistEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.DisplayName))
	buf.WriteString(fmt.Sprintf("A group slot just opened up in %s on %s.\n", data.Category, data.SiteName))
	buf.WriteString("Slots go fast, so head back to the app if you still want to start a group:\n")
	buf.WriteString(data.ExploreLink + "\n\n")
	buf.WriteString("You received this because you joined the waitlist for this category.\n")
	return buf.String()
}

func buildWaitlistHTML(data WaitlistEmailData) string {
	tmpl := template.Must(template.New("waitlist").Parse(waitlistHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const waitlistHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Slot Open</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.DisplayName}}, a group slot just opened up in
                <strong>{{.Category}}</strong>.
              </p>

              <p style="margin: 0 0 24px; font-size: 14px; color: #6b7280; text-align: center;">
                Slots go fast. Head back to the app if you still want to start a group:
              </p>

              <!-- Button -->
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.ExploreLink}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      Open {{.SiteName}}
                    </a>
                  </td>
                </tr>
              </table>
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                You received this because you joined the waitlist for this category.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
