// Package channels implements the external delivery collaborators the
// dispatcher routes to: SMTP email, SMS through an email-to-carrier
// gateway, and desktop notifications.
package channels
