package email

import (
	"fmt"
	"html/template"
)

// Template names
const (
	TemplateTeamInvitation     = "team_invitation"
	TemplateInvitationResolved = "invitation_resolved"
	TemplateWorkItemAssigned   = "work_item_assigned"
	TemplateMeetingScheduled   = "meeting_scheduled"
)

const layoutStyle = `
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #1f6feb; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 24px; border-radius: 0 0 8px 8px; }
        .card { background: white; border-radius: 8px; padding: 16px; margin: 16px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .btn { display: inline-block; background: #1f6feb; color: white; padding: 12px 20px; text-decoration: none; border-radius: 6px; margin-top: 16px; }
        .footer { margin-top: 24px; font-size: 12px; color: #6b7280; text-align: center; }
    </style>`

// loadTemplates loads all email templates
func (s *Service) loadTemplates() {
	s.templates[TemplateTeamInvitation] = template.Must(template.New(TemplateTeamInvitation).Parse(`
<!DOCTYPE html>
<html>
<head>` + layoutStyle + `
</head>
<body>
<div class="container">
    <div class="header">
        <h2>You're invited to {{.TeamName}}</h2>
    </div>
    <div class="content">
        <p>Hello,</p>
        <p><strong>{{.InviterName}}</strong> invited you to join the team <strong>{{.TeamName}}</strong>{{if .Organization}} at {{.Organization}}{{end}}.</p>
        <a href="{{.InviteURL}}" class="btn">Review Invitation</a>
        <p style="margin-top: 16px; font-size: 14px; color: #6b7280;">
            This invitation expires after {{.ExpiresInDays}} days. If you were not expecting this email, you can ignore it.
        </p>
    </div>
    <div class="footer">You Lead</div>
</div>
</body>
</html>
`))

	s.templates[TemplateInvitationResolved] = template.Must(template.New(TemplateInvitationResolved).Parse(`
<!DOCTYPE html>
<html>
<head>` + layoutStyle + `
</head>
<body>
<div class="container">
    <div class="header">
        <h2>Invitation {{.Decision}}</h2>
    </div>
    <div class="content">
        <p>Hi {{.LeaderName}},</p>
        <p><strong>{{.InviteeEmail}}</strong> has {{.Decision}} the invitation to <strong>{{.TeamName}}</strong>.</p>
        <a href="{{.TeamURL}}" class="btn">Open Team</a>
    </div>
    <div class="footer">You Lead</div>
</div>
</body>
</html>
`))

	s.templates[TemplateWorkItemAssigned] = template.Must(template.New(TemplateWorkItemAssigned).Parse(`
<!DOCTYPE html>
<html>
<head>` + layoutStyle + `
</head>
<body>
<div class="container">
    <div class="header">
        <h2>New {{.Kind}} assigned</h2>
    </div>
    <div class="content">
        <p>Hi {{.AssigneeName}},</p>
        <p><strong>{{.AssignerName}}</strong> added you to a {{.Kind}}.</p>
        <div class="card">
            <h3>{{.Name}}</h3>
            {{if .Priority}}<p><strong>Priority:</strong> {{.Priority}}</p>{{end}}
            {{if .Deadline}}<p><strong>Deadline:</strong> {{.Deadline}}</p>{{end}}
            {{if .Description}}<p>{{.Description}}</p>{{end}}
        </div>
        <a href="{{.URL}}" class="btn">View {{.Kind}}</a>
    </div>
    <div class="footer">You Lead</div>
</div>
</body>
</html>
`))

	s.templates[TemplateMeetingScheduled] = template.Must(template.New(TemplateMeetingScheduled).Parse(`
<!DOCTYPE html>
<html>
<head>` + layoutStyle + `
</head>
<body>
<div class="container">
    <div class="header">
        <h2>📅 {{.Title}}</h2>
    </div>
    <div class="content">
        <p>Hi {{.AttendeeName}},</p>
        <p><strong>{{.OrganizerName}}</strong> scheduled a meeting for {{.TeamName}}.</p>
        <div class="card">
            <p><strong>When:</strong> {{.StartsAt}} ({{.DurationMinutes}} min)</p>
            {{if .Agenda}}<p><strong>Agenda:</strong><br/>{{.Agenda}}</p>{{end}}
        </div>
    </div>
    <div class="footer">You Lead</div>
</div>
</body>
</html>
`))
}

// ============================================
// Template Data
// ============================================

// TeamInvitationData holds data for team invitation email
type TeamInvitationData struct {
	InviterName   string
	TeamName      string
	Organization  string
	InviteURL     string
	ExpiresInDays int
}

// InvitationResolvedData is sent to the team leader when an invitee responds.
type InvitationResolvedData struct {
	LeaderName   string
	InviteeEmail string
	TeamName     string
	Decision     string
	TeamURL      string
}

// WorkItemAssignedData holds data for task and project assignment emails
type WorkItemAssignedData struct {
	Kind         string
	AssigneeName string
	AssignerName string
	Name         string
	Priority     string
	Deadline     string
	Description  string
	URL          string
}

// MeetingScheduledData holds data for meeting emails
type MeetingScheduledData struct {
	AttendeeName    string
	OrganizerName   string
	TeamName        string
	Title           string
	Agenda          string
	StartsAt        string
	DurationMinutes int
}

// Subject lines
func TeamInvitationSubject(d TeamInvitationData) string {
	return fmt.Sprintf("[You Lead] %s invited you to %s", d.InviterName, d.TeamName)
}

func InvitationResolvedSubject(d InvitationResolvedData) string {
	return fmt.Sprintf("[You Lead] %s %s your invitation", d.InviteeEmail, d.Decision)
}

func WorkItemAssignedSubject(d WorkItemAssignedData) string {
	return fmt.Sprintf("[You Lead] %s assigned: %s", d.Kind, d.Name)
}

func MeetingScheduledSubject(d MeetingScheduledData) string {
	return fmt.Sprintf("[You Lead] Meeting scheduled: %s", d.Title)
}
