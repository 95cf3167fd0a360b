package notifier

import (
	"bytes"
	"html/template"
	"time"

	"github.com/NordCoder/Libra/internal/domain/notification"
)

const DefaultFrom = `"Library Management System" <noreply@library.com>`

// DateLayout renders dates the way en-US short dates look (M/D/YYYY).
const DateLayout = "1/2/2006"

type Recipient struct {
	Name  string
	Email string
}

type BookRef struct {
	Title  string
	Author string
}

var (
	dueReminderTmpl = template.Must(template.New("due_reminder").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <h2 style="color: #2c3e50;">📚 Library Book Due Date Reminder</h2>
    <div style="background: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
        <h3 style="color: #e74c3c; margin-top: 0;">Book Due Soon!</h3>
        <p><strong>Book:</strong> {{.Title}}</p>
        <p><strong>Author:</strong> {{.Author}}</p>
        <p><strong>Due Date:</strong> {{.DueDate}}</p>
    </div>
    <p>Please return or renew this book before the due date to avoid late fees.</p>
    <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee;">
        <p style="color: #7f8c8d; font-size: 0.9em;">
            Best regards,<br>
            Library Management System
        </p>
    </div>
</div>
`))

	overdueTmpl = template.Must(template.New("overdue").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <h2 style="color: #e74c3c;">⚠️ Overdue Book Notice</h2>
    <div style="background: #f8d7da; padding: 20px; border-radius: 8px; margin: 20px 0;">
        <h3 style="color: #721c24; margin-top: 0;">Book is Overdue!</h3>
        <p><strong>Book:</strong> {{.Title}}</p>
        <p><strong>Author:</strong> {{.Author}}</p>
        <p><strong>Due Date:</strong> {{.DueDate}}</p>
        <p><strong>Days Overdue:</strong> {{.DaysOverdue}}</p>
    </div>
    <p>Please return this book immediately to avoid accumulating late fees.</p>
    <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee;">
        <p style="color: #7f8c8d; font-size: 0.9em;">
            Library Management System
        </p>
    </div>
</div>
`))
)

type templateData struct {
	Title       string
	Author      string
	DueDate     string
	DaysOverdue int
}

// Renderer builds the two notice kinds. Output depends only on the arguments.
type Renderer struct {
	from string
}

func NewRenderer(from string) *Renderer {
	if from == "" {
		from = DefaultFrom
	}
	return &Renderer{from: from}
}

func (r *Renderer) RenderDueReminder(to Recipient, b BookRef, dueDate time.Time) notification.Message {
	return notification.Message{
		From:    r.from,
		To:      to.Email,
		Subject: "📚 Due Date Reminder: " + b.Title,
		HTML: execute(dueReminderTmpl, templateData{
			Title:   b.Title,
			Author:  b.Author,
			DueDate: dueDate.Format(DateLayout),
		}),
	}
}

func (r *Renderer) RenderOverdueNotice(to Recipient, b BookRef, dueDate time.Time, daysOverdue int) notification.Message {
	return notification.Message{
		From:    r.from,
		To:      to.Email,
		Subject: "⚠️ Overdue Book: " + b.Title,
		HTML: execute(overdueTmpl, templateData{
			Title:       b.Title,
			Author:      b.Author,
			DueDate:     dueDate.Format(DateLayout),
			DaysOverdue: daysOverdue,
		}),
	}
}

// execute only fails on a broken template, and both are parsed at init.
func execute(t *template.Template, data templateData) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		panic(err)
	}
	return buf.String()
}
